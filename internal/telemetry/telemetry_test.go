package telemetry

import (
	"context"
	"testing"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Setup(ctx, "", "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, span := Tracer("telemetry-test").Start(ctx, "probe")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span from the sdk provider")
	}
	span.End()

	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetupWithEndpoint(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Setup(ctx, "http://127.0.0.1:4318", "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	// Nothing was exported, so shutdown has nothing to flush.
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
