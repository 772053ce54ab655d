package narrative

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/evcraddock/tax-appeal/internal/db"
	"github.com/evcraddock/tax-appeal/internal/valuation"
)

type mockMessager struct {
	text   string
	err    error
	calls  int
	params anthropic.MessageNewParams
}

func (m *mockMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	m.calls++
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: m.text}},
	}, nil
}

func withMock(t *testing.T, m *mockMessager) {
	t.Helper()
	orig := newAnthropicClient
	newAnthropicClient = func(string) AnthropicMessager { return m }
	t.Cleanup(func() { newAnthropicClient = orig })
}

func testCache(t *testing.T) (*Cache, int64) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	res, err := d.Exec(`INSERT INTO properties (address) VALUES (?)`, "12 Elm St")
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return NewCache(d), id
}

func sampleRequest(propertyID int64) Request {
	w := valuation.NewWorkup(valuation.SubjectProperty{
		SquareFootage:     1800,
		YearBuilt:         1995,
		CurrentAssessment: 420000,
	})
	w.Sales.AverageValue = 380000
	w.Cost.DepreciatedValue = 390000
	w.Income.RecommendedValue = 370000
	w.FinalValueEstimate = 380000
	w.ProposedAssessment = 380000
	w.PotentialSavings = 40000
	w.ConfidenceLevel = 82
	return Request{
		PropertyID: propertyID,
		Address:    "12 Elm St",
		Workup:     w,
		Evidence:   []string{"Foundation crack documented by inspector"},
	}
}

func TestGenerateWithoutKeyIsSynthetic(t *testing.T) {
	g := NewGenerator("", "", nil)
	n := g.Generate(context.Background(), sampleRequest(1))

	if !n.Synthetic {
		t.Error("expected synthetic narrative")
	}
	if !strings.Contains(n.Text, "$380,000") {
		t.Errorf("fallback missing proposed assessment: %q", n.Text)
	}
	if !strings.Contains(n.Text, "Foundation crack") {
		t.Error("fallback missing evidence")
	}
	if g.ModelName() != DefaultModel {
		t.Errorf("model = %q, want %q", g.ModelName(), DefaultModel)
	}
}

func TestGenerateUsesLLM(t *testing.T) {
	m := &mockMessager{text: "  The board should reduce the assessment.  "}
	withMock(t, m)

	g := NewGenerator("sk-test", "claude-test", nil)
	n := g.Generate(context.Background(), sampleRequest(1))

	if n.Synthetic {
		t.Error("expected LLM narrative")
	}
	if n.Text != "The board should reduce the assessment." {
		t.Errorf("text = %q", n.Text)
	}
	if string(m.params.Model) != "claude-test" {
		t.Errorf("model = %q", m.params.Model)
	}
	if len(m.params.System) != 1 || m.params.System[0].Text != systemPrompt {
		t.Error("system prompt not sent")
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	tests := []struct {
		name string
		mock *mockMessager
	}{
		{"api error", &mockMessager{err: errors.New("rate limited")}},
		{"empty response", &mockMessager{text: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withMock(t, tt.mock)
			n := NewGenerator("sk-test", "", nil).Generate(context.Background(), sampleRequest(1))
			if !n.Synthetic {
				t.Error("expected synthetic fallback")
			}
			if tt.mock.calls != 1 {
				t.Errorf("calls = %d, want 1", tt.mock.calls)
			}
		})
	}
}

func TestGenerateCachesLLMNarratives(t *testing.T) {
	cache, propID := testCache(t)
	m := &mockMessager{text: "Cached narrative."}
	withMock(t, m)

	g := NewGenerator("sk-test", "", cache)
	req := sampleRequest(propID)

	first := g.Generate(context.Background(), req)
	if first.Cached {
		t.Error("first narrative should not be cached")
	}

	second := g.Generate(context.Background(), req)
	if !second.Cached {
		t.Error("second narrative should come from cache")
	}
	if second.Text != "Cached narrative." {
		t.Errorf("text = %q", second.Text)
	}
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1", m.calls)
	}

	// A changed workup changes the prompt and misses the cache.
	req.Workup.ProposedAssessment = 375000
	g.Generate(context.Background(), req)
	if m.calls != 2 {
		t.Errorf("calls = %d, want 2", m.calls)
	}
}

func TestGenerateDoesNotCacheFallback(t *testing.T) {
	cache, propID := testCache(t)
	m := &mockMessager{err: errors.New("unavailable")}
	withMock(t, m)

	g := NewGenerator("sk-test", "", cache)
	req := sampleRequest(propID)
	g.Generate(context.Background(), req)
	g.Generate(context.Background(), req)

	if m.calls != 2 {
		t.Errorf("calls = %d, want 2", m.calls)
	}
}

func TestPromptVersion(t *testing.T) {
	a := PromptVersion(Prompt(sampleRequest(1)))
	b := PromptVersion(Prompt(sampleRequest(1)))
	if a != b {
		t.Errorf("version not stable: %q != %q", a, b)
	}
	if !strings.HasPrefix(a, PromptTemplateVersion+"-") {
		t.Errorf("version %q missing template prefix", a)
	}

	req := sampleRequest(1)
	req.Evidence = nil
	if PromptVersion(Prompt(req)) == a {
		t.Error("different prompt produced same version")
	}
}
