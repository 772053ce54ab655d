package workup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/telemetry"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

// Service applies edits to a property's appeal session. Every edit loads the
// session, changes one input, recomputes the whole workup and saves it.
type Service struct {
	repo       *Repository
	properties *property.Repository
	opts       valuation.Options
	now        func() time.Time
	tracer     trace.Tracer
}

// NewService creates a workup service.
func NewService(repo *Repository, properties *property.Repository, opts valuation.Options) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		opts:       opts,
		now:        time.Now,
		tracer:     telemetry.Tracer("github.com/evcraddock/tax-appeal/internal/workup"),
	}
}

// SetClock replaces the time source used to age comparable sales.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Options returns the reconciliation options in effect.
func (s *Service) Options() valuation.Options {
	return s.opts
}

// Start opens a fresh session for a property, discarding any earlier one.
func (s *Service) Start(ctx context.Context, propertyID int64) (workflow.Session, error) {
	_, span := s.startSpan(ctx, "workup.Start", propertyID)
	defer span.End()

	p, err := s.properties.GetByID(propertyID)
	if err != nil {
		return s.fail(span, err)
	}

	session := workflow.NewSession().Start(propertyID, p.Subject())
	session.Workup = valuation.Recompute(session.Workup, s.opts, s.now())
	if err := s.repo.Save(propertyID, session); err != nil {
		return s.fail(span, err)
	}

	slog.Info("appeal started", "property_id", propertyID, "stage", session.Controller.Stage)
	return session, nil
}

// Get returns the current session for a property.
func (s *Service) Get(ctx context.Context, propertyID int64) (workflow.Session, error) {
	return s.repo.Get(propertyID)
}

// Reset discards the session for a property.
func (s *Service) Reset(ctx context.Context, propertyID int64) error {
	_, span := s.startSpan(ctx, "workup.Reset", propertyID)
	defer span.End()

	if err := s.repo.Delete(propertyID); err != nil {
		_, err = s.fail(span, err)
		return err
	}
	slog.Info("appeal reset", "property_id", propertyID)
	return nil
}

// AddComparable adds a comparable sale. A comparable without an ID is given
// a new one; an ID already present replaces that comparable.
func (s *Service) AddComparable(ctx context.Context, propertyID int64, c valuation.Comparable) (workflow.Session, error) {
	if err := validateComparable(c); err != nil {
		return workflow.Session{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return s.mutate(ctx, "workup.AddComparable", propertyID, func(sess *workflow.Session) error {
		sess.Workup = sess.Workup.WithComparable(c)
		return nil
	})
}

// UpdateComparable replaces an existing comparable.
func (s *Service) UpdateComparable(ctx context.Context, propertyID int64, c valuation.Comparable) (workflow.Session, error) {
	if err := validateComparable(c); err != nil {
		return workflow.Session{}, err
	}
	return s.mutate(ctx, "workup.UpdateComparable", propertyID, func(sess *workflow.Session) error {
		if _, ok := sess.Workup.Comparable(c.ID); !ok {
			return fmt.Errorf("%w: %s", ErrComparableNotFound, c.ID)
		}
		sess.Workup = sess.Workup.WithComparable(c)
		return nil
	})
}

// RemoveComparable drops a comparable by ID.
func (s *Service) RemoveComparable(ctx context.Context, propertyID int64, comparableID string) (workflow.Session, error) {
	return s.mutate(ctx, "workup.RemoveComparable", propertyID, func(sess *workflow.Session) error {
		w, ok := sess.Workup.WithoutComparable(comparableID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrComparableNotFound, comparableID)
		}
		sess.Workup = w
		return nil
	})
}

// ImportComparables adds many comparables in one recompute. Nothing is
// added if any of them is invalid.
func (s *Service) ImportComparables(ctx context.Context, propertyID int64, comps []valuation.Comparable) (workflow.Session, error) {
	for i, c := range comps {
		if err := validateComparable(c); err != nil {
			return workflow.Session{}, fmt.Errorf("comparable %d: %w", i+1, err)
		}
	}
	return s.mutate(ctx, "workup.ImportComparables", propertyID, func(sess *workflow.Session) error {
		for _, c := range comps {
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			sess.Workup = sess.Workup.WithComparable(c)
		}
		return nil
	})
}

// SetCost replaces the cost approach inputs.
func (s *Service) SetCost(ctx context.Context, propertyID int64, d valuation.CostApproachData) (workflow.Session, error) {
	if err := validateCost(d); err != nil {
		return workflow.Session{}, err
	}
	return s.mutate(ctx, "workup.SetCost", propertyID, func(sess *workflow.Session) error {
		sess.Workup.Cost = d
		return nil
	})
}

// SetIncome replaces the income approach inputs.
func (s *Service) SetIncome(ctx context.Context, propertyID int64, d valuation.IncomeApproachData) (workflow.Session, error) {
	if err := validateIncome(d); err != nil {
		return workflow.Session{}, err
	}
	return s.mutate(ctx, "workup.SetIncome", propertyID, func(sess *workflow.Session) error {
		sess.Workup.Income = d
		return nil
	})
}

// SetWeight sets one approach weight and splits the rest evenly.
func (s *Service) SetWeight(ctx context.Context, propertyID int64, a valuation.Approach, value float64) (workflow.Session, error) {
	return s.mutate(ctx, "workup.SetWeight", propertyID, func(sess *workflow.Session) error {
		w, err := sess.Workup.Weights.Set(a, value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		sess.Workup.Weights = w
		return nil
	})
}

// SetStage moves the session to another workflow stage.
func (s *Service) SetStage(ctx context.Context, propertyID int64, stage workflow.Stage) (workflow.Session, error) {
	return s.mutate(ctx, "workup.SetStage", propertyID, func(sess *workflow.Session) error {
		c, err := sess.Controller.GoTo(stage)
		if err != nil {
			return err
		}
		sess.Controller = c
		return nil
	})
}

// mutate loads the session, refreshes the subject from its property record,
// applies fn, recomputes and saves.
func (s *Service) mutate(ctx context.Context, op string, propertyID int64, fn func(*workflow.Session) error) (workflow.Session, error) {
	_, span := s.startSpan(ctx, op, propertyID)
	defer span.End()

	session, err := s.repo.Get(propertyID)
	if err != nil {
		return s.fail(span, err)
	}
	p, err := s.properties.GetByID(propertyID)
	if err != nil {
		return s.fail(span, err)
	}
	session.Workup.Subject = p.Subject()

	if err := fn(&session); err != nil {
		return s.fail(span, err)
	}

	session.Workup = valuation.Recompute(session.Workup, s.opts, s.now())
	if err := s.repo.Save(propertyID, session); err != nil {
		return s.fail(span, err)
	}

	span.SetAttributes(
		attribute.Float64("final_value", session.Workup.FinalValueEstimate),
		attribute.Float64("confidence", session.Workup.ConfidenceLevel),
	)
	slog.Debug("workup recomputed",
		"op", op,
		"property_id", propertyID,
		"stage", session.Controller.Stage,
		"final_value", session.Workup.FinalValueEstimate,
		"confidence", session.Workup.ConfidenceLevel,
	)
	return session, nil
}

func (s *Service) startSpan(ctx context.Context, op string, propertyID int64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("property_id", propertyID)))
}

func (s *Service) fail(span trace.Span, err error) (workflow.Session, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return workflow.Session{}, err
}
