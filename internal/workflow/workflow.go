// Package workflow models the appeal stages a property moves through.
//
// A Controller is a plain value. Transitions return a new Controller and
// never touch package state, so callers own where the current stage lives.
package workflow

import (
	"errors"
	"fmt"
)

// Stage is one step of the appeal workflow.
type Stage string

const (
	StageSelection      Stage = "selection"
	StageSales          Stage = "sales"
	StageCost           Stage = "cost"
	StageIncome         Stage = "income"
	StageReconciliation Stage = "reconciliation"
	StageEvidence       Stage = "evidence"
	StageReview         Stage = "review"
)

// Stages lists every stage in order.
var Stages = []Stage{
	StageSelection,
	StageSales,
	StageCost,
	StageIncome,
	StageReconciliation,
	StageEvidence,
	StageReview,
}

var (
	// ErrLocked is returned when moving past Selection before a property
	// has been chosen.
	ErrLocked = errors.New("select a property first")
	// ErrUnknownStage is returned for a stage name outside Stages.
	ErrUnknownStage = errors.New("unknown stage")
)

// ParseStage converts a name into a Stage.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

func (s Stage) index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Controller is the workflow position for one appeal.
type Controller struct {
	Stage      Stage `json:"stage"`
	Unlocked   bool  `json:"unlocked"`
	PropertyID int64 `json:"property_id,omitempty"`
}

// New returns a locked controller at Selection.
func New() Controller {
	return Controller{Stage: StageSelection}
}

// SelectProperty chooses the subject, unlocks the later stages and moves to
// Sales.
func (c Controller) SelectProperty(id int64) Controller {
	return Controller{Stage: StageSales, Unlocked: true, PropertyID: id}
}

// GoTo jumps to any stage. Every stage but Selection requires the controller
// to be unlocked.
func (c Controller) GoTo(s Stage) (Controller, error) {
	if s.index() < 0 {
		return c, fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
	if s != StageSelection && !c.Unlocked {
		return c, ErrLocked
	}
	c.Stage = s
	return c, nil
}

// Next advances one stage. Review is the last stage and stays put.
func (c Controller) Next() (Controller, error) {
	i := c.Stage.index()
	if i < 0 {
		return c, fmt.Errorf("%w: %q", ErrUnknownStage, c.Stage)
	}
	if i == len(Stages)-1 {
		return c, nil
	}
	return c.GoTo(Stages[i+1])
}

// Prev moves back one stage, stopping at Selection.
func (c Controller) Prev() (Controller, error) {
	i := c.Stage.index()
	if i < 0 {
		return c, fmt.Errorf("%w: %q", ErrUnknownStage, c.Stage)
	}
	if i == 0 {
		return c, nil
	}
	return c.GoTo(Stages[i-1])
}

// Reset returns to a locked Selection with no property.
func (c Controller) Reset() Controller {
	return New()
}

// AtReview reports whether the appeal is ready for its packet.
func (c Controller) AtReview() bool {
	return c.Unlocked && c.Stage == StageReview
}
