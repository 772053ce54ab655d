package workflow

import "github.com/evcraddock/tax-appeal/internal/valuation"

// Session threads a workup through the workflow for one property.
type Session struct {
	Controller Controller                `json:"controller"`
	Workup     valuation.ValuationWorkup `json:"workup"`
}

// NewSession returns a locked session with no workup.
func NewSession() Session {
	return Session{Controller: New()}
}

// Start selects subject as the property under appeal. Any earlier workup is
// discarded and a fresh one seeded with the default weights.
func (s Session) Start(propertyID int64, subject valuation.SubjectProperty) Session {
	return Session{
		Controller: s.Controller.SelectProperty(propertyID),
		Workup:     valuation.NewWorkup(subject),
	}
}

// Reset discards the workup and locks the session.
func (s Session) Reset() Session {
	return NewSession()
}

// ReadyForPacket reports whether the session has reached Review.
func (s Session) ReadyForPacket() bool {
	return s.Controller.AtReview()
}
