package packet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/tax-appeal/internal/appeal"
	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/market"
	"github.com/evcraddock/tax-appeal/internal/narrative"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workup"
)

// ErrNotReady is returned when a packet is requested before the appeal
// reaches the review stage.
var ErrNotReady = errors.New("appeal is not at review")

// SavingsYears is the horizon used for the packet's tax impact table.
const SavingsYears = 3

// Packet is a rendered appeal packet.
type Packet struct {
	PropertyID int64               `json:"property_id"`
	Title      string              `json:"title"`
	Markdown   string              `json:"markdown"`
	Narrative  narrative.Narrative `json:"narrative"`
	Synthetic  bool                `json:"synthetic"`
}

// Service gathers a property's workup, evidence and narrative into a packet.
type Service struct {
	properties *property.Repository
	workups    *workup.Service
	evidence   *evidence.Repository
	narratives *narrative.Generator
	now        func() time.Time
}

// NewService creates a packet service.
func NewService(properties *property.Repository, workups *workup.Service, ev *evidence.Repository, narratives *narrative.Generator) *Service {
	return &Service{
		properties: properties,
		workups:    workups,
		evidence:   ev,
		narratives: narratives,
		now:        time.Now,
	}
}

// Generate builds the packet for a property at the review stage.
func (s *Service) Generate(ctx context.Context, propertyID int64) (Packet, error) {
	p, err := s.properties.GetByID(propertyID)
	if err != nil {
		return Packet{}, err
	}
	sess, err := s.workups.Get(ctx, propertyID)
	if err != nil {
		return Packet{}, err
	}
	if !sess.ReadyForPacket() {
		return Packet{}, fmt.Errorf("%w: stage is %s", ErrNotReady, sess.Controller.Stage)
	}

	notes, err := s.evidence.ListByPropertyID(propertyID)
	if err != nil {
		return Packet{}, err
	}
	texts := make([]string, 0, len(notes))
	for _, n := range notes {
		texts = append(texts, n.Text)
	}

	w := sess.Workup
	story := s.narratives.Generate(ctx, narrative.Request{
		PropertyID: propertyID,
		Address:    p.Address,
		Workup:     w,
		Evidence:   texts,
	})

	in := Input{
		Property:    p,
		Workup:      w,
		Evidence:    notes,
		Narrative:   story,
		Synthetic:   market.ContainsDemo(w.Sales.Comparables),
		GeneratedAt: s.now(),
	}

	econ := economics(p, w, Costs{Years: SavingsYears})
	in.Savings = econ.Savings
	in.Classification = econ.Classification

	md, err := Build(in)
	if err != nil {
		return Packet{}, err
	}

	slog.Info("packet generated",
		"property_id", propertyID,
		"final_value", w.FinalValueEstimate,
		"synthetic", in.Synthetic || story.Synthetic,
	)
	return Packet{
		PropertyID: propertyID,
		Title:      "Assessment Appeal: " + p.Address,
		Markdown:   md,
		Narrative:  story,
		Synthetic:  in.Synthetic || story.Synthetic,
	}, nil
}

// Costs are the appeal expenses and horizon used for a savings projection.
type Costs struct {
	FilingFee   float64 `json:"filing_fee"`
	AttorneyFee float64 `json:"attorney_fee"`
	OtherCosts  float64 `json:"other_costs"`
	Years       int     `json:"years"`
	// TaxRate overrides the property's rate when positive.
	TaxRate float64 `json:"tax_rate"`
}

// Economics is the tax impact and assessment classification of an appeal.
// Either part is nil when the inputs it needs are missing.
type Economics struct {
	Savings        *appeal.SavingsResult  `json:"savings"`
	Classification *appeal.Classification `json:"classification"`
	// SavingsError explains why Savings is nil.
	SavingsError string `json:"savings_error,omitempty"`
}

// Economics projects savings and classifies the assessment for a started
// appeal.
func (s *Service) Economics(ctx context.Context, propertyID int64, costs Costs) (Economics, error) {
	p, err := s.properties.GetByID(propertyID)
	if err != nil {
		return Economics{}, err
	}
	sess, err := s.workups.Get(ctx, propertyID)
	if err != nil {
		return Economics{}, err
	}
	return economics(p, sess.Workup, costs), nil
}

func economics(p *property.Property, w valuation.ValuationWorkup, costs Costs) Economics {
	var e Economics

	rate := p.TaxRate
	if costs.TaxRate > 0 {
		rate = costs.TaxRate
	}
	if costs.Years == 0 {
		costs.Years = SavingsYears
	}

	res, err := appeal.Savings(appeal.SavingsInput{
		CurrentAssessment:  p.CurrentAssessment,
		ProposedAssessment: w.ProposedAssessment,
		TaxRate:            rate,
		FilingFee:          costs.FilingFee,
		AttorneyFee:        costs.AttorneyFee,
		OtherCosts:         costs.OtherCosts,
		Years:              costs.Years,
	})
	if err != nil {
		slog.Debug("no savings projection", "property_id", p.ID, "error", err)
		e.SavingsError = err.Error()
	} else {
		e.Savings = &res
	}

	if c, err := appeal.Classify(p.CurrentAssessment, w.FinalValueEstimate, appeal.DefaultCODTarget); err == nil {
		e.Classification = &c
	}
	return e
}

// HTML renders the packet as a standalone HTML document.
func (p Packet) HTML() ([]byte, error) {
	return HTML(p.Title, p.Markdown)
}
