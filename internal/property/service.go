package property

import (
	"fmt"
	"log/slog"
)

// Service provides property business logic.
type Service struct {
	repo *Repository
}

// NewService creates a property service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Add validates and stores a new property.
func (s *Service) Add(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	saved, err := s.repo.Insert(p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}

	slog.Info("property added", "property_id", saved.ID, "address", saved.Address)
	return saved, nil
}

// Update validates and stores changes to an existing property.
func (s *Service) Update(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s.repo.Update(p)
}

// Get returns a property by ID.
func (s *Service) Get(id int64) (*Property, error) {
	return s.repo.GetByID(id)
}

// List returns properties matching opts.
func (s *Service) List(opts ListOptions) ([]*Property, error) {
	return s.repo.List(opts)
}

// Remove deletes a property and everything attached to it.
func (s *Service) Remove(id int64) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	slog.Info("property removed", "property_id", id)
	return nil
}
