package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

// MaxListedLeads bounds every listing regardless of how many leads are stored.
const MaxListedLeads = 200

// LeadRepository is the storage contract required by the lead service.
type LeadRepository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	List(ctx context.Context, limit int) ([]domain.Lead, error)
}

// LeadObserver receives lead lifecycle events. Metrics implement it.
type LeadObserver interface {
	LeadCreated(lead domain.Lead)
	LeadRejected(reason string)
}

// LeadService validates submissions and delegates persistence to the repository.
// It keeps no state between requests.
type LeadService struct {
	repo     LeadRepository
	observer LeadObserver
}

// NewLeadService constructs a LeadService. observer may be nil.
func NewLeadService(repo LeadRepository, observer LeadObserver) *LeadService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &LeadService{
		repo:     repo,
		observer: observer,
	}
}

// CreateLead validates payload and stores the resulting lead. A *ValidationError
// is returned for bad input, in which case nothing is persisted.
func (s *LeadService) CreateLead(ctx context.Context, payload Payload) (domain.Lead, error) {
	input, err := ValidateLead(payload)
	if err != nil {
		s.observer.LeadRejected(rejectionReason(err))
		return domain.Lead{}, err
	}

	lead, err := s.repo.Create(ctx, input.ToDomain())
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	s.observer.LeadCreated(lead)
	return lead, nil
}

// ListLeads returns the most recent leads, newest first, capped at MaxListedLeads.
func (s *LeadService) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	leads, err := s.repo.List(ctx, MaxListedLeads)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	if len(leads) > MaxListedLeads {
		leads = leads[:MaxListedLeads]
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	return leads, nil
}

func rejectionReason(err error) string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return "invalid"
	}
	switch {
	case errors.Is(ve.Err, ErrMissingField):
		return "missing_" + ve.Field
	case errors.Is(ve.Err, ErrInvalidService):
		return "invalid_service"
	case errors.Is(ve.Err, ErrInvalidNote):
		return "invalid_note"
	default:
		return "invalid"
	}
}

type noopObserver struct{}

func (noopObserver) LeadCreated(domain.Lead) {}
func (noopObserver) LeadRejected(string)     {}
