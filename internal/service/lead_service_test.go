package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

type stubRepository struct {
	mu        sync.Mutex
	leads     []domain.Lead
	createErr error
	listErr   error
	lastLimit int
}

func (s *stubRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.Lead{}, s.createErr
	}
	lead.ID = fmt.Sprintf("lead-%d", len(s.leads)+1)
	lead.CreatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.leads = append([]domain.Lead{lead}, s.leads...)
	return lead, nil
}

func (s *stubRepository) List(ctx context.Context, limit int) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	// Deliberately ignores limit so the service cap is exercised.
	return append([]domain.Lead(nil), s.leads...), nil
}

type recordingObserver struct {
	mu       sync.Mutex
	created  []domain.Lead
	rejected []string
}

func (o *recordingObserver) LeadCreated(lead domain.Lead) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, lead)
}

func (o *recordingObserver) LeadRejected(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, reason)
}

func TestLeadService_CreateLead(t *testing.T) {
	repo := &stubRepository{}
	obs := &recordingObserver{}
	svc := NewLeadService(repo, obs)

	lead, err := svc.CreateLead(context.Background(), Payload{
		"name":    "Jane Doe",
		"phone":   "+1 555 0100",
		"service": "crypto",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if lead.ID == "" || lead.Name != "Jane Doe" || lead.Phone != "+1 555 0100" || lead.Service != domain.ServiceCrypto {
		t.Fatalf("unexpected lead: %+v", lead)
	}
	if lead.Note != "" {
		t.Errorf("expected default empty note, got %q", lead.Note)
	}
	if len(repo.leads) != 1 {
		t.Fatalf("expected 1 persisted lead, got %d", len(repo.leads))
	}
	if len(obs.created) != 1 || obs.created[0].ID != lead.ID {
		t.Errorf("expected observer to see created lead, got %+v", obs.created)
	}
}

func TestLeadService_CreateLeadStoresFieldsAsSubmitted(t *testing.T) {
	repo := &stubRepository{}
	svc := NewLeadService(repo, nil)

	lead, err := svc.CreateLead(context.Background(), Payload{
		"name":    "Mary  Ann\tLee",
		"phone":   "+1  555\n0100",
		"service": "seo",
		"note":    "  call  after 5 ",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	stored := repo.leads[0]
	if stored.Name != "Mary  Ann\tLee" || stored.Phone != "+1  555\n0100" || stored.Note != "  call  after 5 " {
		t.Fatalf("stored fields differ from input: %+v", stored)
	}
	if lead.Name != stored.Name || lead.Phone != stored.Phone {
		t.Errorf("returned lead differs from stored lead: %+v vs %+v", lead, stored)
	}
}

func TestLeadService_CreateLeadValidationPersistsNothing(t *testing.T) {
	repo := &stubRepository{}
	obs := &recordingObserver{}
	svc := NewLeadService(repo, obs)

	_, err := svc.CreateLead(context.Background(), Payload{"name": "Jane"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.leads) != 0 {
		t.Fatalf("expected nothing persisted, got %d", len(repo.leads))
	}
	if len(obs.rejected) != 1 || obs.rejected[0] != "missing_phone" {
		t.Errorf("unexpected rejection reasons: %v", obs.rejected)
	}

	_, _ = svc.CreateLead(context.Background(), Payload{"name": "Jane", "phone": "1", "service": "consulting"})
	if obs.rejected[len(obs.rejected)-1] != "invalid_service" {
		t.Errorf("unexpected rejection reasons: %v", obs.rejected)
	}
}

func TestLeadService_CreateLeadStorageError(t *testing.T) {
	storeErr := errors.New("disk full")
	repo := &stubRepository{createErr: storeErr}
	obs := &recordingObserver{}
	svc := NewLeadService(repo, obs)

	_, err := svc.CreateLead(context.Background(), Payload{"name": "Jane", "phone": "1", "service": "seo"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Fatal("storage failure must not look like a validation error")
	}
	if len(obs.created) != 0 {
		t.Errorf("observer must not see failed creates")
	}
}

func TestLeadService_ListLeadsCap(t *testing.T) {
	repo := &stubRepository{}
	svc := NewLeadService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		if _, err := svc.CreateLead(ctx, Payload{"name": fmt.Sprintf("Lead %d", i), "phone": "1", "service": "webdev"}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	leads, err := svc.ListLeads(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != MaxListedLeads {
		t.Fatalf("expected %d leads, got %d", MaxListedLeads, len(leads))
	}
	if leads[0].Name != "Lead 249" {
		t.Errorf("expected newest first, got %s", leads[0].Name)
	}
	if repo.lastLimit != MaxListedLeads {
		t.Errorf("expected repository limit %d, got %d", MaxListedLeads, repo.lastLimit)
	}
}

func TestLeadService_ListLeadsEmpty(t *testing.T) {
	svc := NewLeadService(&stubRepository{}, nil)

	leads, err := svc.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if leads == nil || len(leads) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", leads)
	}
}

func TestLeadService_ListLeadsError(t *testing.T) {
	listErr := errors.New("unreachable")
	svc := NewLeadService(&stubRepository{listErr: listErr}, nil)

	if _, err := svc.ListLeads(context.Background()); !errors.Is(err, listErr) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}
