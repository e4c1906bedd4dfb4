package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Mikeolab/devops-real-app/internal/domain"
	"github.com/Mikeolab/devops-real-app/internal/graph"
)

const (
	leadConstraintCypher = `CREATE CONSTRAINT lead_id_unique IF NOT EXISTS FOR (l:Lead) REQUIRE l.id IS UNIQUE`

	createLeadCypher = `
CREATE (l:Lead {
  id: $id,
  name: $name,
  phone: $phone,
  service: $service,
  note: $note,
  createdAt: $createdAt
})
RETURN l.id AS id, l.createdAt AS createdAt`

	listLeadsCypher = `
MATCH (l:Lead)
RETURN l.id AS id,
       l.name AS name,
       l.phone AS phone,
       l.service AS service,
       coalesce(l.note, '') AS note,
       l.createdAt AS createdAt
ORDER BY l.createdAt DESC, l.id DESC
LIMIT $limit`
)

// GraphStore persists leads as :Lead nodes through a graph.Client.
type GraphStore struct {
	client graph.Client
	nowFn  func() time.Time
}

// NewGraphStore registers the lead id constraint and returns the store.
func NewGraphStore(ctx context.Context, client graph.Client) (*GraphStore, error) {
	if _, err := client.ExecuteWrite(ctx, leadConstraintCypher, nil); err != nil {
		return nil, storageErr(BackendGraph, "bootstrap", err)
	}
	return &GraphStore{client: client, nowFn: time.Now}, nil
}

// WithClock overrides the time provider (used primarily in tests).
func (s *GraphStore) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Create writes a new :Lead node.
func (s *GraphStore) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if err := checkLead(lead); err != nil {
		return domain.Lead{}, storageErr(BackendGraph, "create", err)
	}

	lead.ID = newID()
	lead.CreatedAt = s.nowFn().UTC()
	lead.Source = ""

	params := map[string]any{
		"id":        lead.ID,
		"name":      lead.Name,
		"phone":     lead.Phone,
		"service":   string(lead.Service),
		"note":      lead.Note,
		"createdAt": formatTime(lead.CreatedAt),
	}
	if _, err := s.client.ExecuteWrite(ctx, createLeadCypher, params); err != nil {
		return domain.Lead{}, storageErr(BackendGraph, "create", fmt.Errorf("lead %s: %w", lead.ID, err))
	}
	return lead, nil
}

// List returns the newest limit leads.
func (s *GraphStore) List(ctx context.Context, limit int) ([]domain.Lead, error) {
	res, err := s.client.ExecuteRead(ctx, listLeadsCypher, map[string]any{
		"limit": int64(clampLimit(limit)),
	})
	if err != nil {
		return nil, storageErr(BackendGraph, "list", err)
	}

	leads := make([]domain.Lead, 0, len(res.Records))
	for _, rec := range res.Records {
		createdAt, err := parseTime(rec.String("createdAt"))
		if err != nil {
			return nil, storageErr(BackendGraph, "list", fmt.Errorf("lead %s: bad createdAt: %w", rec.String("id"), err))
		}
		leads = append(leads, domain.Lead{
			ID:        rec.String("id"),
			Name:      rec.String("name"),
			Phone:     rec.String("phone"),
			Service:   domain.ServiceType(rec.String("service")),
			Note:      rec.String("note"),
			CreatedAt: createdAt,
		})
	}
	return leads, nil
}

func (s *GraphStore) Ping(ctx context.Context) error {
	if err := s.client.VerifyConnectivity(ctx); err != nil {
		return storageErr(BackendGraph, "ping", err)
	}
	return nil
}

func (s *GraphStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
