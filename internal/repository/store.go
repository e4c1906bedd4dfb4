package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

// Backend names accepted by configuration.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendGraph  = "graph"
	BackendSQLite = "sqlite"
)

// SourceFile tags records persisted by the file store.
const SourceFile = "file"

// ErrSchemaViolation marks a lead rejected by a backend's own schema checks.
var ErrSchemaViolation = errors.New("schema violation")

// Store is the persistence contract shared by every backend. List returns the most
// recent leads first and never more than limit.
type Store interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	List(ctx context.Context, limit int) ([]domain.Lead, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// StorageError wraps any failure raised by a backend.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(backend, op string, err error) error {
	return &StorageError{Backend: backend, Op: op, Err: err}
}

// checkLead is the storage-boundary guard applied by every backend before writing.
func checkLead(lead domain.Lead) error {
	if lead.Name == "" || lead.Phone == "" {
		return fmt.Errorf("%w: name and phone are required", ErrSchemaViolation)
	}
	if !lead.Service.Valid() {
		return fmt.Errorf("%w: unknown service %q", ErrSchemaViolation, lead.Service)
	}
	return nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	return limit
}

// sortableTime keeps a fixed fractional width so stored timestamps order lexically.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTime)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
