package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

// FileStore keeps every lead in a single JSON array file, newest first.
//
// Read-modify-write cycles are serialized by mu and each write replaces the file
// through a rename, so concurrent creators in one process never lose records and
// readers never observe a partially written array. Separate processes sharing
// the same file are not coordinated.
type FileStore struct {
	path  string
	mu    sync.Mutex
	nowFn func() time.Time
}

type fileRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Service   string    `json:"service"`
	Note      string    `json:"note"`
	Source    string    `json:"_source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewFileStore returns a store backed by path. Nothing touches the disk until the
// first operation.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:  path,
		nowFn: time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *FileStore) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// EnsureStore creates the parent directory and an empty array file when missing.
// Existing paths are left untouched, so it is safe to call any number of times.
func (s *FileStore) EnsureStore() error {
	if err := s.ensure(); err != nil {
		return storageErr(BackendFile, "ensure", err)
	}
	return nil
}

func (s *FileStore) ensure() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	if _, err := f.WriteString("[]"); err != nil {
		f.Close()
		return fmt.Errorf("initialise %s: %w", s.path, err)
	}
	return f.Close()
}

// Create prepends lead to the file, stamping its id, creation time and source.
func (s *FileStore) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	if err := checkLead(lead); err != nil {
		return domain.Lead{}, storageErr(BackendFile, "create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return domain.Lead{}, storageErr(BackendFile, "create", err)
	}

	// The newest record sits first; a clock stepping back must not reorder the file.
	createdAt := s.nowFn().UTC()
	if len(records) > 0 && createdAt.Before(records[0].CreatedAt) {
		createdAt = records[0].CreatedAt
	}

	rec := fileRecord{
		ID:        newID(),
		Name:      lead.Name,
		Phone:     lead.Phone,
		Service:   string(lead.Service),
		Note:      lead.Note,
		Source:    SourceFile,
		CreatedAt: createdAt,
	}
	records = append([]fileRecord{rec}, records...)

	if err := s.writeAll(records); err != nil {
		return domain.Lead{}, storageErr(BackendFile, "create", err)
	}
	return rec.toDomain(), nil
}

// List returns the first limit records of the file.
func (s *FileStore) List(_ context.Context, limit int) ([]domain.Lead, error) {
	s.mu.Lock()
	records, err := s.readAll()
	s.mu.Unlock()
	if err != nil {
		return nil, storageErr(BackendFile, "list", err)
	}

	limit = clampLimit(limit)
	if len(records) > limit {
		records = records[:limit]
	}
	leads := make([]domain.Lead, 0, len(records))
	for _, rec := range records {
		leads = append(leads, rec.toDomain())
	}
	return leads, nil
}

// Size returns the number of stored records.
func (s *FileStore) Size() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.readAll()
	if err != nil {
		return 0, storageErr(BackendFile, "size", err)
	}
	return len(records), nil
}

// Ping checks the backing file can be bootstrapped and read.
func (s *FileStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.readAll()
	if err != nil {
		return storageErr(BackendFile, "ping", err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (s *FileStore) Close(context.Context) error {
	return nil
}

func (s *FileStore) readAll() ([]fileRecord, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) writeAll(records []fileRecord) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode leads: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".leads-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (r fileRecord) toDomain() domain.Lead {
	return domain.Lead{
		ID:        r.ID,
		Name:      r.Name,
		Phone:     r.Phone,
		Service:   domain.ServiceType(r.Service),
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
		Source:    r.Source,
	}
}
