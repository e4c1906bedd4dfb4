package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL CHECK (length(name) > 0),
    phone TEXT NOT NULL CHECK (length(phone) > 0),
    service TEXT NOT NULL CHECK (service IN ('crypto', 'giftcard', 'webdev', 'seo')),
    note TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

// SQLStore persists leads in a SQLite database.
type SQLStore struct {
	db    *sql.DB
	nowFn func() time.Time
}

// NewSQLStore opens dsn and applies the schema.
func NewSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr(BackendSQLite, "open", err)
	}
	// A single connection keeps SQLite writers from tripping over each other.
	db.SetMaxOpenConns(1)
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, storageErr(BackendSQLite, "migrate", err)
	}
	return &SQLStore{db: db, nowFn: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, sqliteSchema)
	return err
}

// WithClock overrides the time provider (used primarily in tests).
func (s *SQLStore) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Create inserts a row and returns the lead with its row id.
func (s *SQLStore) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if err := checkLead(lead); err != nil {
		return domain.Lead{}, storageErr(BackendSQLite, "create", err)
	}
	lead.CreatedAt = s.nowFn().UTC()
	lead.Source = ""

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leads(name, phone, service, note, created_at) VALUES(?,?,?,?,?)`,
		lead.Name, lead.Phone, string(lead.Service), lead.Note, formatTime(lead.CreatedAt))
	if err != nil {
		return domain.Lead{}, storageErr(BackendSQLite, "create", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Lead{}, storageErr(BackendSQLite, "create", fmt.Errorf("last insert id: %w", err))
	}
	lead.ID = strconv.FormatInt(id, 10)
	return lead, nil
}

// List returns the newest limit rows. Row ids grow with insertion order.
func (s *SQLStore) List(ctx context.Context, limit int) ([]domain.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, service, note, created_at FROM leads ORDER BY id DESC LIMIT ?`,
		clampLimit(limit))
	if err != nil {
		return nil, storageErr(BackendSQLite, "list", err)
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var (
			id        int64
			lead      domain.Lead
			service   string
			createdAt string
		)
		if err := rows.Scan(&id, &lead.Name, &lead.Phone, &service, &lead.Note, &createdAt); err != nil {
			return nil, storageErr(BackendSQLite, "list", err)
		}
		ts, err := parseTime(createdAt)
		if err != nil {
			return nil, storageErr(BackendSQLite, "list", fmt.Errorf("row %d: bad created_at: %w", id, err))
		}
		lead.ID = strconv.FormatInt(id, 10)
		lead.Service = domain.ServiceType(service)
		lead.CreatedAt = ts
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(BackendSQLite, "list", err)
	}
	return leads, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr(BackendSQLite, "ping", err)
	}
	return nil
}

func (s *SQLStore) Close(context.Context) error {
	return s.db.Close()
}
