package service

import (
	"context"
	"errors"
	"testing"
)

func TestBulkIngestor_IngestLeads(t *testing.T) {
	repo := &stubRepository{}
	ingestor := NewBulkIngestor(NewLeadService(repo, nil), 3)

	payloads := []Payload{
		{"name": "A", "phone": "1", "service": "crypto"},
		{"name": "B", "phone": "2", "service": "giftcard"},
		{"name": "C"},
		{"name": "D", "phone": "4", "service": "seo", "note": 7},
		{"name": "E", "phone": "5", "service": "webdev"},
	}

	report, err := ingestor.IngestLeads(context.Background(), payloads)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Created != 3 || report.Rejected != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(repo.leads) != 3 {
		t.Fatalf("expected 3 stored leads, got %d", len(repo.leads))
	}
}

func TestBulkIngestor_CollectsStorageErrors(t *testing.T) {
	storeErr := errors.New("write failed")
	repo := &stubRepository{createErr: storeErr}
	ingestor := NewBulkIngestor(NewLeadService(repo, nil), 2)

	report, err := ingestor.IngestLeads(context.Background(), []Payload{
		{"name": "A", "phone": "1", "service": "crypto"},
		{"name": "B", "phone": "2", "service": "crypto"},
		{"name": "C"},
	})

	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if len(taskErr.Errors) != 2 {
		t.Fatalf("expected 2 collected errors, got %d", len(taskErr.Errors))
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("expected collected errors to unwrap to the storage error")
	}
	if report.Failed != 2 || report.Rejected != 1 || report.Created != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestBulkIngestor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ingestor := NewBulkIngestor(NewLeadService(&stubRepository{}, nil), 2)

	_, err := ingestor.IngestLeads(ctx, []Payload{{"name": "A", "phone": "1", "service": "crypto"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBulkIngestor_Empty(t *testing.T) {
	ingestor := NewBulkIngestor(NewLeadService(&stubRepository{}, nil), 0)

	report, err := ingestor.IngestLeads(context.Background(), nil)
	if err != nil || report != (IngestReport{}) {
		t.Fatalf("expected empty report, got %+v, %v", report, err)
	}
}
