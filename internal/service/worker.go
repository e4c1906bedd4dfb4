package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	var b strings.Builder
	b.WriteString("multiple errors:")
	for _, err := range e.Errors {
		b.WriteString(" ")
		b.WriteString(err.Error())
		b.WriteString(";")
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IngestReport summarises a bulk run.
type IngestReport struct {
	Created  int
	Rejected int
	Failed   int
}

// BulkIngestor pushes many lead payloads through a LeadService using a worker pool.
type BulkIngestor struct {
	service *LeadService
	workers int
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(service *LeadService, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		service: service,
		workers: workers,
	}
}

// IngestLeads creates every payload. Validation failures are counted as rejected and
// do not abort the run; storage failures are collected into a *TaskError.
func (bi *BulkIngestor) IngestLeads(ctx context.Context, payloads []Payload) (IngestReport, error) {
	var created, rejected atomic.Int64
	err := bi.run(ctx, len(payloads), func(idx int) error {
		_, err := bi.service.CreateLead(ctx, payloads[idx])
		var ve *ValidationError
		switch {
		case err == nil:
			created.Add(1)
			return nil
		case errors.As(err, &ve):
			rejected.Add(1)
			return nil
		default:
			return fmt.Errorf("payload %d: %w", idx, err)
		}
	})

	report := IngestReport{
		Created:  int(created.Load()),
		Rejected: int(rejected.Load()),
	}
	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		report.Failed = len(taskErr.Errors)
	}
	return report, err
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
