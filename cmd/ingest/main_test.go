package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mikeolab/devops-real-app/internal/config"
	"github.com/Mikeolab/devops-real-app/internal/repository"
)

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func fileConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Storage: config.StorageConfig{
			Backend: repository.BackendFile,
			File:    config.FileConfig{Path: filepath.Join(t.TempDir(), "leads-buffer.json")},
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

func TestLoadPayloads(t *testing.T) {
	body := `[{"name":"Jane","phone":"1","service":"seo"},{"name":"Ola","phone":"2","service":"crypto","note":"hi"}]`
	path := writeDataset(t, body)

	payloads, size, err := loadPayloads(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}
	if payloads[1]["note"] != "hi" {
		t.Errorf("unexpected second payload: %v", payloads[1])
	}
	if size != int64(len(body)) {
		t.Errorf("expected size %d, got %d", len(body), size)
	}
}

func TestLoadPayloadsFailures(t *testing.T) {
	if _, _, err := loadPayloads(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, _, err := loadPayloads(writeDataset(t, `{"name":"Jane"}`)); err == nil {
		t.Fatal("expected error for non-array dataset")
	}
}

func TestIngestEmptyDataset(t *testing.T) {
	cfg := fileConfig(t)

	err := ingest(context.Background(), cfg, writeDataset(t, `[]`), 2)
	if !errors.Is(err, errEmptyDataset) {
		t.Fatalf("expected errEmptyDataset, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Storage.File.Path); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("expected store to stay untouched, stat err %v", statErr)
	}
}

func TestIngestIntoFileStore(t *testing.T) {
	cfg := fileConfig(t)
	path := writeDataset(t, `[
		{"name":"Jane","phone":"1","service":"seo"},
		{"name":"Ola","phone":"2","service":"consulting"},
		{"name":"Kemi","phone":"3","service":"webdev"}
	]`)

	if err := ingest(context.Background(), cfg, path, 2); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	leads, err := repository.NewFileStore(cfg.Storage.File.Path).List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 stored leads (one rejected), got %d", len(leads))
	}
	for _, lead := range leads {
		if lead.Name == "Ola" {
			t.Fatalf("rejected payload was stored: %+v", lead)
		}
	}
}
