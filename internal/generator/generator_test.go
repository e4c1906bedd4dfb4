package generator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Mikeolab/devops-real-app/internal/service"
)

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := Config{NumLeads: 50, InvalidChance: 0.2, NoteChance: 0.5, Seed: 7}

	first, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(first) != 50 {
		t.Fatalf("expected 50 payloads, got %d", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical datasets for the same seed")
	}
}

func TestGenerateValidPayloads(t *testing.T) {
	payloads, err := New(Config{NumLeads: 100, InvalidChance: 0, NoteChance: 1, Seed: 1}).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, p := range payloads {
		if _, err := service.ValidateLead(p); err != nil {
			t.Fatalf("payload %d should validate: %v (%v)", i, err, p)
		}
		if _, ok := p["note"]; !ok {
			t.Fatalf("payload %d: expected a note", i)
		}
	}
}

func TestGenerateInvalidPayloads(t *testing.T) {
	payloads, err := New(Config{NumLeads: 40, InvalidChance: 1, Seed: 3}).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, p := range payloads {
		if _, err := service.ValidateLead(p); err == nil {
			t.Fatalf("payload %d should be rejected: %v", i, p)
		}
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Config{NumLeads: 10, Seed: 1}).Generate(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestWriteDataset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	payloads := []service.Payload{{"name": "Jane", "phone": "1", "service": "crypto"}}

	path, size, err := WriteDataset(payloads, dir)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != DatasetFile || size == 0 {
		t.Fatalf("unexpected result %s (%d bytes)", path, size)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded []service.Payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["name"] != "Jane" {
		t.Fatalf("unexpected contents: %v", decoded)
	}
}
