package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Mikeolab/devops-real-app/internal/domain"
	"github.com/Mikeolab/devops-real-app/internal/graph"
)

// fakeLeadGraph answers the lead queries from an in-memory node list.
type fakeLeadGraph struct {
	mu    sync.Mutex
	nodes []graph.Record
}

func (f *fakeLeadGraph) write(cypher string, params map[string]any) (graph.Result, error) {
	if cypher != createLeadCypher {
		return graph.Result{}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes = append(f.nodes, graph.Record{
		"id":        params["id"],
		"name":      params["name"],
		"phone":     params["phone"],
		"service":   params["service"],
		"note":      params["note"],
		"createdAt": params["createdAt"],
	})
	return graph.Result{}, nil
}

func (f *fakeLeadGraph) read(_ string, params map[string]any) (graph.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	nodes := append([]graph.Record(nil), f.nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].String("createdAt") != nodes[j].String("createdAt") {
			return nodes[i].String("createdAt") > nodes[j].String("createdAt")
		}
		return nodes[i].String("id") > nodes[j].String("id")
	})
	limit := int(params["limit"].(int64))
	if len(nodes) > limit {
		nodes = nodes[:limit]
	}
	return graph.Result{Records: nodes}, nil
}

func newTestGraphStore(t *testing.T) (*GraphStore, *graph.MemoryClient) {
	t.Helper()
	fake := &fakeLeadGraph{}
	mem := graph.NewMemoryClient().OnWrite(fake.write).OnRead(fake.read)
	store, err := NewGraphStore(context.Background(), mem)
	if err != nil {
		t.Fatalf("new graph store: %v", err)
	}
	return store, mem
}

func TestGraphStore_BootstrapsConstraint(t *testing.T) {
	_, mem := newTestGraphStore(t)

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 bootstrap write, got %d", len(calls))
	}
	if calls[0].Query != leadConstraintCypher {
		t.Fatalf("unexpected bootstrap query:\n%s", calls[0].Query)
	}
}

func TestGraphStore_BootstrapFailure(t *testing.T) {
	mem := graph.NewMemoryClient().WithError(errors.New("unavailable"))
	if _, err := NewGraphStore(context.Background(), mem); err == nil {
		t.Fatal("expected bootstrap error")
	}
}

func TestGraphStore_Create(t *testing.T) {
	store, mem := newTestGraphStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 5, time.UTC)
	store.WithClock(func() time.Time { return fixed })

	lead, err := store.Create(context.Background(), sampleLead("Jane Doe"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if lead.ID == "" || !lead.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected lead: %+v", lead)
	}

	calls := mem.WriteCalls()
	call := calls[len(calls)-1]
	if call.Query != createLeadCypher {
		t.Fatalf("unexpected query\nexpected:\n%s\ngot:\n%s", createLeadCypher, call.Query)
	}
	if call.Params["id"] != lead.ID {
		t.Errorf("expected id %s, got %v", lead.ID, call.Params["id"])
	}
	if call.Params["service"] != "crypto" {
		t.Errorf("expected service crypto, got %v", call.Params["service"])
	}
	if call.Params["createdAt"] != "2025-03-01T12:00:00.000000005Z" {
		t.Errorf("unexpected createdAt param %v", call.Params["createdAt"])
	}
}

func TestGraphStore_ListNewestFirst(t *testing.T) {
	store, mem := newTestGraphStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"A", "B", "C"} {
		at := base.Add(time.Duration(i) * time.Second)
		store.WithClock(func() time.Time { return at })
		if _, err := store.Create(ctx, sampleLead(name)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	leads, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 2 || leads[0].Name != "C" || leads[1].Name != "B" {
		t.Fatalf("unexpected order: %+v", leads)
	}
	if leads[0].Service != domain.ServiceCrypto || leads[0].Note != "Looking to sell USDT" {
		t.Errorf("unexpected fields: %+v", leads[0])
	}

	reads := mem.ReadCalls()
	if got := reads[len(reads)-1].Params["limit"]; got != int64(2) {
		t.Errorf("expected limit param 2, got %v (%T)", got, got)
	}
}

func TestGraphStore_ListBadTimestamp(t *testing.T) {
	mem := graph.NewMemoryClient()
	store, err := NewGraphStore(context.Background(), mem)
	if err != nil {
		t.Fatalf("new graph store: %v", err)
	}
	mem.PushReadResult(graph.Result{Records: []graph.Record{{"id": "x", "createdAt": "yesterday"}}})

	_, err = store.List(context.Background(), 10)
	var storeErr *StorageError
	if !errors.As(err, &storeErr) || storeErr.Backend != BackendGraph {
		t.Fatalf("expected graph StorageError, got %v", err)
	}
}

func TestGraphStore_PingAndClose(t *testing.T) {
	store, mem := newTestGraphStore(t)
	mem.WithConnectivityError(errors.New("down"))

	err := store.Ping(context.Background())
	var storeErr *StorageError
	if !errors.As(err, &storeErr) || storeErr.Backend != BackendGraph || storeErr.Op != "ping" {
		t.Fatalf("expected graph ping StorageError, got %v", err)
	}
	if err := store.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !mem.Closed() {
		t.Fatal("expected client to be closed")
	}
}
