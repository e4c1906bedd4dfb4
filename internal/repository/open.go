package repository

import (
	"context"
	"fmt"

	"github.com/Mikeolab/devops-real-app/internal/config"
	"github.com/Mikeolab/devops-real-app/internal/graph"
)

// Open constructs the store selected by cfg.Backend. Exactly one backend is active
// per process; the caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case BackendFile:
		store := NewFileStore(cfg.File.Path)
		if err := store.EnsureStore(); err != nil {
			return nil, err
		}
		return store, nil
	case BackendMongo:
		store, err := NewDocumentStore(ctx, MongoOptions{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendGraph:
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			return nil, storageErr(BackendGraph, "connect", err)
		}
		store, err := NewGraphStore(ctx, client)
		if err != nil {
			_ = client.Close(context.Background())
			return nil, err
		}
		return store, nil
	case BackendSQLite:
		store, err := NewSQLStore(ctx, cfg.SQLite.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown lead backend %q", cfg.Backend)
	}
}
