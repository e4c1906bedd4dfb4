package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

// Server error codes the document store classifies.
const (
	mongoNamespaceExists          = 48
	mongoDocumentFailedToValidate = 121
)

// MongoOptions configures the document store.
type MongoOptions struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// ErrMissingMongoURI indicates the document store URI is not provided.
var ErrMissingMongoURI = errors.New("mongo URI is required")

// DocumentStore persists leads in a MongoDB collection guarded by a $jsonSchema validator.
type DocumentStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
	nowFn  func() time.Time
}

type leadDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Phone     string             `bson:"phone"`
	Service   string             `bson:"service"`
	Note      string             `bson:"note"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// NewDocumentStore connects to MongoDB, registers the lead schema once and returns
// the store. The returned store owns the client and disconnects it on Close.
func NewDocumentStore(ctx context.Context, opts MongoOptions) (*DocumentStore, error) {
	if opts.URI == "" {
		return nil, ErrMissingMongoURI
	}
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, storageErr(BackendMongo, "connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageErr(BackendMongo, "connect", err)
	}

	db := client.Database(opts.Database)
	if err := EnsureLeadSchema(ctx, db, opts.Collection); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	store := NewDocumentStoreFromCollection(db.Collection(opts.Collection))
	store.owned = true
	return store, nil
}

// NewDocumentStoreFromCollection wraps an existing collection. The schema is assumed
// to be registered already.
func NewDocumentStoreFromCollection(coll *mongo.Collection) *DocumentStore {
	return &DocumentStore{
		client: coll.Database().Client(),
		coll:   coll,
		nowFn:  time.Now,
	}
}

// EnsureLeadSchema creates the collection with its validator and the createdAt index.
// An existing collection is kept as is.
func EnsureLeadSchema(ctx context.Context, db *mongo.Database, name string) error {
	validator := bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "phone", "service", "createdAt"},
			"properties": bson.M{
				"name":      bson.M{"bsonType": "string", "minLength": 1},
				"phone":     bson.M{"bsonType": "string", "minLength": 1},
				"service":   bson.M{"enum": serviceEnum()},
				"note":      bson.M{"bsonType": "string"},
				"createdAt": bson.M{"bsonType": "date"},
				"updatedAt": bson.M{"bsonType": "date"},
			},
		},
	}

	err := db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(validator))
	var cmdErr mongo.CommandError
	if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Code == mongoNamespaceExists) {
		return storageErr(BackendMongo, "bootstrap", fmt.Errorf("create collection %s: %w", name, err))
	}

	_, err = db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("createdAt_desc"),
	})
	if err != nil {
		return storageErr(BackendMongo, "bootstrap", fmt.Errorf("create index: %w", err))
	}
	return nil
}

// WithClock overrides the time provider (used primarily in tests).
func (s *DocumentStore) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Create inserts a document. Schema rejections and duplicate keys wrap ErrSchemaViolation.
func (s *DocumentStore) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if err := checkLead(lead); err != nil {
		return domain.Lead{}, storageErr(BackendMongo, "create", err)
	}

	// BSON dates carry millisecond precision.
	now := s.nowFn().UTC().Truncate(time.Millisecond)
	doc := leadDocument{
		ID:        primitive.NewObjectID(),
		Name:      lead.Name,
		Phone:     lead.Phone,
		Service:   string(lead.Service),
		Note:      lead.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if isSchemaRejection(err) {
			err = fmt.Errorf("%w: %w", ErrSchemaViolation, err)
		}
		return domain.Lead{}, storageErr(BackendMongo, "create", err)
	}
	return doc.toDomain(), nil
}

// List returns the newest limit documents by creation time.
func (s *DocumentStore) List(ctx context.Context, limit int) ([]domain.Lead, error) {
	limit = clampLimit(limit)
	if limit == 0 {
		return []domain.Lead{}, nil
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, storageErr(BackendMongo, "list", err)
	}
	var docs []leadDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageErr(BackendMongo, "list", err)
	}

	leads := make([]domain.Lead, 0, len(docs))
	for _, doc := range docs {
		leads = append(leads, doc.toDomain())
	}
	return leads, nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return storageErr(BackendMongo, "ping", err)
	}
	return nil
}

// Close disconnects the client when the store created it.
func (s *DocumentStore) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func isSchemaRejection(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			if writeErr.Code == mongoDocumentFailedToValidate {
				return true
			}
		}
	}
	return false
}

func serviceEnum() bson.A {
	values := bson.A{}
	for _, svc := range domain.ServiceTypes() {
		values = append(values, string(svc))
	}
	return values
}

func (d leadDocument) toDomain() domain.Lead {
	return domain.Lead{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Phone:     d.Phone,
		Service:   domain.ServiceType(d.Service),
		Note:      d.Note,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
