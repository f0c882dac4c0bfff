package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scalableminds/wknml/pkg/nml"
)

// Defaults for [MongoConfig].
const (
	DefaultDatabase   = "wknml"
	DefaultCollection = "annotations"
)

// MongoConfig locates the archive collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds connecting and pinging. Default 10s.
	Timeout time.Duration
}

// MongoStore archives annotations in a MongoDB collection. Each document
// holds the summary fields and the canonical NML bytes in "data".
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	Annotation `bson:",inline"`
	Data       []byte `bson:"data"`
}

// NewMongoStore connects, pings and ensures the listing index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(cctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, name string, n nml.NML) (Annotation, error) {
	a, data, err := newRecord(name, n)
	if err != nil {
		return Annotation{}, err
	}
	if _, err := s.coll.InsertOne(ctx, mongoDoc{Annotation: a, Data: data}); err != nil {
		return Annotation{}, fmt.Errorf("insert annotation: %w", err)
	}
	return a, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (nml.NML, Annotation, error) {
	if !ValidID(id) {
		return nml.NML{}, Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nml.NML{}, Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nml.NML{}, Annotation{}, fmt.Errorf("find annotation: %w", err)
	}
	n, err := decode(doc.Data)
	if err != nil {
		return nml.NML{}, Annotation{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return n, doc.Annotation, nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Annotation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	out := []Annotation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
