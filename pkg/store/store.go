// Package store archives annotations under generated ids.
//
// Two implementations of [Store] are provided:
//   - [MemoryStore]: process-local, for tests and single-instance servers
//   - [MongoStore]: MongoDB-backed, for shared deployments
//
// Documents are stored in their canonical NML serialization together with a
// small summary, so listings never need to parse the document body.
//
//	s, err := store.NewMongoStore(ctx, store.MongoConfig{URI: uri})
//	if err != nil {
//	    return err
//	}
//	defer s.Close(ctx)
//	a, err := s.Put(ctx, "cell 12", n)
//	n, a, err = s.Get(ctx, a.ID)
package store

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scalableminds/wknml/pkg/cache"
	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
)

// ErrNotFound is returned when no annotation has the requested id.
var ErrNotFound = errors.New("annotation not found")

// Annotation describes an archived document.
type Annotation struct {
	ID         string    `json:"id" bson:"_id" yaml:"id"`
	Name       string    `json:"name" bson:"name" yaml:"name"`
	Experiment string    `json:"experiment" bson:"experiment" yaml:"experiment"`
	Trees      int       `json:"trees" bson:"trees" yaml:"trees"`
	Nodes      int       `json:"nodes" bson:"nodes" yaml:"nodes"`
	Size       int       `json:"size" bson:"size" yaml:"size"`
	Hash       string    `json:"hash" bson:"hash" yaml:"hash"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" yaml:"created_at"`
}

// Store archives annotations.
type Store interface {
	// Put stores n under a new id.
	Put(ctx context.Context, name string, n nml.NML) (Annotation, error)
	// Get returns the document and its summary. A missing id yields an
	// error wrapping ErrNotFound.
	Get(ctx context.Context, id string) (nml.NML, Annotation, error)
	// List returns summaries, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]Annotation, error)
	// Delete removes a document. A missing id yields ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// newRecord validates name and serializes n.
func newRecord(name string, n nml.NML) (Annotation, []byte, error) {
	if err := wkerrors.ValidateAnnotationName(name); err != nil {
		return Annotation{}, nil, err
	}
	data, err := nml.Marshal(n)
	if err != nil {
		return Annotation{}, nil, err
	}
	stats := nml.Stats(n)
	a := Annotation{
		ID:         uuid.NewString(),
		Name:       name,
		Experiment: n.Parameters.Name,
		Trees:      stats.Trees,
		Nodes:      stats.Nodes,
		Size:       len(data),
		Hash:       cache.Hash(data),
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	return a, data, nil
}

func decode(data []byte) (nml.NML, error) {
	return nml.Parse(bytes.NewReader(data))
}

// ValidID reports whether id has the form of a generated id. Stores use it
// to turn malformed ids into ErrNotFound without a lookup.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
