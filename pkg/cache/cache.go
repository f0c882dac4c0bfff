// Package cache provides byte caches for parsed and transformed annotations.
//
// # Backends
//
// Three implementations of [Cache] are available:
//
//   - [NullCache] never stores anything and is the default of the pipeline.
//   - [FileCache] keeps entries as JSON files below a directory. The CLI uses
//     it with the user cache dir.
//   - [RedisCache] shares entries between processes, e.g. several API
//     servers behind a load balancer.
//
// # Keys
//
// Keys are derived by a [Keyer] from the SHA-256 of the input document
// ([Hash]) plus the options of the stage that produced the value, so equal
// inputs with equal options always hit the same entry. [ScopedKeyer] adds a
// prefix for namespacing.
//
// # Values
//
// Values are opaque bytes. The pipeline stores the JSON encoding of an
// annotation (see package io), never the XML, so a cache hit skips the XML
// lexer entirely.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values by key.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. A ttl of zero on Set means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default lifetimes per entry type.
const (
	// TTLParse covers parsed documents. Parsing is a pure function of the
	// input bytes, so entries could live forever; a week bounds disk usage.
	TTLParse = 7 * 24 * time.Hour

	// TTLTransform covers transformed documents.
	TTLTransform = 24 * time.Hour
)
