// Package observability provides hooks for metrics, tracing and logging.
//
// The library never depends on a metrics backend. Instead it calls the hooks
// registered here, which default to no-ops. A binary that wants Prometheus
// counters or OpenTelemetry spans registers its own implementations once at
// startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&promPipelineHooks{})
//	    observability.SetCacheHooks(&promCacheHooks{})
//	    // ...
//	}
//
// Library code emits events through the accessors:
//
//	observability.Pipeline().OnParseStart(ctx, "nml", len(data))
//	n, err := nml.Parse(r)
//	observability.Pipeline().OnParseComplete(ctx, "nml", len(n.Trees), nodes, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from pipeline stages.
type PipelineHooks interface {
	// Parse events. format is "nml" or "json"; size is the input length.
	OnParseStart(ctx context.Context, format string, size int)
	OnParseComplete(ctx context.Context, format string, trees, nodes int, duration time.Duration, err error)

	// Transform events. name identifies the transform ("split",
	// "max_edge_length", "simplify", "merge"); changed is the number of
	// nodes, trees or components it added or removed.
	OnTransformStart(ctx context.Context, name string, nodes int)
	OnTransformComplete(ctx context.Context, name string, changed int, duration time.Duration, err error)

	// OnWriteComplete fires after serialization.
	OnWriteComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups. keyType is "parse" or
// "transform".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ServerHooks receives events from the HTTP API. OnRequest sees the raw
// path since routing has not happened yet; OnResponse gets the matched
// route pattern.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnTransformStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnTransformComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnWriteComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks ignores every event.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string)                      {}
func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

var (
	hooksMu       sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	serverHooks   ServerHooks   = NoopServerHooks{}
)

// SetPipelineHooks registers h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetServerHooks registers h. A nil h is ignored.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Server returns the registered server hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}
