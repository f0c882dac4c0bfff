package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scalableminds/wknml/pkg/cache"
	wkio "github.com/scalableminds/wknml/pkg/io"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/observability"
)

// Runner executes pipeline stages with caching and logging.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. Nil arguments select a NullCache, the
// DefaultKeyer and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute loads data, applies the transforms in opts and serializes the
// result.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	result := &Result{}
	hash := cache.Hash(data)

	start := time.Now()
	n, hit, err := r.LoadWithCacheInfo(ctx, data, opts.InputFormat)
	if err != nil {
		return nil, err
	}
	result.CacheInfo.ParseHit = hit
	r.Logger.Info("loaded annotation", "trees", len(n.Trees), "cached", hit, "duration", time.Since(start))

	if opts.HasTransforms() {
		start = time.Now()
		n, result.Changes, hit, err = r.transformCached(ctx, hash, n, opts)
		if err != nil {
			return nil, err
		}
		result.CacheInfo.TransformHit = hit
		r.Logger.Info("transformed annotation",
			"trees", len(n.Trees),
			"added", result.Changes.AddedNodes,
			"removed", result.Changes.RemovedNodes,
			"cached", hit,
			"duration", time.Since(start))
	}

	start = time.Now()
	out, err := Encode(n, opts.OutputFormat)
	observability.Pipeline().OnWriteComplete(ctx, opts.OutputFormat, len(out), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	result.NML = n
	result.Output = out
	result.Stats = nml.Stats(n)
	return result, nil
}

// Load parses data. See [Runner.LoadWithCacheInfo].
func (r *Runner) Load(ctx context.Context, data []byte, format string) (nml.NML, error) {
	n, _, err := r.LoadWithCacheInfo(ctx, data, format)
	return n, err
}

// LoadWithCacheInfo parses data in format, detecting the format when empty,
// and reports whether the document came from the cache. Parse results are
// cached as JSON under the content hash of data.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, data []byte, format string) (nml.NML, bool, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(data); err != nil {
			return nml.NML{}, false, err
		}
	}
	if err := ValidateFormat(format); err != nil {
		return nml.NML{}, false, err
	}

	key := r.Keyer.ParseKey(cache.Hash(data), format)
	if cached, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
		if n, err := wkio.UnmarshalJSON(cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "parse")
			return n, true, nil
		}
		r.Logger.Warn("dropping unreadable cache entry", "key", key)
		_ = r.Cache.Delete(ctx, key)
	} else if err != nil {
		r.Logger.Warn("cache lookup failed", "key", key, "error", err)
	}
	observability.Cache().OnCacheMiss(ctx, "parse")

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, format, len(data))
	start := time.Now()
	n, _, err := Decode(data, format)
	hooks.OnParseComplete(ctx, format, len(n.Trees), countNodes(n), time.Since(start), err)
	if err != nil {
		return nml.NML{}, false, err
	}

	if encoded, err := wkio.MarshalJSON(n); err == nil {
		if err := r.Cache.Set(ctx, key, encoded, cache.TTLParse); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "parse", len(encoded))
		}
	}
	return n, false, nil
}

// Transform applies the transforms in opts to n. Only Execute consults the
// cache for transform results.
func (r *Runner) Transform(ctx context.Context, n nml.NML, opts Options) (nml.NML, Changes, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nml.NML{}, Changes{}, err
	}
	r.applyLogger(&opts)
	return applyTransforms(ctx, n, opts)
}

type transformEntry struct {
	Changes  Changes         `json:"changes"`
	Document json.RawMessage `json:"document"`
}

func (r *Runner) transformCached(ctx context.Context, hash string, n nml.NML, opts Options) (nml.NML, Changes, bool, error) {
	key := r.Keyer.TransformKey(hash, opts.TransformKeyOpts())
	if cached, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
		var e transformEntry
		if err := json.Unmarshal(cached, &e); err == nil {
			if out, err := wkio.UnmarshalJSON(e.Document); err == nil {
				observability.Cache().OnCacheHit(ctx, "transform")
				return out, e.Changes, true, nil
			}
		}
		_ = r.Cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "transform")

	out, changes, err := applyTransforms(ctx, n, opts)
	if err != nil {
		return nml.NML{}, Changes{}, false, err
	}

	doc, err := wkio.MarshalJSON(out)
	if err == nil {
		entry, err := json.Marshal(transformEntry{Changes: changes, Document: doc})
		if err == nil {
			if err := r.Cache.Set(ctx, key, entry, cache.TTLTransform); err != nil {
				r.Logger.Warn("cache write failed", "key", key, "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "transform", len(entry))
			}
		}
	}
	return out, changes, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func countNodes(n nml.NML) int {
	total := 0
	for _, t := range n.Trees {
		total += len(t.Nodes)
	}
	return total
}
