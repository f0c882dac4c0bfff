package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnParseStart(ctx, "nml", 1024)
	p.OnParseComplete(ctx, "nml", 3, 120, time.Millisecond, nil)
	p.OnTransformStart(ctx, "simplify", 120)
	p.OnTransformComplete(ctx, "simplify", 17, time.Millisecond, nil)
	p.OnWriteComplete(ctx, "nml", 2048, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "parse")
	c.OnCacheMiss(ctx, "transform")
	c.OnCacheSet(ctx, "parse", 512)

	s := NoopServerHooks{}
	s.OnRequest(ctx, "POST", "/v1/inspect")
	s.OnResponse(ctx, "POST", "/v1/inspect", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() default is not NoopPipelineHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() default is not NoopCacheHooks")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() default is not NoopServerHooks")
	}

	p := &recordingPipeline{}
	SetPipelineHooks(p)
	if Pipeline() != p {
		t.Error("SetPipelineHooks did not register")
	}
	c := &recordingCache{}
	SetCacheHooks(c)
	if Cache() != c {
		t.Error("SetCacheHooks did not register")
	}
	s := &testServerHooks{}
	SetServerHooks(s)
	if Server() != s {
		t.Error("SetServerHooks did not register")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset did not restore NoopPipelineHooks")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Reset did not restore NoopServerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	p := &recordingPipeline{}
	SetPipelineHooks(p)
	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetServerHooks(nil)

	if Pipeline() != p {
		t.Error("SetPipelineHooks(nil) replaced the hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) replaced the default")
	}
}

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	p := &recordingPipeline{}
	c := &recordingCache{}
	SetPipelineHooks(p)
	SetCacheHooks(c)

	ctx := context.Background()
	Pipeline().OnTransformStart(ctx, "merge", 10)
	Pipeline().OnTransformStart(ctx, "split", 10)
	Cache().OnCacheMiss(ctx, "parse")
	Cache().OnCacheHit(ctx, "parse")
	Cache().OnCacheHit(ctx, "transform")

	if len(p.transforms) != 2 || p.transforms[0] != "merge" || p.transforms[1] != "split" {
		t.Errorf("transforms = %v", p.transforms)
	}
	if c.hits != 2 || c.misses != 1 {
		t.Errorf("hits = %d, misses = %d", c.hits, c.misses)
	}
}

type recordingPipeline struct {
	NoopPipelineHooks
	transforms []string
}

func (r *recordingPipeline) OnTransformStart(_ context.Context, name string, _ int) {
	r.transforms = append(r.transforms, name)
}

type recordingCache struct {
	NoopCacheHooks
	hits, misses int
}

func (r *recordingCache) OnCacheHit(context.Context, string)  { r.hits++ }
func (r *recordingCache) OnCacheMiss(context.Context, string) { r.misses++ }

type testServerHooks struct{ NoopServerHooks }
