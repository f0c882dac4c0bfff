package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/scalableminds/wknml/pkg/cache"
	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/observability"
)

const twoNodeDoc = `<?xml version="1.0" encoding="UTF-8"?>
<things>
  <parameters>
    <experiment name="test" />
    <scale x="1" y="1" z="1" />
  </parameters>
  <thing id="1" name="axon">
    <nodes>
      <node id="1" x="0" y="0" z="0" />
      <node id="2" x="10" y="0" z="0" />
    </nodes>
    <edges>
      <edge source="1" target="2" />
    </edges>
  </thing>
</things>
`

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(&bytes.Buffer{}))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"nml", false},
		{"json", false},
		{"NML", true},
		{"svg", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
		code wkerrors.Code
	}{
		{"xml", `<?xml version="1.0"?><things/>`, FormatNML, ""},
		{"leading whitespace", "\n\t <things/>", FormatNML, ""},
		{"bom", "\ufeff<things/>", FormatNML, ""},
		{"json", `{"parameters":{}}`, FormatJSON, ""},
		{"empty", "  \n", "", wkerrors.ErrCodeInvalidInput},
		{"unknown", "hello", "", wkerrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat([]byte(tt.data))
			if got != tt.want {
				t.Errorf("DetectFormat = %q, want %q", got, tt.want)
			}
			if code := wkerrors.GetCode(err); code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"zero", Options{}, false},
		{"json out", Options{OutputFormat: FormatJSON}, false},
		{"bad output", Options{OutputFormat: "svg"}, true},
		{"bad input", Options{InputFormat: "xml"}, true},
		{"negative max edge", Options{MaxEdgeLength: -1}, true},
		{"simplify", Options{SimplifyLength: 5, SimplifyAngle: 0.5}, false},
		{"angle too large", Options{SimplifyLength: 5, SimplifyAngle: 4}, true},
		{"angle without length", Options{SimplifyAngle: 0.5}, true},
		{"zero scale component", Options{Merge: true, Scale: nml.Vec3{1, 0, 1}}, true},
		{"scale", Options{Merge: true, Scale: nml.Vec3{11.24, 11.24, 25}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !wkerrors.IsInputError(err) {
				t.Errorf("error %v is not classified as input error", err)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{SimplifyLength: 3}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.OutputFormat != FormatNML {
		t.Errorf("OutputFormat = %q, want %q", opts.OutputFormat, FormatNML)
	}
	if opts.SimplifyAngle != DefaultSimplifyAngle {
		t.Errorf("SimplifyAngle = %v, want %v", opts.SimplifyAngle, DefaultSimplifyAngle)
	}

	again := opts
	if err := again.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(opts, again); diff != "" {
		t.Errorf("ValidateAndSetDefaults not idempotent (-first +second):\n%s", diff)
	}
}

func TestHasTransforms(t *testing.T) {
	tests := []struct {
		opts Options
		want bool
	}{
		{Options{}, false},
		{Options{OutputFormat: FormatJSON, Seed: 7}, false},
		{Options{Split: true}, true},
		{Options{MaxEdgeLength: 1}, true},
		{Options{SimplifyLength: 1}, true},
		{Options{Merge: true}, true},
		{Options{Reglobalize: true}, true},
	}
	for _, tt := range tests {
		if got := tt.opts.HasTransforms(); got != tt.want {
			t.Errorf("%+v.HasTransforms() = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestExecuteWithoutTransforms(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(twoNodeDoc), Options{})
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := nml.Parse(bytes.NewReader([]byte(twoNodeDoc)))
	if err != nil {
		t.Fatal(err)
	}
	want, err := nml.Marshal(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Output, want) {
		t.Errorf("output differs from canonical serialization:\n%s", cmp.Diff(string(want), string(res.Output)))
	}
	if res.Stats.Trees != 1 || res.Stats.Nodes != 2 || res.Stats.Edges != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheInfo.ParseHit || res.CacheInfo.TransformHit {
		t.Errorf("CacheInfo = %+v with NullCache", res.CacheInfo)
	}
}

func TestExecuteMaxEdgeLength(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(twoNodeDoc), Options{MaxEdgeLength: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Changes.AddedNodes != 4 {
		t.Errorf("AddedNodes = %d, want 4", res.Changes.AddedNodes)
	}
	if res.Stats.Nodes != 6 || res.Stats.Edges != 5 {
		t.Errorf("Stats = %d nodes %d edges, want 6 and 5", res.Stats.Nodes, res.Stats.Edges)
	}
	for _, tree := range res.NML.Trees {
		for _, e := range tree.Edges {
			var a, b nml.Vec3
			for _, nd := range tree.Nodes {
				if nd.ID == e.Source {
					a = nd.Position
				}
				if nd.ID == e.Target {
					b = nd.Position
				}
			}
			if d := nml.Distance(a, b, nml.Vec3{1, 1, 1}); d > 2+1e-9 {
				t.Errorf("edge %d-%d has length %v", e.Source, e.Target, d)
			}
		}
	}
}

func TestExecuteJSONOutput(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(twoNodeDoc), Options{OutputFormat: FormatJSON})
	if err != nil {
		t.Fatal(err)
	}
	back, format, err := Decode(res.Output, "")
	if err != nil {
		t.Fatal(err)
	}
	if format != FormatJSON {
		t.Errorf("detected %q, want json", format)
	}
	if !nml.Equal(back, res.NML) {
		t.Error("JSON output does not decode to the result document")
	}
}

func TestExecuteUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(c)
	ctx := context.Background()
	opts := Options{MaxEdgeLength: 3, Reglobalize: true, Seed: 1}

	first, err := r.Execute(ctx, []byte(twoNodeDoc), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.ParseHit || first.CacheInfo.TransformHit {
		t.Errorf("first run CacheInfo = %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, []byte(twoNodeDoc), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ParseHit || !second.CacheInfo.TransformHit {
		t.Errorf("second run CacheInfo = %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Output, second.Output) {
		t.Error("cached output differs")
	}
	if first.Changes != second.Changes {
		t.Errorf("Changes = %+v from cache, want %+v", second.Changes, first.Changes)
	}

	opts.MaxEdgeLength = 4
	third, err := r.Execute(ctx, []byte(twoNodeDoc), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.ParseHit || third.CacheInfo.TransformHit {
		t.Errorf("changed options CacheInfo = %+v", third.CacheInfo)
	}
}

func TestExecuteInvalidInput(t *testing.T) {
	r := quietRunner(nil)
	tests := []struct {
		name string
		data string
		code wkerrors.Code
	}{
		{"not a document", "hello", wkerrors.ErrCodeInvalidFormat},
		{"truncated", "<things><parameters>", wkerrors.ErrCodeMalformedInput},
		{"no parameters", "<things></things>", wkerrors.ErrCodeStructural},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), []byte(tt.data), Options{})
			if code := wkerrors.GetCode(err); code != tt.code {
				t.Errorf("code = %q (%v), want %q", code, err, tt.code)
			}
		})
	}
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := quietRunner(nil).Execute(ctx, []byte(twoNodeDoc), Options{Split: true})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTransformStageOrder(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &stageRecorder{}
	observability.SetPipelineHooks(hooks)

	n, err := nml.Parse(bytes.NewReader([]byte(twoNodeDoc)))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Merge: true, SimplifyLength: 1, MaxEdgeLength: 5, Split: true}
	if _, _, err := quietRunner(nil).Transform(context.Background(), n, opts); err != nil {
		t.Fatal(err)
	}
	want := []string{"split", "max_edge_length", "simplify", "merge"}
	if diff := cmp.Diff(want, hooks.stages); diff != "" {
		t.Errorf("stage order (-want +got):\n%s", diff)
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	n, err := nml.Parse(bytes.NewReader([]byte(twoNodeDoc)))
	if err != nil {
		t.Fatal(err)
	}
	before := n.Clone()
	out, _, err := quietRunner(nil).Transform(context.Background(), n, Options{MaxEdgeLength: 1, Reglobalize: true})
	if err != nil {
		t.Fatal(err)
	}
	if !nml.Equal(n, before) {
		t.Error("Transform mutated its input")
	}
	if len(out.Trees[0].Nodes) != 11 {
		t.Errorf("got %d nodes, want 11", len(out.Trees[0].Nodes))
	}
}

type stageRecorder struct {
	observability.NoopPipelineHooks
	stages []string
}

func (s *stageRecorder) OnTransformStart(_ context.Context, name string, _ int) {
	s.stages = append(s.stages, name)
}
