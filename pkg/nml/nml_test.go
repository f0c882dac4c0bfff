package nml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func mustParse(t *testing.T, data []byte) NML {
	t.Helper()
	n, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return n
}

func mustMarshal(t *testing.T, n NML) []byte {
	t.Helper()
	out, err := Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return out
}

func fullFixture() NML {
	return NML{
		Parameters: Parameters{
			Name:            "2012-09-28_ex145_07x2",
			Scale:           Vec3{11.24, 11.24, 25},
			Offset:          &Vec3{0, 0, 0},
			Time:            Ptr[int64](1507550793899),
			EditPosition:    &Vec3{3584, 3582, 1024},
			EditRotation:    &Vec3{0, 0, 0},
			ZoomLevel:       Ptr(2.5),
			TaskBoundingBox: &BoundingBox{0, 0, 0, 100, 100, 50},
			UserBoundingBox: &BoundingBox{10, 20, 30, 40, 50, 60},
		},
		Trees: []Tree{
			{
				ID:      1,
				Color:   Color{0.098, 0.565, 0.318, 1},
				Name:    "axon",
				GroupID: Ptr(3),
				Nodes: []Node{
					{
						ID:            1,
						Position:      Vec3{3584, 3582, 1024},
						Radius:        Ptr(120.0),
						Rotation:      &Vec3{0, 0, 0},
						InVp:          Ptr(0),
						InMag:         Ptr(0),
						BitDepth:      Ptr(8),
						Interpolation: Ptr(true),
						Time:          Ptr[int64](1507550793899),
					},
					{ID: 2, Position: Vec3{3600, 3590, 1030}},
					{ID: 3, Position: Vec3{3620.5, 3590, 1030}, Radius: Ptr(1.5)},
				},
				Edges: []Edge{{1, 2}, {2, 3}},
			},
			{ID: 2, Color: Color{1, 0, 0, 1}},
		},
		Branchpoints: []Branchpoint{{ID: 2, Time: Ptr[int64](1507550793899)}},
		Comments:     []Comment{{Node: 3, Content: Ptr("soma & dendrite")}},
		Groups: []Group{
			{ID: 1, Name: "Root", Children: []Group{
				{ID: 2, Name: "Level 2", Children: []Group{
					{ID: 3, Name: "Level 3"},
				}},
			}},
			{ID: 4, Name: "Other"},
		},
		Volume: &Volume{ID: 1, Location: "data.zip", FallbackLayer: Ptr("segmentation")},
	}
}

func TestParseFull(t *testing.T) {
	got := mustParse(t, readFixture(t, "full.nml"))
	want := fullFixture()

	if !Equal(got, want) {
		t.Errorf("Parse mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestWriteMatchesFixture(t *testing.T) {
	data := readFixture(t, "full.nml")
	out := mustMarshal(t, mustParse(t, data))

	if !bytes.Equal(out, data) {
		t.Errorf("Write output differs from fixture (-want +got):\n%s", cmp.Diff(string(data), string(out)))
	}
}

func TestRoundTrip(t *testing.T) {
	for _, fixture := range []string{"full.nml", "legacy.nml"} {
		t.Run(fixture, func(t *testing.T) {
			first := mustParse(t, readFixture(t, fixture))
			out1 := mustMarshal(t, first)
			second := mustParse(t, out1)
			out2 := mustMarshal(t, second)

			if !Equal(first, second) {
				t.Errorf("round trip changed the model (-first +second):\n%s", cmp.Diff(first, second))
			}
			if !bytes.Equal(out1, out2) {
				t.Errorf("second write differs from first:\n%s", cmp.Diff(string(out1), string(out2)))
			}
		})
	}
}

func TestParseLegacyAttributes(t *testing.T) {
	n := mustParse(t, readFixture(t, "legacy.nml"))

	if len(n.Trees) != 2 {
		t.Fatalf("got %d trees, want 2", len(n.Trees))
	}
	legacy := n.Trees[0]
	if legacy.Name != "old style name" {
		t.Errorf("Name = %q, want %q", legacy.Name, "old style name")
	}
	if want := (Color{0.5, 0.25, 0, 1}); legacy.Color != want {
		t.Errorf("Color = %v, want %v", legacy.Color, want)
	}

	bare := n.Trees[1]
	if bare.Color != DefaultColor {
		t.Errorf("default Color = %v, want %v", bare.Color, DefaultColor)
	}
	if bare.Name != "" {
		t.Errorf("default Name = %q, want empty", bare.Name)
	}
	if bare.GroupID != nil {
		t.Errorf("groupId -1 should be absent, got %d", *bare.GroupID)
	}
	if len(n.Groups) != 0 {
		t.Errorf("document without groups tag got %d groups", len(n.Groups))
	}
}

func TestParseTreeAttributes(t *testing.T) {
	tests := []struct {
		name      string
		attrs     string
		wantName  string
		wantColor Color
		wantGroup *int
	}{
		{"name wins over comment", `name="new" comment="old"`, "new", DefaultColor, nil},
		{"dotted color wins over legacy", `color.r="1" color.g="1" color.b="1" color.a="0.5" colorr="0" colorg="0" colorb="0" colora="0"`, "", Color{1, 1, 1, 0.5}, nil},
		{"group id", `groupId="3"`, "", DefaultColor, Ptr(3)},
		{"group id zero", `groupId="0"`, "", DefaultColor, Ptr(0)},
		{"negative group id", `groupId="-1"`, "", DefaultColor, nil},
		{"unparsable group id", `groupId="abc"`, "", DefaultColor, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := minimalDoc(`<thing id="1" ` + tt.attrs + `><nodes/><edges/></thing>`)
			n := mustParse(t, []byte(doc))
			tree := n.Trees[0]
			if tree.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", tree.Name, tt.wantName)
			}
			if tree.Color != tt.wantColor {
				t.Errorf("Color = %v, want %v", tree.Color, tt.wantColor)
			}
			if diff := cmp.Diff(tt.wantGroup, tree.GroupID); diff != "" {
				t.Errorf("GroupID mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func minimalDoc(body string) string {
	return `<?xml version="1.0"?><things><parameters><experiment name="e"/><scale x="1" y="1" z="1"/></parameters>` +
		body + `</things>`
}

func TestOptionalFieldsStayAbsent(t *testing.T) {
	doc := minimalDoc(`<thing id="1"><nodes><node id="1" x="1" y="2" z="3"/></nodes><edges/></thing>`)
	n := mustParse(t, []byte(doc))

	nd := n.Trees[0].Nodes[0]
	if nd.Radius != nil || nd.Rotation != nil || nd.InVp != nil || nd.InMag != nil ||
		nd.BitDepth != nil || nd.Interpolation != nil || nd.Time != nil {
		t.Errorf("optional node fields should be nil, got %+v", nd)
	}
	p := n.Parameters
	if p.Offset != nil || p.Time != nil || p.EditPosition != nil || p.EditRotation != nil ||
		p.ZoomLevel != nil || p.TaskBoundingBox != nil || p.UserBoundingBox != nil {
		t.Errorf("optional parameters should be nil, got %+v", p)
	}

	out := string(mustMarshal(t, n))
	for _, absent := range []string{"radius", "rotX", "inVp", "inMag", "bitDepth", "interpolation", "time", "offset", "editPosition", "zoomLevel", "BoundingBox", "groupId", "volume"} {
		if strings.Contains(out, absent) {
			t.Errorf("output should not contain %q:\n%s", absent, out)
		}
	}
}

func TestWriteSectionOrder(t *testing.T) {
	out := string(mustMarshal(t, fullFixture()))

	order := []string{"<parameters>", "<thing ", "<branchpoints>", "<comments>", "<groups>", "<volume "}
	last := -1
	for _, tag := range order {
		i := strings.Index(out, tag)
		if i < 0 {
			t.Fatalf("output is missing %s", tag)
		}
		if i < last {
			t.Errorf("%s written out of order", tag)
		}
		last = i
	}
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("output should start with an XML declaration, got %q", out[:40])
	}
}

func TestDeepGroupNesting(t *testing.T) {
	// two siblings at every level, four levels deep
	next := 0
	var forest func(depth int) []Group
	forest = func(depth int) []Group {
		if depth == 0 {
			return nil
		}
		out := make([]Group, 2)
		for i := range out {
			next++
			out[i] = Group{ID: next, Name: fmt.Sprintf("g%d", next)}
			out[i].Children = forest(depth - 1)
		}
		return out
	}
	groups := forest(4)
	flat := FlattenGroups(groups)
	if len(flat) != 30 {
		t.Fatalf("built %d groups, want 30", len(flat))
	}
	last := flat[len(flat)-1].ID

	n := NML{
		Parameters: Parameters{Name: "deep", Scale: Vec3{1, 1, 1}},
		Trees: []Tree{
			{ID: 1, Color: DefaultColor, GroupID: Ptr(last)},
			{ID: 2, Color: DefaultColor, GroupID: Ptr(groups[1].Children[0].ID)},
		},
		Groups: groups,
	}

	got := mustParse(t, mustMarshal(t, n))
	if !Equal(got, n) {
		t.Errorf("nested groups changed (-want +got):\n%s", cmp.Diff(n, got))
	}
	if d := Stats(got).GroupDepth; d != 4 {
		t.Errorf("GroupDepth = %d, want 4", d)
	}
	if diff := cmp.Diff(flat, FlattenGroups(got.Groups)); diff != "" {
		t.Errorf("group order changed (-want +got):\n%s", diff)
	}
	var siblings func(level int, gs []Group)
	siblings = func(level int, gs []Group) {
		if level < 4 && len(gs) != 2 {
			t.Errorf("level %d has %d groups, want 2", level, len(gs))
		}
		for _, g := range gs {
			siblings(level+1, g.Children)
		}
	}
	siblings(0, got.Groups)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, err error)
		code  wkerrors.Code
	}{
		{
			name:  "empty input",
			input: "",
			code:  wkerrors.ErrCodeMalformedInput,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, io.ErrUnexpectedEOF) {
					t.Errorf("empty input should wrap io.ErrUnexpectedEOF, got %v", err)
				}
			},
		},
		{
			name:  "mismatched tags",
			input: `<things><parameters></things>`,
			code:  wkerrors.ErrCodeMalformedInput,
			check: func(t *testing.T, err error) {
				var me *MalformedInputError
				if !errors.As(err, &me) {
					t.Fatalf("want *MalformedInputError, got %T", err)
				}
			},
		},
		{
			name:  "missing experiment",
			input: `<things><parameters><scale x="1" y="1" z="1"/></parameters></things>`,
			code:  wkerrors.ErrCodeMissingAttribute,
			check: wantMissing("experiment", "name"),
		},
		{
			name:  "missing scale",
			input: `<things><parameters><experiment name="e"/></parameters></things>`,
			code:  wkerrors.ErrCodeMissingAttribute,
			check: wantMissing("scale", "x"),
		},
		{
			name:  "missing scale component",
			input: `<things><parameters><experiment name="e"/><scale x="1" y="1"/></parameters></things>`,
			code:  wkerrors.ErrCodeMissingAttribute,
			check: wantMissing("scale", "z"),
		},
		{
			name:  "missing node coordinate",
			input: minimalDoc(`<thing id="1"><nodes><node id="1" x="1" y="1"/></nodes></thing>`),
			code:  wkerrors.ErrCodeMissingAttribute,
			check: wantMissing("node", "z"),
		},
		{
			name:  "partial rotation",
			input: minimalDoc(`<thing id="1"><nodes><node id="1" x="1" y="1" z="1" rotX="0"/></nodes></thing>`),
			code:  wkerrors.ErrCodeMissingAttribute,
			check: wantMissing("node", "rotY"),
		},
		{
			name:  "missing edge target",
			input: minimalDoc(`<thing id="1"><edges><edge source="1"/></edges></thing>`),
			code:  wkerrors.ErrCodeMissingAttribute,
			check: wantMissing("edge", "target"),
		},
		{
			name:  "non numeric node id",
			input: minimalDoc(`<thing id="1"><nodes><node id="a" x="1" y="1" z="1"/></nodes></thing>`),
			code:  wkerrors.ErrCodeInvalidAttribute,
			check: func(t *testing.T, err error) {
				var ie *InvalidAttributeError
				if !errors.As(err, &ie) {
					t.Fatalf("want *InvalidAttributeError, got %T", err)
				}
				if ie.Tag != "node" || ie.Attr != "id" || ie.Value != "a" {
					t.Errorf("got %+v", ie)
				}
			},
		},
		{
			name:  "nan coordinate",
			input: minimalDoc(`<thing id="1"><nodes><node id="1" x="NaN" y="1" z="1"/></nodes></thing>`),
			code:  wkerrors.ErrCodeInvalidAttribute,
			check: func(t *testing.T, err error) {
				var ie *InvalidAttributeError
				if !errors.As(err, &ie) {
					t.Fatalf("want *InvalidAttributeError, got %T", err)
				}
				if ie.Attr != "x" || ie.Value != "NaN" {
					t.Errorf("got %+v", ie)
				}
			},
		},
		{
			name:  "infinite radius",
			input: minimalDoc(`<thing id="1"><nodes><node id="1" x="1" y="1" z="1" radius="+Inf"/></nodes></thing>`),
			code:  wkerrors.ErrCodeInvalidAttribute,
		},
		{
			name:  "bad interpolation",
			input: minimalDoc(`<thing id="1"><nodes><node id="1" x="1" y="1" z="1" interpolation="maybe"/></nodes></thing>`),
			code:  wkerrors.ErrCodeInvalidAttribute,
		},
		{
			name:  "node outside tree",
			input: minimalDoc(`<nodes><node id="1" x="1" y="1" z="1"/></nodes>`),
			code:  wkerrors.ErrCodeStructural,
			check: func(t *testing.T, err error) {
				var se *StructuralError
				if !errors.As(err, &se) || se.Tag != "node" {
					t.Errorf("want structural error at <node>, got %v", err)
				}
			},
		},
		{
			name:  "no parameters",
			input: `<things></things>`,
			code:  wkerrors.ErrCodeStructural,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("Parse succeeded with %+v, want error", n)
			}
			if got := wkerrors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (err: %v)", got, tt.code, err)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func wantMissing(tag, attr string) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var me *MissingAttributeError
		if !errors.As(err, &me) {
			t.Fatalf("want *MissingAttributeError, got %T: %v", err, err)
		}
		if me.Tag != tag || me.Attr != attr {
			t.Errorf("missing = <%s %s>, want <%s %s>", me.Tag, me.Attr, tag, attr)
		}
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestParseReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := Parse(failingReader{boom})
	if !errors.Is(err, boom) {
		t.Fatalf("want read error, got %v", err)
	}
	var me *MalformedInputError
	if errors.As(err, &me) {
		t.Errorf("read errors should not be reported as malformed input")
	}
}

func TestUnknownTagsIgnored(t *testing.T) {
	doc := minimalDoc(`<meta foo="bar"><x/></meta><thing id="1"><nodes/><edges/><extra/></thing>`)
	n := mustParse(t, []byte(doc))
	if len(n.Trees) != 1 {
		t.Errorf("got %d trees, want 1", len(n.Trees))
	}
}

func TestEqual(t *testing.T) {
	base := NML{Parameters: Parameters{Name: "e", Scale: Vec3{1, 1, 1}}}

	withEmpty := base.WithTrees([]Tree{}).WithComments([]Comment{})
	if !Equal(base, withEmpty) {
		t.Error("nil and empty slices should compare equal")
	}

	a := fullFixture()
	b := fullFixture()
	if !Equal(a, b) {
		t.Fatal("identical annotations should compare equal")
	}

	b.Trees[0].Nodes[0].Radius = Ptr(121.0)
	if Equal(a, b) {
		t.Error("different radius should not compare equal")
	}

	c := fullFixture()
	c.Trees[0].Nodes[1].Radius = Ptr(1.0)
	if Equal(a, c) {
		t.Error("present and absent radius should not compare equal")
	}

	d := fullFixture()
	d.Groups[0].Children[0].Children[0].Name = "renamed"
	if Equal(a, d) {
		t.Error("nested group change should be detected")
	}
}

func TestClone(t *testing.T) {
	orig := fullFixture()
	cp := orig.Clone()

	*cp.Trees[0].Nodes[0].Radius = 1
	cp.Trees[0].Edges[0].Source = 99
	cp.Groups[0].Children[0].Name = "changed"
	*cp.Volume.FallbackLayer = "other"

	if !Equal(orig, fullFixture()) {
		t.Errorf("mutating the clone changed the original:\n%s", cmp.Diff(fullFixture(), orig))
	}
}

func TestWithHelpersDoNotMutate(t *testing.T) {
	orig := fullFixture()
	_ = orig.WithTrees(nil).WithGroups(nil).WithParameters(Parameters{Name: "x"})
	_ = orig.Trees[0].WithNodes(nil).WithEdges(nil)

	if !Equal(orig, fullFixture()) {
		t.Error("With* helpers changed the receiver")
	}
}

func TestFlattenGroups(t *testing.T) {
	got := FlattenGroups(fullFixture().Groups)
	want := []Group{{ID: 1, Name: "Root"}, {ID: 2, Name: "Level 2"}, {ID: 3, Name: "Level 3"}, {ID: 4, Name: "Other"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FlattenGroups mismatch (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	s := Stats(fullFixture())

	if s.Trees != 2 || s.Nodes != 3 || s.Edges != 2 || s.Groups != 4 || s.GroupDepth != 3 {
		t.Errorf("counts = %+v", s)
	}
	if s.Branchpoints != 1 || s.Comments != 1 {
		t.Errorf("annotations = %d/%d, want 1/1", s.Branchpoints, s.Comments)
	}
	if s.Bounds == nil {
		t.Fatal("Bounds should be set")
	}
	if want := (Vec3{3584, 3582, 1024}); s.Bounds.Min != want {
		t.Errorf("Bounds.Min = %v, want %v", s.Bounds.Min, want)
	}
	if want := (Vec3{3620.5, 3590, 1030}); s.Bounds.Max != want {
		t.Errorf("Bounds.Max = %v, want %v", s.Bounds.Max, want)
	}
	if s.PerTree[1].Length != 0 {
		t.Errorf("empty tree length = %v, want 0", s.PerTree[1].Length)
	}

	if empty := Stats(NML{}); empty.Bounds != nil {
		t.Errorf("Bounds of empty annotation = %+v, want nil", empty.Bounds)
	}
}

func TestFileHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.nml")
	if err := WriteFile(path, fullFixture()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !Equal(got, fullFixture()) {
		t.Errorf("file round trip mismatch:\n%s", cmp.Diff(fullFixture(), got))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.nml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestAttributeEscaping(t *testing.T) {
	n := NML{
		Parameters: Parameters{Name: `a "quoted" <name> & more`, Scale: Vec3{1, 1, 1}},
		Trees:      []Tree{{ID: 1, Color: DefaultColor, Name: "line\nbreak\ttab"}},
	}
	got := mustParse(t, mustMarshal(t, n))
	if !Equal(got, n) {
		t.Errorf("escaping round trip mismatch (-want +got):\n%s", cmp.Diff(n, got))
	}
}
