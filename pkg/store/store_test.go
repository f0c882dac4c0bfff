package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
)

func sampleNML() nml.NML {
	return nml.NML{
		Parameters: nml.Parameters{Name: "2012-09-28_ex145_07x2", Scale: nml.Vec3{11.24, 11.24, 25}},
		Trees: []nml.Tree{{
			ID:    1,
			Name:  "axon",
			Color: nml.Color{1, 0, 0, 1},
			Nodes: []nml.Node{
				{ID: 1, Position: nml.Vec3{1, 2, 3}, Radius: nml.Ptr(1.5)},
				{ID: 2, Position: nml.Vec3{4, 5, 6}, Radius: nml.Ptr(1.5)},
			},
			Edges: []nml.Edge{{Source: 1, Target: 2}},
		}},
		Comments: []nml.Comment{{Node: 2, Content: nml.Ptr("tip")}},
	}
}

// exerciseStore runs the behavior every Store must share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	n := sampleNML()

	a, err := s.Put(ctx, "cell 12", n)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !ValidID(a.ID) {
		t.Errorf("Put returned id %q", a.ID)
	}
	if a.Name != "cell 12" || a.Experiment != n.Parameters.Name || a.Trees != 1 || a.Nodes != 2 {
		t.Errorf("summary = %+v", a)
	}
	if a.Size == 0 || len(a.Hash) != 64 {
		t.Errorf("size %d hash %q", a.Size, a.Hash)
	}

	got, meta, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !nml.Equal(got, n) {
		t.Error("Get returned a different document")
	}
	if meta.ID != a.ID || !meta.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("Get summary = %+v, want %+v", meta, a)
	}

	b, err := s.Put(ctx, "cell 13", n)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if b.ID == a.ID {
		t.Error("ids are not unique")
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := map[string]bool{}
	for i, item := range list {
		ids[item.ID] = true
		if i > 0 && item.CreatedAt.After(list[i-1].CreatedAt) {
			t.Error("List not sorted newest first")
		}
	}
	if !ids[a.ID] || !ids[b.ID] {
		t.Errorf("List missing stored ids: %v", list)
	}
	if limited, _ := s.List(ctx, 1); len(limited) != 1 {
		t.Errorf("List(1) returned %d items", len(limited))
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: %v", err)
	}
	if err := s.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: %v", err)
	}
	if err := s.Delete(ctx, b.ID); err != nil {
		t.Errorf("Delete b: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close(context.Background())
	exerciseStore(t, s)
}

func TestPutRejectsBadNames(t *testing.T) {
	s := NewMemoryStore()
	for _, name := range []string{"", "   ", "../etc", "a/b", "tab\there"} {
		_, err := s.Put(context.Background(), name, sampleNML())
		if !wkerrors.Is(err, wkerrors.ErrCodeInvalidInput) {
			t.Errorf("Put(%q) err = %v, want INVALID_INPUT", name, err)
		}
	}
	if list, _ := s.List(context.Background(), 0); len(list) != 0 {
		t.Errorf("rejected puts were stored: %v", list)
	}
}

func TestMemoryStoreUnknownID(t *testing.T) {
	s := NewMemoryStore()
	if _, _, err := s.Get(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown = %v", err)
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{uuid.NewString(), true},
		{"", false},
		{"not-a-uuid", false},
		{"{$ne: null}", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("WKNML_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("WKNML_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "wknml_test",
		Collection: "annotations_" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = s.coll.Drop(ctx)
		_ = s.Close(ctx)
	}()
	exerciseStore(t, s)

	if _, _, err := s.Get(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get malformed id = %v", err)
	}
}
