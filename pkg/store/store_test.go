package store

import (
	"context"
	"testing"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

func chainVersion(t *testing.T, diagramID string, parent *ir.Version) ir.Version {
	t.Helper()
	doc := ir.Doc{Diagram: ir.Diagram{
		ID:   "shop",
		Type: "architecture",
		Blocks: []ir.Block{
			{ID: "auth", Type: "service", Text: "Auth", BBox: ir.BBox{X: 40, Y: 40, W: 160, H: 64}, Version: 1},
		},
	}}
	v, err := ir.MakeVersion(diagramID, doc, parent)
	if err != nil {
		t.Fatalf("MakeVersion() error = %v", err)
	}
	return v
}

// conformance runs the contract every backend must satisfy.
func conformance(t *testing.T, s Store) {
	ctx := context.Background()

	v1 := chainVersion(t, "dgm-a", nil)
	if err := s.Put(ctx, v1); err != nil {
		t.Fatalf("Put(v1) error = %v", err)
	}

	// Skipping a version number is a conflict.
	v3 := v1.Clone()
	v3.IRVersion = 3
	if err := s.Put(ctx, v3); !apperrors.Is(err, apperrors.ErrCodeStoreConflict) {
		t.Errorf("Put(v3) error = %v, want STORE_CONFLICT", err)
	}

	// Re-putting the head is a conflict too.
	if err := s.Put(ctx, v1); !apperrors.Is(err, apperrors.ErrCodeStoreConflict) {
		t.Errorf("Put(v1) again error = %v, want STORE_CONFLICT", err)
	}

	v2 := chainVersion(t, "dgm-a", &v1)
	if err := s.Put(ctx, v2); err != nil {
		t.Fatalf("Put(v2) error = %v", err)
	}

	got, err := s.Get(ctx, "dgm-a", 1)
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if got.IRVersion != 1 || got.DiagramID != "dgm-a" {
		t.Errorf("Get(1) = %d/%s", got.IRVersion, got.DiagramID)
	}

	head, err := s.Head(ctx, "dgm-a")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.IRVersion != 2 {
		t.Errorf("Head() version = %d, want 2", head.IRVersion)
	}

	history, err := s.History(ctx, "dgm-a")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[0].IRVersion != 1 || history[1].IRVersion != 2 {
		t.Errorf("History() = %d entries", len(history))
	}

	// Unknown lookups are NOT_FOUND.
	if _, err := s.Get(ctx, "dgm-a", 99); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Get(99) error = %v, want NOT_FOUND", err)
	}
	if _, err := s.Head(ctx, "dgm-missing"); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Head(missing) error = %v, want NOT_FOUND", err)
	}

	// Chains are isolated per diagram.
	other := chainVersion(t, "dgm-b", nil)
	if err := s.Put(ctx, other); err != nil {
		t.Fatalf("Put(other) error = %v", err)
	}
	history, err = s.History(ctx, "dgm-a")
	if err != nil || len(history) != 2 {
		t.Errorf("History(dgm-a) after other put = %d entries, err %v", len(history), err)
	}

	// Delete removes the whole chain and is idempotent.
	if err := s.Delete(ctx, "dgm-a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Head(ctx, "dgm-a"); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Head after delete error = %v, want NOT_FOUND", err)
	}
	if err := s.Delete(ctx, "dgm-a"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}

	// A deleted diagram can start a fresh chain at version 1.
	if err := s.Put(ctx, chainVersion(t, "dgm-a", nil)); err != nil {
		t.Errorf("Put after delete error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close(context.Background())
	conformance(t, s)
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close(ctx)

	v1 := chainVersion(t, "dgm-iso", nil)
	if err := s.Put(ctx, v1); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Mutating a retrieved version must not affect the stored copy.
	got, err := s.Get(ctx, "dgm-iso", 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.IR.Diagram.Blocks[0].Text = "mutated"

	again, err := s.Get(ctx, "dgm-iso", 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.IR.Diagram.Blocks[0].Text != "Auth" {
		t.Error("stored version mutated through returned copy")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	defer s.Close(context.Background())
	conformance(t, s)
}

func TestFileStoreReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	v1 := chainVersion(t, "dgm-persist", nil)
	if err := s.Put(ctx, v1); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	s.Close(ctx)

	// A fresh handle over the same directory sees the chain.
	reopened, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	defer reopened.Close(ctx)

	head, err := reopened.Head(ctx, "dgm-persist")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.IRVersion != 1 {
		t.Errorf("Head() version = %d, want 1", head.IRVersion)
	}

	v2 := chainVersion(t, "dgm-persist", &v1)
	if err := reopened.Put(ctx, v2); err != nil {
		t.Errorf("Put(v2) after reopen error = %v", err)
	}
}
