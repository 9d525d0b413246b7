package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// File stores each version as one JSON file under dir/<diagram>/vNNNNNN.json.
// The zero-padded name keeps lexical and numeric ordering identical.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates a file store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "create store directory")
	}
	return &File{dir: dir}, nil
}

func (s *File) versionPath(diagramID string, version int) string {
	return filepath.Join(s.dir, diagramID, fmt.Sprintf("v%06d.json", version))
}

func (s *File) head(diagramID string) int {
	entries, err := os.ReadDir(filepath.Join(s.dir, diagramID))
	if err != nil {
		return 0
	}
	head := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "v") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(name, "v%06d.json", &n); err == nil && n > head {
			head = n
		}
	}
	return head
}

func (s *File) Put(_ context.Context, v ir.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.head(v.DiagramID)
	if v.IRVersion != head+1 {
		return apperrors.New(apperrors.ErrCodeStoreConflict,
			"diagram %s: version %d conflicts with head %d", v.DiagramID, v.IRVersion, head)
	}

	data, err := ir.Marshal(v)
	if err != nil {
		return err
	}
	path := s.versionPath(v.DiagramID, v.IRVersion)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "create diagram directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "write version file")
	}
	return nil
}

func (s *File) Get(_ context.Context, diagramID string, version int) (ir.Version, error) {
	data, err := os.ReadFile(s.versionPath(diagramID, version))
	if os.IsNotExist(err) {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound,
			"diagram %s has no version %d", diagramID, version)
	}
	if err != nil {
		return ir.Version{}, apperrors.Wrap(apperrors.ErrCodeStore, err, "read version file")
	}
	return ir.Unmarshal(data)
}

func (s *File) Head(ctx context.Context, diagramID string) (ir.Version, error) {
	s.mu.Lock()
	head := s.head(diagramID)
	s.mu.Unlock()

	if head == 0 {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound, "diagram %s not found", diagramID)
	}
	return s.Get(ctx, diagramID, head)
}

func (s *File) History(ctx context.Context, diagramID string) ([]ir.Version, error) {
	s.mu.Lock()
	head := s.head(diagramID)
	s.mu.Unlock()

	out := make([]ir.Version, 0, head)
	for n := 1; n <= head; n++ {
		v, err := s.Get(ctx, diagramID, n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IRVersion < out[j].IRVersion })
	return out, nil
}

func (s *File) Delete(_ context.Context, diagramID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.dir, diagramID)); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "delete diagram directory")
	}
	return nil
}

func (s *File) Close(context.Context) error {
	return nil
}

var _ Store = (*File)(nil)
