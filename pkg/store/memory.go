package store

import (
	"context"
	"sync"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// Memory is an in-process store. Chains are deep-copied on the way in and
// out, so callers can never mutate stored state through shared slices.
type Memory struct {
	mu     sync.RWMutex
	chains map[string][]ir.Version
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{chains: make(map[string][]ir.Version)}
}

func (s *Memory) Put(_ context.Context, v ir.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.chains[v.DiagramID]
	if want := len(chain) + 1; v.IRVersion != want {
		return apperrors.New(apperrors.ErrCodeStoreConflict,
			"diagram %s: version %d conflicts with head %d", v.DiagramID, v.IRVersion, len(chain))
	}
	s.chains[v.DiagramID] = append(chain, v.Clone())
	return nil
}

func (s *Memory) Get(_ context.Context, diagramID string, version int) (ir.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.chains[diagramID]
	if version < 1 || version > len(chain) {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound,
			"diagram %s has no version %d", diagramID, version)
	}
	return chain[version-1].Clone(), nil
}

func (s *Memory) Head(_ context.Context, diagramID string) (ir.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.chains[diagramID]
	if len(chain) == 0 {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound, "diagram %s not found", diagramID)
	}
	return chain[len(chain)-1].Clone(), nil
}

func (s *Memory) History(_ context.Context, diagramID string) ([]ir.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.chains[diagramID]
	out := make([]ir.Version, len(chain))
	for i, v := range chain {
		out[i] = v.Clone()
	}
	return out, nil
}

func (s *Memory) Delete(_ context.Context, diagramID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chains, diagramID)
	return nil
}

func (s *Memory) Close(context.Context) error {
	return nil
}

var _ Store = (*Memory)(nil)
