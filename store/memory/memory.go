// Package memory provides an in-memory RunStore for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/depreciation-engine/macrs"
)

// Store keeps runs in memory. Append-only, like every RunStore.
type Store struct {
	mu   sync.RWMutex
	runs map[string]macrs.Run
}

func New() *Store {
	return &Store{runs: make(map[string]macrs.Run)}
}

func (s *Store) SaveRun(_ context.Context, run macrs.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *Store) GetRun(_ context.Context, id string) (macrs.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return macrs.Run{}, macrs.ErrRunNotFound
	}
	return run, nil
}

func (s *Store) ListRuns(_ context.Context, limit int) ([]macrs.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]macrs.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
