// Package checkpoint keeps bounded full-document snapshots so accepted edits
// can be restored exactly.
package checkpoint

import (
	"errors"
	"fmt"
	"time"

	"texpilot/logger"
	"texpilot/text"
	"texpilot/types"
)

// DefaultCapacity is the number of checkpoints retained per store.
const DefaultCapacity = 10

// ErrNotFound is returned when a checkpoint id is unknown or evicted.
// Restoring an evicted checkpoint is a permanent failure; there is no
// secondary recovery.
var ErrNotFound = errors.New("checkpoint not found")

// Store is a fixed-capacity ring buffer of checkpoints. Inserting past
// capacity evicts the oldest entry.
type Store struct {
	capacity    int
	checkpoints []*types.Checkpoint
}

// NewStore creates a store with the given capacity; cap <= 0 uses
// DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// Snapshot records the full document text prior to mutation and returns the
// new checkpoint's id. Must be called synchronously before any mutation
// resulting from an accepted suggestion.
func (s *Store) Snapshot(contentBefore, description string) string {
	cp := &types.Checkpoint{
		ID:            types.NewID(),
		ContentBefore: contentBefore,
		Timestamp:     time.Now(),
		Description:   description,
	}

	s.checkpoints = append(s.checkpoints, cp)
	if len(s.checkpoints) > s.capacity {
		evicted := s.checkpoints[0]
		s.checkpoints = s.checkpoints[1:]
		logger.Debug("checkpoint %s evicted (capacity %d)", evicted.ID, s.capacity)
	}

	return cp.ID
}

// Commit records the post-mutation content and edit statistics for audit.
// It does not gate the mutation; that already happened through the editor
// surface.
func (s *Store) Commit(id, contentAfter string) error {
	cp := s.find(id)
	if cp == nil {
		return fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	cp.ContentAfter = contentAfter
	cp.Additions, cp.Deletions = text.DiffStats(cp.ContentBefore, contentAfter)
	return nil
}

// Discard removes a snapshot whose mutation never happened, freeing its
// retention slot. Unknown ids are ignored.
func (s *Store) Discard(id string) {
	for i, cp := range s.checkpoints {
		if cp.ID == id {
			s.checkpoints = append(s.checkpoints[:i], s.checkpoints[i+1:]...)
			return
		}
	}
}

// Restore returns the exact pre-edit content for a checkpoint.
func (s *Store) Restore(id string) (string, error) {
	cp := s.find(id)
	if cp == nil {
		return "", fmt.Errorf("restore %s: %w", id, ErrNotFound)
	}
	return cp.ContentBefore, nil
}

// Get returns the checkpoint with the given id, or nil.
func (s *Store) Get(id string) *types.Checkpoint {
	return s.find(id)
}

// List returns the retained checkpoints, oldest first.
func (s *Store) List() []*types.Checkpoint {
	out := make([]*types.Checkpoint, len(s.checkpoints))
	copy(out, s.checkpoints)
	return out
}

// Len returns the number of retained checkpoints.
func (s *Store) Len() int {
	return len(s.checkpoints)
}

func (s *Store) find(id string) *types.Checkpoint {
	for _, cp := range s.checkpoints {
		if cp.ID == id {
			return cp
		}
	}
	return nil
}
