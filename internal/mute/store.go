// Package mute tracks PRs the user has silenced and revives them when
// someone else acts on them after the mute.
package mute

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/log"
)

// KV is the persistence the store needs. *kvstore.Store satisfies it.
type KV interface {
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
}

// Store is the set of muted PR identities and when each was muted. It is
// the only writer of that state; every mutation is persisted.
type Store struct {
	mu    sync.RWMutex
	kv    KV
	muted map[string]time.Time
	now   func() time.Time
}

// NewStore loads muted PRs from kv. An id present in the set without a
// timestamp is kept muted with a zero mute time.
func NewStore(kv KV) (*Store, error) {
	s := &Store{
		kv:    kv,
		muted: make(map[string]time.Time),
		now:   time.Now,
	}

	var ids []string
	if _, err := kv.Get(constants.KeyMutedPRs, &ids); err != nil {
		return nil, fmt.Errorf("failed to load muted PRs: %w", err)
	}
	stamps := make(map[string]int64)
	if _, err := kv.Get(constants.KeyMuteTimestamps, &stamps); err != nil {
		return nil, fmt.Errorf("failed to load mute timestamps: %w", err)
	}

	for _, id := range ids {
		var at time.Time
		if secs, ok := stamps[id]; ok {
			at = time.Unix(secs, 0)
		}
		s.muted[id] = at
	}
	log.Debug("loaded mute state", "muted", len(s.muted))
	return s, nil
}

// Toggle mutes an unmuted PR or unmutes a muted one. It returns the new state.
func (s *Store) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, wasMuted := s.muted[id]
	if wasMuted {
		delete(s.muted, id)
	} else {
		s.muted[id] = s.now()
	}
	log.Info("toggled mute", "id", id, "muted", !wasMuted)
	return !wasMuted, s.persist()
}

// IsMuted reports whether id is muted.
func (s *Store) IsMuted(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.muted[id]
	return ok
}

// MutedAt returns when id was muted.
func (s *Store) MutedAt(id string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.muted[id]
	return at, ok
}

// MutedIDs returns the muted identities in sorted order.
func (s *Store) MutedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.muted))
}

// Snapshot returns a copy of the id to mute time map.
func (s *Store) Snapshot() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.muted)
}

// UnmuteClosed unmutes every PR that is no longer in openIDs and returns the
// ids it removed. Calling it again with the same set is a no-op.
func (s *Store) UnmuteClosed(openIDs []string) ([]string, error) {
	open := make(map[string]struct{}, len(openIDs))
	for _, id := range openIDs {
		open[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id := range s.muted {
		if _, ok := open[id]; !ok {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	slices.Sort(removed)
	for _, id := range removed {
		delete(s.muted, id)
	}
	log.Info("unmuted PRs no longer open", "ids", removed)
	return removed, s.persist()
}

// unmuteIfUnchanged removes ids whose mute time still matches the one the
// reconciler evaluated. A PR re-muted while its activity was being fetched
// keeps its newer mute.
func (s *Store) unmuteIfUnchanged(evaluated map[string]time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, at := range evaluated {
		if cur, ok := s.muted[id]; ok && cur.Equal(at) {
			delete(s.muted, id)
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	slices.Sort(removed)
	return removed, s.persist()
}

// persist writes both keys. Callers hold mu.
func (s *Store) persist() error {
	if len(s.muted) == 0 {
		if err := errors.Join(s.kv.Delete(constants.KeyMutedPRs), s.kv.Delete(constants.KeyMuteTimestamps)); err != nil {
			return fmt.Errorf("failed to clear muted PRs: %w", err)
		}
		return nil
	}

	ids := slices.Sorted(maps.Keys(s.muted))
	stamps := make(map[string]int64, len(s.muted))
	for id, at := range s.muted {
		if !at.IsZero() {
			stamps[id] = at.Unix()
		}
	}

	if err := s.kv.Set(constants.KeyMutedPRs, ids); err != nil {
		return fmt.Errorf("failed to persist muted PRs: %w", err)
	}
	if err := s.kv.Set(constants.KeyMuteTimestamps, stamps); err != nil {
		return fmt.Errorf("failed to persist mute timestamps: %w", err)
	}
	return nil
}
