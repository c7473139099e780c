package service

import (
	"github.com/spiffcs/prwatch/internal/model"
)

// Subscribe returns a channel that receives every published snapshot,
// starting with the current one. Delivery is latest-wins: a slow consumer
// sees the newest snapshot, never a backlog. Call the returned function to
// unsubscribe.
func (s *Service) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, 1)

	// Lock order is mu then subMu, matching update.
	s.mu.RLock()
	ch <- s.snapshot.Clone()
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	s.mu.RUnlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

// publish must be called with s.mu held.
func (s *Service) publish(snap model.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale snapshot the consumer has not read yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
