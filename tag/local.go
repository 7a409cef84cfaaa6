package tag

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	Gen       uint64
	UpdatedAt time.Time
}

// LocalStore keeps tag generations in-process. Optional cleanup loop
// prunes long-inactive tags.
type LocalStore struct {
	mu     sync.RWMutex
	gens   map[string]localEntry
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup

	retention time.Duration
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a LocalStore. If cleanupInterval and retention
// are both positive, a background goroutine prunes tags untouched for
// longer than retention every cleanupInterval.
func NewLocalStore(cleanupInterval, retention time.Duration) *LocalStore {
	s := &LocalStore{
		gens:      make(map[string]localEntry),
		retention: retention,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *LocalStore) Snapshot(_ context.Context, tagName string) (uint64, error) {
	s.mu.RLock()
	e, ok := s.gens[tagName]
	s.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	return e.Gen, nil
}

// SnapshotMany acquires the read lock once and reads every requested tag
// under it.
func (s *LocalStore) SnapshotMany(_ context.Context, tags []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(tags))
	s.mu.RLock()
	for _, t := range tags {
		out[t] = s.gens[t].Gen // zero value (0) if unseen
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *LocalStore) Bump(_ context.Context, tagName string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[tagName]
	e.Gen++
	e.UpdatedAt = now
	s.gens[tagName] = e
	s.mu.Unlock()
	return e.Gen, nil
}

func (s *LocalStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for t, e := range s.gens {
		if !e.UpdatedAt.IsZero() && e.UpdatedAt.Before(cutoff) {
			delete(s.gens, t)
		}
	}
	s.mu.Unlock()
}

func (s *LocalStore) Close(_ context.Context) error {
	if s.stopCh != nil {
		close(s.stopCh)
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.wg.Wait()
	}
	return nil
}
