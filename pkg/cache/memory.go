package cache

import (
	"context"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is a stored response payload with its expiry deadline.
type Entry struct {
	Body        []byte
	ContentType string
	StoredAt    time.Time
	ExpiresAt   time.Time
}

func (e Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// MemoryStore is a process-wide in-memory payload cache keyed by exact strings.
// Entries expire a fixed TTL after set time; there is no sliding expiry and no
// size-based eviction. Construct one instance at startup and inject it.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry

	defaultTTL    time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger
	now           func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMemoryStore constructs an empty store. defaultTTL applies when Set is
// called with a non-positive TTL; sweepInterval drives the background sweeper.
func NewMemoryStore(defaultTTL, sweepInterval time.Duration, logger *zap.Logger) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		entries:       make(map[string]Entry),
		defaultTTL:    defaultTTL,
		sweepInterval: sweepInterval,
		logger:        logger,
		now:           time.Now,
	}
}

// Start launches the background expiry sweeper. Safe to call once.
func (s *MemoryStore) Start(ctx context.Context) {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.sweep(); removed > 0 {
					s.logger.Debug("cache sweep", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// Stop cancels the sweeper and waits for it to exit.
func (s *MemoryStore) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Get returns the live entry for key. Expired entries are treated as misses
// and dropped eagerly so the sweeper is not load-bearing for correctness.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if entry.expired(s.now()) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.expired(s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Set stores the entry under key, overwriting any previous value. A
// non-positive ttl falls back to the store default.
func (s *MemoryStore) Set(key string, body []byte, contentType string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.now()
	entry := Entry{
		Body:        append([]byte(nil), body...),
		ContentType: contentType,
		StoredAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
}

// Delete removes a single key if present.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// InvalidateMatching removes every key matching the pattern and returns the
// number of entries removed.
func (s *MemoryStore) InvalidateMatching(pattern *regexp.Regexp) int {
	if s == nil || pattern == nil {
		return 0
	}
	s.mu.Lock()
	removed := 0
	for key := range s.entries {
		if pattern.MatchString(key) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.logger.Info("cache invalidated", zap.String("pattern", pattern.String()), zap.Int("removed", removed))
	}
	return removed
}

// Flush unconditionally empties the store and returns the number of entries
// dropped.
func (s *MemoryStore) Flush() int {
	s.mu.Lock()
	removed := len(s.entries)
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
	s.logger.Info("cache flushed", zap.Int("removed", removed))
	return removed
}

// Len reports the current entry count, expired entries included until swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) sweep() int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}
