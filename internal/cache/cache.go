// Package cache holds read-model results (reports, summaries) between
// writes. Entries are keyed per user so a write can drop exactly the
// reports it may have changed.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix removes every key starting with prefix and returns the count.
	DeletePrefix(prefix string) int
	Size() int
}

// UserPrefix is the key prefix shared by all entries of one user.
func UserPrefix(userID int64) string {
	return "u" + strconv.FormatInt(userID, 10) + ":"
}

// Key builds a user-scoped key such as "u7:analytics:2024-05".
func Key(userID int64, parts ...string) string {
	return UserPrefix(userID) + strings.Join(parts, ":")
}

// Manager periodically evicts expired entries of registered caches.
type Manager struct {
	caches []Cleaner
	done   chan struct{}
}

type Cleaner interface {
	CleanExpired() int
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup runs until ctx is cancelled. Wait blocks until it returns.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	m.done = make(chan struct{})
	go m.cleanup(ctx, interval)
}

func (m *Manager) cleanup(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := 0
			for _, cache := range m.caches {
				cleaned += cache.CleanExpired()
			}
			if cleaned > 0 {
				slog.DebugContext(ctx, "Evicted expired cache entries", "count", cleaned)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) Wait() {
	if m.done != nil {
		<-m.done
	}
}
