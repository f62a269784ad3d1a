package server

import (
	"sync"
	"time"
)

// ingestLimiter caps report and reading submissions per client over a fixed
// window. Civic campaigns produce short bursts from single devices; the cap
// protects the validator without punishing distinct citizens behind it.
type ingestLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*submissionWindow
}

type submissionWindow struct {
	openedAt time.Time
	accepted int
}

func newIngestLimiter(limit int, window time.Duration) *ingestLimiter {
	return &ingestLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*submissionWindow),
	}
}

// Allow reports whether the client may submit now, opening a fresh window
// when the previous one has lapsed. Unknown clients are rejected.
func (l *ingestLimiter) Allow(clientKey string) bool {
	if clientKey == "" {
		return false
	}

	now := time.Now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.clients[clientKey]
	if w == nil || now.Sub(w.openedAt) > l.window {
		l.pruneLocked(now)
		w = &submissionWindow{openedAt: now}
		l.clients[clientKey] = w
	}

	if w.accepted >= l.limit {
		return false
	}
	w.accepted++
	return true
}

// pruneLocked drops clients whose window lapsed so the map does not grow
// with every address ever seen. Caller holds the mutex.
func (l *ingestLimiter) pruneLocked(now time.Time) {
	for key, w := range l.clients {
		if now.Sub(w.openedAt) > l.window {
			delete(l.clients, key)
		}
	}
}
