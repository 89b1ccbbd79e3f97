package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"
)

// Result is the admission decision for one request.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type clientState struct {
	windowStart   time.Time
	count         int
	flagged       bool
	cooldownUntil time.Time
}

// Limiter admits requests per client identifier under a fixed window.
// A client that hits the ceiling is flagged and rejected until the cooldown
// expires or Clear is called, even if its window has since rolled over.
type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*clientState
	limit    int
	window   time.Duration
	cooldown time.Duration
}

func New(limit int, window, cooldown time.Duration) *Limiter {
	return &Limiter{
		clients:  make(map[string]*clientState),
		limit:    limit,
		window:   window,
		cooldown: cooldown,
	}
}

// Admit decides whether the request identified by id may proceed at time now.
func (l *Limiter) Admit(id string, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.clients[id]
	if !ok {
		st = &clientState{windowStart: now}
		l.clients[id] = st
	}

	if st.flagged {
		if now.Before(st.cooldownUntil) {
			return Result{Allowed: false, RetryAfter: st.cooldownUntil.Sub(now)}
		}
		st.flagged = false
		st.windowStart = now
		st.count = 0
	}

	if now.Sub(st.windowStart) >= l.window {
		st.windowStart = now
		st.count = 0
	}

	if st.count >= l.limit {
		st.flagged = true
		st.cooldownUntil = now.Add(l.cooldown)
		return Result{Allowed: false, RetryAfter: l.cooldown}
	}

	st.count++
	return Result{Allowed: true, Remaining: l.limit - st.count}
}

// Clear removes all state for id, lifting any active flag.
func (l *Limiter) Clear(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, id)
}

// Prune drops entries whose window and cooldown have both expired.
func (l *Limiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, st := range l.clients {
		if st.flagged && now.Before(st.cooldownUntil) {
			continue
		}
		if now.Sub(st.windowStart) < l.window {
			continue
		}
		delete(l.clients, id)
		removed++
	}
	return removed
}

// StartJanitor prunes stale entries on an interval until ctx is cancelled.
func (l *Limiter) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("[RateLimit] janitor stopped")
				return
			case now := <-ticker.C:
				if n := l.Prune(now); n > 0 {
					log.Printf("[RateLimit] pruned %d stale clients", n)
				}
			}
		}
	}()
}
