package ratelimiter

import (
	"sync"
	"time"

	"github.com/udid-foundation/udid-chain/internal/config"
	"go.uber.org/zap"
)

// FixedWindowRateLimiter counts requests per client inside a fixed time
// frame. Counters reset when their window expires, so a burst straddling two
// windows can briefly exceed the configured rate. Good enough for abuse
// protection on a public verification endpoint.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowCounter
	cfg     config.RateLimiterConfig
	logger  *zap.SugaredLogger
}

type windowCounter struct {
	count      int
	windowEnds time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]*windowCounter),
		cfg:     cfg,
		logger:  logger,
	}

	if cfg.Enabled {
		go rl.cleanupLoop()
	}

	return rl
}

// Allow reports whether the client may proceed and, when denied, how long
// until its window resets.
func (rl *FixedWindowRateLimiter) Allow(clientID string) (bool, time.Duration) {
	if !rl.cfg.Enabled {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	counter, ok := rl.clients[clientID]
	if !ok || now.After(counter.windowEnds) {
		rl.clients[clientID] = &windowCounter{count: 1, windowEnds: now.Add(rl.cfg.TimeFrame)}
		return true, 0
	}

	if counter.count >= rl.cfg.RequestsPerTimeFrame {
		return false, time.Until(counter.windowEnds)
	}

	counter.count++
	return true, 0
}

// cleanupLoop drops expired counters so the client map does not grow
// unbounded.
func (rl *FixedWindowRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.TimeFrame)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		rl.mu.Lock()
		for clientID, counter := range rl.clients {
			if now.After(counter.windowEnds) {
				delete(rl.clients, clientID)
			}
		}
		rl.mu.Unlock()
	}
}
