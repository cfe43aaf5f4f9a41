package service

import (
	"sync"
	"time"

	"educrm_backend/internal/leads/transport"
)

// statsTTL bounds how stale the dashboard counts may get.
const statsTTL = 5 * time.Minute

// statsCache is a single-value TTL cache for the dashboard aggregate.
// It is local to the process and eventually consistent; write paths never
// read it.
type statsCache struct {
	mu        sync.RWMutex
	value     transport.StatsResponse
	expiresAt time.Time
	ttl       time.Duration
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{ttl: ttl}
}

func (c *statsCache) get(now time.Time) (transport.StatsResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiresAt.IsZero() || now.After(c.expiresAt) {
		return transport.StatsResponse{}, false
	}
	return c.value, true
}

func (c *statsCache) set(value transport.StatsResponse, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.expiresAt = now.Add(c.ttl)
}
