package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

type cacheEntry struct {
	ticks     []domain.Tick
	fetchedAt time.Time
}

// tickCache keeps the last good snapshot per market.
type tickCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newTickCache(ttl time.Duration, now func() time.Time) *tickCache {
	return &tickCache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

// get returns the cached ticks and whether they are still fresh.
func (c *tickCache) get(market string) (ticks []domain.Tick, fresh, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[market]
	if !ok {
		return nil, false, false
	}
	return e.ticks, c.now().Sub(e.fetchedAt) < c.ttl, true
}

func (c *tickCache) put(market string, ticks []domain.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[market] = cacheEntry{ticks: ticks, fetchedAt: c.now()}
}

// fetch returns fresh cached ticks, or refreshes them from the venue. A
// failed refresh falls back to the last good snapshot when there is one.
func (s *Session) fetch(ctx context.Context) ([]domain.Tick, error) {
	market := s.cfg.Session.Market
	cached, fresh, ok := s.cache.get(market)
	if ok && fresh {
		return cached, nil
	}

	ticks, err := s.venue.FetchRecentTicks(ctx, market, s.cfg.Session.HistoryCount)
	if err == nil && len(ticks) > 0 {
		s.cache.put(market, ticks)
		s.saveTicks(ctx, market, ticks)
		return ticks, nil
	}
	if err == nil {
		err = fmt.Errorf("no ticks for %s: %w", market, domain.ErrInsufficientData)
	}
	if ok {
		slog.Warn("live: refresh failed, using cached data", "market", market, "err", err)
		return cached, nil
	}
	return nil, fmt.Errorf("live.fetch: %w", err)
}

func (s *Session) saveTicks(ctx context.Context, market string, ticks []domain.Tick) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTicks(ctx, market, ticks); err != nil {
		slog.Warn("live: save ticks failed", "market", market, "err", err)
	}
}
