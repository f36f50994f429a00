package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
)

type UpstreamConfig struct {
	BaseURL string
	Path    string
	Timeout time.Duration

	// Retries per fetch, after the first attempt.
	MaxRetries    uint64
	RetryInterval time.Duration

	BreakerFailures uint32
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration
}

// Upstream pulls whole snapshots from a remote back office. Calls go
// through a circuit breaker; the last good snapshot is kept for fallback.
type Upstream struct {
	url     string
	cfg     UpstreamConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger

	mu       sync.RWMutex
	lastGood *ents.Snapshot
}

func NewUpstream(cfg UpstreamConfig, log *zap.Logger) *Upstream {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	path := "/" + strings.TrimLeft(strings.TrimSpace(cfg.Path), "/")

	u := &Upstream{
		url:    base + path,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
	u.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "snapshot-upstream",
		Interval: cfg.BreakerInterval,
		Timeout:  cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("breaker state change", zap.String("breaker", name),
				zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	return u
}

func (u *Upstream) State() gobreaker.State { return u.breaker.State() }

// LastGood returns the most recent snapshot fetched successfully, or nil.
func (u *Upstream) LastGood() *ents.Snapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.lastGood
}

// Fetch downloads and validates one snapshot. A failed fetch (after
// retries) counts as one breaker failure.
func (u *Upstream) Fetch(ctx context.Context) (*ents.Snapshot, error) {
	res, err := u.breaker.Execute(func() (any, error) {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = u.cfg.RetryInterval
		policy := backoff.WithContext(backoff.WithMaxRetries(bo, u.cfg.MaxRetries), ctx)
		return backoff.RetryWithData(func() (*ents.Snapshot, error) {
			return u.get(ctx)
		}, policy)
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot upstream: %w", err)
	}
	snap := res.(*ents.Snapshot)
	u.mu.Lock()
	u.lastGood = snap
	u.mu.Unlock()
	return snap, nil
}

func (u *Upstream) get(ctx context.Context) (*ents.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
	}

	var snap ents.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode: %w", err))
	}
	if err := Validate(&snap); err != nil {
		return nil, backoff.Permanent(err)
	}
	return &snap, nil
}

// Refresh fetches immediately and then every interval, publishing each good
// snapshot into store. Failures leave the store untouched. Returns when ctx
// is done.
//
// The upstream is authoritative: a refreshed snapshot replaces device
// statuses applied by telemetry since the previous refresh.
func (u *Upstream) Refresh(ctx context.Context, store *Store, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		start := time.Now()
		snap, err := u.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			u.log.Warn("snapshot refresh failed", zap.Error(err),
				zap.Stringer("breaker", u.State()), zap.Bool("has_last_good", u.LastGood() != nil))
		} else {
			store.Replace(snap)
			u.log.Info("snapshot refreshed", zap.Duration("took", time.Since(start)),
				zap.Int("estates", len(snap.Estates)), zap.Int("devices", len(snap.Devices)))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
