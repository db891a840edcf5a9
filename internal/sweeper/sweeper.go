// Package sweeper expires idle assessment sessions.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/skillpath/internal/shared"
	"github.com/ashureev/skillpath/internal/store"
)

// ExpiredCallback is called for every session removed by a sweep.
type ExpiredCallback func(sessionID string)

// Sweeper periodically deletes sessions idle for longer than TTL.
type Sweeper struct {
	store     store.Store
	ttl       time.Duration
	interval  time.Duration
	onExpired ExpiredCallback
	logger    *slog.Logger
}

// New creates a sweeper. onExpired may be nil.
func New(st store.Store, ttl, interval time.Duration, onExpired ExpiredCallback) *Sweeper {
	return &Sweeper{
		store:     st,
		ttl:       ttl,
		interval:  interval,
		onExpired: onExpired,
		logger:    slog.Default(),
	}
}

// Start runs the sweep loop on a background goroutine until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("Session sweeper started", "interval", s.interval, "ttl", s.ttl)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.Info("Session sweeper shutting down", "reason", ctx.Err())
			return
		}
	}
}

// Sweep runs one pass and returns the number of expired sessions.
func (s *Sweeper) Sweep(ctx context.Context) int {
	var expired []string
	err := shared.RetrySQLite(ctx, "delete expired sessions", shared.DefaultRetryPolicy, func() error {
		var err error
		expired, err = s.store.DeleteExpired(ctx, s.ttl)
		return err
	})
	if err != nil && ctx.Err() == nil {
		s.logger.Error("Session sweep failed", "error", err)
	}
	if len(expired) == 0 {
		return 0
	}

	for _, id := range expired {
		if s.onExpired != nil {
			s.onExpired(id)
		}
	}
	s.logger.Info("Session sweep completed", "expired", len(expired))
	return len(expired)
}
