// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries music metadata APIs. Each adapter wraps one
// platform (MusicBrainz, Deezer, iTunes) behind a common interface so
// the resolver can fan out without knowing platform details.
package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// Adapter searches a single metadata platform. Adapters must be safe
// for concurrent use; the resolver calls them from one goroutine per
// source.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query types.TrackQuery, cfg types.HTTPConfig) ([]types.PlatformResult, error)
}

// Limited wraps an Adapter with a token-bucket rate limiter. Each
// source has its own quota, so each gets its own limiter.
type Limited struct {
	Adapter
	limiter *rate.Limiter
}

// Limit wraps a in a rate limiter built from cfg. A zero rate means
// the source is not throttled and a is returned unchanged.
func Limit(a Adapter, cfg types.SourceConfig) Adapter {
	if cfg.RequestsPerSec <= 0 {
		return a
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		Adapter: a,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst),
	}
}

// Search blocks until the limiter grants a token, then delegates to
// the wrapped adapter. Cancellation of ctx unblocks the wait.
func (l *Limited) Search(ctx context.Context, query types.TrackQuery, cfg types.HTTPConfig) ([]types.PlatformResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit wait: %w", l.Name(), err)
	}
	return l.Adapter.Search(ctx, query, cfg)
}

// newClient builds the HTTP client adapters share. The per-request
// deadline comes from ctx; Timeout is a backstop for hung connections.
func newClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
