// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve orchestrates a resolution request end to end: fan
// out to the source adapters, cluster the raw results, merge the
// primary cluster, assess quality, and rank acquisition options. Every
// request runs inside a ResearchContext whose status walks the
// pipeline stages; failures degrade to reason codes on the context and
// never cross the API as panics.
package resolve

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/track-resolver/internal/assess"
	"github.com/pdiddy/track-resolver/internal/cache"
	"github.com/pdiddy/track-resolver/internal/match"
	"github.com/pdiddy/track-resolver/internal/merge"
	"github.com/pdiddy/track-resolver/internal/rank"
	"github.com/pdiddy/track-resolver/internal/source"
	"github.com/pdiddy/track-resolver/pkg/types"
)

// Engine resolves track queries against a fixed adapter set. Safe for
// concurrent use: per-request state lives on the ResearchContext.
type Engine struct {
	cfg      types.ResolverConfig
	adapters []source.Adapter
	cache    *cache.Cache
	merger   *merge.Merger
	out      io.Writer

	// OwnedQuality, when set, reports the quality score of an owned
	// copy of the record (rank.NotOwned when the track is not owned).
	// The library store provides this; it is optional.
	OwnedQuality func(record *types.MergedRecord) int

	newID func() string
	now   func() time.Time
}

// New builds an Engine over the given adapters. Progress lines go to w.
func New(cfg types.ResolverConfig, adapters []source.Adapter, w io.Writer) *Engine {
	if w == nil {
		w = io.Discard
	}
	return &Engine{
		cfg:      cfg,
		adapters: adapters,
		cache:    cache.New(cfg.Cache),
		merger:   merge.New(),
		out:      w,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Resolve runs the full pipeline: bounded widened rounds, primary
// cluster selection, merge, assessment, and acquisition ranking. The
// returned context is always terminal. An error is returned only for
// unusable input; source failures and thin data are reason codes.
func (e *Engine) Resolve(ctx context.Context, query types.TrackQuery) (*types.ResearchContext, error) {
	return e.run(ctx, query, e.adapters, e.cfg.MaxRounds)
}

// ResolveQuick runs a single non-widening round against a subset of
// sources, skipping none of the pipeline stages. With no source names
// it uses all adapters.
func (e *Engine) ResolveQuick(ctx context.Context, query types.TrackQuery, sources ...string) (*types.ResearchContext, error) {
	adapters := e.adapters
	if len(sources) > 0 {
		wanted := make(map[string]bool, len(sources))
		for _, s := range sources {
			wanted[s] = true
		}
		adapters = nil
		for _, a := range e.adapters {
			if wanted[a.Name()] {
				adapters = append(adapters, a)
			}
		}
		if len(adapters) == 0 {
			return nil, fmt.Errorf("no configured source matches %v", sources)
		}
	}
	return e.run(ctx, query, adapters, 1)
}

func (e *Engine) run(ctx context.Context, query types.TrackQuery, adapters []source.Adapter, maxRounds int) (*types.ResearchContext, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("query is empty: provide at least an artist or title")
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no source adapters configured")
	}
	if maxRounds < 1 {
		maxRounds = 1
	}

	rc := &types.ResearchContext{
		ID:        e.newID(),
		Query:     query,
		Status:    types.StatusCreated,
		StartedAt: e.now(),
	}

	ambiguous := false
	seen := make(map[string]bool)
	for round := 1; round <= maxRounds; round++ {
		rc.Rounds = round
		q := widen(query, round)
		if round > 1 {
			fmt.Fprintf(e.out, "round %d: retrying with widened query\n", round)
		}

		rc.Status = types.StatusCollecting
		for _, r := range e.collect(ctx, q, adapters) {
			// A widened retry can re-return hits the narrower round
			// already collected.
			k := resultKey(r)
			if seen[k] {
				continue
			}
			seen[k] = true
			rc.Raw = append(rc.Raw, r)
		}
		if len(rc.Raw) == 0 {
			continue
		}

		rc.Status = types.StatusMatching
		clusters := match.Cluster(rc.Raw, e.weights(), e.cfg.Matcher)
		primary, alternates, amb := pickPrimary(clusters, query.DurationHint, e.cfg.Matcher)
		rc.Primary = primary
		rc.Alternates = alternates
		ambiguous = amb

		rc.Status = types.StatusMerging
		record, conflicts := e.merger.Merge(*primary, e.reliability)
		rc.Record = record
		rc.Conflicts = conflicts

		rc.Status = types.StatusAssessing
		quality := assess.Assess(record, e.cfg.Assess, query.Requirements)
		rc.Quality = &quality

		// A partial record ends the pass: the caller decides whether a
		// thin but identified track is worth another run. Widened
		// retries are for rounds that identify nothing at all.
		if quality.Status != types.StatusUnresolved || ambiguous {
			break
		}
		if round < maxRounds {
			fmt.Fprintf(e.out, "no usable record this round (completeness %.2f)\n",
				quality.Completeness)
		}
	}

	e.finalize(rc, ambiguous)
	return rc, nil
}

// finalize settles the terminal status, reason code, and acquisition
// options.
func (e *Engine) finalize(rc *types.ResearchContext, ambiguous bool) {
	switch {
	case len(rc.Raw) == 0:
		rc.Status = types.StatusUnresolved
		rc.Reason = types.ReasonNoData
	case ambiguous:
		// Near-tied top clusters: the caller must disambiguate using
		// the alternates, so the record is at best partial.
		rc.Status = types.StatusPartial
		rc.Reason = types.ReasonAmbiguousMatch
	default:
		rc.Status = rc.Quality.Status
		if rc.Status == types.StatusPartial {
			rc.Reason = types.ReasonBelowThresholds
		}
		if rc.Status == types.StatusUnresolved {
			rc.Reason = types.ReasonNoData
		}
	}

	if rc.Primary != nil && (rc.Status == types.StatusSolved || rc.Status == types.StatusPartial) {
		owned := rank.NotOwned
		if e.OwnedQuality != nil {
			owned = e.OwnedQuality(rc.Record)
		}
		rc.Acquisitions, rc.UpgradeAvailable = rank.Rank(*rc.Primary, e.cfg.Rank, e.priorities(), owned)
	}

	rc.FinishedAt = e.now()
}

// MarkAcquired transitions a solved or partial context to acquired.
func MarkAcquired(rc *types.ResearchContext) error {
	if rc.Status != types.StatusSolved && rc.Status != types.StatusPartial {
		return fmt.Errorf("cannot mark %s context acquired", rc.Status)
	}
	rc.Status = types.StatusAcquired
	return nil
}

// collect fans the query out to every adapter concurrently and joins
// on the collection deadline. Each source goes through the cache
// first; a miss runs the adapter (already limiter-wrapped) under its
// per-source timeout and fills the cache, including sources that miss
// the deadline, so their work is not wasted on the next request.
func (e *Engine) collect(ctx context.Context, q types.TrackQuery, adapters []source.Adapter) []types.PlatformResult {
	type sourceReturn struct {
		name    string
		results []types.PlatformResult
		err     error
	}

	// Buffered so stragglers never block after the join gives up.
	ch := make(chan sourceReturn, len(adapters))
	for _, a := range adapters {
		key := cache.Key(a.Name(), q)
		if hit, ok := e.cache.Get(key); ok {
			ch <- sourceReturn{name: a.Name(), results: hit}
			continue
		}
		go func(a source.Adapter, key string) {
			sctx := ctx
			if t := e.cfg.Sources[a.Name()].Timeout; t > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, t)
				defer cancel()
			}
			results, err := a.Search(sctx, q, e.cfg.HTTP)
			if err == nil {
				e.cache.Put(key, results)
			}
			ch <- sourceReturn{name: a.Name(), results: results, err: err}
		}(a, key)
	}

	deadline := time.NewTimer(e.collectDeadline())
	defer deadline.Stop()

	var all []types.PlatformResult
	for received := 0; received < len(adapters); {
		select {
		case sr := <-ch:
			received++
			if sr.err != nil {
				fmt.Fprintf(e.out, "warning: source %s failed: %v\n", sr.name, sr.err)
				continue
			}
			all = append(all, sr.results...)
		case <-deadline.C:
			fmt.Fprintf(e.out, "collection deadline reached; proceeding with %d of %d sources\n",
				received, len(adapters))
			return all
		case <-ctx.Done():
			return all
		}
	}
	return all
}

func (e *Engine) collectDeadline() time.Duration {
	if e.cfg.CollectDeadline > 0 {
		return e.cfg.CollectDeadline
	}
	return 10 * time.Second
}

// pickPrimary selects the highest-aggregate-reliability cluster. A
// duration hint re-ranks first: clusters within the matcher's duration
// windows of the hinted length beat those beyond them, so a seven-minute
// hint picks the extended mix over the radio edit. A runner-up within
// margin at the same duration affinity makes the pick ambiguous.
func pickPrimary(clusters []types.Cluster, durationHint int, cfg types.MatcherConfig) (primary *types.Cluster, alternates []types.Cluster, ambiguous bool) {
	ordered := clusters
	if durationHint > 0 {
		ordered = make([]types.Cluster, len(clusters))
		copy(ordered, clusters)
		sort.SliceStable(ordered, func(i, j int) bool {
			return durationAffinity(ordered[i], durationHint, cfg) > durationAffinity(ordered[j], durationHint, cfg)
		})
	}

	primary = &ordered[0]
	alternates = ordered[1:]
	if len(ordered) > 1 {
		gap := ordered[0].AggregateReliability - ordered[1].AggregateReliability
		tied := durationHint <= 0 ||
			durationAffinity(ordered[0], durationHint, cfg) == durationAffinity(ordered[1], durationHint, cfg)
		ambiguous = tied && gap < cfg.AmbiguityMargin
	}
	return primary, alternates, ambiguous
}

// durationAffinity grades a cluster against the hinted duration: 2
// within the strong window, 1 within the reject window or when no
// member reports a duration, 0 beyond it.
func durationAffinity(c types.Cluster, hint int, cfg types.MatcherConfig) int {
	d := 0
	for _, r := range c.Results {
		if r.Fields.DurationSec > 0 {
			d = r.Fields.DurationSec
			break
		}
	}
	if d == 0 {
		return 1
	}
	diff := d - hint
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= cfg.DurationStrongSec:
		return 2
	case diff <= cfg.DurationRejectSec:
		return 1
	default:
		return 0
	}
}

// resultKey identifies a platform result across collection rounds, by
// identifier when the source reported one, otherwise by normalized
// name and duration.
func resultKey(r types.PlatformResult) string {
	if r.Fields.ISRC != "" {
		return r.Source + "|" + r.Fields.ISRC
	}
	return fmt.Sprintf("%s|%s|%d", r.Source, match.QueryKey(r.Fields.Artist, r.Fields.Title), r.Fields.DurationSec)
}

// widen relaxes the query for retry rounds: the second round drops the
// genre and album hints, later rounds also drop the year. Artist,
// title, and duration always stay; duration is what keeps distinct
// versions apart.
func widen(q types.TrackQuery, round int) types.TrackQuery {
	if round >= 2 {
		q.GenreHint = ""
		q.AlbumHint = ""
	}
	if round >= 3 {
		q.YearHint = 0
	}
	return q
}

// weights maps each configured source to its overall reliability for
// cluster scoring.
func (e *Engine) weights() match.Weights {
	w := make(match.Weights, len(e.cfg.Sources))
	for name, sc := range e.cfg.Sources {
		w[name] = sc.Reliability.Overall()
	}
	return w
}

// reliability is the merger's per-category trust lookup.
func (e *Engine) reliability(src string, cat types.FieldCategory) float64 {
	return e.cfg.Sources[src].Reliability.Weight(cat)
}

func (e *Engine) priorities() rank.Priorities {
	p := make(rank.Priorities, len(e.cfg.Sources))
	for name, sc := range e.cfg.Sources {
		p[name] = sc.Priority
	}
	return p
}
