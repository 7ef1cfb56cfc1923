// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/track-resolver/pkg/types"
)

func testHTTPCfg() types.HTTPConfig {
	return types.HTTPConfig{
		Timeout:   5 * time.Second,
		UserAgent: "track-resolver-test/0.1",
	}
}

// stubAdapter counts calls and returns a fixed result.
type stubAdapter struct {
	name  string
	calls int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(_ context.Context, _ types.TrackQuery, _ types.HTTPConfig) ([]types.PlatformResult, error) {
	s.calls++
	return []types.PlatformResult{{Source: s.name}}, nil
}

func TestLimitPassthroughWhenUnthrottled(t *testing.T) {
	stub := &stubAdapter{name: "stub"}
	got := Limit(stub, types.SourceConfig{RequestsPerSec: 0})
	if got != Adapter(stub) {
		t.Error("Limit with zero rate should return the adapter unchanged")
	}
}

func TestLimitedSearchDelegates(t *testing.T) {
	stub := &stubAdapter{name: "stub"}
	a := Limit(stub, types.SourceConfig{RequestsPerSec: 100, Burst: 1})

	results, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "x", TitleHint: "y"}, testHTTPCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Source != "stub" {
		t.Errorf("results = %+v, want the stub's result", results)
	}
	if stub.calls != 1 {
		t.Errorf("calls = %d, want 1", stub.calls)
	}
	if a.Name() != "stub" {
		t.Errorf("Name() = %q, want %q", a.Name(), "stub")
	}
}

func TestLimitedSearchPacesRequests(t *testing.T) {
	stub := &stubAdapter{name: "stub"}
	a := Limit(stub, types.SourceConfig{RequestsPerSec: 20, Burst: 1})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "x", TitleHint: "y"}, testHTTPCfg()); err != nil {
			t.Fatalf("Search %d: %v", i, err)
		}
	}
	// Burst 1 at 20/s: calls 2 and 3 each wait about 50ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 calls took %v, want at least ~100ms of limiter waits", elapsed)
	}
}

func TestLimitedSearchHonorsCancellation(t *testing.T) {
	stub := &stubAdapter{name: "stub"}
	a := Limit(stub, types.SourceConfig{RequestsPerSec: 0.001, Burst: 1})

	// Drain the single burst token.
	if _, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "x", TitleHint: "y"}, testHTTPCfg()); err != nil {
		t.Fatalf("Search: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.Search(ctx, types.TrackQuery{ArtistHint: "x", TitleHint: "y"}, testHTTPCfg())
	if err == nil {
		t.Fatal("expected error when the limiter wait outlives the context")
	}
	if stub.calls != 1 {
		t.Errorf("calls = %d, want 1 (second call must not reach the adapter)", stub.calls)
	}
}
