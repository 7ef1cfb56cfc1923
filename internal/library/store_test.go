// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pdiddy/track-resolver/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library", "tracks.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddOwnedAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tracks := []OwnedTrack{
		{Artist: "Orbital", Title: "Halcyon + On + On", ISRC: "GBAAA9300013", Format: "flac", QualityScore: 100},
		{Artist: "Daft Punk", Title: "One More Time", Format: "mp3-192", QualityScore: 60},
	}
	for _, tr := range tracks {
		if err := s.AddOwned(ctx, tr); err != nil {
			t.Fatalf("AddOwned(%s): %v", tr.Title, err)
		}
	}

	got, err := s.ListOwned(ctx)
	if err != nil {
		t.Fatalf("ListOwned: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Ordered by artist.
	if got[0].Artist != "Daft Punk" || got[1].Artist != "Orbital" {
		t.Errorf("order = %q, %q", got[0].Artist, got[1].Artist)
	}
	if got[1].ISRC != "GBAAA9300013" || got[1].QualityScore != 100 {
		t.Errorf("round-trip lost fields: %+v", got[1])
	}
	if got[0].AddedAt.IsZero() {
		t.Error("AddedAt not set")
	}
}

func TestAddOwnedUpsertsByNormalizedIdentity(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddOwned(ctx, OwnedTrack{Artist: "Röyksopp", Title: "Eple", Format: "mp3-128", QualityScore: 45}); err != nil {
		t.Fatal(err)
	}
	// Same track, different casing and diacritics: replaces, not duplicates.
	if err := s.AddOwned(ctx, OwnedTrack{Artist: "royksopp", Title: "EPLE", Format: "flac", QualityScore: 100}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListOwned(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (upsert)", len(got))
	}
	if got[0].QualityScore != 100 || got[0].Format != "flac" {
		t.Errorf("upsert did not replace quality: %+v", got[0])
	}
}

func TestAddOwnedRejectsIncomplete(t *testing.T) {
	s := testStore(t)
	if err := s.AddOwned(context.Background(), OwnedTrack{Artist: "Orbital"}); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestOwnedQualityLookup(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddOwned(ctx, OwnedTrack{
		Artist: "Daft Punk", Title: "One More Time",
		ISRC: "GBDUW0000053", Format: "mp3-320", QualityScore: 80,
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		record   *types.MergedRecord
		want     int
		wantOK   bool
	}{
		{
			"by ISRC",
			&types.MergedRecord{ISRC: "GBDUW0000053"},
			80, true,
		},
		{
			"by normalized artist/title",
			&types.MergedRecord{Artist: "daft punk", Title: "ONE MORE TIME"},
			80, true,
		},
		{
			"ISRC mismatch falls back to name",
			&types.MergedRecord{ISRC: "XX0000000000", Artist: "Daft Punk", Title: "One More Time"},
			80, true,
		},
		{
			"not owned",
			&types.MergedRecord{Artist: "Orbital", Title: "Halcyon"},
			0, false,
		},
		{"nil record", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.OwnedQuality(ctx, tt.record)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("OwnedQuality() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestUpgradeCandidates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, tr := range []OwnedTrack{
		{Artist: "A", Title: "Lossless", Format: "flac", QualityScore: 100},
		{Artist: "B", Title: "Mid", Format: "mp3-192", QualityScore: 60},
		{Artist: "C", Title: "Low", Format: "mp3-128", QualityScore: 45},
	} {
		if err := s.AddOwned(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.UpgradeCandidates(ctx, 80)
	if err != nil {
		t.Fatalf("UpgradeCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Worst first.
	if got[0].Title != "Low" || got[1].Title != "Mid" {
		t.Errorf("order = %q, %q, want worst first", got[0].Title, got[1].Title)
	}
}

func TestSaveAndListResolutions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rc := &types.ResearchContext{
		ID:     "ctx-1",
		Query:  types.TrackQuery{ArtistHint: "Orbital", TitleHint: "Halcyon"},
		Status: types.StatusSolved,
		Record: &types.MergedRecord{Title: "Halcyon + On + On", Artist: "Orbital", BPM: 126},
		Quality: &types.QualityReport{
			Completeness: 0.89,
			Confidence:   0.91,
			Status:       types.StatusSolved,
		},
	}
	if err := s.SaveResolution(ctx, rc); err != nil {
		t.Fatalf("SaveResolution: %v", err)
	}

	saved, err := s.ListResolutions(ctx)
	if err != nil {
		t.Fatalf("ListResolutions: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("len = %d, want 1", len(saved))
	}
	got := saved[0]
	if got.ID != "ctx-1" || got.Status != types.StatusSolved {
		t.Errorf("saved = %+v", got)
	}
	if got.Completeness != 0.89 || got.Confidence != 0.91 {
		t.Errorf("quality = %v / %v", got.Completeness, got.Confidence)
	}
	if got.Record == nil || got.Record.BPM != 126 {
		t.Errorf("record round-trip failed: %+v", got.Record)
	}

	// Re-saving the same context updates in place.
	rc.Status = types.StatusAcquired
	if err := s.SaveResolution(ctx, rc); err != nil {
		t.Fatalf("second SaveResolution: %v", err)
	}
	saved, err = s.ListResolutions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].Status != types.StatusAcquired {
		t.Errorf("upsert failed: %+v", saved)
	}
}

func TestSaveResolutionRejectsUnresolved(t *testing.T) {
	s := testStore(t)
	rc := &types.ResearchContext{ID: "ctx-2", Status: types.StatusUnresolved}
	if err := s.SaveResolution(context.Background(), rc); err == nil {
		t.Fatal("expected error for unresolved context")
	}
}
