// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// --- Query building ---

func TestBuildMusicBrainzQueryCombinations(t *testing.T) {
	tests := []struct {
		name  string
		query types.TrackQuery
		want  string
	}{
		{
			"artist and title",
			types.TrackQuery{ArtistHint: "Daft Punk", TitleHint: "One More Time"},
			`recording:"One More Time" AND artist:"Daft Punk"`,
		},
		{
			"title only",
			types.TrackQuery{TitleHint: "One More Time"},
			`recording:"One More Time"`,
		},
		{
			"with album and year",
			types.TrackQuery{ArtistHint: "Daft Punk", TitleHint: "One More Time", AlbumHint: "Discovery", YearHint: 2001},
			`recording:"One More Time" AND artist:"Daft Punk" AND release:"Discovery" AND date:2001`,
		},
		{"empty query", types.TrackQuery{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildMusicBrainzQuery(tt.query)
			if got != tt.want {
				t.Errorf("buildMusicBrainzQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Request construction ---

func TestMusicBrainzRequestParams(t *testing.T) {
	var capturedReq *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count":0,"recordings":[]}`)
	}))
	defer ts.Close()

	old := musicbrainzAPIBase
	musicbrainzAPIBase = ts.URL
	defer func() { musicbrainzAPIBase = old }()

	a := &MusicBrainzAdapter{Client: ts.Client(), Contact: "ops@example.com"}
	_, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "Orbital", TitleHint: "Halcyon"}, testHTTPCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := capturedReq.URL.Query()
	if got := q.Get("fmt"); got != "json" {
		t.Errorf("fmt param = %q, want %q", got, "json")
	}
	if got := q.Get("limit"); got != "5" {
		t.Errorf("limit param = %q, want %q", got, "5")
	}
	if got := q.Get("query"); !strings.Contains(got, `artist:"Orbital"`) {
		t.Errorf("query param %q missing artist clause", got)
	}

	ua := capturedReq.Header.Get("User-Agent")
	if !strings.Contains(ua, "track-resolver-test") || !strings.Contains(ua, "ops@example.com") {
		t.Errorf("User-Agent = %q, want client name and contact", ua)
	}
}

// --- Response mapping ---

func TestMusicBrainzFieldMapping(t *testing.T) {
	resp := `{"count":1,"recordings":[{
		"id":"mbid-1",
		"title":"Halcyon + On + On",
		"length":565000,
		"isrcs":["GBAAA9300013"],
		"first-release-date":"1993-08-02",
		"artist-credit":[{"name":"Orbital","joinphrase":""}],
		"releases":[{"title":"Orbital 2","date":"1993-08-02",
			"label-info":[{"catalog-number":"828 386-2","label":{"name":"Internal"}}]}],
		"tags":[{"count":3,"name":"ambient techno"},{"count":9,"name":"electronic"}]
	}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := musicbrainzAPIBase
	musicbrainzAPIBase = ts.URL
	defer func() { musicbrainzAPIBase = old }()

	a := &MusicBrainzAdapter{Client: ts.Client()}
	results, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "Orbital", TitleHint: "Halcyon"}, testHTTPCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}

	f := results[0].Fields
	if f.Title != "Halcyon + On + On" {
		t.Errorf("Title = %q", f.Title)
	}
	if f.Artist != "Orbital" {
		t.Errorf("Artist = %q", f.Artist)
	}
	if f.Album != "Orbital 2" {
		t.Errorf("Album = %q", f.Album)
	}
	if f.DurationSec != 565 {
		t.Errorf("DurationSec = %d, want 565", f.DurationSec)
	}
	if f.ISRC != "GBAAA9300013" {
		t.Errorf("ISRC = %q", f.ISRC)
	}
	if f.Label != "Internal" {
		t.Errorf("Label = %q", f.Label)
	}
	if f.CatalogNumber != "828 386-2" {
		t.Errorf("CatalogNumber = %q", f.CatalogNumber)
	}
	if f.Year != 1993 {
		t.Errorf("Year = %d, want 1993", f.Year)
	}
	if f.Genre != "electronic" {
		t.Errorf("Genre = %q, want most-voted tag %q", f.Genre, "electronic")
	}
	if results[0].Source != "musicbrainz" {
		t.Errorf("Source = %q", results[0].Source)
	}
}

func TestMusicBrainzArtistCreditJoin(t *testing.T) {
	resp := `{"count":1,"recordings":[{
		"id":"mbid-2","title":"Get Lucky","length":369000,
		"artist-credit":[
			{"name":"Daft Punk","joinphrase":" feat. "},
			{"name":"Pharrell Williams","joinphrase":""}
		]}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := musicbrainzAPIBase
	musicbrainzAPIBase = ts.URL
	defer func() { musicbrainzAPIBase = old }()

	a := &MusicBrainzAdapter{Client: ts.Client()}
	results, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "Daft Punk", TitleHint: "Get Lucky"}, testHTTPCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := "Daft Punk feat. Pharrell Williams"
	if got := results[0].Fields.Artist; got != want {
		t.Errorf("Artist = %q, want %q", got, want)
	}
}

func TestMusicBrainzYearFallsBackToFirstReleaseDate(t *testing.T) {
	resp := `{"count":1,"recordings":[{
		"id":"mbid-3","title":"T","length":200000,
		"first-release-date":"1997",
		"artist-credit":[{"name":"A","joinphrase":""}],
		"releases":[{"title":"Album"}]}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := musicbrainzAPIBase
	musicbrainzAPIBase = ts.URL
	defer func() { musicbrainzAPIBase = old }()

	a := &MusicBrainzAdapter{Client: ts.Client()}
	results, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "A", TitleHint: "T"}, testHTTPCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := results[0].Fields.Year; got != 1997 {
		t.Errorf("Year = %d, want 1997", got)
	}
}

// --- Error cases ---

func TestMusicBrainzHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := musicbrainzAPIBase
	musicbrainzAPIBase = ts.URL
	defer func() { musicbrainzAPIBase = old }()

	a := &MusicBrainzAdapter{Client: ts.Client()}
	_, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "A", TitleHint: "T"}, testHTTPCfg())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error = %q, want substring %q", err.Error(), "HTTP 500")
	}
}

func TestMusicBrainzMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{broken`)
	}))
	defer ts.Close()

	old := musicbrainzAPIBase
	musicbrainzAPIBase = ts.URL
	defer func() { musicbrainzAPIBase = old }()

	a := &MusicBrainzAdapter{Client: ts.Client()}
	_, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "A", TitleHint: "T"}, testHTTPCfg())
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("error = %q, want substring 'parsing'", err.Error())
	}
}

func TestMusicBrainzEmptyQuery(t *testing.T) {
	a := &MusicBrainzAdapter{Client: http.DefaultClient}
	_, err := a.Search(context.Background(), types.TrackQuery{}, testHTTPCfg())
	if err == nil {
		t.Fatal("expected error for empty query")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("error = %q, want substring 'empty'", err.Error())
	}
}

func TestMusicBrainzZeroResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count":0,"recordings":[]}`)
	}))
	defer ts.Close()

	old := musicbrainzAPIBase
	musicbrainzAPIBase = ts.URL
	defer func() { musicbrainzAPIBase = old }()

	a := &MusicBrainzAdapter{Client: ts.Client()}
	results, err := a.Search(context.Background(), types.TrackQuery{ArtistHint: "nobody", TitleHint: "nothing"}, testHTTPCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestMusicBrainzAdapterName(t *testing.T) {
	a := &MusicBrainzAdapter{}
	if got := a.Name(); got != "musicbrainz" {
		t.Errorf("Name() = %q, want %q", got, "musicbrainz")
	}
}
