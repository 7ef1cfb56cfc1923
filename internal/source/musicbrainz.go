// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/track-resolver/internal/httputil"
	"github.com/pdiddy/track-resolver/pkg/types"
)

// musicbrainzAPIBase is the MusicBrainz recording search endpoint.
// Declared as a var so tests can substitute an httptest server.
var musicbrainzAPIBase = "https://musicbrainz.org/ws/2/recording"

const musicbrainzLimit = 5

// MusicBrainzAdapter queries the MusicBrainz recording search API. It
// is the identifier authority among the bundled sources: ISRCs and
// catalog numbers come from here when anyone has them.
type MusicBrainzAdapter struct {
	Client *http.Client

	// Contact is appended to the User-Agent; musicbrainz.org requires
	// a way to reach the operator of any non-trivial client.
	Contact string
}

// Name returns the source identifier.
func (a *MusicBrainzAdapter) Name() string { return "musicbrainz" }

// Search runs a Lucene recording query built from the track hints.
func (a *MusicBrainzAdapter) Search(ctx context.Context, query types.TrackQuery, cfg types.HTTPConfig) ([]types.PlatformResult, error) {
	q := buildMusicBrainzQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty MusicBrainz query")
	}

	params := url.Values{
		"query": {q},
		"fmt":   {"json"},
		"limit": {fmt.Sprintf("%d", musicbrainzLimit)},
	}
	reqURL := musicbrainzAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := cfg.UserAgent
	if a.Contact != "" {
		ua = ua + " (" + a.Contact + ")"
	}
	req.Header.Set("User-Agent", ua)

	client := a.Client
	if client == nil {
		client = newClient(cfg)
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("MusicBrainz API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("MusicBrainz API returned HTTP %d", resp.StatusCode)
	}

	var mr musicbrainzResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("parsing MusicBrainz response: %w", err)
	}

	now := time.Now().UTC()
	var results []types.PlatformResult
	for _, rec := range mr.Recordings {
		f := types.RawFields{
			Title:       rec.Title,
			Artist:      joinArtistCredit(rec.ArtistCredit),
			DurationSec: rec.LengthMS / 1000,
		}
		if len(rec.ISRCs) > 0 {
			f.ISRC = rec.ISRCs[0]
		}
		if len(rec.Releases) > 0 {
			rel := rec.Releases[0]
			f.Album = rel.Title
			if len(rel.LabelInfo) > 0 {
				f.Label = rel.LabelInfo[0].Label.Name
				f.CatalogNumber = rel.LabelInfo[0].CatalogNumber
			}
			if y := parseYear(rel.Date); y > 0 {
				f.Year = y
			}
		}
		if f.Year == 0 {
			f.Year = parseYear(rec.FirstReleaseDate)
		}
		if len(rec.Tags) > 0 {
			f.Genre = topTag(rec.Tags)
		}
		results = append(results, types.PlatformResult{
			Source:    a.Name(),
			Fields:    f,
			FetchedAt: now,
		})
	}
	return results, nil
}

// buildMusicBrainzQuery assembles a Lucene query from the hints.
func buildMusicBrainzQuery(q types.TrackQuery) string {
	var parts []string
	if q.TitleHint != "" {
		parts = append(parts, fmt.Sprintf("recording:%q", q.TitleHint))
	}
	if q.ArtistHint != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", q.ArtistHint))
	}
	if q.AlbumHint != "" {
		parts = append(parts, fmt.Sprintf("release:%q", q.AlbumHint))
	}
	if q.YearHint > 0 {
		parts = append(parts, fmt.Sprintf("date:%d", q.YearHint))
	}
	return strings.Join(parts, " AND ")
}

// joinArtistCredit renders an artist-credit list as one display name,
// honoring the join phrases MusicBrainz emits (" feat. ", " & ").
func joinArtistCredit(credit []mbArtistCredit) string {
	var b strings.Builder
	for _, c := range credit {
		b.WriteString(c.Name)
		b.WriteString(c.JoinPhrase)
	}
	return b.String()
}

// topTag returns the most-voted tag name.
func topTag(tags []mbTag) string {
	best := tags[0]
	for _, t := range tags[1:] {
		if t.Count > best.Count {
			best = t
		}
	}
	return best.Name
}

// parseYear extracts the year from a MusicBrainz date, which may be
// "2006", "2006-03" or "2006-03-17".
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	var y int
	if _, err := fmt.Sscanf(date[:4], "%d", &y); err != nil {
		return 0
	}
	return y
}

// MusicBrainz API JSON structures.
type musicbrainzResponse struct {
	Count      int           `json:"count"`
	Recordings []mbRecording `json:"recordings"`
}

type mbRecording struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	LengthMS         int              `json:"length"`
	FirstReleaseDate string           `json:"first-release-date"`
	ISRCs            []string         `json:"isrcs"`
	ArtistCredit     []mbArtistCredit `json:"artist-credit"`
	Releases         []mbRelease      `json:"releases"`
	Tags             []mbTag          `json:"tags"`
}

type mbArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

type mbRelease struct {
	Title     string        `json:"title"`
	Date      string        `json:"date"`
	LabelInfo []mbLabelInfo `json:"label-info"`
}

type mbLabelInfo struct {
	CatalogNumber string  `json:"catalog-number"`
	Label         mbLabel `json:"label"`
}

type mbLabel struct {
	Name string `json:"name"`
}

type mbTag struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}
