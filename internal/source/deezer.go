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

// deezerAPIBase is the Deezer API root. Declared as a var so tests can
// substitute an httptest server.
var deezerAPIBase = "https://api.deezer.com"

// deezerDetailLimit caps the per-track detail fetches. Search results
// omit BPM and ISRC; /track/{id} carries them.
const deezerDetailLimit = 3

// DeezerAdapter queries the Deezer public API. Its BPM values come
// from Deezer's own audio analysis, which makes it the strongest of
// the bundled sources for tempo.
type DeezerAdapter struct {
	Client *http.Client
}

// Name returns the source identifier.
func (a *DeezerAdapter) Name() string { return "deezer" }

// Search runs a field-qualified track search, then fetches track
// details for the top hits to pick up BPM, ISRC and release date.
func (a *DeezerAdapter) Search(ctx context.Context, query types.TrackQuery, cfg types.HTTPConfig) ([]types.PlatformResult, error) {
	q := buildDeezerQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty Deezer query")
	}

	client := a.Client
	if client == nil {
		client = newClient(cfg)
	}

	reqURL := deezerAPIBase + "/search?" + url.Values{"q": {q}}.Encode()
	var sr deezerSearchResponse
	if err := a.getJSON(ctx, client, cfg, reqURL, &sr); err != nil {
		return nil, fmt.Errorf("Deezer search: %w", err)
	}

	now := time.Now().UTC()
	var results []types.PlatformResult
	for i, hit := range sr.Data {
		if i >= deezerDetailLimit {
			break
		}
		f := types.RawFields{
			Title:       hit.Title,
			Artist:      hit.Artist.Name,
			Album:       hit.Album.Title,
			DurationSec: hit.Duration,
		}
		if hit.Link != "" {
			f.Links = []types.AcquisitionLink{{
				Kind:   types.KindStream,
				URL:    hit.Link,
				Format: "stream",
			}}
		}

		// Detail fetch is best-effort: a failure leaves the search
		// fields intact rather than dropping the result.
		var tr deezerTrack
		detailURL := fmt.Sprintf("%s/track/%d", deezerAPIBase, hit.ID)
		if err := a.getJSON(ctx, client, cfg, detailURL, &tr); err == nil {
			f.ISRC = tr.ISRC
			if tr.BPM > 0 {
				f.BPM = tr.BPM
			}
			f.Year = parseYear(tr.ReleaseDate)
		}

		results = append(results, types.PlatformResult{
			Source:    a.Name(),
			Fields:    f,
			FetchedAt: now,
		})
	}
	return results, nil
}

func (a *DeezerAdapter) getJSON(ctx context.Context, client *http.Client, cfg types.HTTPConfig, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Deezer API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Deezer response: %w", err)
	}
	return nil
}

// buildDeezerQuery uses Deezer's field-qualified search syntax.
func buildDeezerQuery(q types.TrackQuery) string {
	var parts []string
	if q.ArtistHint != "" {
		parts = append(parts, fmt.Sprintf(`artist:"%s"`, q.ArtistHint))
	}
	if q.TitleHint != "" {
		parts = append(parts, fmt.Sprintf(`track:"%s"`, q.TitleHint))
	}
	if q.AlbumHint != "" {
		parts = append(parts, fmt.Sprintf(`album:"%s"`, q.AlbumHint))
	}
	return strings.Join(parts, " ")
}

// Deezer API JSON structures.
type deezerSearchResponse struct {
	Data  []deezerHit `json:"data"`
	Total int         `json:"total"`
}

type deezerHit struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Link     string       `json:"link"`
	Duration int          `json:"duration"`
	Artist   deezerArtist `json:"artist"`
	Album    deezerAlbum  `json:"album"`
}

type deezerArtist struct {
	Name string `json:"name"`
}

type deezerAlbum struct {
	Title string `json:"title"`
}

type deezerTrack struct {
	ISRC        string  `json:"isrc"`
	BPM         float64 `json:"bpm"`
	ReleaseDate string  `json:"release_date"`
}
