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

// itunesAPIBase is the iTunes Search API endpoint. Declared as a var
// so tests can substitute an httptest server.
var itunesAPIBase = "https://itunes.apple.com/search"

const itunesLimit = 5

// ITunesAdapter queries the iTunes Search API. It contributes curated
// genre names and purchase links; store tracks are AAC 256 kbps.
type ITunesAdapter struct {
	Client *http.Client

	// Country selects the storefront (default "us"); prices are in the
	// storefront's currency.
	Country string
}

// Name returns the source identifier.
func (a *ITunesAdapter) Name() string { return "itunes" }

// Search runs a free-text song search against the storefront.
func (a *ITunesAdapter) Search(ctx context.Context, query types.TrackQuery, cfg types.HTTPConfig) ([]types.PlatformResult, error) {
	term := buildITunesTerm(query)
	if term == "" {
		return nil, fmt.Errorf("empty iTunes query")
	}

	country := a.Country
	if country == "" {
		country = "us"
	}
	params := url.Values{
		"term":    {term},
		"entity":  {"song"},
		"media":   {"music"},
		"country": {country},
		"limit":   {fmt.Sprintf("%d", itunesLimit)},
	}
	reqURL := itunesAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	client := a.Client
	if client == nil {
		client = newClient(cfg)
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("iTunes API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("iTunes API returned HTTP %d", resp.StatusCode)
	}

	var ir itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("parsing iTunes response: %w", err)
	}

	now := time.Now().UTC()
	var results []types.PlatformResult
	for _, song := range ir.Results {
		f := types.RawFields{
			Title:       song.TrackName,
			Artist:      song.ArtistName,
			Album:       song.CollectionName,
			Genre:       song.PrimaryGenreName,
			DurationSec: song.TrackTimeMillis / 1000,
		}
		if t, parseErr := time.Parse(time.RFC3339, song.ReleaseDate); parseErr == nil {
			f.Year = t.Year()
		}
		if song.TrackViewURL != "" {
			link := types.AcquisitionLink{
				Kind:   types.KindPurchase,
				URL:    song.TrackViewURL,
				Format: "aac-256",
			}
			if song.TrackPrice > 0 {
				link.Price = fmt.Sprintf("%.2f %s", song.TrackPrice, song.Currency)
			}
			f.Links = append(f.Links, link)
		}
		if song.PreviewURL != "" {
			f.Links = append(f.Links, types.AcquisitionLink{
				Kind:   types.KindStream,
				URL:    song.PreviewURL,
				Format: "stream",
			})
		}
		results = append(results, types.PlatformResult{
			Source:    a.Name(),
			Fields:    f,
			FetchedAt: now,
		})
	}
	return results, nil
}

// buildITunesTerm joins the hints into a free-text term; the Search
// API has no field qualifiers.
func buildITunesTerm(q types.TrackQuery) string {
	var parts []string
	if q.ArtistHint != "" {
		parts = append(parts, q.ArtistHint)
	}
	if q.TitleHint != "" {
		parts = append(parts, q.TitleHint)
	}
	if q.AlbumHint != "" {
		parts = append(parts, q.AlbumHint)
	}
	return strings.Join(parts, " ")
}

// iTunes Search API JSON structures.
type itunesResponse struct {
	ResultCount int          `json:"resultCount"`
	Results     []itunesSong `json:"results"`
}

type itunesSong struct {
	TrackName        string  `json:"trackName"`
	ArtistName       string  `json:"artistName"`
	CollectionName   string  `json:"collectionName"`
	PrimaryGenreName string  `json:"primaryGenreName"`
	TrackTimeMillis  int     `json:"trackTimeMillis"`
	ReleaseDate      string  `json:"releaseDate"`
	TrackPrice       float64 `json:"trackPrice"`
	Currency         string  `json:"currency"`
	TrackViewURL     string  `json:"trackViewUrl"`
	PreviewURL       string  `json:"previewUrl"`
}
