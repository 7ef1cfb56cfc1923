// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists the local track collection and finalized
// resolutions in SQLite. The owned-track table feeds the ranker's
// upgrade comparison: a resolution for a track already owned reports
// whether any acquisition option beats the owned copy.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/track-resolver/internal/match"
	"github.com/pdiddy/track-resolver/pkg/types"
)

// OwnedTrack is one track in the local collection.
type OwnedTrack struct {
	ID           int64     `json:"id" yaml:"id"`
	Artist       string    `json:"artist" yaml:"artist"`
	Title        string    `json:"title" yaml:"title"`
	ISRC         string    `json:"isrc,omitempty" yaml:"isrc,omitempty"`
	Format       string    `json:"format,omitempty" yaml:"format,omitempty"`
	QualityScore int       `json:"quality_score" yaml:"quality_score"`
	AddedAt      time.Time `json:"added_at" yaml:"added_at"`
}

// SavedResolution is a persisted terminal ResearchContext, trimmed to
// what the CLI lists.
type SavedResolution struct {
	ID           string            `json:"id" yaml:"id"`
	Artist       string            `json:"artist" yaml:"artist"`
	Title        string            `json:"title" yaml:"title"`
	Status       types.Status      `json:"status" yaml:"status"`
	Completeness float64           `json:"completeness" yaml:"completeness"`
	Confidence   float64           `json:"confidence" yaml:"confidence"`
	Record       *types.MergedRecord `json:"record,omitempty" yaml:"record,omitempty"`
	SavedAt      time.Time         `json:"saved_at" yaml:"saved_at"`
}

// Store manages the library SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the library database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS owned_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			artist TEXT NOT NULL,
			title TEXT NOT NULL,
			norm_key TEXT NOT NULL UNIQUE,
			isrc TEXT,
			format TEXT,
			quality_score INTEGER NOT NULL,
			added_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_owned_isrc ON owned_tracks(isrc)`,
		`CREATE TABLE IF NOT EXISTS resolutions (
			id TEXT PRIMARY KEY,
			artist TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			completeness REAL NOT NULL,
			confidence REAL NOT NULL,
			record TEXT,
			saved_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AddOwned inserts or updates an owned track. Identity is the
// normalized artist/title pair: re-adding a track replaces its format
// and quality.
func (s *Store) AddOwned(ctx context.Context, t OwnedTrack) error {
	if t.Artist == "" || t.Title == "" {
		return fmt.Errorf("owned track needs both artist and title")
	}
	addedAt := t.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO owned_tracks (artist, title, norm_key, isrc, format, quality_score, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(norm_key) DO UPDATE SET
			isrc=excluded.isrc, format=excluded.format,
			quality_score=excluded.quality_score`,
		t.Artist, t.Title, match.QueryKey(t.Artist, t.Title),
		t.ISRC, t.Format, t.QualityScore, addedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting owned track: %w", err)
	}
	return nil
}

// ListOwned returns the collection ordered by artist then title.
func (s *Store) ListOwned(ctx context.Context) ([]OwnedTrack, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, artist, title, isrc, format, quality_score, added_at
		 FROM owned_tracks ORDER BY artist, title`)
	if err != nil {
		return nil, fmt.Errorf("querying owned tracks: %w", err)
	}
	defer rows.Close()

	var tracks []OwnedTrack
	for rows.Next() {
		t, err := scanOwned(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// OwnedQuality looks up the owned copy of a merged record, by ISRC
// first and the normalized artist/title pair second. The ok return is
// false when the track is not in the collection.
func (s *Store) OwnedQuality(ctx context.Context, record *types.MergedRecord) (score int, ok bool) {
	if record == nil {
		return 0, false
	}
	if record.ISRC != "" {
		var q int
		err := s.db.QueryRowContext(ctx,
			`SELECT quality_score FROM owned_tracks WHERE isrc = ?`, record.ISRC,
		).Scan(&q)
		if err == nil {
			return q, true
		}
	}
	if record.Artist != "" && record.Title != "" {
		var q int
		err := s.db.QueryRowContext(ctx,
			`SELECT quality_score FROM owned_tracks WHERE norm_key = ?`,
			match.QueryKey(record.Artist, record.Title),
		).Scan(&q)
		if err == nil {
			return q, true
		}
	}
	return 0, false
}

// UpgradeCandidates returns owned tracks whose quality is strictly
// below the given score, worst first. These are the tracks worth
// re-resolving for better acquisition options.
func (s *Store) UpgradeCandidates(ctx context.Context, below int) ([]OwnedTrack, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, artist, title, isrc, format, quality_score, added_at
		 FROM owned_tracks WHERE quality_score < ?
		 ORDER BY quality_score, artist, title`, below)
	if err != nil {
		return nil, fmt.Errorf("querying upgrade candidates: %w", err)
	}
	defer rows.Close()

	var tracks []OwnedTrack
	for rows.Next() {
		t, err := scanOwned(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// SaveResolution persists a terminal solved or partial context. The
// merged record is stored as JSON for later listing and export.
func (s *Store) SaveResolution(ctx context.Context, rc *types.ResearchContext) error {
	if rc.Status != types.StatusSolved && rc.Status != types.StatusPartial && rc.Status != types.StatusAcquired {
		return fmt.Errorf("cannot save %s resolution", rc.Status)
	}

	var recordJSON []byte
	if rc.Record != nil {
		var err error
		recordJSON, err = json.Marshal(rc.Record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
	}

	var completeness, confidence float64
	if rc.Quality != nil {
		completeness = rc.Quality.Completeness
		confidence = rc.Quality.Confidence
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, artist, title, status, completeness, confidence, record, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, completeness=excluded.completeness,
			confidence=excluded.confidence, record=excluded.record,
			saved_at=excluded.saved_at`,
		rc.ID, rc.Query.ArtistHint, rc.Query.TitleHint, string(rc.Status),
		completeness, confidence, string(recordJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting resolution: %w", err)
	}
	return nil
}

// ListResolutions returns saved resolutions, newest first.
func (s *Store) ListResolutions(ctx context.Context) ([]SavedResolution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, artist, title, status, completeness, confidence, record, saved_at
		 FROM resolutions ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying resolutions: %w", err)
	}
	defer rows.Close()

	var saved []SavedResolution
	for rows.Next() {
		var r SavedResolution
		var status, recordJSON, savedAt string
		if err := rows.Scan(&r.ID, &r.Artist, &r.Title, &status,
			&r.Completeness, &r.Confidence, &recordJSON, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning resolution: %w", err)
		}
		r.Status = types.Status(status)
		if recordJSON != "" {
			var record types.MergedRecord
			if err := json.Unmarshal([]byte(recordJSON), &record); err == nil {
				r.Record = &record
			}
		}
		if t, err := time.Parse(time.RFC3339, savedAt); err == nil {
			r.SavedAt = t
		}
		saved = append(saved, r)
	}
	return saved, rows.Err()
}

func scanOwned(rows *sql.Rows) (OwnedTrack, error) {
	var t OwnedTrack
	var isrc, format sql.NullString
	var addedAt string
	if err := rows.Scan(&t.ID, &t.Artist, &t.Title, &isrc, &format, &t.QualityScore, &addedAt); err != nil {
		return OwnedTrack{}, fmt.Errorf("scanning owned track: %w", err)
	}
	t.ISRC = isrc.String
	t.Format = format.String
	if ts, err := time.Parse(time.RFC3339, addedAt); err == nil {
		t.AddedAt = ts
	}
	return t, nil
}
