// Package history keeps a SQLite log of the tracks the publisher has seen.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the play history backed by SQLite
type Store struct {
	db *sql.DB
}

// Play is one recorded track change
type Play struct {
	ID          int64
	Title       string
	Artist      string
	Album       string
	Playlist    string
	Source      string
	Image       string
	ReleaseDate string
	PlayedAt    time.Time
}

// Open opens (creating if needed) the history database at dbPath.
// ":memory:" gives a private in-memory store.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases consistent and is
	// plenty for one writer
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL DEFAULT '',
			playlist TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			release_date TEXT NOT NULL DEFAULT '',
			played_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_played_at ON plays(played_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record adds a play and returns its id
func (s *Store) Record(ctx context.Context, p Play) (int64, error) {
	query := `
		INSERT INTO plays (title, artist, album, playlist, source, image, release_date, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		p.Title,
		p.Artist,
		p.Album,
		p.Playlist,
		p.Source,
		p.Image,
		p.ReleaseDate,
		p.PlayedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}
	return id, nil
}

// UpdateDetails fills in artwork and release date for a play recorded
// before they were known
func (s *Store) UpdateDetails(ctx context.Context, id int64, image, releaseDate string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE plays SET image = ?, release_date = ? WHERE id = ?`,
		image, releaseDate, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update play: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("play with id %d not found", id)
	}
	return nil
}

// Recent returns up to limit plays, newest first. A non-positive limit
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Play, error) {
	query := `
		SELECT id, title, artist, album, playlist, source, image, release_date, played_at
		FROM plays
		ORDER BY played_at DESC, id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		p, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}
	return plays, nil
}

// Last returns the most recent play, or nil when the history is empty
func (s *Store) Last(ctx context.Context) (*Play, error) {
	plays, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(plays) == 0 {
		return nil, nil
	}
	return &plays[0], nil
}

// Cleanup removes plays older than maxAge
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := s.db.ExecContext(ctx, `DELETE FROM plays WHERE played_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old plays: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Count returns the number of recorded plays
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plays").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlay(row scanner) (Play, error) {
	var p Play
	var playedAt int64

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Artist,
		&p.Album,
		&p.Playlist,
		&p.Source,
		&p.Image,
		&p.ReleaseDate,
		&playedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan play: %w", err)
	}

	p.PlayedAt = time.Unix(playedAt, 0)
	return p, nil
}
