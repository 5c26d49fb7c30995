package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	zlog "github.com/rs/zerolog/log"

	"github.com/seekerplay/seekerplay/internal/domain/playlist"
	"github.com/seekerplay/seekerplay/internal/domain/settings"
	"github.com/seekerplay/seekerplay/internal/domain/track"
)

const schema = `
CREATE TABLE IF NOT EXISTS playlists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	tracks     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_playlists_updated ON playlists (updated_at);

CREATE TABLE IF NOT EXISTS settings (
	id       TEXT PRIMARY KEY,
	settings TEXT NOT NULL
);
`

const settingsKey = "settings"

// sqliteStore implements Store on a single SQLite database file.
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and if necessary creates) the database at path.
func Open(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}

	zlog.Debug().Msgf("store: database opened: path=%s", path)
	return &sqliteStore{db: db, now: time.Now}, nil
}

func (s *sqliteStore) Close() error {
	return errors.Wrap(s.db.Close(), "failed to close database")
}

func (s *sqliteStore) ListPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, tracks, created_at, updated_at FROM playlists ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}
	defer rows.Close()

	playlists := make([]playlist.Playlist, 0)
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate playlists")
	}
	return playlists, nil
}

func (s *sqliteStore) GetPlaylist(ctx context.Context, id string) (*playlist.Playlist, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, tracks, created_at, updated_at FROM playlists WHERE id = ?`, id)

	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *sqliteStore) SavePlaylist(ctx context.Context, p *playlist.Playlist) error {
	tracks, err := json.Marshal(p.Tracks)
	if err != nil {
		return errors.Wrap(err, "failed to encode tracks")
	}

	// UpdatedAt reflects write time, never application intent.
	p.UpdatedAt = s.now().UnixMilli()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, tracks, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, tracks = excluded.tracks, updated_at = excluded.updated_at`,
		p.ID, p.Name, string(tracks), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to save playlist")
	}
	return nil
}

func (s *sqliteStore) DeletePlaylist(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to delete playlist")
	}
	return nil
}

func (s *sqliteStore) CreatePlaylist(ctx context.Context, name string) (*playlist.Playlist, error) {
	now := s.now().UnixMilli()
	p := &playlist.Playlist{
		ID:        uuid.New().String(),
		Name:      name,
		Tracks:    []track.StoredTrack{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.SavePlaylist(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *sqliteStore) GetSettings(ctx context.Context) (settings.Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT settings FROM settings WHERE id = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Default(), nil
	}
	if err != nil {
		return settings.Settings{}, errors.Wrap(err, "failed to get settings")
	}

	var st settings.Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return settings.Settings{}, errors.Wrap(err, "failed to decode settings")
	}
	return st, nil
}

func (s *sqliteStore) SaveSettings(ctx context.Context, p settings.Patch) (settings.Settings, error) {
	current, err := s.GetSettings(ctx)
	if err != nil {
		return settings.Settings{}, err
	}

	merged := p.Apply(current)
	raw, err := json.Marshal(merged)
	if err != nil {
		return settings.Settings{}, errors.Wrap(err, "failed to encode settings")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (id, settings) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET settings = excluded.settings`,
		settingsKey, string(raw))
	if err != nil {
		return settings.Settings{}, errors.Wrap(err, "failed to save settings")
	}
	return merged, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row scanner) (*playlist.Playlist, error) {
	var p playlist.Playlist
	var tracks string
	if err := row.Scan(&p.ID, &p.Name, &tracks, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan playlist")
	}
	if err := json.Unmarshal([]byte(tracks), &p.Tracks); err != nil {
		return nil, errors.Wrap(err, "failed to decode tracks")
	}
	return &p, nil
}
