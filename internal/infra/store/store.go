// Package store provides durable on-device persistence for playlists and
// settings.
package store

import (
	"context"

	"github.com/seekerplay/seekerplay/internal/domain/playlist"
	"github.com/seekerplay/seekerplay/internal/domain/settings"
)

// Store is the durable storage boundary. It owns the authoritative persisted
// copies of playlists and the singleton settings record.
//
// Expected absences surface as (nil, false, nil), not as errors. Storage
// failures are wrapped and propagated to the caller; nothing is retried or
// swallowed at this layer.
type Store interface {
	// ListPlaylists returns all playlists, most recently updated first.
	ListPlaylists(ctx context.Context) ([]playlist.Playlist, error)

	// GetPlaylist retrieves a playlist by id. Absent ids yield ok=false.
	GetPlaylist(ctx context.Context, id string) (*playlist.Playlist, bool, error)

	// SavePlaylist upserts a playlist by id. The record's UpdatedAt is
	// always overwritten with the write time; the caller-supplied value is
	// ignored, and the passed playlist is mutated so callers observe the
	// stored timestamp.
	SavePlaylist(ctx context.Context, p *playlist.Playlist) error

	// DeletePlaylist removes a playlist. Deleting an absent id is a no-op.
	DeletePlaylist(ctx context.Context, id string) error

	// CreatePlaylist allocates a fresh playlist with the given name, an
	// empty track sequence and CreatedAt = UpdatedAt = now, persists it and
	// returns it.
	CreatePlaylist(ctx context.Context, name string) (*playlist.Playlist, error)

	// GetSettings returns the settings record, or defaults when no record
	// has been written yet. It never reports an absence.
	GetSettings(ctx context.Context) (settings.Settings, error)

	// SaveSettings merges the patch onto the currently persisted settings
	// (read-modify-write, not a blind overwrite) and returns the merged
	// record.
	SaveSettings(ctx context.Context, p settings.Patch) (settings.Settings, error)

	Close() error
}
