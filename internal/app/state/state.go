// Package state provides the reactive application store.
package state

import (
	"github.com/seekerplay/seekerplay/internal/domain/playlist"
	"github.com/seekerplay/seekerplay/internal/domain/settings"
	"github.com/seekerplay/seekerplay/internal/domain/track"
)

// Tab identifies the active UI tab.
type Tab string

const (
	TabPlayer    Tab = "player"
	TabPlaylists Tab = "playlists"
)

// AppState is the full in-memory application state. It is owned exclusively
// by the Store; everything else receives snapshot copies.
type AppState struct {
	ActiveTab         Tab
	Playlists         []playlist.Playlist
	CurrentPlaylistID string
	LiveTracks        map[string]track.LiveTrack
	Settings          settings.Settings
	EngineReady       bool
	IsPlaying         bool
	CurrentTrackIndex int // -1 = none

	// Revision increments on every state replacement, letting subscribers
	// distinguish snapshots without comparing containers.
	Revision uint64
}

func initialState() AppState {
	return AppState{
		ActiveTab:         TabPlayer,
		Playlists:         []playlist.Playlist{},
		LiveTracks:        map[string]track.LiveTrack{},
		Settings:          settings.Default(),
		CurrentTrackIndex: -1,
	}
}

// snapshot returns a copy safe to hand out: the live-track map is copied so
// later mutations do not show through.
func (s AppState) snapshot() AppState {
	live := make(map[string]track.LiveTrack, len(s.LiveTracks))
	for id, lt := range s.LiveTracks {
		live[id] = lt
	}
	s.LiveTracks = live

	playlists := make([]playlist.Playlist, len(s.Playlists))
	copy(playlists, s.Playlists)
	s.Playlists = playlists

	return s
}
