package state

import (
	"context"
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/seekerplay/seekerplay/internal/domain/playlist"
	"github.com/seekerplay/seekerplay/internal/domain/settings"
	"github.com/seekerplay/seekerplay/internal/domain/track"
	"github.com/seekerplay/seekerplay/internal/infra/store"
)

// HandleReleaser revokes live track handles. Satisfied by *registry.Registry.
type HandleReleaser interface {
	Release(id string)
}

// Store is the reactive application store: it owns the in-memory AppState,
// applies mutations, persists through the durable store, and notifies
// subscribers after every state replacement, unconditionally (no diffing).
//
// It is the only writer to the durable store.
type Store struct {
	mu    sync.Mutex
	state AppState

	subMu       sync.Mutex
	subscribers map[string]func()

	durable  store.Store
	releaser HandleReleaser

	// Per-playlist locks serialize read-modify-write track mutations so
	// two edits of the same playlist cannot overwrite each other.
	plMu          sync.Mutex
	playlistLocks map[string]*sync.Mutex
}

// New creates the application store.
func New(durable store.Store, releaser HandleReleaser) *Store {
	return &Store{
		state:         initialState(),
		subscribers:   map[string]func(){},
		durable:       durable,
		releaser:      releaser,
		playlistLocks: map[string]*sync.Mutex{},
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.snapshot()
}

// Subscribe registers a notification callback and returns an unsubscribe
// function. Callbacks run synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := uuid.New().String()
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// setState replaces the state under the lock and then notifies every
// subscriber exactly once, whether or not the effective value changed.
func (s *Store) setState(apply func(*AppState)) {
	s.mu.Lock()
	next := s.state
	apply(&next)
	next.Revision = s.state.Revision + 1
	s.state = next
	s.mu.Unlock()

	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	callbacks := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		callbacks = append(callbacks, fn)
	}
	s.subMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// SetActiveTab switches the active tab.
func (s *Store) SetActiveTab(tab Tab) {
	s.setState(func(st *AppState) { st.ActiveTab = tab })
}

// SetEngineReady records whether the playback engine finished initializing.
func (s *Store) SetEngineReady(ready bool) {
	s.setState(func(st *AppState) { st.EngineReady = ready })
}

// SetIsPlaying mirrors the engine's playing flag.
func (s *Store) SetIsPlaying(playing bool) {
	s.setState(func(st *AppState) { st.IsPlaying = playing })
}

// SetCurrentTrackIndex mirrors the engine's current track index.
func (s *Store) SetCurrentTrackIndex(index int) {
	s.setState(func(st *AppState) { st.CurrentTrackIndex = index })
}

// LoadPlaylists replaces the cached playlist listing from the durable
// store. Always a full reload: correctness over efficiency when mutations
// interleave.
func (s *Store) LoadPlaylists(ctx context.Context) error {
	playlists, err := s.durable.ListPlaylists(ctx)
	if err != nil {
		return err
	}
	s.setState(func(st *AppState) { st.Playlists = playlists })
	return nil
}

// CreatePlaylist creates a playlist and reloads the listing.
func (s *Store) CreatePlaylist(ctx context.Context, name string) (*playlist.Playlist, error) {
	p, err := s.durable.CreatePlaylist(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.LoadPlaylists(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePlaylist persists a full playlist record and reloads the listing.
func (s *Store) UpdatePlaylist(ctx context.Context, p *playlist.Playlist) error {
	if err := s.durable.SavePlaylist(ctx, p); err != nil {
		return err
	}
	return s.LoadPlaylists(ctx)
}

// DeletePlaylist removes a playlist. When the current selection pointed at
// the deleted playlist the selection is cleared, so a non-empty selection
// always references an existing playlist.
func (s *Store) DeletePlaylist(ctx context.Context, id string) error {
	if err := s.durable.DeletePlaylist(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	dangling := s.state.CurrentPlaylistID == id
	s.mu.Unlock()
	if dangling {
		s.setState(func(st *AppState) { st.CurrentPlaylistID = "" })
	}

	return s.LoadPlaylists(ctx)
}

// RenamePlaylist renames a playlist. Renaming an absent id is a silent
// no-op.
func (s *Store) RenamePlaylist(ctx context.Context, id, name string) error {
	p, ok, err := s.durable.GetPlaylist(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	p.Name = name
	if err := s.durable.SavePlaylist(ctx, p); err != nil {
		return err
	}
	return s.LoadPlaylists(ctx)
}

// SetCurrentPlaylist updates the selection. A non-empty selection is
// persisted as the last-used playlist in the background; callers get
// eventual consistency only, and persistence failures are logged rather
// than surfaced.
func (s *Store) SetCurrentPlaylist(ctx context.Context, id string) {
	s.setState(func(st *AppState) { st.CurrentPlaylistID = id })

	if id == "" {
		return
	}
	go func() {
		if _, err := s.durable.SaveSettings(ctx, settings.Patch{LastPlaylistID: settings.String(id)}); err != nil {
			zlog.Warn().Msgf("state: failed to persist last playlist: id=%s err=%v", id, err)
		}
	}()
}

// CurrentPlaylist returns the selected playlist from the cached listing.
func (s *Store) CurrentPlaylist() (*playlist.Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentPlaylistID == "" {
		return nil, false
	}
	for i := range s.state.Playlists {
		if s.state.Playlists[i].ID == s.state.CurrentPlaylistID {
			p := s.state.Playlists[i]
			return &p, true
		}
	}
	return nil, false
}

// AddTracksToPlaylist appends tracks to a playlist's sequence.
func (s *Store) AddTracksToPlaylist(ctx context.Context, playlistID string, tracks []track.StoredTrack) error {
	return s.mutatePlaylist(ctx, playlistID, func(p *playlist.Playlist) error {
		p.AddTracks(tracks...)
		return nil
	})
}

// RemoveTrackFromPlaylist removes one track by id from a playlist.
func (s *Store) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	return s.mutatePlaylist(ctx, playlistID, func(p *playlist.Playlist) error {
		p.RemoveTrack(trackID)
		return nil
	})
}

// ReorderTracks moves one track from position from to position to.
// Out-of-range indices are rejected.
func (s *Store) ReorderTracks(ctx context.Context, playlistID string, from, to int) error {
	return s.mutatePlaylist(ctx, playlistID, func(p *playlist.Playlist) error {
		return p.MoveTrack(from, to)
	})
}

// mutatePlaylist runs a read-modify-write cycle against the persisted copy
// of one playlist, serialized per playlist id. The persisted copy, not the
// in-memory cache, is read so a stale cache cannot overwrite a concurrent
// edit. Mutating an absent playlist is a silent no-op.
func (s *Store) mutatePlaylist(ctx context.Context, id string, mutate func(*playlist.Playlist) error) error {
	lock := s.playlistLock(id)
	lock.Lock()
	defer lock.Unlock()

	p, ok, err := s.durable.GetPlaylist(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := mutate(p); err != nil {
		return err
	}
	if err := s.durable.SavePlaylist(ctx, p); err != nil {
		return err
	}
	return s.LoadPlaylists(ctx)
}

func (s *Store) playlistLock(id string) *sync.Mutex {
	s.plMu.Lock()
	defer s.plMu.Unlock()

	lock, ok := s.playlistLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.playlistLocks[id] = lock
	}
	return lock
}

// SetLiveTrack stores one live handle in the registry view. The map is
// copied on write so snapshots taken earlier keep observing their values.
func (s *Store) SetLiveTrack(lt track.LiveTrack) {
	s.setState(func(st *AppState) {
		live := make(map[string]track.LiveTrack, len(st.LiveTracks)+1)
		for id, existing := range st.LiveTracks {
			live[id] = existing
		}
		live[lt.ID] = lt
		st.LiveTracks = live
	})
}

// LiveTrack looks up a live handle by track id.
func (s *Store) LiveTrack(id string) (track.LiveTrack, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lt, ok := s.state.LiveTracks[id]
	return lt, ok
}

// ClearLiveTracks revokes every registered handle and then resets the
// registry view. Revocation happens before the state swap so no handle can
// leak even if a subscriber panics during notification.
func (s *Store) ClearLiveTracks() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.state.LiveTracks))
	for id := range s.state.LiveTracks {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.releaser.Release(id)
	}

	s.setState(func(st *AppState) {
		st.LiveTracks = map[string]track.LiveTrack{}
	})
}

// LoadSettings populates settings from the durable store and seeds the
// playlist selection from the last-used playlist (session restore).
func (s *Store) LoadSettings(ctx context.Context) error {
	st, err := s.durable.GetSettings(ctx)
	if err != nil {
		return err
	}
	s.setState(func(as *AppState) {
		as.Settings = st
		as.CurrentPlaylistID = st.LastPlaylistID
	})
	return nil
}

// UpdateSettings persists a partial settings update and reflects the merged
// result back into state.
func (s *Store) UpdateSettings(ctx context.Context, patch settings.Patch) error {
	merged, err := s.durable.SaveSettings(ctx, patch)
	if err != nil {
		return err
	}
	s.setState(func(st *AppState) { st.Settings = merged })
	return nil
}

// Initialize performs the session-start sequence: settings first (seeding
// the selection), then the playlist listing.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.LoadSettings(ctx); err != nil {
		return err
	}
	return s.LoadPlaylists(ctx)
}
