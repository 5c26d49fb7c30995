package state

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekerplay/seekerplay/internal/domain/settings"
	"github.com/seekerplay/seekerplay/internal/domain/track"
	"github.com/seekerplay/seekerplay/internal/infra/store"
)

// fakeReleaser records released handle ids.
type fakeReleaser struct {
	mu       sync.Mutex
	released []string
}

func (f *fakeReleaser) Release(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
}

func (f *fakeReleaser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

func newTestStore(t *testing.T) (*Store, store.Store, *fakeReleaser) {
	t.Helper()
	durable, err := store.Open(filepath.Join(t.TempDir(), "seekerplay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = durable.Close() })

	releaser := &fakeReleaser{}
	return New(durable, releaser), durable, releaser
}

func TestStore_InitialState(t *testing.T) {
	s, _, _ := newTestStore(t)

	st := s.State()
	assert.Equal(t, TabPlayer, st.ActiveTab)
	assert.Empty(t, st.Playlists)
	assert.Empty(t, st.CurrentPlaylistID)
	assert.Equal(t, -1, st.CurrentTrackIndex)
	assert.False(t, st.EngineReady)
	assert.False(t, st.IsPlaying)
	assert.Equal(t, settings.Default(), st.Settings)
}

func TestStore_Setters(t *testing.T) {
	s, _, _ := newTestStore(t)

	s.SetActiveTab(TabPlaylists)
	s.SetEngineReady(true)
	s.SetIsPlaying(true)
	s.SetCurrentTrackIndex(3)

	st := s.State()
	assert.Equal(t, TabPlaylists, st.ActiveTab)
	assert.True(t, st.EngineReady)
	assert.True(t, st.IsPlaying)
	assert.Equal(t, 3, st.CurrentTrackIndex)
}

func TestStore_EveryMutationNotifiesOnce(t *testing.T) {
	s, _, _ := newTestStore(t)

	var calls int
	unsubscribe := s.Subscribe(func() { calls++ })
	defer unsubscribe()

	s.SetIsPlaying(true)
	s.SetIsPlaying(true) // same value still notifies
	s.SetActiveTab(TabPlayer)
	assert.Equal(t, 3, calls)
}

func TestStore_RevisionIncrements(t *testing.T) {
	s, _, _ := newTestStore(t)

	before := s.State().Revision
	s.SetIsPlaying(false)
	s.SetIsPlaying(false)
	assert.Equal(t, before+2, s.State().Revision)
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _, _ := newTestStore(t)

	var calls int
	unsubscribe := s.Subscribe(func() { calls++ })

	s.SetIsPlaying(true)
	unsubscribe()
	s.SetIsPlaying(false)
	assert.Equal(t, 1, calls)
}

func TestStore_CreatePlaylistReloadsListing(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "Road Trip")
	require.NoError(t, err)

	st := s.State()
	require.Len(t, st.Playlists, 1)
	assert.Equal(t, p.ID, st.Playlists[0].ID)
	assert.Equal(t, "Road Trip", st.Playlists[0].Name)
}

func TestStore_DeletePlaylistClearsDanglingSelection(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "doomed")
	require.NoError(t, err)
	s.SetCurrentPlaylist(ctx, p.ID)

	require.NoError(t, s.DeletePlaylist(ctx, p.ID))

	st := s.State()
	assert.Empty(t, st.CurrentPlaylistID)
	assert.Empty(t, st.Playlists)
}

func TestStore_DeleteOtherPlaylistKeepsSelection(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	keep, err := s.CreatePlaylist(ctx, "keep")
	require.NoError(t, err)
	doomed, err := s.CreatePlaylist(ctx, "doomed")
	require.NoError(t, err)

	s.SetCurrentPlaylist(ctx, keep.ID)
	require.NoError(t, s.DeletePlaylist(ctx, doomed.ID))

	assert.Equal(t, keep.ID, s.State().CurrentPlaylistID)
}

func TestStore_RenamePlaylist(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "old name")
	require.NoError(t, err)

	require.NoError(t, s.RenamePlaylist(ctx, p.ID, "new name"))
	require.Len(t, s.State().Playlists, 1)
	assert.Equal(t, "new name", s.State().Playlists[0].Name)

	// Renaming an absent playlist is a silent no-op.
	require.NoError(t, s.RenamePlaylist(ctx, "missing", "whatever"))
}

func TestStore_AddAndRemoveTracks(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "Mix")
	require.NoError(t, err)

	tracks := []track.StoredTrack{
		{ID: "t1", Artist: "Artist", Title: "Song"},
		{ID: "t2", Artist: track.UnknownArtist, Title: "NoSeparator"},
	}
	require.NoError(t, s.AddTracksToPlaylist(ctx, p.ID, tracks))

	got := s.State().Playlists[0]
	require.Len(t, got.Tracks, 2)
	assert.Equal(t, "Artist", got.Tracks[0].Artist)
	assert.Equal(t, "Song", got.Tracks[0].Title)
	assert.Equal(t, track.UnknownArtist, got.Tracks[1].Artist)
	assert.Equal(t, "NoSeparator", got.Tracks[1].Title)

	require.NoError(t, s.RemoveTrackFromPlaylist(ctx, p.ID, "t1"))
	got = s.State().Playlists[0]
	require.Len(t, got.Tracks, 1)
	assert.Equal(t, "t2", got.Tracks[0].ID)

	// Mutating an absent playlist is a silent no-op.
	require.NoError(t, s.AddTracksToPlaylist(ctx, "missing", tracks))
}

func TestStore_ReorderTracks(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "Ordered")
	require.NoError(t, err)
	require.NoError(t, s.AddTracksToPlaylist(ctx, p.ID, []track.StoredTrack{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
	}))

	require.NoError(t, s.ReorderTracks(ctx, p.ID, 0, 2))

	got := s.State().Playlists[0]
	ids := make([]string, len(got.Tracks))
	for i, tr := range got.Tracks {
		ids[i] = tr.ID
	}
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids)

	// Out-of-range indices are rejected.
	assert.Error(t, s.ReorderTracks(ctx, p.ID, 0, 10))
}

func TestStore_SetCurrentPlaylistPersistsEventually(t *testing.T) {
	s, durable, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "Sticky")
	require.NoError(t, err)

	s.SetCurrentPlaylist(ctx, p.ID)
	assert.Equal(t, p.ID, s.State().CurrentPlaylistID)

	// Persistence is fire-and-forget: only eventual consistency applies.
	assert.Eventually(t, func() bool {
		st, err := durable.GetSettings(ctx)
		return err == nil && st.LastPlaylistID == p.ID
	}, time.Second, 5*time.Millisecond)
}

func TestStore_LoadSettingsSeedsSelection(t *testing.T) {
	s, durable, _ := newTestStore(t)
	ctx := context.Background()

	_, err := durable.SaveSettings(ctx, settings.Patch{
		LastPlaylistID: settings.String("playlist-42"),
		Volume:         settings.Int(30),
	})
	require.NoError(t, err)

	require.NoError(t, s.LoadSettings(ctx))

	st := s.State()
	assert.Equal(t, "playlist-42", st.CurrentPlaylistID)
	assert.Equal(t, 30, st.Settings.Volume)
}

func TestStore_UpdateSettingsReflectsMergedResult(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateSettings(ctx, settings.Patch{Shuffle: settings.Bool(true)}))
	require.NoError(t, s.UpdateSettings(ctx, settings.Patch{Volume: settings.Int(50)}))

	st := s.State()
	assert.True(t, st.Settings.Shuffle)
	assert.Equal(t, 50, st.Settings.Volume)
}

func TestStore_SetLiveTrackCopyOnWrite(t *testing.T) {
	s, _, _ := newTestStore(t)

	before := s.State()
	s.SetLiveTrack(track.LiveTrack{
		StoredTrack: track.StoredTrack{ID: "t1"},
		HandleURL:   "mem://t1",
	})

	// The earlier snapshot keeps observing its value.
	assert.Empty(t, before.LiveTracks)

	lt, ok := s.LiveTrack("t1")
	require.True(t, ok)
	assert.Equal(t, "mem://t1", lt.HandleURL)
}

func TestStore_ClearLiveTracksRevokesEveryHandle(t *testing.T) {
	s, _, releaser := newTestStore(t)

	for _, id := range []string{"t1", "t2", "t3"} {
		s.SetLiveTrack(track.LiveTrack{StoredTrack: track.StoredTrack{ID: id}})
	}

	s.ClearLiveTracks()

	assert.Equal(t, 3, releaser.count())
	assert.Empty(t, s.State().LiveTracks)
}

func TestStore_CurrentPlaylist(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, ok := s.CurrentPlaylist()
	assert.False(t, ok)

	p, err := s.CreatePlaylist(ctx, "Selected")
	require.NoError(t, err)
	s.SetCurrentPlaylist(ctx, p.ID)

	got, ok := s.CurrentPlaylist()
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)
}

func TestStore_Initialize(t *testing.T) {
	s, durable, _ := newTestStore(t)
	ctx := context.Background()

	p, err := durable.CreatePlaylist(ctx, "Restored")
	require.NoError(t, err)
	_, err = durable.SaveSettings(ctx, settings.Patch{LastPlaylistID: settings.String(p.ID)})
	require.NoError(t, err)

	require.NoError(t, s.Initialize(ctx))

	st := s.State()
	require.Len(t, st.Playlists, 1)
	assert.Equal(t, p.ID, st.CurrentPlaylistID)

	got, ok := s.CurrentPlaylist()
	require.True(t, ok)
	assert.Equal(t, "Restored", got.Name)
}

func TestStore_StorageFailurePropagates(t *testing.T) {
	s, durable, _ := newTestStore(t)
	require.NoError(t, durable.Close())

	assert.Error(t, s.LoadPlaylists(context.Background()))
	_, err := s.CreatePlaylist(context.Background(), "late")
	assert.Error(t, err)
	assert.Error(t, s.UpdateSettings(context.Background(), settings.Patch{}))
}
