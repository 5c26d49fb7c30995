package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekerplay/seekerplay/internal/domain/settings"
	"github.com/seekerplay/seekerplay/internal/domain/track"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "seekerplay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CreatePlaylist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "Road Trip")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Road Trip", p.Name)
	assert.Empty(t, p.Tracks)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, ok, err := s.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.Name, got.Name)
	assert.NotNil(t, got.Tracks)
}

func TestStore_SavePlaylist_OverwritesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "Chill")
	require.NoError(t, err)

	// Caller-supplied UpdatedAt must be ignored in favor of write time.
	p.UpdatedAt = 12345
	before := time.Now().UnixMilli()
	require.NoError(t, s.SavePlaylist(ctx, p))
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, p.UpdatedAt, before)
	assert.LessOrEqual(t, p.UpdatedAt, after)

	got, ok, err := s.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.UpdatedAt, got.UpdatedAt)
	assert.GreaterOrEqual(t, got.UpdatedAt, got.CreatedAt)
}

func TestStore_SavePlaylist_PersistsTracks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "Mix")
	require.NoError(t, err)

	p.AddTracks(
		track.StoredTrack{ID: "t1", Artist: "Artist", Title: "Song", Duration: 180, FileName: "Artist - Song.mp3", FileSize: 4096},
		track.StoredTrack{ID: "t2", Artist: track.UnknownArtist, Title: "NoSeparator", FileName: "NoSeparator.mp3"},
	)
	require.NoError(t, s.SavePlaylist(ctx, p))

	got, ok, err := s.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Tracks, 2)
	assert.Equal(t, "Artist", got.Tracks[0].Artist)
	assert.Equal(t, "Song", got.Tracks[0].Title)
	assert.Equal(t, track.UnknownArtist, got.Tracks[1].Artist)
	assert.Equal(t, "NoSeparator", got.Tracks[1].Title)
}

func TestStore_ListPlaylists_MostRecentlyUpdatedFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreatePlaylist(ctx, "first")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := s.CreatePlaylist(ctx, "second")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	third, err := s.CreatePlaylist(ctx, "third")
	require.NoError(t, err)

	listed, err := s.ListPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, third.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)
	assert.Equal(t, first.ID, listed[2].ID)

	// Touching the oldest playlist moves it to the front.
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.SavePlaylist(ctx, first))

	listed, err = s.ListPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, first.ID, listed[0].ID)
}

func TestStore_GetPlaylist_Absent(t *testing.T) {
	s := newTestStore(t)

	p, ok, err := s.GetPlaylist(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestStore_DeletePlaylist_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePlaylist(ctx, "doomed")
	require.NoError(t, err)

	require.NoError(t, s.DeletePlaylist(ctx, p.ID))
	_, ok, err := s.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Second delete of the same id is a no-op.
	require.NoError(t, s.DeletePlaylist(ctx, p.ID))
}

func TestStore_GetSettings_DefaultsWhenAbsent(t *testing.T) {
	s := newTestStore(t)

	st, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Default(), st)
}

func TestStore_SaveSettings_Merges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSettings(ctx, settings.Patch{
		CurrentSkinURL: settings.String("skins/classic.wsz"),
		Shuffle:        settings.Bool(true),
	})
	require.NoError(t, err)

	// A later partial patch only changes the supplied field.
	merged, err := s.SaveSettings(ctx, settings.Patch{Volume: settings.Int(50)})
	require.NoError(t, err)
	assert.Equal(t, 50, merged.Volume)
	assert.Equal(t, "skins/classic.wsz", merged.CurrentSkinURL)
	assert.True(t, merged.Shuffle)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, merged, got)
}

func TestStore_SaveSettings_ClampsVolume(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	merged, err := s.SaveSettings(ctx, settings.Patch{Volume: settings.Int(120)})
	require.NoError(t, err)
	assert.Equal(t, 100, merged.Volume)
}

func TestStore_ClosedStorePropagatesErrors(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "seekerplay.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.ListPlaylists(context.Background())
	assert.Error(t, err)

	_, err = s.CreatePlaylist(context.Background(), "late")
	assert.Error(t, err)
}
