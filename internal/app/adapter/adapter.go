// Package adapter bridges the application store and the playback engine.
//
// It translates application tracks into the engine's native format, forwards
// transport commands, persists the settings a command implies, and mirrors
// the engine's runtime state back into the application store.
package adapter

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/seekerplay/seekerplay/internal/app/engine"
	"github.com/seekerplay/seekerplay/internal/app/state"
	"github.com/seekerplay/seekerplay/internal/domain/settings"
	"github.com/seekerplay/seekerplay/internal/domain/track"
)

// DefaultPollInterval is the playback status poll cadence.
const DefaultPollInterval = 500 * time.Millisecond

// ToEngineTrack converts a live track into the engine-native format. The
// conversion is lossy: only the handle url, display metadata and duration
// cross the boundary.
func ToEngineTrack(lt track.LiveTrack) engine.Track {
	return engine.Track{
		URL: lt.HandleURL,
		MetaData: engine.MetaData{
			Artist: lt.Artist,
			Title:  lt.Title,
		},
		Duration: lt.Duration,
	}
}

// ToEngineTracks converts a slice of live tracks.
func ToEngineTracks(lts []track.LiveTrack) []engine.Track {
	out := make([]engine.Track, len(lts))
	for i, lt := range lts {
		out[i] = ToEngineTrack(lt)
	}
	return out
}

// Adapter drives one engine instance on behalf of the application store.
type Adapter struct {
	*Acquirer

	eng  engine.Engine
	app  *state.Store
	poll time.Duration
}

// New creates an adapter. A non-positive pollInterval falls back to
// DefaultPollInterval.
func New(eng engine.Engine, acq *Acquirer, pollInterval time.Duration) *Adapter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Adapter{
		Acquirer: acq,
		eng:      eng,
		app:      acq.app,
		poll:     pollInterval,
	}
}

// Start wires the engine to the store and launches the status poll.
//
// The engine is assumed ready at this point: saved volume is applied, saved
// shuffle/repeat flags are reconciled against the engine's actual flags
// (the engine only exposes toggles, so the adapter reads current state and
// toggles only on mismatch), track changes are forwarded, and the engine's
// close signal is suppressed for the session's lifetime.
func (a *Adapter) Start(ctx context.Context) {
	saved := a.app.State().Settings

	a.eng.SetVolume(saved.Volume)
	if a.eng.IsShuffleEnabled() != saved.Shuffle {
		a.eng.ToggleShuffle()
	}
	if a.eng.IsRepeatEnabled() != saved.Repeat {
		a.eng.ToggleRepeat()
	}

	a.eng.OnTrackDidChange(func(index int) {
		a.app.SetCurrentTrackIndex(index)
	})

	// The engine is never allowed to actually close.
	a.eng.OnWillClose(func(cancel func()) {
		cancel()
	})

	a.app.SetEngineReady(true)

	go a.pollStatus(ctx)
}

// pollStatus mirrors the engine's playing flag into the store on a fixed
// interval. The engine exposes no event for play/pause/stop transitions, so
// polling is the only way to observe them.
func (a *Adapter) pollStatus(ctx context.Context) {
	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.app.SetIsPlaying(a.eng.MediaStatus() == engine.StatusPlaying)
		}
	}
}

// Play starts or resumes playback.
func (a *Adapter) Play() { a.eng.Play() }

// Pause pauses playback.
func (a *Adapter) Pause() { a.eng.Pause() }

// Stop stops playback.
func (a *Adapter) Stop() { a.eng.Stop() }

// NextTrack advances to the next track.
func (a *Adapter) NextTrack() { a.eng.NextTrack() }

// PreviousTrack moves back one track.
func (a *Adapter) PreviousTrack() { a.eng.PreviousTrack() }

// SeekToTime seeks within the current track.
func (a *Adapter) SeekToTime(seconds float64) { a.eng.SeekToTime(seconds) }

// SetVolume forwards the volume to the engine and persists it. The value is
// clamped first so the engine and the stored record never diverge.
func (a *Adapter) SetVolume(ctx context.Context, volume int) error {
	volume = settings.ClampVolume(volume)
	a.eng.SetVolume(volume)
	return a.app.UpdateSettings(ctx, settings.Patch{Volume: settings.Int(volume)})
}

// ToggleShuffle toggles shuffle and persists the flag the engine reports
// afterwards (read-after-toggle, not assumed).
func (a *Adapter) ToggleShuffle(ctx context.Context) error {
	a.eng.ToggleShuffle()
	enabled := a.eng.IsShuffleEnabled()
	return a.app.UpdateSettings(ctx, settings.Patch{Shuffle: settings.Bool(enabled)})
}

// ToggleRepeat toggles repeat and persists the flag the engine reports
// afterwards.
func (a *Adapter) ToggleRepeat(ctx context.Context) error {
	a.eng.ToggleRepeat()
	enabled := a.eng.IsRepeatEnabled()
	return a.app.UpdateSettings(ctx, settings.Patch{Repeat: settings.Bool(enabled)})
}

// SetSkin applies a skin immediately and persists the reference.
func (a *Adapter) SetSkin(ctx context.Context, url string) error {
	if err := a.eng.SetSkinFromURL(url); err != nil {
		return err
	}
	return a.app.UpdateSettings(ctx, settings.Patch{CurrentSkinURL: settings.String(url)})
}

// ReplaceTracks replaces the engine's working track set.
func (a *Adapter) ReplaceTracks(lts []track.LiveTrack) {
	a.eng.SetTracksToPlay(ToEngineTracks(lts))
}

// AppendTracks appends tracks to the engine's working track set.
func (a *Adapter) AppendTracks(lts []track.LiveTrack) {
	a.eng.AppendTracks(ToEngineTracks(lts))
}

// Close shuts the adapter down. The close intercept installed by Start
// swallows engine close requests, so this logs and returns.
func (a *Adapter) Close() error {
	if err := a.eng.Close(); err != nil {
		return err
	}
	zlog.Debug().Msg("adapter: closed")
	return nil
}
