// Package local provides the reference in-process playback engine.
//
// It simulates playback against the wall clock: a loaded track "plays" for
// its reported duration, then the engine advances to the next track. There
// is no audio output; the engine exists to give the application a complete,
// deterministic implementation of the engine boundary.
package local

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/seekerplay/seekerplay/internal/app/engine"
)

// Config holds the local engine settings.
type Config struct {
	TickMs int `mapstructure:"tick_ms" default:"100" validate:"gte=10,lte=1000"`
}

// Engine is a wall-clock playback simulation implementing engine.Engine.
type Engine struct {
	mu sync.Mutex

	tracks       []engine.Track
	currentIndex int
	status       engine.Status

	// Virtual playback position
	startTime     time.Time
	pausedElapsed time.Duration

	volume  int
	shuffle bool
	repeat  bool
	skinURL string

	timerCancel func()
	tick        time.Duration

	trackChange []func(index int)
	willClose   []func(cancel func())

	rng    *rand.Rand
	closed bool
}

func init() {
	engine.RegisterType("local", func(settings map[string]any, opts engine.Options) (engine.Engine, error) {
		return New(settings, opts)
	})
}

// New creates a local engine from its settings block.
func New(settings map[string]any, opts engine.Options) (*Engine, error) {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	e := &Engine{
		currentIndex: -1,
		status:       engine.StatusStopped,
		volume:       100,
		tick:         time.Duration(cfg.TickMs) * time.Millisecond,
		skinURL:      opts.InitialSkinURL,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return e, nil
}

// Play starts or resumes playback.
func (e *Engine) Play() {
	e.mu.Lock()

	if e.status == engine.StatusPlaying || len(e.tracks) == 0 {
		e.mu.Unlock()
		return
	}

	if e.status == engine.StatusPaused {
		e.startTime = time.Now()
		e.status = engine.StatusPlaying
		e.startTrackTimerLocked()
		e.mu.Unlock()
		return
	}

	// Stopped: start the current track from the beginning.
	if e.currentIndex < 0 {
		e.currentIndex = 0
	}
	e.startTrackLocked(e.currentIndex)
	cbs, idx := e.trackChangeCallbacksLocked()
	e.mu.Unlock()

	notify(cbs, idx)
}

// Pause pauses playback, keeping the position.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != engine.StatusPlaying {
		return
	}

	e.stopTimerLocked()
	e.pausedElapsed += time.Since(e.startTime)
	e.status = engine.StatusPaused
}

// Stop stops playback and rewinds the position.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTimerLocked()
	e.pausedElapsed = 0
	e.status = engine.StatusStopped
}

// NextTrack advances to the next track, honoring shuffle and repeat.
func (e *Engine) NextTrack() {
	e.advance(1)
}

// PreviousTrack moves back one track.
func (e *Engine) PreviousTrack() {
	e.advance(-1)
}

func (e *Engine) advance(direction int) {
	e.mu.Lock()

	next, ok := e.nextIndexLocked(direction)
	if !ok {
		// End of the list without repeat: playback stops.
		e.stopTimerLocked()
		e.pausedElapsed = 0
		e.status = engine.StatusStopped
		e.mu.Unlock()
		return
	}

	wasPlaying := e.status == engine.StatusPlaying
	e.currentIndex = next
	e.pausedElapsed = 0
	if wasPlaying {
		e.startTrackLocked(next)
	}
	cbs, idx := e.trackChangeCallbacksLocked()
	e.mu.Unlock()

	notify(cbs, idx)
}

// nextIndexLocked computes the next track index. ok=false means there is no
// next track (end of list, repeat off).
func (e *Engine) nextIndexLocked(direction int) (int, bool) {
	n := len(e.tracks)
	if n == 0 {
		return -1, false
	}
	if n == 1 {
		if e.repeat {
			return 0, true
		}
		return -1, false
	}

	if e.shuffle {
		// Pick any other track.
		next := e.rng.Intn(n - 1)
		if next >= e.currentIndex {
			next++
		}
		return next, true
	}

	next := e.currentIndex + direction
	if next < 0 {
		if !e.repeat {
			return 0, true
		}
		return n - 1, true
	}
	if next >= n {
		if !e.repeat {
			return -1, false
		}
		return 0, true
	}
	return next, true
}

// SeekToTime moves the virtual position within the current track.
func (e *Engine) SeekToTime(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentIndex < 0 || e.currentIndex >= len(e.tracks) {
		return
	}

	e.pausedElapsed = time.Duration(seconds * float64(time.Second))
	if e.status == engine.StatusPlaying {
		e.startTime = time.Now()
		e.startTrackTimerLocked()
	}
}

// SetVolume sets the engine volume (bookkeeping only).
func (e *Engine) SetVolume(volume int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
}

// Volume returns the current volume.
func (e *Engine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// ToggleShuffle flips the shuffle flag.
func (e *Engine) ToggleShuffle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shuffle = !e.shuffle
}

// ToggleRepeat flips the repeat flag.
func (e *Engine) ToggleRepeat() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = !e.repeat
}

// IsShuffleEnabled reports the shuffle flag.
func (e *Engine) IsShuffleEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuffle
}

// IsRepeatEnabled reports the repeat flag.
func (e *Engine) IsRepeatEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repeat
}

// SetTracksToPlay replaces the track list and rewinds to the first track.
func (e *Engine) SetTracksToPlay(tracks []engine.Track) {
	e.mu.Lock()

	e.stopTimerLocked()
	e.tracks = make([]engine.Track, len(tracks))
	copy(e.tracks, tracks)
	e.pausedElapsed = 0
	e.status = engine.StatusStopped
	if len(e.tracks) > 0 {
		e.currentIndex = 0
	} else {
		e.currentIndex = -1
	}
	cbs, idx := e.trackChangeCallbacksLocked()
	e.mu.Unlock()

	notify(cbs, idx)
}

// AppendTracks adds tracks to the end of the list.
func (e *Engine) AppendTracks(tracks []engine.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracks = append(e.tracks, tracks...)
	if e.currentIndex < 0 && len(e.tracks) > 0 {
		e.currentIndex = 0
	}
}

// Tracks returns a copy of the current track list.
func (e *Engine) Tracks() []engine.Track {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]engine.Track, len(e.tracks))
	copy(out, e.tracks)
	return out
}

// SetSkinFromURL applies a skin reference.
func (e *Engine) SetSkinFromURL(url string) error {
	if url == "" {
		return errors.New("empty skin url")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.skinURL = url
	return nil
}

// SkinURL returns the currently applied skin reference.
func (e *Engine) SkinURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skinURL
}

// MediaStatus reports the current playback status.
func (e *Engine) MediaStatus() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// CurrentIndex returns the index of the current track, -1 for none.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentIndex
}

// OnTrackDidChange registers a track change callback.
func (e *Engine) OnTrackDidChange(fn func(index int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackChange = append(e.trackChange, fn)
}

// OnWillClose registers a close-intercept callback.
func (e *Engine) OnWillClose(fn func(cancel func())) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.willClose = append(e.willClose, fn)
}

// Close asks the engine to shut down. Close-intercept callbacks run first;
// any of them may cancel, in which case the engine stays up and Close
// returns nil without releasing anything.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	callbacks := make([]func(cancel func()), len(e.willClose))
	copy(callbacks, e.willClose)
	e.mu.Unlock()

	cancelled := false
	for _, fn := range callbacks {
		fn(func() { cancelled = true })
	}
	if cancelled {
		zlog.Debug().Msg("engine: close cancelled by intercept")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
	e.status = engine.StatusStopped
	e.closed = true
	return nil
}

// startTrackLocked begins playing the track at index from the start.
func (e *Engine) startTrackLocked(index int) {
	e.currentIndex = index
	e.pausedElapsed = 0
	e.startTime = time.Now()
	e.status = engine.StatusPlaying
	e.startTrackTimerLocked()
}

// startTrackTimerLocked arms the end-of-track timer for the remaining
// duration. Tracks with unknown duration play until an explicit command.
func (e *Engine) startTrackTimerLocked() {
	e.stopTimerLocked()

	if e.currentIndex < 0 || e.currentIndex >= len(e.tracks) {
		return
	}
	total := time.Duration(e.tracks[e.currentIndex].Duration * float64(time.Second))
	if total <= 0 {
		return
	}
	remaining := total - e.pausedElapsed
	if remaining <= 0 {
		remaining = time.Millisecond
	}

	e.timerCancel = e.startWallClockTimer(remaining, e.onTrackEnd)
}

func (e *Engine) stopTimerLocked() {
	if e.timerCancel != nil {
		e.timerCancel()
		e.timerCancel = nil
	}
}

// onTrackEnd advances naturally when the track's duration elapses.
func (e *Engine) onTrackEnd() {
	e.mu.Lock()
	if e.status != engine.StatusPlaying {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.advance(1)
}

// startWallClockTimer triggers callback after duration using wall clock
// checks at tick resolution, so suspend/resume of the host does not stall
// the simulation. Returns a cancel function.
func (e *Engine) startWallClockTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		endTime := time.Now().Add(duration)
		ticker := time.NewTicker(e.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if time.Now().After(endTime) {
					callback()
					return
				}
			}
		}
	}()

	return cancel
}

func (e *Engine) trackChangeCallbacksLocked() ([]func(int), int) {
	cbs := make([]func(int), len(e.trackChange))
	copy(cbs, e.trackChange)
	return cbs, e.currentIndex
}

func notify(callbacks []func(int), index int) {
	for _, fn := range callbacks {
		fn(index)
	}
}
