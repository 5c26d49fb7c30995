// Package engine defines the playback engine boundary.
//
// The application treats the engine as an external component it does not
// control internally: it hands tracks over in the engine's native format,
// issues transport commands, and observes whatever notifications the engine
// chooses to expose.
package engine

// MetaData is the display metadata the engine understands.
type MetaData struct {
	Artist string
	Title  string
}

// Track is the engine-native track format. Conversion from the application's
// track model is lossy: identifying file metadata (size, modification time)
// is dropped at this boundary.
type Track struct {
	URL      string
	MetaData MetaData
	Duration float64 // Seconds, 0 = unknown
}

// Status is the engine's discrete playback status.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Engine is the command and observation surface of a playback engine.
//
// The engine only exposes toggles for shuffle and repeat, never setters;
// callers that need a specific flag value must read the current state and
// toggle on mismatch.
type Engine interface {
	Play()
	Pause()
	Stop()
	NextTrack()
	PreviousTrack()
	SeekToTime(seconds float64)
	SetVolume(volume int)

	ToggleShuffle()
	ToggleRepeat()
	IsShuffleEnabled() bool
	IsRepeatEnabled() bool

	SetTracksToPlay(tracks []Track)
	AppendTracks(tracks []Track)
	SetSkinFromURL(url string) error

	// MediaStatus reports the current playback status. The engine emits no
	// notification for play/pause/stop transitions, so callers that need to
	// mirror them must query this.
	MediaStatus() Status

	// OnTrackDidChange registers a callback invoked with the index of the
	// now-current track whenever it changes.
	OnTrackDidChange(fn func(index int))

	// OnWillClose registers a callback invoked before the engine shuts
	// down; calling cancel inside the callback suppresses the shutdown.
	OnWillClose(fn func(cancel func()))

	Close() error
}

// Options carries the construction-time collaboration hooks every engine
// accepts.
type Options struct {
	// InitialSkinURL is applied during construction when non-empty.
	InitialSkinURL string

	// FilePicker acquires tracks through the application's own local-file
	// path when the user asks the engine for files.
	FilePicker func() ([]Track, error)

	// DropHandler acquires tracks for externally initiated drag-and-drop.
	// Paths arriving here have already been filtered to audio media types.
	DropHandler func(paths []string) ([]Track, error)
}
