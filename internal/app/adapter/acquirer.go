package adapter

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/seekerplay/seekerplay/internal/app/engine"
	"github.com/seekerplay/seekerplay/internal/app/registry"
	"github.com/seekerplay/seekerplay/internal/app/state"
	"github.com/seekerplay/seekerplay/internal/domain/track"
)

// Audio extensions the stdlib table does not cover on every platform.
func init() {
	for ext, typ := range map[string]string{
		".mp3":  "audio/mpeg",
		".ogg":  "audio/ogg",
		".oga":  "audio/ogg",
		".wav":  "audio/wav",
		".flac": "audio/flac",
		".m4a":  "audio/mp4",
		".aac":  "audio/aac",
		".opus": "audio/opus",
	} {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// PathPicker asks the presentation layer for local file paths. It is the
// application's own "load music" path, also used when the engine requests
// files.
type PathPicker func(ctx context.Context) ([]string, error)

// Acquirer is the shared file-acquisition path: it registers selected files
// as live handles and publishes them into the application store. The engine
// is constructed against the Options an Acquirer produces, so it exists
// before the engine does.
type Acquirer struct {
	app *state.Store
	reg *registry.Registry
}

// NewAcquirer creates an acquirer.
func NewAcquirer(app *state.Store, reg *registry.Registry) *Acquirer {
	return &Acquirer{app: app, reg: reg}
}

// ProcessAudioFiles registers each path as a live track and publishes it
// into the store. A path that fails to register is skipped with a warning;
// the remaining files still load.
func (a *Acquirer) ProcessAudioFiles(ctx context.Context, paths []string) []track.LiveTrack {
	tracks := make([]track.LiveTrack, 0, len(paths))
	for _, path := range paths {
		lt, err := a.reg.Register(ctx, path)
		if err != nil {
			zlog.Warn().Msgf("adapter: failed to load file: path=%s err=%v", path, err)
			continue
		}
		a.app.SetLiveTrack(lt)
		tracks = append(tracks, lt)
	}
	return tracks
}

// Options builds the engine construction options: the initial skin, the
// file-picker callback and the drag-and-drop handler, all routed through
// this acquirer.
func (a *Acquirer) Options(ctx context.Context, picker PathPicker, initialSkinURL string) engine.Options {
	opts := engine.Options{
		InitialSkinURL: initialSkinURL,
		DropHandler: func(paths []string) ([]engine.Track, error) {
			lts := a.ProcessAudioFiles(ctx, FilterAudioPaths(paths))
			return ToEngineTracks(lts), nil
		},
	}

	if picker != nil {
		opts.FilePicker = func() ([]engine.Track, error) {
			paths, err := picker(ctx)
			if err != nil {
				return nil, err
			}
			return ToEngineTracks(a.ProcessAudioFiles(ctx, paths)), nil
		}
	}

	return opts
}

// FilterAudioPaths keeps only paths whose extension maps to an audio media
// type. Dropped files pass through this filter before acquisition.
func FilterAudioPaths(paths []string) []string {
	audio := make([]string, 0, len(paths))
	for _, path := range paths {
		mt := mime.TypeByExtension(filepath.Ext(path))
		if strings.HasPrefix(mt, "audio/") {
			audio = append(audio, path)
		}
	}
	return audio
}
