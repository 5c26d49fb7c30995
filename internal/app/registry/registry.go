// Package registry provides the ephemeral track registry: session-scoped,
// revocable handles to user-selected audio files.
package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/seekerplay/seekerplay/internal/domain/track"
)

// HandleScheme prefixes every handle URL issued by a registry.
const HandleScheme = "mem://"

// DurationProber reads media duration from an open handle. Implementations
// may fail; the registry treats any failure as "unknown duration".
type DurationProber interface {
	Probe(r io.ReadSeeker) (seconds float64, err error)
}

// handle is a live reference to a selected file's bytes. Valid until
// released; an unreleased handle keeps its file descriptor open for the
// process lifetime.
type handle struct {
	id   string
	file *os.File
}

// Registry maps track ids to live handles for the current session.
// Handles are exclusively owned by the registry; consumers must not assume a
// handle outlives a Release call.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*handle
	prober  DurationProber
}

// New creates a registry using the given duration prober.
func New(prober DurationProber) *Registry {
	return &Registry{
		handles: make(map[string]*handle),
		prober:  prober,
	}
}

// Register opens the file at path, allocates a fresh track id and a
// revocable handle, derives artist/title from the base name and probes the
// media duration. Probe failures degrade to duration 0 and are never
// surfaced to the caller.
func (r *Registry) Register(ctx context.Context, path string) (track.LiveTrack, error) {
	info, err := os.Stat(path)
	if err != nil {
		return track.LiveTrack{}, errors.Wrap(err, "failed to stat file")
	}

	f, err := os.Open(path)
	if err != nil {
		return track.LiveTrack{}, errors.Wrap(err, "failed to open file")
	}

	duration := r.probe(f)

	id := uuid.New().String()
	name := filepath.Base(path)
	artist, title := track.ParseFileName(name)

	lt := track.LiveTrack{
		StoredTrack: track.StoredTrack{
			ID:           id,
			Name:         name,
			Artist:       artist,
			Title:        title,
			Duration:     duration,
			FileName:     name,
			FileSize:     info.Size(),
			LastModified: info.ModTime().UnixMilli(),
		},
		HandleURL: HandleScheme + id,
	}

	r.mu.Lock()
	r.handles[id] = &handle{id: id, file: f}
	r.mu.Unlock()

	zlog.Debug().Msgf("registry: registered track: id=%s file=%s duration=%.1fs", id, name, duration)
	return lt, nil
}

// probe reads the duration and rewinds the handle. Any failure, including a
// failed rewind of a partially consumed stream, resolves to 0.
func (r *Registry) probe(f *os.File) float64 {
	duration, err := r.prober.Probe(f)
	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
		zlog.Debug().Msgf("registry: failed to rewind after probe: %v", seekErr)
		return 0
	}
	if err != nil {
		zlog.Debug().Msgf("registry: duration probe failed, treating as unknown: %v", err)
		return 0
	}
	return duration
}

// Open resolves a handle for reading. The returned reader stays owned by the
// registry and is invalidated by Release.
func (r *Registry) Open(id string) (io.ReadSeeker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	return h.file, true
}

// Release revokes a single handle, freeing its underlying resources.
// Releasing an unknown id is a no-op.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(id)
}

// ReleaseAll revokes every currently registered handle.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.handles {
		r.releaseLocked(id)
	}
}

func (r *Registry) releaseLocked(id string) {
	h, ok := r.handles[id]
	if !ok {
		return
	}
	if err := h.file.Close(); err != nil {
		zlog.Warn().Msgf("registry: failed to close handle: id=%s err=%v", id, err)
	}
	delete(r.handles, id)
}

// Count returns the number of live handles.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
