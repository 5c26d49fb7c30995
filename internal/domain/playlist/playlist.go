// Package playlist provides the Playlist domain entity.
package playlist

import (
	"github.com/cockroachdb/errors"

	"github.com/seekerplay/seekerplay/internal/domain/track"
)

// ErrIndexOutOfRange is returned when a track move references a position
// outside the playlist's current length.
var ErrIndexOutOfRange = errors.New("track index out of range")

// Playlist is a named, ordered sequence of stored tracks.
// Track order is meaningful: it is both display and playback order.
type Playlist struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Tracks    []track.StoredTrack `json:"tracks"`
	CreatedAt int64               `json:"createdAt"` // Unix milliseconds, immutable
	UpdatedAt int64               `json:"updatedAt"` // Unix milliseconds, bumped on every write
}

// AddTracks appends tracks to the end of the sequence.
func (p *Playlist) AddTracks(tracks ...track.StoredTrack) {
	p.Tracks = append(p.Tracks, tracks...)
}

// RemoveTrack removes the track with the given id, preserving the order of
// the rest. Removing an absent id is a no-op.
func (p *Playlist) RemoveTrack(trackID string) {
	filtered := p.Tracks[:0]
	for _, t := range p.Tracks {
		if t.ID != trackID {
			filtered = append(filtered, t)
		}
	}
	p.Tracks = filtered
}

// MoveTrack moves the track at position from to position to, shifting the
// tracks in between. This is a move, not a swap: all other tracks keep their
// relative order.
func (p *Playlist) MoveTrack(from, to int) error {
	if from < 0 || from >= len(p.Tracks) || to < 0 || to >= len(p.Tracks) {
		return errors.Wrapf(ErrIndexOutOfRange, "move %d -> %d with %d tracks", from, to, len(p.Tracks))
	}
	if from == to {
		return nil
	}

	moved := p.Tracks[from]
	p.Tracks = append(p.Tracks[:from], p.Tracks[from+1:]...)

	p.Tracks = append(p.Tracks, track.StoredTrack{})
	copy(p.Tracks[to+1:], p.Tracks[to:])
	p.Tracks[to] = moved
	return nil
}

// TrackIDs returns all track IDs in playlist order.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the summed duration of all tracks in seconds.
// Tracks with unknown duration contribute 0.
func (p *Playlist) TotalDuration() float64 {
	var total float64
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
