// Package track provides the track domain entities.
package track

import (
	"path/filepath"
	"strings"
)

// UnknownArtist is used when a file name carries no artist/title separator.
const UnknownArtist = "Unknown Artist"

// StoredTrack holds the identifying metadata for a file the user selected.
// It never carries file bytes: audio content cannot be persisted across
// sessions, so StoredTrack is what lets the application match a re-selected
// file back to a playlist entry.
type StoredTrack struct {
	ID           string  `json:"id"`           // UUID
	Name         string  `json:"name"`         // Display name (the original file name)
	Artist       string  `json:"artist"`       // Parsed from the file name
	Title        string  `json:"title"`        // Parsed from the file name
	Duration     float64 `json:"duration"`     // Seconds, 0 = unknown
	FileName     string  `json:"fileName"`     // Original file name
	FileSize     int64   `json:"fileSize"`     // Bytes
	LastModified int64   `json:"lastModified"` // Unix milliseconds
}

// LiveTrack is a StoredTrack with a session-scoped handle reference.
// The handle URL is only resolvable through the registry that issued it and
// becomes invalid once the handle is released. LiveTrack values are never
// persisted as such.
type LiveTrack struct {
	StoredTrack
	HandleURL string `json:"-"`
}

// Stored returns the persistable part of the track, with the handle stripped.
func (t LiveTrack) Stored() StoredTrack {
	return t.StoredTrack
}

// ParseFileName derives artist and title from a file name of the form
// "<artist> - <title>.<ext>". The first " - " boundary splits artist from
// title; later occurrences stay part of the title. Without a separator the
// whole base name becomes the title and the artist falls back to
// UnknownArtist.
func ParseFileName(name string) (artist, title string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))

	parts := strings.SplitN(base, " - ", 2)
	if len(parts) < 2 {
		return UnknownArtist, strings.TrimSpace(base)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
