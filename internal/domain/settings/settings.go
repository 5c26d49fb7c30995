// Package settings provides the application settings entity.
package settings

// Settings is the singleton settings record. Created with defaults on first
// run and updated incrementally via Patch; never deleted.
//
// CurrentSkinURL and LastPlaylistID use the empty string for "not set".
type Settings struct {
	CurrentSkinURL string `json:"currentSkinUrl"`
	LastPlaylistID string `json:"lastPlaylistId"`
	Volume         int    `json:"volume"` // 0-100
	Shuffle        bool   `json:"shuffle"`
	Repeat         bool   `json:"repeat"`
}

// Default returns the first-run settings.
func Default() Settings {
	return Settings{
		Volume: 75,
	}
}

// Patch is a partial settings update. Only non-nil fields are applied.
type Patch struct {
	CurrentSkinURL *string
	LastPlaylistID *string
	Volume         *int
	Shuffle        *bool
	Repeat         *bool
}

// Apply merges the patch onto s and returns the result. Volume is clamped
// to [0,100]; out-of-range values from callers are undefined behavior in
// the engine, so they never reach it.
func (p Patch) Apply(s Settings) Settings {
	if p.CurrentSkinURL != nil {
		s.CurrentSkinURL = *p.CurrentSkinURL
	}
	if p.LastPlaylistID != nil {
		s.LastPlaylistID = *p.LastPlaylistID
	}
	if p.Volume != nil {
		s.Volume = ClampVolume(*p.Volume)
	}
	if p.Shuffle != nil {
		s.Shuffle = *p.Shuffle
	}
	if p.Repeat != nil {
		s.Repeat = *p.Repeat
	}
	return s
}

// ClampVolume clamps v to the valid volume range [0,100].
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// Int returns a pointer to v, for building patches.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for building patches.
func Bool(v bool) *bool { return &v }
