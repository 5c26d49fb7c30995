package registry

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/tcolgate/mp3"
)

// MP3Prober reads a track's duration by walking its MPEG frames.
type MP3Prober struct{}

// NewMP3Prober creates the default duration prober.
func NewMP3Prober() *MP3Prober {
	return &MP3Prober{}
}

// Probe sums the duration of every frame in the stream. Returns an error on
// anything that does not decode as MP3; the caller decides how to degrade.
func (p *MP3Prober) Probe(r io.ReadSeeker) (float64, error) {
	dec := mp3.NewDecoder(r)

	var (
		frame   mp3.Frame
		skipped int
		total   float64
	)
	for {
		err := dec.Decode(&frame, &skipped)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, "failed to decode frame")
		}
		total += frame.Duration().Seconds()
	}
	if total == 0 {
		return 0, errors.New("no decodable frames")
	}
	return total, nil
}
