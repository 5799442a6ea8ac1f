// Package dummy generates filler clips used whenever the schedule has no
// real media to hand the decoder: a missing source, an empty playlist, or
// a day that ran out of program before day_length elapsed.
package dummy

import (
	"fmt"

	"playoutd/internal/domain"
)

// FillerSource is the sentinel source value the decoder supervisor is
// expected to recognize as "generate a color+tone pattern" rather than a
// real file or stream to open.
const FillerSource = "color=c=black:s=1280x720"

// Generate returns a filler Media of the requested length beginning at
// beginSec, wired with a decoder command sized to that length.
func Generate(index int, beginSec, lengthSec float64) domain.Media {
	if lengthSec < 0 {
		lengthSec = 0
	}
	m := domain.NewDummy(index, beginSec, lengthSec)
	m.Source = FillerSource
	m.Cmd = fillerCmd(lengthSec)
	m.SetProcess(true)
	return m
}

func fillerCmd(lengthSec float64) []string {
	return []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("%s:d=%.3f", FillerSource, lengthSec),
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=1000:duration=%.3f", lengthSec),
	}
}
