// Package lfo computes low-frequency oscillator waveform values. The
// engine runs the periodic task; this package is the pure math.
package lfo

import (
	"math"
	"time"
)

// Waveform selects the oscillator shape. String values appear in flags and
// the monitor view.
type Waveform string

const (
	Sine     Waveform = "sine"
	Triangle Waveform = "triangle"
	Saw      Waveform = "saw"
	Square   Waveform = "square"
)

// Job describes one oscillator run over a parameter range.
type Job struct {
	Parameter string
	Min       float64
	Max       float64
	Frequency float64 // Hz, must be > 0
	Waveform  Waveform
}

// ValueAt returns the waveform value for the given elapsed time since the
// job started. Unknown waveforms fall back to sine.
func (j Job) ValueAt(elapsed time.Duration) float64 {
	period := 1.0 / j.Frequency
	t := elapsed.Seconds()
	phase := math.Mod(t, period) / period // [0, 1)

	switch j.Waveform {
	case Triangle:
		// Ramp up over the first half, back down over the second.
		n := phase * 2
		if phase >= 0.5 {
			n = 2 - phase*2
		}
		return j.Min + (j.Max-j.Min)*n
	case Saw:
		return j.Min + (j.Max-j.Min)*phase
	case Square:
		if phase < 0.5 {
			return j.Max
		}
		return j.Min
	default:
		amplitude := (j.Max - j.Min) / 2
		mid := j.Min + amplitude
		return mid + amplitude*math.Sin(phase*2*math.Pi)
	}
}
