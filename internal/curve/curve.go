// Package curve maps raw 0-127 controller values onto parameter ranges
// through a configurable response shape.
package curve

import "math"

// Shape selects the response curve of a mapping. The string values are what
// gets serialized in the config file.
type Shape string

const (
	Linear Shape = "linear"
	Log    Shape = "log"
	Exp    Shape = "exp"
)

// epsilon keeps the log shape away from a degenerate zero input.
const epsilon = 0.001

// Mapping binds a MIDI controller to a parameter range and response shape.
type Mapping struct {
	Controller uint8   `json:"controller"`
	Parameter  string  `json:"parameter"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Shape      Shape   `json:"curve"`
}

// Convert maps a raw controller value (0-127) into [Min, Max] according to
// the mapping's shape. Values above 127 are clamped before conversion; the
// output itself is not clamped further.
//
// Log never reaches Min exactly at raw 0 because the normalized input is
// clamped to a small epsilon first.
func (m Mapping) Convert(raw uint8) float64 {
	if raw > 127 {
		raw = 127
	}
	n := float64(raw) / 127.0

	switch m.Shape {
	case Exp:
		// Fine resolution at the low end, expanding toward the top.
		return m.Min + (m.Max-m.Min)*n*n
	case Log:
		if n < epsilon {
			n = epsilon
		}
		// log10(1+9n) runs 0..1 over the input domain and hits 1 exactly
		// at n=1, so raw 127 lands on Max.
		return m.Min + (m.Max-m.Min)*math.Log10(1+9*n)
	default:
		return m.Min + (m.Max-m.Min)*n
	}
}
