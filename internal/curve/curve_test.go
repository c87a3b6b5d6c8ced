package curve

import (
	"math"
	"testing"
)

func TestLinearEndpoints(t *testing.T) {
	m := Mapping{Min: -12, Max: 12, Shape: Linear}

	if v := m.Convert(0); v != -12.0 {
		t.Errorf("Convert(0) = %f, want -12.0 exactly", v)
	}
	if v := m.Convert(127); v != 12.0 {
		t.Errorf("Convert(127) = %f, want 12.0 exactly", v)
	}
	// 64/127 is just past the midpoint; within half a step of zero.
	if v := m.Convert(64); math.Abs(v) > 24.0/127.0 {
		t.Errorf("Convert(64) = %f, want ~0", v)
	}
}

func TestExpShape(t *testing.T) {
	m := Mapping{Min: 0, Max: 1, Shape: Exp}

	if v := m.Convert(0); v != 0 {
		t.Errorf("Convert(0) = %f, want 0", v)
	}
	if v := m.Convert(127); v != 1 {
		t.Errorf("Convert(127) = %f, want 1", v)
	}
	// Squared response: the midpoint input maps well below the midpoint output.
	if v := m.Convert(64); v > 0.3 {
		t.Errorf("Convert(64) = %f, want < 0.3", v)
	}
}

func TestLogShape(t *testing.T) {
	m := Mapping{Min: 0, Max: 2, Shape: Log}

	// Must hit Max exactly at full scale.
	if v := m.Convert(127); v != 2.0 {
		t.Errorf("Convert(127) = %f, want 2.0 exactly", v)
	}
	// Epsilon clamp: near Min, not necessarily Min.
	if v := m.Convert(0); v < 0 || v > 0.05 {
		t.Errorf("Convert(0) = %f, want in [0, 0.05]", v)
	}
	// Finer resolution at the low end than linear.
	if v := m.Convert(64); v <= 1.0 {
		t.Errorf("Convert(64) = %f, want > linear midpoint", v)
	}
}

func TestShapesMonotonic(t *testing.T) {
	for _, shape := range []Shape{Linear, Log, Exp} {
		m := Mapping{Min: -5, Max: 5, Shape: shape}
		prev := math.Inf(-1)
		for raw := 0; raw <= 127; raw++ {
			v := m.Convert(uint8(raw))
			if v < prev {
				t.Fatalf("%s not monotonic at raw=%d: %f < %f", shape, raw, v, prev)
			}
			prev = v
		}
	}
}

func TestInvertedRange(t *testing.T) {
	// Min > Max is legal: the mapping just runs downhill.
	m := Mapping{Min: 10, Max: 0, Shape: Linear}
	if v := m.Convert(0); v != 10 {
		t.Errorf("Convert(0) = %f, want 10", v)
	}
	if v := m.Convert(127); v != 0 {
		t.Errorf("Convert(127) = %f, want 0", v)
	}
}

func TestUnknownShapeFallsBackToLinear(t *testing.T) {
	m := Mapping{Min: 0, Max: 127, Shape: "wobbly"}
	if v := m.Convert(127); v != 127 {
		t.Errorf("Convert(127) = %f, want 127", v)
	}
}
