package midimsg

import (
	"errors"
	"math"
	"testing"
)

func TestDecodeNoteOn(t *testing.T) {
	// Middle C, channel 0, velocity 100.
	e, err := Decode([]byte{0x90, 60, 100})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if e.Kind != KindNoteOn || e.Channel != 0 || e.Note != 60 || e.Velocity != 100 {
		t.Errorf("got %+v, want note on ch0 note 60 vel 100", e)
	}
}

func TestDecodeNoteOnVelocityZeroIsNoteOff(t *testing.T) {
	e, err := Decode([]byte{0x90, 60, 0})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if e.Kind != KindNoteOff {
		t.Errorf("velocity-0 note on decoded as %v, want note off", e.Kind)
	}

	// Must match an explicit note off with the same velocity.
	off, err := Decode([]byte{0x80, 60, 0})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if e != off {
		t.Errorf("velocity-0 note on %+v != note off %+v", e, off)
	}
}

func TestDecodeControlChange(t *testing.T) {
	e, err := Decode([]byte{0xB3, 1, 127})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if e.Kind != KindControlChange || e.Channel != 3 || e.Controller != 1 || e.Value != 127 {
		t.Errorf("got %+v, want cc ch3 1=127", e)
	}
}

func TestDecodePitchBendCenter(t *testing.T) {
	// lsb=0, msb=0x40 reconstructs to 64<<7 = 8192 (center).
	e, err := Decode([]byte{0xE0, 0x00, 0x40})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if e.Kind != KindPitchBend || e.Bend != PitchBendCenter {
		t.Errorf("got %+v, want bend %d", e, PitchBendCenter)
	}
}

func TestDecodePitchBendExtremes(t *testing.T) {
	e, _ := Decode([]byte{0xE0, 0x7F, 0x7F})
	if e.Bend != 16383 {
		t.Errorf("max bend: got %d, want 16383", e.Bend)
	}
	e, _ = Decode([]byte{0xE0, 0x00, 0x00})
	if e.Bend != 0 {
		t.Errorf("min bend: got %d, want 0", e.Bend)
	}
}

func TestDecodeProgramChangeTwoBytes(t *testing.T) {
	e, err := Decode([]byte{0xC5, 12})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if e.Kind != KindProgramChange || e.Channel != 5 || e.Program != 12 {
		t.Errorf("got %+v, want program ch5 12", e)
	}
}

func TestDecodeTooShort(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, {0x90}} {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%v): err = %v, want ErrMalformed", raw, err)
		}
	}
	// Status byte says 3 bytes, only 2 arrived.
	if _, err := Decode([]byte{0x90, 60}); !errors.Is(err, ErrMalformed) {
		t.Errorf("truncated note on: err = %v, want ErrMalformed", err)
	}
}

func TestDecodeUnknownStatusIgnored(t *testing.T) {
	// Channel pressure and SysEx are not errors, just ignored.
	for _, raw := range [][]byte{{0xD0, 64}, {0xF0, 0x7E, 0xF7}, {0xA0, 60, 40}} {
		e, err := Decode(raw)
		if err != nil {
			t.Errorf("Decode(%v): unexpected error %v", raw, err)
		}
		if e.Kind != KindIgnored {
			t.Errorf("Decode(%v): kind = %v, want ignored", raw, e.Kind)
		}
	}
}

func TestDataLen(t *testing.T) {
	cases := []struct {
		status byte
		want   int
	}{
		{0x90, 2}, {0x83, 2}, {0xB0, 2}, {0xE7, 2}, {0xA1, 2},
		{0xC0, 1}, {0xD2, 1},
		{0xF0, -1}, {0x00, -1},
	}
	for _, c := range cases {
		if got := DataLen(c.status); got != c.want {
			t.Errorf("DataLen(%#x) = %d, want %d", c.status, got, c.want)
		}
	}
}

func TestNoteName(t *testing.T) {
	cases := []struct {
		note uint8
		want string
	}{
		{60, "C4"}, {69, "A4"}, {21, "A0"}, {0, "C-1"}, {61, "C#4"},
	}
	for _, c := range cases {
		if got := NoteName(c.note); got != c.want {
			t.Errorf("NoteName(%d) = %q, want %q", c.note, got, c.want)
		}
	}
}

func TestNoteFrequency(t *testing.T) {
	if f := NoteFrequency(69); math.Abs(f-440.0) > 1e-9 {
		t.Errorf("A4: got %f, want 440", f)
	}
	if f := NoteFrequency(57); math.Abs(f-220.0) > 1e-9 {
		t.Errorf("A3: got %f, want 220", f)
	}
	if f := NoteFrequency(60); math.Abs(f-261.6255653) > 1e-3 {
		t.Errorf("C4: got %f, want ~261.63", f)
	}
}
