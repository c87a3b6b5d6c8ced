// Package midimsg decodes raw MIDI channel messages into typed events.
//
// The decoder is deliberately forgiving: message kinds this application does
// not react to (aftertouch, SysEx, realtime) decode to an Ignored event
// rather than an error, so a noisy controller never stalls the pipeline.
package midimsg

import (
	"errors"
	"fmt"
	"math"
)

// Status byte high nibbles for the channel messages we understand.
const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusPolyPressure  = 0xA0
	statusControlChange = 0xB0
	statusProgramChange = 0xC0
	statusChanPressure  = 0xD0
	statusPitchBend     = 0xE0
)

// SustainController is the controller number reserved for the sustain pedal.
const SustainController = 64

// PitchBendCenter is the raw 14-bit value for a centered pitch wheel.
const PitchBendCenter = 8192

// ErrMalformed is returned when a message is too short to decode.
var ErrMalformed = errors.New("midimsg: malformed message")

// Kind identifies the decoded message type.
type Kind int

const (
	KindIgnored Kind = iota
	KindNoteOn
	KindNoteOff
	KindControlChange
	KindProgramChange
	KindPitchBend
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "note_on"
	case KindNoteOff:
		return "note_off"
	case KindControlChange:
		return "control_change"
	case KindProgramChange:
		return "program_change"
	case KindPitchBend:
		return "pitch_bend"
	default:
		return "ignored"
	}
}

// Event is a decoded MIDI channel message. Only the fields relevant to the
// Kind are populated; the rest stay zero.
type Event struct {
	Kind    Kind
	Channel uint8 // 0-15

	Note     uint8 // note on/off
	Velocity uint8 // note on/off

	Controller uint8 // control change
	Value      uint8 // control change

	Program uint8 // program change

	Bend uint16 // pitch bend, 0-16383, center 8192
}

// String renders the event for logs and the monitor view.
func (e Event) String() string {
	switch e.Kind {
	case KindNoteOn:
		return fmt.Sprintf("note on ch%d %s vel %d", e.Channel, NoteName(e.Note), e.Velocity)
	case KindNoteOff:
		return fmt.Sprintf("note off ch%d %s", e.Channel, NoteName(e.Note))
	case KindControlChange:
		return fmt.Sprintf("cc ch%d %d=%d", e.Channel, e.Controller, e.Value)
	case KindProgramChange:
		return fmt.Sprintf("program ch%d %d", e.Channel, e.Program)
	case KindPitchBend:
		return fmt.Sprintf("bend ch%d %d", e.Channel, int(e.Bend)-PitchBendCenter)
	default:
		return "ignored"
	}
}

// DataLen returns the number of data bytes that follow the given status
// byte, or -1 if the byte is not a channel-message status. Used by transports
// that frame a raw byte stream.
func DataLen(status byte) int {
	switch status & 0xF0 {
	case statusProgramChange, statusChanPressure:
		return 1
	case statusNoteOff, statusNoteOn, statusPolyPressure, statusControlChange, statusPitchBend:
		return 2
	default:
		return -1
	}
}

// Decode parses a 2-3 byte raw MIDI message.
//
// NoteOn with velocity zero is normalized to NoteOff, per the MIDI spec.
// Unknown status nibbles produce an Ignored event and no error; inputs too
// short for their message kind fail with ErrMalformed.
func Decode(raw []byte) (Event, error) {
	if len(raw) < 2 {
		return Event{}, fmt.Errorf("%w: %d bytes", ErrMalformed, len(raw))
	}

	status := raw[0]
	e := Event{Channel: status & 0x0F}

	switch status & 0xF0 {
	case statusNoteOn:
		if len(raw) < 3 {
			return Event{}, fmt.Errorf("%w: note on needs 3 bytes", ErrMalformed)
		}
		e.Note, e.Velocity = raw[1]&0x7F, raw[2]&0x7F
		if e.Velocity == 0 {
			e.Kind = KindNoteOff
		} else {
			e.Kind = KindNoteOn
		}
	case statusNoteOff:
		if len(raw) < 3 {
			return Event{}, fmt.Errorf("%w: note off needs 3 bytes", ErrMalformed)
		}
		e.Kind = KindNoteOff
		e.Note, e.Velocity = raw[1]&0x7F, raw[2]&0x7F
	case statusControlChange:
		if len(raw) < 3 {
			return Event{}, fmt.Errorf("%w: control change needs 3 bytes", ErrMalformed)
		}
		e.Kind = KindControlChange
		e.Controller, e.Value = raw[1]&0x7F, raw[2]&0x7F
	case statusProgramChange:
		e.Kind = KindProgramChange
		e.Program = raw[1] & 0x7F
	case statusPitchBend:
		if len(raw) < 3 {
			return Event{}, fmt.Errorf("%w: pitch bend needs 3 bytes", ErrMalformed)
		}
		e.Kind = KindPitchBend
		lsb, msb := uint16(raw[1]&0x7F), uint16(raw[2]&0x7F)
		e.Bend = msb<<7 | lsb
	default:
		// Aftertouch, SysEx, realtime: not ours, but not an error either.
		e = Event{Kind: KindIgnored}
	}

	return e, nil
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName converts a MIDI note number to its conventional name, e.g. 60 -> "C4".
func NoteName(note uint8) string {
	octave := int(note)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}

// NoteFrequency converts a MIDI note number to its equal-tempered frequency
// in Hz (A4 = note 69 = 440 Hz).
func NoteFrequency(note uint8) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69)/12)
}
