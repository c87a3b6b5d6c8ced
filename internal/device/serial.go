package device

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/voxmidi/voxmidi/internal/midimsg"
)

// SerialSource reads a raw MIDI byte stream from a serial line (DIN MIDI
// behind a USB-serial bridge, or a microcontroller speaking MIDI framing)
// and reassembles complete messages.
type SerialSource struct {
	port   serial.Port
	name   string
	framer Framer
}

// OpenSerial opens the named serial device at the given baud rate. Classic
// DIN MIDI runs at 31250 baud; USB bridges commonly use 115200.
func OpenSerial(name string, baud int) (*SerialSource, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("device: open serial %s: %w", name, err)
	}
	logger.Info("device: serial port opened", "device", name, "baud", baud)
	return &SerialSource{port: p, name: name}, nil
}

// Run reads the port until it fails or is closed, delivering each complete
// MIDI message to fn. Blocks; run it on its own goroutine.
func (s *SerialSource) Run(fn RawFunc) error {
	buf := make([]byte, 64)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("device: serial read: %w", err)
		}
		for _, b := range buf[:n] {
			if msg := s.framer.Feed(b); msg != nil {
				fn(msg)
			}
		}
	}
}

// Close closes the underlying serial port.
func (s *SerialSource) Close() {
	logger.Info("device: closing serial port", "device", s.name)
	_ = s.port.Close()
}

// Framer assembles a MIDI byte stream into complete messages. It handles
// running status (data bytes reusing the previous status) and skips
// realtime bytes, which may be interleaved anywhere in the stream.
type Framer struct {
	status byte
	data   [2]byte
	have   int
	need   int
}

// Feed consumes one byte and returns a complete message when one is
// finished, nil otherwise. The returned slice is freshly allocated.
func (f *Framer) Feed(b byte) []byte {
	// Realtime messages (clock, start, stop...) are single bytes that can
	// appear mid-message. Not our concern; drop them without disturbing
	// the frame in progress.
	if b >= 0xF8 {
		return nil
	}

	if b&0x80 != 0 {
		// New status byte. System common (0xF0-0xF7) cancels running
		// status; channel messages start a fresh frame.
		need := midimsg.DataLen(b)
		if need < 0 {
			f.status = 0
			f.have = 0
			return nil
		}
		f.status = b
		f.need = need
		f.have = 0
		return nil
	}

	// Data byte with no active status: garbage or mid-SysEx, skip.
	if f.status == 0 {
		return nil
	}

	f.data[f.have] = b
	f.have++
	if f.have < f.need {
		return nil
	}

	msg := make([]byte, 1+f.need)
	msg[0] = f.status
	copy(msg[1:], f.data[:f.need])
	// Keep status for running status; just reset the data count.
	f.have = 0
	return msg
}
