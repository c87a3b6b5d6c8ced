package device

import (
	"reflect"
	"testing"
)

// feedAll runs a byte stream through a framer and collects the messages.
func feedAll(f *Framer, stream []byte) [][]byte {
	var out [][]byte
	for _, b := range stream {
		if msg := f.Feed(b); msg != nil {
			out = append(out, msg)
		}
	}
	return out
}

func TestFramerSimpleMessages(t *testing.T) {
	var f Framer
	got := feedAll(&f, []byte{0x90, 60, 100, 0x80, 60, 0})
	want := [][]byte{{0x90, 60, 100}, {0x80, 60, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFramerTwoByteMessage(t *testing.T) {
	var f Framer
	got := feedAll(&f, []byte{0xC0, 12})
	if !reflect.DeepEqual(got, [][]byte{{0xC0, 12}}) {
		t.Errorf("got %v", got)
	}
}

func TestFramerRunningStatus(t *testing.T) {
	var f Framer
	// One status byte, two note-on payloads.
	got := feedAll(&f, []byte{0x90, 60, 100, 64, 90})
	want := [][]byte{{0x90, 60, 100}, {0x90, 64, 90}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("running status: got %v, want %v", got, want)
	}
}

func TestFramerSkipsRealtimeBytes(t *testing.T) {
	var f Framer
	// Clock (0xF8) interleaved mid-message must not corrupt the frame.
	got := feedAll(&f, []byte{0x90, 60, 0xF8, 100})
	if !reflect.DeepEqual(got, [][]byte{{0x90, 60, 100}}) {
		t.Errorf("got %v", got)
	}
}

func TestFramerDropsOrphanDataBytes(t *testing.T) {
	var f Framer
	got := feedAll(&f, []byte{60, 100, 0x90, 60, 100})
	if !reflect.DeepEqual(got, [][]byte{{0x90, 60, 100}}) {
		t.Errorf("got %v", got)
	}
}

func TestFramerSysExCancelsRunningStatus(t *testing.T) {
	var f Framer
	// SysEx start then data; its payload must not be framed as note data,
	// and the next real status byte resumes normal operation.
	got := feedAll(&f, []byte{0x90, 60, 100, 0xF0, 1, 2, 3, 0xF7, 0xB0, 7, 90})
	want := [][]byte{{0x90, 60, 100}, {0xB0, 7, 90}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
