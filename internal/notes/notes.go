// Package notes tracks which notes are currently sounding, including notes
// held over by the sustain pedal.
package notes

import "sort"

// Tracker maintains the set of active notes and the sustain pedal state.
//
// A note released while sustain is down stays active until the pedal comes
// up; only those deferred releases are flushed then. Keys that are still
// physically down survive a pedal release. Not safe for concurrent use;
// the engine serializes access.
type Tracker struct {
	down      map[uint8]struct{} // keys physically held
	sustained map[uint8]struct{} // released while the pedal was down
	sustain   bool
}

// NewTracker returns an empty tracker with sustain off.
func NewTracker() *Tracker {
	return &Tracker{
		down:      make(map[uint8]struct{}),
		sustained: make(map[uint8]struct{}),
	}
}

// NoteOn marks a note as held. Re-triggering an already-held note is a no-op.
func (t *Tracker) NoteOn(note uint8) {
	t.down[note] = struct{}{}
	// A re-strike of a pedal-held note is down again, not merely sustained.
	delete(t.sustained, note)
}

// NoteOff releases a note. With sustain active the note stays in the active
// set until the pedal is released.
func (t *Tracker) NoteOff(note uint8) {
	if _, held := t.down[note]; held && t.sustain {
		delete(t.down, note)
		t.sustained[note] = struct{}{}
		return
	}
	delete(t.down, note)
	delete(t.sustained, note)
}

// SetSustain updates the pedal state. Releasing the pedal flushes every note
// whose key-up was deferred by it.
func (t *Tracker) SetSustain(active bool) {
	if t.sustain && !active {
		t.sustained = make(map[uint8]struct{})
	}
	t.sustain = active
}

// Sustain reports whether the pedal is down.
func (t *Tracker) Sustain() bool {
	return t.sustain
}

// IsActive reports whether a note is currently sounding.
func (t *Tracker) IsActive(note uint8) bool {
	if _, ok := t.down[note]; ok {
		return true
	}
	_, ok := t.sustained[note]
	return ok
}

// Active returns all sounding notes in ascending order.
func (t *Tracker) Active() []uint8 {
	out := make([]uint8, 0, len(t.down)+len(t.sustained))
	for n := range t.down {
		out = append(out, n)
	}
	for n := range t.sustained {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
