// Package mapping stores bindings from physical MIDI controls to named
// application functions, supports interactive learn mode, and persists the
// result as JSON.
//
// Function identifiers are flat "category:function" strings; see the
// functions package for the catalog.
package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Source identifies the kind of MIDI control a binding listens to. The
// string values are the section names in the config file.
type Source string

const (
	SourceNote      Source = "note"
	SourceCC        Source = "cc"
	SourcePitchBend Source = "pb"
	SourceProgram   Source = "pc"
)

// Sources lists every source kind in file order.
var Sources = []Source{SourceNote, SourceCC, SourcePitchBend, SourceProgram}

// Key addresses one binding within a source bucket. ID is the note,
// controller or program number; it is ignored for pitch bend, which is
// keyed by channel alone.
type Key struct {
	Channel uint8
	ID      uint8
}

// Phrase is one of the five fixed text slots a trigger binding can speak.
type Phrase struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// PhraseSlots are the fixed trigger slot identifiers. There is no dynamic
// growth; SetPhrase rejects anything else.
var PhraseSlots = []string{"trigger_1", "trigger_2", "trigger_3", "trigger_4", "trigger_5"}

// Registry holds the full control-to-function mapping state. All methods
// are safe for concurrent use; learn-mode state is read from the MIDI
// ingest path on every message while a session is active.
type Registry struct {
	mu       sync.Mutex
	path     string
	bindings map[Source]map[Key]string
	phrases  map[string]Phrase
	learning bool
	target   string // "category:function" while a learn session is active
}

// DefaultPath returns the per-user location of the mappings file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxmidi", "mappings.json"), nil
}

// New creates an empty registry persisting to path. An empty path selects
// the per-user default location.
func New(path string) *Registry {
	if path == "" {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	r := &Registry{
		path:     path,
		bindings: emptyBindings(),
		phrases:  make(map[string]Phrase, len(PhraseSlots)),
	}
	return r
}

func emptyBindings() map[Source]map[Key]string {
	m := make(map[Source]map[Key]string, len(Sources))
	for _, s := range Sources {
		m[s] = make(map[Key]string)
	}
	return m
}

// Path returns the file the registry persists to.
func (r *Registry) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// StartLearning opens a learn session for the given function. Any session
// already active is replaced without committing.
func (r *Registry) StartLearning(category, function string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.learning = true
	r.target = category + ":" + function
}

// StopLearning cancels the active session, if any. Safe to call repeatedly.
func (r *Registry) StopLearning() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.learning = false
	r.target = ""
}

// Learning reports whether a learn session is active.
func (r *Registry) Learning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.learning
}

// LearnTarget returns the function the active session would bind, or "".
func (r *Registry) LearnTarget() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// AssignNote commits the active learn session to a note control.
func (r *Registry) AssignNote(note, channel uint8) bool {
	return r.assign(SourceNote, Key{Channel: channel, ID: note})
}

// AssignCC commits the active learn session to a continuous controller.
func (r *Registry) AssignCC(controller, channel uint8) bool {
	return r.assign(SourceCC, Key{Channel: channel, ID: controller})
}

// AssignPB commits the active learn session to the pitch wheel on a channel.
func (r *Registry) AssignPB(channel uint8) bool {
	return r.assign(SourcePitchBend, Key{Channel: channel})
}

// AssignPC commits the active learn session to a program change.
func (r *Registry) AssignPC(program, channel uint8) bool {
	return r.assign(SourceProgram, Key{Channel: channel, ID: program})
}

// assign commits the learn target under (src, key), ends the session and
// saves. Returns false with no mutation when no session is active. A save
// failure is logged but does not undo the binding.
func (r *Registry) assign(src Source, key Key) bool {
	r.mu.Lock()
	if !r.learning || r.target == "" {
		r.mu.Unlock()
		return false
	}
	target := r.target

	// One binding per function within a bucket: re-learning a function
	// moves it rather than leaving a stale duplicate behind.
	bucket := r.bindings[src]
	for k, fn := range bucket {
		if fn == target {
			delete(bucket, k)
		}
	}
	bucket[key] = target

	r.learning = false
	r.target = ""
	r.mu.Unlock()

	if err := r.Save(); err != nil {
		logger.Error("mapping: save after assign failed", "source", src, "err", err)
	}
	return true
}

// NoteFunction looks up the function bound to a note, if any.
func (r *Registry) NoteFunction(note, channel uint8) (string, bool) {
	return r.lookup(SourceNote, Key{Channel: channel, ID: note})
}

// CCFunction looks up the function bound to a controller, if any.
func (r *Registry) CCFunction(controller, channel uint8) (string, bool) {
	return r.lookup(SourceCC, Key{Channel: channel, ID: controller})
}

// PBFunction looks up the function bound to the pitch wheel on a channel.
func (r *Registry) PBFunction(channel uint8) (string, bool) {
	return r.lookup(SourcePitchBend, Key{Channel: channel})
}

// PCFunction looks up the function bound to a program change, if any.
func (r *Registry) PCFunction(program, channel uint8) (string, bool) {
	return r.lookup(SourceProgram, Key{Channel: channel, ID: program})
}

func (r *Registry) lookup(src Source, key Key) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, ok := r.bindings[src][key]
	return fn, ok
}

// ClearMapping removes one binding. Returns false if it did not exist.
func (r *Registry) ClearMapping(src Source, key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.bindings[src]
	if !ok {
		return false
	}
	if _, ok := bucket[key]; !ok {
		return false
	}
	delete(bucket, key)
	return true
}

// ClearAll removes every binding across all source kinds. Phrases stay.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = emptyBindings()
}

// Bindings returns a copy of one source bucket, for display.
func (r *Registry) Bindings(src Source) map[Key]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Key]string, len(r.bindings[src]))
	for k, fn := range r.bindings[src] {
		out[k] = fn
	}
	return out
}

// SetPhrase stores text and voice for a trigger slot and saves. Returns
// false for an unknown slot.
func (r *Registry) SetPhrase(triggerID, text, voice string) bool {
	if !validSlot(triggerID) {
		return false
	}
	r.mu.Lock()
	r.phrases[triggerID] = Phrase{Text: text, Voice: voice}
	r.mu.Unlock()

	if err := r.Save(); err != nil {
		logger.Error("mapping: save after phrase change failed", "slot", triggerID, "err", err)
	}
	return true
}

// Phrase returns the phrase stored in a slot, or the zero value.
func (r *Registry) Phrase(triggerID string) Phrase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phrases[triggerID]
}

func validSlot(id string) bool {
	for _, s := range PhraseSlots {
		if s == id {
			return true
		}
	}
	return false
}

func (r *Registry) errNoPath() error {
	return fmt.Errorf("mapping: no config path configured")
}
