// Package engine wires MIDI decoding, curve conversion, note tracking and
// the mapping registry into one control engine, and owns the parameter
// store and callback dispatch.
//
// MIDI ingest and the modulation oscillator run on different goroutines;
// a single mutex serializes all state. Callbacks are always invoked with
// the lock released, so a callback may safely re-enter the engine.
package engine

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/voxmidi/voxmidi/internal/curve"
	"github.com/voxmidi/voxmidi/internal/functions"
	"github.com/voxmidi/voxmidi/internal/mapping"
	"github.com/voxmidi/voxmidi/internal/midimsg"
	"github.com/voxmidi/voxmidi/internal/notes"
)

// pitchBendSemitones is the full-scale bend range: ±2 octaves.
const pitchBendSemitones = 24.0

// ParameterCallback receives parameter-changed events.
type ParameterCallback func(parameter string, value float64)

// NoteCallback receives note on/off events.
type NoteCallback func(note uint8, on bool, velocity uint8)

// Wildcard subscribes a parameter callback to every parameter.
const Wildcard = "*"

type paramSub struct {
	id string
	cb ParameterCallback
}

type noteSub struct {
	id string
	cb NoteCallback
}

// Engine is the MIDI control engine. Create one per application with New;
// there is no process-wide instance.
type Engine struct {
	mu      sync.Mutex
	params  map[string]float64
	curves  map[uint8]curve.Mapping
	tracker *notes.Tracker

	paramSubs map[string][]paramSub // keyed by parameter name or Wildcard
	noteSubs  []noteSub

	registry   *mapping.Registry
	dispatcher *functions.Dispatcher

	osc *oscillator

	log *slog.Logger
}

// New creates an engine with default parameter values. Both the registry
// and the dispatcher may be nil, in which case learn mode and function
// dispatch are disabled.
func New(reg *mapping.Registry, disp *functions.Dispatcher) *Engine {
	return &Engine{
		params: map[string]float64{
			"pitch":      0.0, // semitones
			"speed":      1.0,
			"volume":     1.0,
			"modulation": 0.0,
			"expression": 1.0,
		},
		curves:     make(map[uint8]curve.Mapping),
		tracker:    notes.NewTracker(),
		paramSubs:  make(map[string][]paramSub),
		registry:   reg,
		dispatcher: disp,
		log:        slog.Default(),
	}
}

// AddCurve installs a controller-to-parameter curve mapping, replacing any
// previous mapping for the same controller.
func (e *Engine) AddCurve(m curve.Mapping) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.curves[m.Controller] = m
}

// RemoveCurve deletes the curve mapping for a controller, if present.
func (e *Engine) RemoveCurve(controller uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.curves, controller)
}

// Curve returns the mapping for a controller, if one is installed.
func (e *Engine) Curve(controller uint8) (curve.Mapping, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.curves[controller]
	return m, ok
}

// Parameter returns the current value of a parameter, 0.0 if unset.
func (e *Engine) Parameter(name string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params[name]
}

// SetParameter writes a parameter directly, bypassing curve conversion,
// and dispatches to subscribers. The oscillator uses the same path, so
// LFO-driven and programmatic updates look identical downstream.
func (e *Engine) SetParameter(name string, value float64) {
	e.mu.Lock()
	e.params[name] = value
	cbs := e.paramCallbacksLocked(name)
	e.mu.Unlock()

	for _, cb := range cbs {
		cb(name, value)
	}
}

// paramCallbacksLocked snapshots the callbacks to run for a parameter:
// name-specific subscribers first, then wildcard subscribers, each in
// registration order. Caller holds e.mu.
func (e *Engine) paramCallbacksLocked(name string) []ParameterCallback {
	subs := e.paramSubs[name]
	wild := e.paramSubs[Wildcard]
	if len(subs) == 0 && len(wild) == 0 {
		return nil
	}
	out := make([]ParameterCallback, 0, len(subs)+len(wild))
	for _, s := range subs {
		out = append(out, s.cb)
	}
	for _, s := range wild {
		out = append(out, s.cb)
	}
	return out
}

// SubscribeParameter registers a callback for one parameter name, or for
// all parameters with the Wildcard key. Returns the subscription handle.
func (e *Engine) SubscribeParameter(name string, cb ParameterCallback) string {
	id := uuid.New().String()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paramSubs[name] = append(e.paramSubs[name], paramSub{id: id, cb: cb})
	return id
}

// UnsubscribeParameter removes a parameter subscription by handle.
func (e *Engine) UnsubscribeParameter(handle string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, subs := range e.paramSubs {
		for i, s := range subs {
			if s.id == handle {
				e.paramSubs[name] = append(subs[:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// SubscribeNote registers a callback for note on/off events and returns
// the subscription handle.
func (e *Engine) SubscribeNote(cb NoteCallback) string {
	id := uuid.New().String()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.noteSubs = append(e.noteSubs, noteSub{id: id, cb: cb})
	return id
}

// UnsubscribeNote removes a note subscription by handle.
func (e *Engine) UnsubscribeNote(handle string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.noteSubs {
		if s.id == handle {
			e.noteSubs = append(e.noteSubs[:i], e.noteSubs[i+1:]...)
			return true
		}
	}
	return false
}

// ActiveNotes returns the notes currently sounding.
func (e *Engine) ActiveNotes() []uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Active()
}

// Sustain reports whether the sustain pedal is down.
func (e *Engine) Sustain() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Sustain()
}

// HandleMessage decodes and routes one raw MIDI message. Malformed and
// unsupported messages are dropped; noisy hardware is expected and never
// stops the pipeline.
func (e *Engine) HandleMessage(raw []byte) {
	ev, err := midimsg.Decode(raw)
	if err != nil {
		e.log.Debug("engine: dropping malformed message", "len", len(raw), "err", err)
		return
	}

	if e.captureForLearn(ev) {
		return
	}

	switch ev.Kind {
	case midimsg.KindNoteOn:
		e.handleNote(ev, true)
	case midimsg.KindNoteOff:
		e.handleNote(ev, false)
	case midimsg.KindControlChange:
		e.handleCC(ev)
	case midimsg.KindPitchBend:
		e.handlePitchBend(ev)
	case midimsg.KindProgramChange:
		e.handleProgramChange(ev)
	}
}

// captureForLearn feeds the event to an active learn session. A captured
// event is consumed: it must not also trigger its normal routing. CC64 is
// reserved for the sustain pedal and is never learnable.
func (e *Engine) captureForLearn(ev midimsg.Event) bool {
	if e.registry == nil || !e.registry.Learning() {
		return false
	}
	switch ev.Kind {
	case midimsg.KindNoteOn:
		return e.registry.AssignNote(ev.Note, ev.Channel)
	case midimsg.KindControlChange:
		if ev.Controller == midimsg.SustainController {
			return false
		}
		return e.registry.AssignCC(ev.Controller, ev.Channel)
	case midimsg.KindPitchBend:
		return e.registry.AssignPB(ev.Channel)
	case midimsg.KindProgramChange:
		return e.registry.AssignPC(ev.Program, ev.Channel)
	}
	return false
}

func (e *Engine) handleNote(ev midimsg.Event, on bool) {
	e.mu.Lock()
	if on {
		e.tracker.NoteOn(ev.Note)
	} else {
		e.tracker.NoteOff(ev.Note)
	}
	cbs := make([]NoteCallback, 0, len(e.noteSubs))
	for _, s := range e.noteSubs {
		cbs = append(cbs, s.cb)
	}
	e.mu.Unlock()

	for _, cb := range cbs {
		cb(ev.Note, on, ev.Velocity)
	}

	// Bound functions fire on the key-down only.
	if on && e.registry != nil {
		if fn, ok := e.registry.NoteFunction(ev.Note, ev.Channel); ok {
			e.dispatch(fn, functions.Value{
				Raw:  int(ev.Velocity),
				Norm: float64(ev.Velocity) / 127.0,
				On:   true,
			})
		}
	}
}

func (e *Engine) handleCC(ev midimsg.Event) {
	if ev.Controller == midimsg.SustainController {
		e.mu.Lock()
		e.tracker.SetSustain(ev.Value >= 64)
		e.mu.Unlock()
		return
	}

	e.mu.Lock()
	m, hasCurve := e.curves[ev.Controller]
	e.mu.Unlock()
	if hasCurve {
		e.SetParameter(m.Parameter, m.Convert(ev.Value))
	}

	if e.registry != nil {
		if fn, ok := e.registry.CCFunction(ev.Controller, ev.Channel); ok {
			e.dispatch(fn, functions.Value{
				Raw:  int(ev.Value),
				Norm: float64(ev.Value) / 127.0,
				On:   ev.Value >= 64,
			})
		}
	}
}

func (e *Engine) handlePitchBend(ev midimsg.Event) {
	// Center the 14-bit value and scale to semitones.
	norm := float64(ev.Bend)/float64(midimsg.PitchBendCenter) - 1.0 // -1..1
	semitones := norm * pitchBendSemitones
	e.SetParameter("pitch", semitones)

	if e.registry != nil {
		if fn, ok := e.registry.PBFunction(ev.Channel); ok {
			e.dispatch(fn, functions.Value{
				Raw:  int(ev.Bend),
				Norm: norm,
			})
		}
	}
}

func (e *Engine) handleProgramChange(ev midimsg.Event) {
	if e.registry != nil {
		if fn, ok := e.registry.PCFunction(ev.Program, ev.Channel); ok {
			e.dispatch(fn, functions.Value{
				Raw: int(ev.Program),
				On:  true,
			})
		}
	}
}

// dispatch invokes the bound function through the dispatcher, logging
// failures. Dispatch errors never propagate to the ingest path.
func (e *Engine) dispatch(fn string, v functions.Value) {
	if e.dispatcher == nil {
		return
	}
	if err := e.dispatcher.Dispatch(fn, v); err != nil {
		e.log.Warn("engine: function dispatch failed", "function", fn, "err", err)
	}
}
