// Package functions defines the application function namespace that MIDI
// controls can be bound to, and dispatches bound controls to per-category
// handlers.
package functions

import (
	"fmt"
	"strings"
	"sync"
)

// Categories of functions the embedding application exposes. The dispatcher
// does not restrict itself to these; an application may register handlers
// for its own categories.
const (
	CategoryModulation = "modulation"
	CategoryTrigger    = "trigger"
	CategoryTransport  = "transport"
	CategoryView       = "view"
)

// Catalog lists the built-in functions per category.
var Catalog = map[string][]string{
	CategoryModulation: {"pitch", "formant", "vibrato", "tremolo", "distortion", "reset"},
	CategoryTrigger:    {"trigger_1", "trigger_2", "trigger_3", "trigger_4", "trigger_5"},
	CategoryTransport:  {"play", "stop", "record", "rewind", "forward"},
	CategoryView:       {"next_tab", "prev_tab", "zoom_in", "zoom_out"},
}

// Join builds a "category:function" identifier.
func Join(category, function string) string {
	return category + ":" + function
}

// Parse splits a "category:function" identifier. ok is false when the
// format is invalid.
func Parse(id string) (category, function string, ok bool) {
	category, function, ok = strings.Cut(id, ":")
	if !ok || category == "" || function == "" {
		return "", "", false
	}
	return category, function, true
}

// Known reports whether an identifier names a function from the built-in
// catalog.
func Known(id string) bool {
	category, function, ok := Parse(id)
	if !ok {
		return false
	}
	for _, fn := range Catalog[category] {
		if fn == function {
			return true
		}
	}
	return false
}

// Value carries the state of the control that triggered a function.
type Value struct {
	Raw  int     // raw MIDI data: 0-127, or 0-16383 for pitch bend
	Norm float64 // normalized: 0..1 for cc/note velocity, -1..1 for pitch bend
	On   bool    // note/button state
}

// Handler executes the functions of one category.
type Handler interface {
	Handle(function string, v Value) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(function string, v Value) error

func (f HandlerFunc) Handle(function string, v Value) error {
	return f(function, v)
}

// Dispatcher routes function identifiers to the handler registered for
// their category.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewDispatcher creates a dispatcher with no handlers registered.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register installs the handler for a category, replacing any previous one.
func (d *Dispatcher) Register(category string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[category] = h
}

// Dispatch parses id and invokes the matching category handler.
func (d *Dispatcher) Dispatch(id string, v Value) error {
	category, function, ok := Parse(id)
	if !ok {
		return fmt.Errorf("functions: invalid identifier %q", id)
	}

	d.mu.RLock()
	h, ok := d.handlers[category]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("functions: no handler for category %q", category)
	}

	return h.Handle(function, v)
}
