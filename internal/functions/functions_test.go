package functions

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		id       string
		cat, fn  string
		ok       bool
	}{
		{"modulation:pitch", "modulation", "pitch", true},
		{"trigger:trigger_1", "trigger", "trigger_1", true},
		{"custom:anything", "custom", "anything", true},
		{"noseparator", "", "", false},
		{":fn", "", "", false},
		{"cat:", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		cat, fn, ok := Parse(c.id)
		if cat != c.cat || fn != c.fn || ok != c.ok {
			t.Errorf("Parse(%q) = %q, %q, %v; want %q, %q, %v", c.id, cat, fn, ok, c.cat, c.fn, c.ok)
		}
	}
}

func TestKnown(t *testing.T) {
	for _, id := range []string{"modulation:pitch", "trigger:trigger_5", "transport:play", "view:zoom_out"} {
		if !Known(id) {
			t.Errorf("Known(%q) = false, want true", id)
		}
	}
	for _, id := range []string{"modulation:wibble", "nope:play", "transport"} {
		if Known(id) {
			t.Errorf("Known(%q) = true, want false", id)
		}
	}
}

func TestDispatch(t *testing.T) {
	d := NewDispatcher()

	var gotFn string
	var gotVal Value
	d.Register(CategoryTransport, HandlerFunc(func(fn string, v Value) error {
		gotFn, gotVal = fn, v
		return nil
	}))

	err := d.Dispatch("transport:play", Value{Raw: 127, Norm: 1, On: true})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if gotFn != "play" || !gotVal.On || gotVal.Raw != 127 {
		t.Errorf("handler saw %q %+v", gotFn, gotVal)
	}
}

func TestDispatchNoHandler(t *testing.T) {
	d := NewDispatcher()
	if err := d.Dispatch("view:zoom_in", Value{}); err == nil {
		t.Error("dispatch to unregistered category should fail")
	}
}

func TestDispatchInvalidID(t *testing.T) {
	d := NewDispatcher()
	if err := d.Dispatch("garbage", Value{}); err == nil {
		t.Error("dispatch of malformed id should fail")
	}
}

func TestDispatchHandlerError(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	d.Register(CategoryTrigger, HandlerFunc(func(string, Value) error { return boom }))

	if err := d.Dispatch("trigger:trigger_1", Value{}); !errors.Is(err, boom) {
		t.Errorf("got %v, want handler error", err)
	}
}

func TestRegisterReplaces(t *testing.T) {
	d := NewDispatcher()
	d.Register(CategoryView, HandlerFunc(func(string, Value) error { return errors.New("old") }))
	d.Register(CategoryView, HandlerFunc(func(string, Value) error { return nil }))

	if err := d.Dispatch("view:next_tab", Value{}); err != nil {
		t.Errorf("replaced handler should be used, got %v", err)
	}
}
