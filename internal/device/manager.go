// Package device supplies raw MIDI byte messages to the engine, either
// from a system MIDI port (rtmidi) or from a serial line.
package device

import (
	"fmt"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
)

// logger is the package logger; defaults to slog.Default.
var logger = slog.Default()

// RawFunc receives one complete raw MIDI message.
type RawFunc func(raw []byte)

// Manager handles MIDI input port discovery and listening.
type Manager struct {
	mu sync.RWMutex
}

// NewManager creates a new MIDI port manager.
func NewManager() *Manager {
	return &Manager{}
}

// Close cleans up the MIDI driver.
func (m *Manager) Close() {
	midi.CloseDriver()
}

// ListInPorts returns the names of available MIDI input ports.
func (m *Manager) ListInPorts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// findInPort returns an input port by name, nil if absent.
func (m *Manager) findInPort(name string) drivers.In {
	ins := midi.GetInPorts()
	for _, in := range ins {
		if in.String() == name {
			return in
		}
	}
	return nil
}

// Listen begins delivering raw messages from the named input port to fn.
// The returned function stops the listener.
func (m *Manager) Listen(inPortName string, fn RawFunc) (func(), error) {
	m.mu.RLock()
	inPort := m.findInPort(inPortName)
	m.mu.RUnlock()
	if inPort == nil {
		return nil, fmt.Errorf("device: input port not found: %s", inPortName)
	}

	stop, err := midi.ListenTo(inPort, func(msg midi.Message, timestampms int32) {
		fn(msg.Bytes())
	})
	if err != nil {
		return nil, fmt.Errorf("device: failed to start listening: %w", err)
	}

	logger.Info("device: listening", "port", inPortName)
	return stop, nil
}
