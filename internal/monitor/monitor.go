// Package monitor renders live engine state in the terminal: parameter
// values, held notes, sustain and LFO status, and the last MIDI event.
package monitor

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/voxmidi/voxmidi/internal/engine"
	"github.com/voxmidi/voxmidi/internal/midimsg"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// fixedParams are always shown, in this order; other parameters appear
// below them as they arrive.
var fixedParams = []string{"pitch", "speed", "volume", "modulation", "expression"}

type paramMsg struct {
	name  string
	value float64
}

type noteMsg struct {
	note     uint8
	on       bool
	velocity uint8
}

// Model is the bubbletea model for the monitor view.
type Model struct {
	engine *engine.Engine
	events chan tea.Msg

	values    map[string]float64
	lastEvent string
	quitting  bool

	paramHandle string
	noteHandle  string
}

// NewModel builds the monitor and subscribes it to the engine. Events are
// forwarded through a buffered channel; a full buffer drops updates rather
// than stalling the ingest path.
func NewModel(e *engine.Engine) Model {
	events := make(chan tea.Msg, 128)
	m := Model{
		engine: e,
		events: events,
		values: make(map[string]float64),
	}
	for _, p := range fixedParams {
		m.values[p] = e.Parameter(p)
	}

	m.paramHandle = e.SubscribeParameter(engine.Wildcard, func(name string, value float64) {
		select {
		case events <- paramMsg{name: name, value: value}:
		default:
		}
	})
	m.noteHandle = e.SubscribeNote(func(note uint8, on bool, velocity uint8) {
		select {
		case events <- noteMsg{note: note, on: on, velocity: velocity}:
		default:
		}
	})
	return m
}

func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.engine.UnsubscribeParameter(m.paramHandle)
			m.engine.UnsubscribeNote(m.noteHandle)
			return m, tea.Quit
		}

	case paramMsg:
		m.values[msg.name] = msg.value
		return m, m.listen()

	case noteMsg:
		state := "off"
		if msg.on {
			state = fmt.Sprintf("on vel %d", msg.velocity)
		}
		m.lastEvent = fmt.Sprintf("%s %s", midimsg.NoteName(msg.note), state)
		return m, m.listen()
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("voxmidi"))
	b.WriteString("\n\n")

	for _, name := range m.paramNames() {
		b.WriteString(labelStyle.Render(name))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%8.3f  ", m.values[name])))
		b.WriteString(dimStyle.Render(bar(m.values[name])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("notes"))
	b.WriteString(noteStyle.Render(m.heldNotes()))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("sustain"))
	b.WriteString(valueStyle.Render(onOff(m.engine.Sustain())))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("lfo"))
	if param, running := m.engine.LFORunning(); running {
		b.WriteString(valueStyle.Render("driving " + param))
	} else {
		b.WriteString(dimStyle.Render("idle"))
	}
	b.WriteString("\n")

	if m.lastEvent != "" {
		b.WriteString(labelStyle.Render("last"))
		b.WriteString(dimStyle.Render(m.lastEvent))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))
	return b.String()
}

// paramNames returns the fixed parameters first, then any extras sorted.
func (m Model) paramNames() []string {
	names := make([]string, 0, len(m.values))
	names = append(names, fixedParams...)

	var extra []string
	for name := range m.values {
		if !isFixed(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func isFixed(name string) bool {
	for _, p := range fixedParams {
		if p == name {
			return true
		}
	}
	return false
}

func (m Model) heldNotes() string {
	active := m.engine.ActiveNotes()
	if len(active) == 0 {
		return dimStyle.Render("none")
	}
	names := make([]string, len(active))
	for i, n := range active {
		names[i] = midimsg.NoteName(n)
	}
	return strings.Join(names, " ")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// bar renders a tiny meter for parameter values in roughly [-1, 2].
func bar(v float64) string {
	const width = 20
	n := int((v + 1) / 3 * width)
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

// Run starts the monitor and blocks until the user quits.
func Run(e *engine.Engine) error {
	p := tea.NewProgram(NewModel(e), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
