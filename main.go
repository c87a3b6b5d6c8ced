package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxmidi/voxmidi/internal/curve"
	"github.com/voxmidi/voxmidi/internal/device"
	"github.com/voxmidi/voxmidi/internal/engine"
	"github.com/voxmidi/voxmidi/internal/functions"
	"github.com/voxmidi/voxmidi/internal/lfo"
	"github.com/voxmidi/voxmidi/internal/mapping"
	"github.com/voxmidi/voxmidi/internal/monitor"
)

func main() {
	var (
		listPorts  = flag.Bool("list", false, "list MIDI input ports and exit")
		portName   = flag.String("port", "", "MIDI input port to listen on")
		serialDev  = flag.String("serial", "", "serial device to read MIDI from instead of a MIDI port")
		serialBaud = flag.Int("baud", 115200, "serial baud rate (DIN MIDI uses 31250)")
		configPath = flag.String("config", "", "mappings file (default: per-user config dir)")
		useTUI     = flag.Bool("tui", false, "show the live monitor view")
		verbose    = flag.Bool("v", false, "debug logging")

		lfoParam = flag.String("lfo", "", "start an LFO on this parameter")
		lfoWave  = flag.String("lfo-wave", "sine", "LFO waveform: sine, triangle, saw, square")
		lfoMin   = flag.Float64("lfo-min", 0, "LFO minimum value")
		lfoMax   = flag.Float64("lfo-max", 1, "LFO maximum value")
		lfoFreq  = flag.Float64("lfo-freq", 0.5, "LFO frequency in Hz")
	)
	flag.Parse()

	initLogger(*verbose)

	midiManager := device.NewManager()
	defer midiManager.Close()

	if *listPorts {
		for _, name := range midiManager.ListInPorts() {
			fmt.Println(name)
		}
		return
	}

	// Load bindings and phrases; a missing file just means a fresh setup.
	registry := mapping.New(*configPath)
	if err := registry.Load(); err != nil {
		slog.Warn("starting with empty mappings", "err", err)
	}

	dispatcher := newDispatcher(registry)
	eng := engine.New(registry, dispatcher)
	registerModulation(dispatcher, eng)
	seedCurves(eng)

	if *lfoParam != "" {
		err := eng.StartLFO(*lfoParam, *lfoMin, *lfoMax, *lfoFreq, lfo.Waveform(*lfoWave))
		if err != nil {
			log.Fatalf("Failed to start LFO: %v", err)
		}
		defer eng.StopLFO()
	}

	// Wire up a byte source.
	switch {
	case *serialDev != "":
		src, err := device.OpenSerial(*serialDev, *serialBaud)
		if err != nil {
			log.Fatalf("Failed to open serial device: %v", err)
		}
		defer src.Close()
		go func() {
			if err := src.Run(eng.HandleMessage); err != nil {
				slog.Error("serial source stopped", "err", err)
			}
		}()

	case *portName != "":
		stop, err := midiManager.Listen(*portName, eng.HandleMessage)
		if err != nil {
			log.Fatalf("Failed to open MIDI port: %v", err)
		}
		defer stop()

	default:
		slog.Warn("no -port or -serial given; engine receives no input")
	}

	if *useTUI {
		if err := monitor.Run(eng); err != nil {
			log.Fatalf("Monitor failed: %v", err)
		}
		return
	}

	// Headless: log engine activity until interrupted.
	eng.SubscribeParameter(engine.Wildcard, func(name string, value float64) {
		slog.Info("parameter", "name", name, "value", value)
	})
	eng.SubscribeNote(func(note uint8, on bool, velocity uint8) {
		slog.Info("note", "note", note, "on", on, "velocity", velocity)
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// initLogger configures the shared slog logger.
func initLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// seedCurves installs the default controller-to-parameter mappings:
// mod wheel, channel volume, expression, and brightness for speed.
func seedCurves(e *engine.Engine) {
	e.AddCurve(curve.Mapping{Controller: 1, Parameter: "modulation", Min: 0, Max: 1, Shape: curve.Linear})
	e.AddCurve(curve.Mapping{Controller: 7, Parameter: "volume", Min: 0, Max: 2, Shape: curve.Linear})
	e.AddCurve(curve.Mapping{Controller: 11, Parameter: "expression", Min: 0, Max: 1, Shape: curve.Linear})
	e.AddCurve(curve.Mapping{Controller: 74, Parameter: "speed", Min: 0.5, Max: 2, Shape: curve.Log})
}

// newDispatcher registers handlers for the built-in function categories.
// The real application wires synthesis and UI here; this binary logs what
// would happen, and the trigger handler speaks from the phrase slots.
func newDispatcher(registry *mapping.Registry) *functions.Dispatcher {
	d := functions.NewDispatcher()

	d.Register(functions.CategoryTrigger, functions.HandlerFunc(func(fn string, v functions.Value) error {
		phrase := registry.Phrase(fn)
		if phrase.Text == "" {
			slog.Info("trigger fired with empty phrase slot", "slot", fn)
			return nil
		}
		slog.Info("speaking phrase", "slot", fn, "text", phrase.Text, "voice", phrase.Voice)
		return nil
	}))

	d.Register(functions.CategoryTransport, functions.HandlerFunc(func(fn string, v functions.Value) error {
		if v.On {
			slog.Info("transport", "action", fn)
		}
		return nil
	}))

	d.Register(functions.CategoryView, functions.HandlerFunc(func(fn string, v functions.Value) error {
		if v.On {
			slog.Info("view", "action", fn)
		}
		return nil
	}))

	return d
}

// registerModulation maps learned modulation functions onto engine
// parameters: pitch swings ±12 semitones around center, reset restores
// defaults, everything else lands in 0..1 under its own name.
func registerModulation(d *functions.Dispatcher, eng *engine.Engine) {
	d.Register(functions.CategoryModulation, functions.HandlerFunc(func(fn string, v functions.Value) error {
		switch fn {
		case "pitch":
			eng.SetParameter("pitch", (v.Norm*2-1)*12)
		case "reset":
			if v.On {
				eng.SetParameter("pitch", 0)
				eng.SetParameter("speed", 1)
				eng.SetParameter("volume", 1)
				eng.SetParameter("modulation", 0)
				eng.SetParameter("expression", 1)
			}
		default:
			eng.SetParameter(fn, v.Norm)
		}
		return nil
	}))
}
