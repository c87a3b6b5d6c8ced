package engine

import (
	"fmt"
	"time"

	"github.com/voxmidi/voxmidi/internal/lfo"
)

// tickInterval is the fixed oscillator sampling cadence. The job's
// frequency only shapes the waveform period, never the tick rate.
const tickInterval = 10 * time.Millisecond

// stopTimeout bounds how long StopLFO waits for the background task. A
// task that misses this deadline is stuck and gets reported loudly.
const stopTimeout = time.Second

// oscillator is one running LFO task. stop is closed to request
// cancellation; done is closed by the task after its final tick.
type oscillator struct {
	job  lfo.Job
	stop chan struct{}
	done chan struct{}
}

// StartLFO starts a modulation oscillator driving parameter between min
// and max at the given frequency. A running oscillator is stopped first;
// at most one job runs per engine.
func (e *Engine) StartLFO(parameter string, min, max, frequency float64, waveform lfo.Waveform) error {
	if frequency <= 0 {
		return fmt.Errorf("engine: lfo frequency must be positive, got %g", frequency)
	}
	if err := e.StopLFO(); err != nil {
		return err
	}

	o := &oscillator{
		job: lfo.Job{
			Parameter: parameter,
			Min:       min,
			Max:       max,
			Frequency: frequency,
			Waveform:  waveform,
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	e.mu.Lock()
	e.osc = o
	e.mu.Unlock()

	go e.runOscillator(o)
	return nil
}

// StopLFO cancels the running oscillator and waits for its task to exit.
// Guarantees no tick fires after it returns. A task that fails to exit
// within the bound is a stuck goroutine; that is reported as an error and
// logged, never silently ignored.
func (e *Engine) StopLFO() error {
	e.mu.Lock()
	o := e.osc
	e.osc = nil
	e.mu.Unlock()
	if o == nil {
		return nil
	}

	close(o.stop)
	select {
	case <-o.done:
		return nil
	case <-time.After(stopTimeout):
		err := fmt.Errorf("engine: lfo task for %q did not stop within %s", o.job.Parameter, stopTimeout)
		e.log.Error("engine: abandoning stuck lfo task", "parameter", o.job.Parameter, "timeout", stopTimeout)
		return err
	}
}

// LFORunning reports whether an oscillator job is active, and which
// parameter it drives.
func (e *Engine) LFORunning() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.osc == nil {
		return "", false
	}
	return e.osc.job.Parameter, true
}

// runOscillator is the background task. Each tick goes through
// SetParameter so subscribers see LFO writes exactly like manual ones.
func (e *Engine) runOscillator(o *oscillator) {
	defer close(o.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-o.stop:
			return
		case now := <-ticker.C:
			// A tick racing the stop signal must lose.
			select {
			case <-o.stop:
				return
			default:
			}
			e.SetParameter(o.job.Parameter, o.job.ValueAt(now.Sub(start)))
		}
	}
}
