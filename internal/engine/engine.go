// Package engine implements the block-rate processing loop of the
// plugin host: it pulls audio blocks from the input source, aligns
// timestamped MIDI events to sample positions, drives the plugin chain
// in order and writes processed output, advancing the transport clock
// one blocksize per iteration.
package engine

import (
	"context"
	"log/slog"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/logging"
	"github.com/tphakala/plughost/internal/midi"
	"github.com/tphakala/plughost/internal/plugin"
)

// Component identifier for engine errors
const ComponentEngine = "engine"

// Config collects everything a run needs. Sources are handed over
// unopened; the engine owns their lifecycle from here on.
type Config struct {
	Settings *audio.Settings
	Input    audio.Source // nil selects silence for instrument chains
	Output   audio.Source
	Chain    *plugin.Chain
	MIDI     *midi.Sequence // nil when no MIDI file was given

	// DisplayInfo dumps plugin metadata after initialization
	DisplayInfo bool

	// TailFrames keeps driving silence through the chain for this many
	// frames after the input signals end of stream
	TailFrames int
}

// Engine runs the single-threaded processing loop. All state is scoped
// to one run; the engine is not reusable.
type Engine struct {
	cfg   Config
	clock *audio.Clock
	timer *TaskTimer
	log   *slog.Logger

	inBuf  *audio.Buffer
	outBuf *audio.Buffer
	events *midi.EventList

	iterations uint64
}

// New creates an engine for the given configuration. It performs no
// validation; all checks, including nil checks, happen in Run.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:   cfg,
		clock: audio.NewClock(),
		log:   logging.ForService("engine"),
	}
}

// Clock exposes the transport clock, read-only for callers.
func (e *Engine) Clock() *audio.Clock {
	return e.clock
}

// Run executes the full lifecycle: validate, open, loop, report, close.
// Resources are released in the same order on every path.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.prepare(); err != nil {
		e.teardown()
		return err
	}

	runErr := e.loop(ctx)
	e.report()
	e.teardown()
	return runErr
}

// prepare enforces the pre-loop invariants and opens all resources.
// Settings are frozen from here until the loop terminates.
func (e *Engine) prepare() error {
	if e.cfg.Settings == nil {
		e.cfg.Settings = audio.NewSettings()
	}
	if err := e.cfg.Settings.Validate(); err != nil {
		return err
	}

	if e.cfg.Output == nil {
		return errors.Newf("no output source given").
			Component(ComponentEngine).
			Category(errors.CategoryMissingOption).
			Build()
	}
	if e.cfg.Chain == nil {
		e.cfg.Chain = plugin.NewChain()
	}
	if err := e.cfg.Chain.Validate(); err != nil {
		return err
	}
	if err := e.cfg.Chain.OpenAll(); err != nil {
		return err
	}
	if err := e.cfg.Chain.Validate(); err != nil {
		// Kinds are only known after open; re-check instrument placement.
		return err
	}

	if e.cfg.Input == nil {
		head := e.cfg.Chain.Head()
		// An unknown kind is given the benefit of the doubt: the VST2
		// backend cannot query the category, and only instruments are
		// ever run without an input file.
		if head.Kind() == plugin.KindEffect {
			return errors.Newf("no input source given and head plugin %s is not an instrument",
				head.Name()).
				Component(ComponentEngine).
				Category(errors.CategoryMissingOption).
				Build()
		}
		if head.Kind() == plugin.KindUnknown {
			e.log.Warn("head plugin kind is unknown, assuming instrument",
				"plugin", head.Name())
		}
		if e.cfg.MIDI == nil {
			return errors.Newf("instrument chain without input requires a MIDI file").
				Component(ComponentEngine).
				Category(errors.CategoryMissingOption).
				Build()
		}
		e.log.Debug("no input source, synthesizing silence for instrument chain")
		e.cfg.Input = audio.NewSilenceSource()
	}

	if e.cfg.MIDI != nil && e.cfg.MIDI.Len() == 0 &&
		e.cfg.Input.Type() != audio.SourceTypeSilence {
		// An empty sequence delivers no events; audio EOF alone governs
		// the loop. A silence-fed chain keeps the empty sequence so its
		// immediate end terminates the run instead of looping forever.
		e.log.Debug("MIDI sequence is empty, ignoring it")
		e.cfg.MIDI = nil
	}

	if err := e.cfg.Input.Open(audio.DirectionRead); err != nil {
		return err
	}
	if err := e.cfg.Output.Open(audio.DirectionWrite); err != nil {
		return err
	}

	if err := e.cfg.Chain.InitializeAll(e.cfg.Settings); err != nil {
		return err
	}
	if e.cfg.DisplayInfo {
		e.cfg.Chain.DisplayInfo()
	}

	e.inBuf = audio.NewBufferFor(e.cfg.Settings)
	e.outBuf = audio.NewBufferFor(e.cfg.Settings)
	e.events = midi.NewEventList()
	e.timer = NewTaskTimer(e.cfg.Chain.Len() + 1)

	e.log.Info("engine starting",
		"sample_rate", e.cfg.Settings.SampleRate,
		"blocksize", e.cfg.Settings.Blocksize,
		"channels", e.cfg.Settings.NumChannels,
		"plugins", e.cfg.Chain.Len(),
		"input", e.cfg.Input.Name(),
		"output", e.cfg.Output.Name(),
		"midi", e.cfg.MIDI != nil)
	return nil
}

// loop is the main driver. Within a block the order is fixed: read
// input, slice MIDI, deliver MIDI to the chain, process audio through
// the chain, write output, advance the clock.
func (e *Engine) loop(ctx context.Context) error {
	settings := e.cfg.Settings
	host := e.timer.HostSlot()
	e.clock.Start()
	defer e.clock.Stop()
	defer e.timer.Stop()

	tailRemaining := e.cfg.TailFrames
	inTail := false

	for {
		if err := ctx.Err(); err != nil {
			e.log.Warn("run canceled", "at_sample", e.clock.CurrentSample())
			return err
		}

		e.timer.Start(host)

		finishedReading := false
		if inTail {
			e.inBuf.Clear()
			tailRemaining -= settings.Blocksize
			finishedReading = tailRemaining <= 0
		} else {
			finishedReading = !e.cfg.Input.ReadBlock(e.inBuf)
		}

		// Tail blocks carry no events; the sequence already ended when
		// the tail began, so its override must not re-trigger.
		if e.cfg.MIDI != nil && !inTail {
			e.events.Clear()
			moreEvents := e.cfg.MIDI.FillRange(e.clock.CurrentSample(), settings.Blocksize, e.events)
			// The sequence's end-of-range overrides the audio EOF state in
			// both directions; log when the two disagree.
			if moreEvents == finishedReading {
				e.log.Debug("MIDI and audio end-of-stream disagree, MIDI wins",
					"at_sample", e.clock.CurrentSample(),
					"more_events", moreEvents,
					"finished_reading", finishedReading)
			}
			finishedReading = !moreEvents
			if e.events.Len() > 0 {
				e.cfg.Chain.ProcessMIDI(e.events, e.timer)
				e.timer.Start(host)
			}
		}

		e.cfg.Chain.ProcessAudio(e.inBuf, e.outBuf, e.timer)
		e.timer.Start(host)

		if err := e.cfg.Output.WriteBlock(e.outBuf); err != nil {
			e.log.Error("write failed, terminating loop",
				"at_sample", e.clock.CurrentSample(), "error", err)
			return err
		}

		e.clock.Advance(settings.Blocksize)
		e.iterations++

		if finishedReading {
			if !inTail && tailRemaining > 0 {
				// Tail extension: keep feeding silence so decaying
				// plugins can ring out.
				inTail = true
				e.log.Debug("input finished, entering tail", "tail_frames", tailRemaining)
				continue
			}
			return nil
		}
	}
}

// report emits the frame counters and the per-task time usage.
func (e *Engine) report() {
	e.timer.Stop()

	e.log.Info("processing finished",
		"iterations", e.iterations,
		"final_sample", e.clock.CurrentSample(),
		"input_frames", e.cfg.Input.FramesProcessed(),
		"output_frames", e.cfg.Output.FramesProcessed(),
		"total_time", e.timer.Total())

	plugins := e.cfg.Chain.Plugins()
	for _, total := range e.timer.Totals() {
		label := "host"
		if total.ID < len(plugins) {
			label = plugins[total.ID].Name()
		}
		e.log.Info("task time",
			"task", label,
			"duration", total.Duration,
			"percent", total.Percent)
	}
}

// teardown releases every resource deterministically, tolerating the
// partially-prepared states left by validation failures. Plugins are
// closed before their loaders are torn down; closes are idempotent.
func (e *Engine) teardown() {
	e.clock.Stop()

	if e.cfg.Chain != nil {
		if err := e.cfg.Chain.Close(); err != nil {
			e.log.Warn("plugin close failed", "error", err)
		}
	}
	if e.cfg.Input != nil {
		if err := e.cfg.Input.Close(); err != nil {
			e.log.Warn("input close failed", "error", err)
		}
	}
	if e.cfg.Output != nil {
		if err := e.cfg.Output.Close(); err != nil {
			e.log.Warn("output close failed", "error", err)
		}
	}
}
