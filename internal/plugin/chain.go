package plugin

import (
	"strings"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/midi"
)

// TaskTimer is the per-plugin wall-clock accounting the chain brackets
// every call with. The engine passes its timer; tests may pass nil.
type TaskTimer interface {
	// Start activates the slot for the given task, stopping the
	// currently active one
	Start(id int)
}

// Chain is an ordered, finite sequence of plugins driven left to right.
// Audio for a block is always processed strictly after MIDI delivery for
// the same block, so instruments see their events before generating.
type Chain struct {
	plugins []Plugin

	// scratch buffer pair alternating ownership of "current input"
	scratchA *audio.Buffer
	scratchB *audio.Buffer
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// chainSeparators split a plugin argument string into names.
const chainSeparators = ",;"

// AddFromArgumentString parses a delimited list of plugin names and
// appends the resolved plugins in order. On any resolution failure the
// chain is left unmodified.
func (c *Chain) AddFromArgumentString(spec string) error {
	names := strings.FieldsFunc(spec, func(r rune) bool {
		return strings.ContainsRune(chainSeparators, r)
	})

	var resolved []Plugin
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := New(name)
		if err != nil {
			return errors.New(err).
				Component(ComponentPlugin).
				Category(errors.CategoryPluginChain).
				Context("chain_spec", spec).
				Context("plugin", name).
				Build()
		}
		resolved = append(resolved, p)
	}
	c.plugins = append(c.plugins, resolved...)
	return nil
}

// Add appends an already constructed plugin.
func (c *Chain) Add(p Plugin) {
	c.plugins = append(c.plugins, p)
}

// Len returns the number of plugins in the chain.
func (c *Chain) Len() int {
	return len(c.plugins)
}

// Head returns the first plugin, or nil for an empty chain.
func (c *Chain) Head() Plugin {
	if len(c.plugins) == 0 {
		return nil
	}
	return c.plugins[0]
}

// Plugins returns the plugins in chain order.
func (c *Chain) Plugins() []Plugin {
	return c.plugins
}

// Validate checks the chain invariants: non-empty, and instruments only
// at the head since only the head may consume silence paired with MIDI.
func (c *Chain) Validate() error {
	if len(c.plugins) == 0 {
		return errors.Newf("No plugins loaded").
			Component(ComponentPlugin).
			Category(errors.CategoryMissingOption).
			Build()
	}
	for i, p := range c.plugins {
		if i > 0 && p.Kind() == KindInstrument {
			return errors.Newf("instrument plugin %s must be first in the chain, found at position %d",
				p.Name(), i).
				Component(ComponentPlugin).
				Category(errors.CategoryPluginChain).
				Build()
		}
	}
	return nil
}

// OpenAll opens every plugin in order. Failure at any index is fatal.
func (c *Chain) OpenAll() error {
	for _, p := range c.plugins {
		if err := p.Open(); err != nil {
			return err
		}
	}
	return nil
}

// InitializeAll initializes plugins in order 0..N-1 against the shared
// settings and allocates the scratch buffer pair. Failure at any index
// is fatal.
func (c *Chain) InitializeAll(settings *audio.Settings) error {
	for _, p := range c.plugins {
		if err := p.Initialize(settings); err != nil {
			return err
		}
	}
	if len(c.plugins) > 1 {
		c.scratchA = audio.NewBufferFor(settings)
		c.scratchB = audio.NewBufferFor(settings)
	}
	return nil
}

// ProcessAudio drives one block through the chain. A single plugin reads
// in and writes out directly; longer chains alternate the two scratch
// buffers so the hot path never allocates.
func (c *Chain) ProcessAudio(in, out *audio.Buffer, timer TaskTimer) {
	last := len(c.plugins) - 1
	current := in
	for i, p := range c.plugins {
		dst := out
		if i < last {
			if current == c.scratchA {
				dst = c.scratchB
			} else {
				dst = c.scratchA
			}
		}
		if timer != nil {
			timer.Start(i)
		}
		p.ProcessAudio(current, dst)
		current = dst
	}
}

// ProcessMIDI delivers the block's events to every plugin that accepts
// MIDI, in chain order, timing each call.
func (c *Chain) ProcessMIDI(events *midi.EventList, timer TaskTimer) {
	for i, p := range c.plugins {
		if !p.AcceptsMIDI() {
			continue
		}
		if timer != nil {
			timer.Start(i)
		}
		p.ProcessMIDI(events)
	}
}

// DisplayInfo logs metadata for every plugin in chain order.
func (c *Chain) DisplayInfo() {
	for _, p := range c.plugins {
		p.DisplayInfo()
	}
}

// Close closes every plugin. All plugins are attempted; every error is
// returned, joined with errors.Join.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.plugins {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
