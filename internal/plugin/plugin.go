// Package plugin provides the polymorphic processor abstraction of the
// host: the Plugin interface, the internal built-in processors, the VST2
// backend and the ordered chain that drives them.
package plugin

import (
	"strings"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/midi"
)

// Component identifier for plugin errors
const ComponentPlugin = "plugin"

// Type identifies the backend of a plugin.
type Type int

const (
	TypeInvalid Type = iota
	TypeInternal
	TypeVST2
)

// String returns the backend name.
func (t Type) String() string {
	switch t {
	case TypeInternal:
		return "internal"
	case TypeVST2:
		return "vst2"
	default:
		return "invalid"
	}
}

// Kind distinguishes effects from instruments. Instruments synthesize
// audio from MIDI and tolerate a silent input; only the chain head may
// be an instrument.
type Kind int

const (
	KindUnknown Kind = iota
	KindEffect
	KindInstrument
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindInstrument:
		return "instrument"
	default:
		return "unknown"
	}
}

// state tracks the plugin lifecycle:
// created -> open -> ready -> processing -> closed.
type state int

const (
	stateCreated state = iota
	stateOpen
	stateReady
	stateProcessing
	stateClosed
)

// Plugin is a polymorphic audio/MIDI processor with a lifecycle. A
// plugin must be opened before initialization and initialized before
// processing. Open and Initialize failures are fatal for the run;
// processing failures are logged and the block is delivered anyway so
// the engine never tears down mid-stream.
type Plugin interface {
	// Name returns the symbolic name the plugin was resolved from
	Name() string

	// Type returns the backend type
	Type() Type

	// Kind reports whether the plugin is an effect or an instrument
	Kind() Kind

	// Open locates and loads the plugin
	Open() error

	// Initialize communicates the audio settings; required before processing
	Initialize(settings *audio.Settings) error

	// ProcessAudio transforms one block; out is always fully populated
	ProcessAudio(in, out *audio.Buffer)

	// ProcessMIDI delivers the events for the current block
	ProcessMIDI(events *midi.EventList)

	// AcceptsMIDI reports whether ProcessMIDI should be called at all
	AcceptsMIDI() bool

	// DisplayInfo logs descriptive metadata about the plugin
	DisplayInfo()

	// Close releases plugin resources; safe to call repeatedly
	Close() error
}

// argSeparator splits a plugin name from its argument, as in "gain:0.5".
const argSeparator = ":"

// New resolves a symbolic plugin name to an unopened plugin. Names
// matching an internal processor resolve to the built-in; everything
// else goes through the VST2 loader.
func New(name string) (Plugin, error) {
	if name == "" {
		return nil, errors.Newf("empty plugin name").
			Component(ComponentPlugin).
			Category(errors.CategoryPluginChain).
			Build()
	}

	base, arg := name, ""
	if idx := strings.Index(name, argSeparator); idx >= 0 {
		base, arg = name[:idx], name[idx+1:]
	}

	if ctor, ok := internalRegistry[base]; ok {
		return ctor(name, arg)
	}
	return newVST2Plugin(name)
}
