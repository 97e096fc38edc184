package plugin

import (
	"log/slog"
	"strconv"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/logging"
	"github.com/tphakala/plughost/internal/midi"
)

// internalRegistry maps built-in processor names to constructors. The
// arg string is whatever followed the ':' in the plugin spec.
var internalRegistry = map[string]func(name, arg string) (Plugin, error){
	"passthru": newPassthrough,
	"gain":     newGain,
}

// InternalNames returns the built-in plugin names for help output.
func InternalNames() []string {
	return []string{"passthru", "gain"}
}

func pluginLogger() *slog.Logger {
	return logging.ForService("plugin")
}

// passthrough copies its input to its output unchanged. It is the
// identity element of a chain and the reference plugin for host tests.
type passthrough struct {
	name  string
	state state
}

func newPassthrough(name, arg string) (Plugin, error) {
	if arg != "" {
		return nil, errors.Newf("passthru takes no argument, got %q", arg).
			Component(ComponentPlugin).
			Category(errors.CategoryPluginChain).
			Build()
	}
	return &passthrough{name: name}, nil
}

// Name implements Plugin.
func (p *passthrough) Name() string { return p.name }

// Type implements Plugin.
func (p *passthrough) Type() Type { return TypeInternal }

// Kind implements Plugin.
func (p *passthrough) Kind() Kind { return KindEffect }

// Open implements Plugin.
func (p *passthrough) Open() error {
	p.state = stateOpen
	return nil
}

// Initialize implements Plugin.
func (p *passthrough) Initialize(settings *audio.Settings) error {
	if p.state != stateOpen {
		return errNotOpen(p.name)
	}
	p.state = stateReady
	return nil
}

// ProcessAudio implements Plugin.
func (p *passthrough) ProcessAudio(in, out *audio.Buffer) {
	p.state = stateProcessing
	out.CopyFrom(in)
}

// ProcessMIDI implements Plugin.
func (p *passthrough) ProcessMIDI(events *midi.EventList) {
	if events.Len() > 0 {
		pluginLogger().Debug("passthru ignoring MIDI events",
			"plugin", p.name, "count", events.Len())
	}
}

// AcceptsMIDI implements Plugin.
func (p *passthrough) AcceptsMIDI() bool { return false }

// DisplayInfo implements Plugin.
func (p *passthrough) DisplayInfo() {
	pluginLogger().Info("plugin info",
		"plugin", p.name,
		"type", p.Type().String(),
		"kind", p.Kind().String(),
		"vendor", "plughost built-in")
}

// Close implements Plugin.
func (p *passthrough) Close() error {
	p.state = stateClosed
	return nil
}

// gain scales every sample by a constant linear factor given as the
// plugin argument, defaulting to unity.
type gain struct {
	name   string
	factor float32
	state  state
}

func newGain(name, arg string) (Plugin, error) {
	factor := 1.0
	if arg != "" {
		parsed, err := strconv.ParseFloat(arg, 64)
		if err != nil || parsed < 0 {
			return nil, errors.Newf("invalid gain argument %q", arg).
				Component(ComponentPlugin).
				Category(errors.CategoryPluginChain).
				Build()
		}
		factor = parsed
	}
	return &gain{name: name, factor: float32(factor)}, nil
}

// Name implements Plugin.
func (g *gain) Name() string { return g.name }

// Type implements Plugin.
func (g *gain) Type() Type { return TypeInternal }

// Kind implements Plugin.
func (g *gain) Kind() Kind { return KindEffect }

// Open implements Plugin.
func (g *gain) Open() error {
	g.state = stateOpen
	return nil
}

// Initialize implements Plugin.
func (g *gain) Initialize(settings *audio.Settings) error {
	if g.state != stateOpen {
		return errNotOpen(g.name)
	}
	g.state = stateReady
	return nil
}

// ProcessAudio implements Plugin.
func (g *gain) ProcessAudio(in, out *audio.Buffer) {
	g.state = stateProcessing
	if g.factor == 1.0 {
		out.CopyFrom(in)
		return
	}
	for ch := 0; ch < out.Channels(); ch++ {
		src := in.Samples(ch)
		dst := out.Samples(ch)
		for i := range dst {
			dst[i] = src[i] * g.factor
		}
	}
}

// ProcessMIDI implements Plugin.
func (g *gain) ProcessMIDI(*midi.EventList) {}

// AcceptsMIDI implements Plugin.
func (g *gain) AcceptsMIDI() bool { return false }

// DisplayInfo implements Plugin.
func (g *gain) DisplayInfo() {
	pluginLogger().Info("plugin info",
		"plugin", g.name,
		"type", g.Type().String(),
		"kind", g.Kind().String(),
		"gain", g.factor,
		"vendor", "plughost built-in")
}

// Close implements Plugin.
func (g *gain) Close() error {
	g.state = stateClosed
	return nil
}

// errNotOpen builds the initialization-order error.
func errNotOpen(name string) error {
	return errors.Newf("plugin %s must be opened before initialization", name).
		Component(ComponentPlugin).
		Category(errors.CategoryPlugin).
		Build()
}
