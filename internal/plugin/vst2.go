package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/dudk/vst2"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/midi"
)

// vst2Plugin hosts one plugin loaded from a VST2 dynamic library.
type vst2Plugin struct {
	name string
	path string

	library *vst2.Library
	plug    *vst2.Plugin

	settings *audio.Settings
	kind     Kind
	state    state

	in64  [][]float64
	out64 [][]float64
}

// newVST2Plugin resolves name to a library path without loading it yet.
func newVST2Plugin(name string) (Plugin, error) {
	path, err := resolveLibraryPath(name)
	if err != nil {
		return nil, err
	}
	return &vst2Plugin{name: name, path: path, kind: KindUnknown}, nil
}

// resolveLibraryPath locates the dynamic library for a plugin name. A
// name that is already a path to an existing file wins; otherwise the
// platform scan paths are searched for name + platform extension.
func resolveLibraryPath(name string) (string, error) {
	if fileExists(name) {
		return name, nil
	}

	candidate := name
	if filepath.Ext(candidate) == "" {
		candidate += libraryExtension()
	}
	for _, dir := range scanPaths() {
		path := filepath.Join(dir, candidate)
		if fileExists(path) {
			return path, nil
		}
	}

	return "", errors.Newf("plugin not found: %s", name).
		Component(ComponentPlugin).
		Category(errors.CategoryNotFound).
		Context("plugin", name).
		Build()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// scanPaths returns the platform plugin directories, with the
// PLUGHOST_PLUGIN_PATH environment variable prepended when set.
func scanPaths() []string {
	var paths []string
	if env := os.Getenv("PLUGHOST_PLUGIN_PATH"); env != "" {
		paths = append(paths, filepath.SplitList(env)...)
	}
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		paths = append(paths,
			filepath.Join(home, "Library", "Audio", "Plug-Ins", "VST"),
			"/Library/Audio/Plug-Ins/VST",
		)
	case "windows":
		paths = append(paths,
			"C:\\Program Files (x86)\\Steinberg\\VSTPlugins",
			"C:\\Program Files\\Steinberg\\VSTPlugins",
		)
		if env := os.Getenv("VST_PATH"); env != "" {
			paths = append(paths, env)
		}
	default:
		home, _ := os.UserHomeDir()
		paths = append(paths,
			filepath.Join(home, ".vst"),
			"/usr/lib/vst",
			"/usr/local/lib/vst",
		)
	}
	return paths
}

// libraryExtension returns the dynamic library extension per platform.
func libraryExtension() string {
	switch runtime.GOOS {
	case "darwin":
		return ".vst"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// Name implements Plugin.
func (p *vst2Plugin) Name() string { return p.name }

// Type implements Plugin.
func (p *vst2Plugin) Type() Type { return TypeVST2 }

// Kind implements Plugin.
func (p *vst2Plugin) Kind() Kind { return p.kind }

// Open implements Plugin. It loads the dynamic library and instantiates
// the plugin, rejecting libraries that refuse the host.
func (p *vst2Plugin) Open() error {
	library, err := vst2.Open(p.path)
	if err != nil {
		return errors.New(err).
			Component(ComponentPlugin).
			Category(errors.CategoryPlugin).
			Context("plugin", p.name).
			FileContext(p.path).
			Build()
	}

	plug, err := library.Open()
	if err != nil {
		library.Close()
		return errors.New(err).
			Component(ComponentPlugin).
			Category(errors.CategoryPlugin).
			Context("plugin", p.name).
			FileContext(p.path).
			Build()
	}

	p.library = library
	p.plug = plug
	p.plug.SetCallback(p.hostCallback())

	// The dispatcher does not surface opcode return values, so the
	// plugin category cannot be queried; the kind stays unknown and the
	// engine decides instrument placement from context.
	p.state = stateOpen

	pluginLogger().Debug("VST2 plugin loaded",
		"plugin", p.name,
		"path", p.path,
		"kind", p.kind.String())
	return nil
}

// Initialize implements Plugin. It communicates the audio settings and
// brings the plugin out of suspension.
func (p *vst2Plugin) Initialize(settings *audio.Settings) error {
	if p.state != stateOpen {
		return errNotOpen(p.name)
	}
	p.settings = settings

	p.plug.Dispatch(vst2.EffSetSampleRate, 0, 0, nil, settings.SampleRate)
	p.plug.Dispatch(vst2.EffSetBlockSize, 0, int64(settings.Blocksize), nil, 0)
	p.plug.SetSpeakerArrangement(settings.NumChannels)
	p.resume()

	if !p.plug.CanProcessFloat32() {
		p.in64 = make([][]float64, settings.NumChannels)
		p.out64 = make([][]float64, settings.NumChannels)
		for ch := range p.in64 {
			p.in64[ch] = make([]float64, settings.Blocksize)
		}
	}

	p.state = stateReady
	return nil
}

// ProcessAudio implements Plugin. Failures never abort the block; the
// output buffer is populated with silence instead.
func (p *vst2Plugin) ProcessAudio(in, out *audio.Buffer) {
	p.state = stateProcessing
	defer func() {
		if r := recover(); r != nil {
			pluginLogger().Error("VST2 plugin failed during processing",
				"plugin", p.name, "panic", r)
			out.Clear()
		}
	}()

	if p.plug.CanProcessFloat32() {
		processed := p.plug.ProcessFloat32(in.Data())
		for ch := 0; ch < out.Channels() && ch < len(processed); ch++ {
			copy(out.Samples(ch), processed[ch])
		}
		return
	}

	for ch := range p.in64 {
		src := in.Samples(ch)
		for i, v := range src {
			p.in64[ch][i] = float64(v)
		}
	}
	p.out64 = p.plug.ProcessFloat64(p.in64)
	for ch := 0; ch < out.Channels() && ch < len(p.out64); ch++ {
		dst := out.Samples(ch)
		for i, v := range p.out64[ch] {
			dst[i] = float32(v)
		}
	}
}

// ProcessMIDI implements Plugin.
func (p *vst2Plugin) ProcessMIDI(events *midi.EventList) {
	if events.Len() == 0 {
		return
	}
	block := packEvents(events)
	p.plug.Dispatch(vst2.EffProcessEvents, 0, 0, unsafe.Pointer(block), 0)
}

// AcceptsMIDI implements Plugin. Events are delivered to every VST2
// plugin; effects are free to use them as control input.
func (p *vst2Plugin) AcceptsMIDI() bool { return true }

// DisplayInfo implements Plugin.
func (p *vst2Plugin) DisplayInfo() {
	pluginLogger().Info("plugin info",
		"plugin", p.name,
		"path", p.path,
		"type", p.Type().String(),
		"kind", p.kind.String(),
		"name", p.plug.Name,
		"float32", p.plug.CanProcessFloat32())
}

// Close implements Plugin. The plugin is suspended, then the library is
// unloaded; no separate plugin close opcode is dispatched.
func (p *vst2Plugin) Close() error {
	if p.state == stateClosed || p.state == stateCreated {
		return nil
	}
	p.state = stateClosed

	p.suspend()
	if p.library != nil {
		p.library.Close()
	}
	return nil
}

// resume starts plugin processing.
func (p *vst2Plugin) resume() {
	p.plug.Dispatch(vst2.EffMainsChanged, 0, 1, nil, 0)
}

// suspend stops plugin processing.
func (p *vst2Plugin) suspend() {
	p.plug.Dispatch(vst2.EffMainsChanged, 0, 0, nil, 0)
}

// hostCallback answers the host queries plugins are allowed to make
// while offline: sample rate and block size.
func (p *vst2Plugin) hostCallback() vst2.HostCallbackFunc {
	return func(plugin *vst2.Plugin, opcode vst2.MasterOpcode, index int64, value int64, ptr unsafe.Pointer, opt float64) int {
		if p.settings == nil {
			return 0
		}
		switch opcode {
		case vst2.AudioMasterGetSampleRate:
			return int(p.settings.SampleRate)
		case vst2.AudioMasterGetBlockSize:
			return p.settings.Blocksize
		default:
			return 0
		}
	}
}
