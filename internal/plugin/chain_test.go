package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/midi"
)

// stubPlugin records the calls made against it and tags every processed
// sample with its id so tests can verify chain ordering.
type stubPlugin struct {
	name       string
	kind       Kind
	midiCalls  []int
	audioCalls int
	offset     float32
	wantsMIDI  bool
	closed     int
	opened     bool
	ready      bool
}

func (s *stubPlugin) Name() string { return s.name }
func (s *stubPlugin) Type() Type   { return TypeInternal }
func (s *stubPlugin) Kind() Kind   { return s.kind }

func (s *stubPlugin) Open() error {
	s.opened = true
	return nil
}

func (s *stubPlugin) Initialize(*audio.Settings) error {
	s.ready = true
	return nil
}

func (s *stubPlugin) ProcessAudio(in, out *audio.Buffer) {
	s.audioCalls++
	for ch := 0; ch < out.Channels(); ch++ {
		src := in.Samples(ch)
		dst := out.Samples(ch)
		for i := range dst {
			dst[i] = src[i] + s.offset
		}
	}
}

func (s *stubPlugin) ProcessMIDI(events *midi.EventList) {
	s.midiCalls = append(s.midiCalls, events.Len())
}

func (s *stubPlugin) AcceptsMIDI() bool { return s.wantsMIDI }
func (s *stubPlugin) DisplayInfo()      {}

func (s *stubPlugin) Close() error {
	s.closed++
	return nil
}

func testSettings() *audio.Settings {
	return &audio.Settings{SampleRate: 44100, Blocksize: 64, NumChannels: 2}
}

func TestAddFromArgumentString(t *testing.T) {
	chain := NewChain()
	require.NoError(t, chain.AddFromArgumentString("passthru,gain:0.5"))
	assert.Equal(t, 2, chain.Len())
	assert.Equal(t, "passthru", chain.Head().Name())
}

func TestAddFromArgumentStringSemicolons(t *testing.T) {
	chain := NewChain()
	require.NoError(t, chain.AddFromArgumentString("gain:2.0;passthru"))
	assert.Equal(t, 2, chain.Len())
}

func TestAddFromArgumentStringFailureLeavesChainUnmodified(t *testing.T) {
	chain := NewChain()
	require.NoError(t, chain.AddFromArgumentString("passthru"))
	err := chain.AddFromArgumentString("gain:1.0,no-such-plugin-anywhere")
	require.Error(t, err)
	assert.Equal(t, 1, chain.Len(), "failed add must not change the chain")
}

func TestValidateEmptyChain(t *testing.T) {
	chain := NewChain()
	err := chain.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No plugins loaded")
}

func TestValidateInstrumentMustLeadChain(t *testing.T) {
	chain := NewChain()
	chain.Add(&stubPlugin{name: "fx", kind: KindEffect})
	chain.Add(&stubPlugin{name: "synth", kind: KindInstrument})
	err := chain.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be first")

	head := NewChain()
	head.Add(&stubPlugin{name: "synth", kind: KindInstrument})
	head.Add(&stubPlugin{name: "fx", kind: KindEffect})
	assert.NoError(t, head.Validate())
}

func TestSinglePluginProcessesDirectly(t *testing.T) {
	settings := testSettings()
	chain := NewChain()
	stub := &stubPlugin{name: "one", kind: KindEffect, offset: 0.25}
	chain.Add(stub)
	require.NoError(t, chain.OpenAll())
	require.NoError(t, chain.InitializeAll(settings))

	in := audio.NewBufferFor(settings)
	out := audio.NewBufferFor(settings)
	in.Samples(0)[0] = 0.5

	chain.ProcessAudio(in, out, nil)
	assert.InDelta(t, 0.75, out.Samples(0)[0], 1e-6)
	assert.Equal(t, 1, stub.audioCalls)
}

func TestChainOrderingAndScratchAlternation(t *testing.T) {
	settings := testSettings()

	for _, length := range []int{2, 3, 4, 5} {
		chain := NewChain()
		for i := 0; i < length; i++ {
			chain.Add(&stubPlugin{name: "p", kind: KindEffect, offset: 1})
		}
		require.NoError(t, chain.OpenAll())
		require.NoError(t, chain.InitializeAll(settings))

		in := audio.NewBufferFor(settings)
		out := audio.NewBufferFor(settings)
		chain.ProcessAudio(in, out, nil)

		// Each plugin adds 1, so the output counts the chain length
		// regardless of which scratch buffer carried the last hop.
		assert.InDelta(t, float64(length), out.Samples(0)[0], 1e-6, "chain length %d", length)
		assert.InDelta(t, float64(length), out.Samples(1)[63], 1e-6, "chain length %d", length)
	}
}

func TestProcessMIDIOnlyReachesAcceptingPlugins(t *testing.T) {
	chain := NewChain()
	synth := &stubPlugin{name: "synth", kind: KindInstrument, wantsMIDI: true}
	fx := &stubPlugin{name: "fx", kind: KindEffect}
	chain.Add(synth)
	chain.Add(fx)

	events := midi.NewEventList()
	events.Append(midi.Event{Status: 0x90, Data1: 60, Data2: 100})
	chain.ProcessMIDI(events, nil)

	assert.Equal(t, []int{1}, synth.midiCalls)
	assert.Empty(t, fx.midiCalls)
}

func TestChainCloseClosesEveryPlugin(t *testing.T) {
	chain := NewChain()
	a := &stubPlugin{name: "a"}
	b := &stubPlugin{name: "b"}
	chain.Add(a)
	chain.Add(b)

	require.NoError(t, chain.Close())
	require.NoError(t, chain.Close())
	assert.Equal(t, 2, a.closed)
	assert.Equal(t, 2, b.closed)
}
