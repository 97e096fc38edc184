package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/plughost/internal/audio"
)

func TestNewResolvesInternalPlugins(t *testing.T) {
	p, err := New("passthru")
	require.NoError(t, err)
	assert.Equal(t, TypeInternal, p.Type())
	assert.Equal(t, KindEffect, p.Kind())

	g, err := New("gain:0.5")
	require.NoError(t, err)
	assert.Equal(t, "gain:0.5", g.Name())
}

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestNewRejectsBadGainArgument(t *testing.T) {
	_, err := New("gain:loud")
	assert.Error(t, err)

	_, err = New("gain:-1")
	assert.Error(t, err)
}

func TestNewRejectsPassthruArgument(t *testing.T) {
	_, err := New("passthru:x")
	assert.Error(t, err)
}

func TestPassthroughIdentity(t *testing.T) {
	settings := testSettings()
	p, err := New("passthru")
	require.NoError(t, err)
	require.NoError(t, p.Open())
	require.NoError(t, p.Initialize(settings))

	in := audio.NewBufferFor(settings)
	out := audio.NewBufferFor(settings)
	for ch := 0; ch < in.Channels(); ch++ {
		for i := range in.Samples(ch) {
			in.Samples(ch)[i] = float32(ch*100+i) / 256
		}
	}

	p.ProcessAudio(in, out)
	for ch := 0; ch < in.Channels(); ch++ {
		assert.Equal(t, in.Samples(ch), out.Samples(ch))
	}
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestGainScalesSamples(t *testing.T) {
	settings := testSettings()
	p, err := New("gain:0.5")
	require.NoError(t, err)
	require.NoError(t, p.Open())
	require.NoError(t, p.Initialize(settings))

	in := audio.NewBufferFor(settings)
	out := audio.NewBufferFor(settings)
	in.Samples(0)[0] = 0.8
	in.Samples(1)[1] = -0.4

	p.ProcessAudio(in, out)
	assert.InDelta(t, 0.4, out.Samples(0)[0], 1e-6)
	assert.InDelta(t, -0.2, out.Samples(1)[1], 1e-6)
}

func TestGainUnityIsIdentity(t *testing.T) {
	settings := testSettings()
	p, err := New("gain:1.0")
	require.NoError(t, err)
	require.NoError(t, p.Open())
	require.NoError(t, p.Initialize(settings))

	in := audio.NewBufferFor(settings)
	out := audio.NewBufferFor(settings)
	in.Samples(0)[10] = 0.123

	p.ProcessAudio(in, out)
	assert.Equal(t, in.Samples(0), out.Samples(0))
}

func TestInitializeRequiresOpen(t *testing.T) {
	p, err := New("passthru")
	require.NoError(t, err)
	assert.Error(t, p.Initialize(testSettings()))
}
