package audio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceTypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want SourceType
	}{
		{"in.wav", SourceTypeWAV},
		{"IN.WAV", SourceTypeWAV},
		{"take.Wave", SourceTypeWAV},
		{"in.aif", SourceTypeAIFF},
		{"in.AIFF", SourceTypeAIFF},
		{"in.flac", SourceTypeFLAC},
		{"in.pcm", SourceTypePCM},
		{"in.raw", SourceTypePCM},
		{"in.mp3", SourceTypeInvalid},
		{"noextension", SourceTypeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceTypeForPath(tt.path))
		})
	}
}

func TestNewSourceRejectsUnknownExtension(t *testing.T) {
	settings := NewSettings()
	_, err := NewSource("song.ogg", settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized")
}

func TestListFileTypesIsSorted(t *testing.T) {
	types := ListFileTypes()
	require.NotEmpty(t, types)
	assert.Contains(t, types, ".wav")
	assert.Contains(t, types, ".aiff")
	assert.Contains(t, types, ".flac")
	for i := 1; i < len(types); i++ {
		assert.Less(t, types[i-1], types[i])
	}
}

func TestSilenceSourceProducesZeros(t *testing.T) {
	src := NewSilenceSource()
	require.NoError(t, src.Open(DirectionRead))

	buf := NewBuffer(2, 128)
	buf.Samples(0)[5] = 0.7

	for i := 0; i < 3; i++ {
		ok := src.ReadBlock(buf)
		assert.True(t, ok, "silence never reaches end of stream")
	}
	for ch := 0; ch < buf.Channels(); ch++ {
		for _, v := range buf.Samples(ch) {
			require.Zero(t, v)
		}
	}
	assert.Equal(t, uint64(3*128), src.FramesProcessed())
}

func TestSilenceSourceRejectsWriteDirection(t *testing.T) {
	src := NewSilenceSource()
	assert.Error(t, src.Open(DirectionWrite))
}

// writeTestWAV renders a deterministic ramp of the given length through
// the WAV write path and returns its location.
func writeTestWAV(t *testing.T, settings *Settings, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")

	src := newWAVSource(path, settings)
	require.NoError(t, src.Open(DirectionWrite))

	buf := NewBufferFor(settings)
	written := 0
	for written < frames {
		for ch := 0; ch < buf.Channels(); ch++ {
			samples := buf.Samples(ch)
			for i := range samples {
				if written+i < frames {
					samples[i] = float32((written+i)%100) / 200
				} else {
					samples[i] = 0
				}
			}
		}
		require.NoError(t, src.WriteBlock(buf))
		written += settings.Blocksize
	}
	require.NoError(t, src.Close())
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	settings := &Settings{SampleRate: 44100, Blocksize: 64, NumChannels: 2}
	path := writeTestWAV(t, settings, 256)

	src, err := NewSource(path, settings)
	require.NoError(t, err)
	require.NoError(t, src.Open(DirectionRead))
	defer func() {
		assert.NoError(t, src.Close())
	}()

	buf := NewBufferFor(settings)
	blocks := 0
	for src.ReadBlock(buf) {
		blocks++
		require.Less(t, blocks, 100, "reader failed to signal end of stream")
	}
	// Final ReadBlock returns false on the block that finishes the stream.
	assert.Equal(t, uint64(256), src.FramesProcessed())
}

func TestWAVShortFinalBlockIsZeroPadded(t *testing.T) {
	settings := &Settings{SampleRate: 44100, Blocksize: 100, NumChannels: 2}
	path := writeTestWAV(t, settings, 100) // one full block exactly

	// Reopen with a larger blocksize so the single block is short.
	readSettings := &Settings{SampleRate: 44100, Blocksize: 150, NumChannels: 2}
	src, err := NewSource(path, readSettings)
	require.NoError(t, err)
	require.NoError(t, src.Open(DirectionRead))
	defer func() {
		assert.NoError(t, src.Close())
	}()

	buf := NewBufferFor(readSettings)
	ok := src.ReadBlock(buf)
	assert.False(t, ok, "short read finishes the stream")
	assert.Equal(t, uint64(100), src.FramesProcessed())
	for ch := 0; ch < buf.Channels(); ch++ {
		for i := 100; i < 150; i++ {
			assert.Zero(t, buf.Samples(ch)[i], "padding must be zeroed")
		}
	}
}

func TestWAVFormatMismatchFailsOpen(t *testing.T) {
	settings := &Settings{SampleRate: 44100, Blocksize: 64, NumChannels: 2}
	path := writeTestWAV(t, settings, 128)

	other := &Settings{SampleRate: 48000, Blocksize: 64, NumChannels: 2}
	src, err := NewSource(path, other)
	require.NoError(t, err)
	assert.Error(t, src.Open(DirectionRead))
}

func TestWAVOpenMissingFileFails(t *testing.T) {
	settings := NewSettings()
	src := newWAVSource(filepath.Join(t.TempDir(), "absent.wav"), settings)
	assert.Error(t, src.Open(DirectionRead))
}

func TestPCMRoundTrip(t *testing.T) {
	settings := &Settings{SampleRate: 44100, Blocksize: 32, NumChannels: 2}
	path := filepath.Join(t.TempDir(), "test.raw")

	out := newPCMSource(path, settings)
	require.NoError(t, out.Open(DirectionWrite))
	buf := NewBufferFor(settings)
	for ch := 0; ch < buf.Channels(); ch++ {
		for i := range buf.Samples(ch) {
			buf.Samples(ch)[i] = float32(i) / 64
		}
	}
	require.NoError(t, out.WriteBlock(buf))
	require.NoError(t, out.Close())

	in := newPCMSource(path, settings)
	require.NoError(t, in.Open(DirectionRead))
	read := NewBufferFor(settings)
	ok := in.ReadBlock(read)
	assert.False(t, ok, "single block file ends after the first block")
	assert.Equal(t, uint64(32), in.FramesProcessed())
	for ch := 0; ch < read.Channels(); ch++ {
		for i, v := range read.Samples(ch) {
			assert.InDelta(t, float64(i)/64, float64(v), 1.0/32768)
		}
	}
	require.NoError(t, in.Close())
	require.NoError(t, in.Close(), "close is idempotent")
}

func TestSourceCloseIdempotent(t *testing.T) {
	settings := &Settings{SampleRate: 44100, Blocksize: 64, NumChannels: 2}
	path := writeTestWAV(t, settings, 64)

	src, err := NewSource(path, settings)
	require.NoError(t, err)
	require.NoError(t, src.Open(DirectionRead))
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}
