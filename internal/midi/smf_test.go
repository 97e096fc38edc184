package midi

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	midi2 "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// writeTestSMF writes a one-track file: tempo 120, note on at tick 0,
// note off one quarter note later.
func writeTestSMF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.mid")

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, smf.Message(midi2.NoteOn(0, 60, 100)))
	tr.Add(960, smf.Message(midi2.NoteOff(0, 60)))
	tr.Close(0)
	s.Add(tr)
	require.NoError(t, s.WriteFile(path))
	return path
}

func TestFileSourceAssignsSampleTimestamps(t *testing.T) {
	path := writeTestSMF(t)

	src := NewFileSource(path, 44100)
	require.NoError(t, src.Open())

	seq := NewSequence()
	require.NoError(t, src.ReadAll(seq))
	require.Equal(t, 2, seq.Len())

	out := NewEventList()
	seq.FillRange(0, 512, out)
	require.Equal(t, 1, out.Len())
	on := out.Events()[0]
	assert.Equal(t, byte(0x90), on.Command())
	assert.Equal(t, byte(60), on.Data1)
	assert.Equal(t, uint64(0), on.Timestamp)

	// One quarter note at 120 BPM is half a second: 22050 samples.
	assert.Equal(t, uint64(22050), seq.LastTimestamp())
}

func TestFileSourceOpenMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.mid"), 44100)
	assert.Error(t, src.Open())
}

func TestFileSourceReadAllBeforeOpen(t *testing.T) {
	src := NewFileSource("whatever.mid", 44100)
	assert.Error(t, src.ReadAll(NewSequence()))
}

func TestFileSourceEmptyTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mid")
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	var tr smf.Track
	tr.Close(0)
	s.Add(tr)
	require.NoError(t, s.WriteFile(path))

	src := NewFileSource(path, 44100)
	require.NoError(t, src.Open())
	seq := NewSequence()
	require.NoError(t, src.ReadAll(seq))
	assert.Zero(t, seq.Len())
}
