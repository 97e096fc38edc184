package audio

import (
	"io"
	"os"

	"github.com/tphakala/flac"

	"github.com/tphakala/plughost/internal/errors"
)

// flacSource decodes FLAC input. FLAC frames do not line up with the
// engine blocksize, so decoded samples are staged in a per-channel
// pending queue and drained one block at a time. Write support is not
// provided; processed output goes to an uncompressed container.
type flacSource struct {
	path     string
	settings *Settings
	state    sourceState
	frames   uint64

	file   *os.File
	stream *flac.Stream

	pending  [][]float32
	depleted bool
}

func newFLACSource(path string, settings *Settings) *flacSource {
	return &flacSource{path: path, settings: settings}
}

// Name implements Source.
func (s *flacSource) Name() string { return s.path }

// Type implements Source.
func (s *flacSource) Type() SourceType { return SourceTypeFLAC }

// Open implements Source.
func (s *flacSource) Open(direction Direction) error {
	if s.state != stateUnopened {
		return ErrSourceNotOpen
	}
	if direction != DirectionRead {
		s.state = stateFailed
		return errors.Newf("FLAC output is not supported: %s", s.path).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	f, err := os.Open(s.path)
	if err != nil {
		s.state = stateFailed
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	stream, err := flac.New(f)
	if err != nil {
		_ = f.Close()
		s.state = stateFailed
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Message("not a valid FLAC file: " + s.path).
			Build()
	}

	info := stream.Info
	if err := checkFormat(s.path, float64(info.SampleRate), int(info.NChannels), s.settings); err != nil {
		_ = f.Close()
		s.state = stateFailed
		return err
	}

	s.file = f
	s.stream = stream
	s.pending = make([][]float32, s.settings.NumChannels)
	s.state = stateOpen

	sourceLogger().Debug("opened FLAC source for reading",
		"path", s.path,
		"sample_rate", info.SampleRate,
		"channels", info.NChannels,
		"bit_depth", info.BitsPerSample)
	return nil
}

// fill decodes FLAC frames until at least want frames are pending or the
// stream is exhausted.
func (s *flacSource) fill(want int) {
	scale := float32(int64(1) << (s.stream.Info.BitsPerSample - 1))
	for !s.depleted && len(s.pending[0]) < want {
		frame, err := s.stream.ParseNext()
		if err != nil {
			if err != io.EOF {
				sourceLogger().Error("FLAC decode failed", "path", s.path, "error", err)
			}
			s.depleted = true
			return
		}
		for ch := range s.pending {
			samples := frame.Subframes[ch].Samples
			for _, v := range samples {
				s.pending[ch] = append(s.pending[ch], float32(v)/scale)
			}
		}
	}
}

// ReadBlock implements Source.
func (s *flacSource) ReadBlock(buf *Buffer) bool {
	if s.state != stateOpen {
		buf.Clear()
		return false
	}

	want := buf.Frames()
	s.fill(want + 1)

	available := len(s.pending[0])
	framesRead := min(available, want)
	for ch := range s.pending {
		samples := buf.Samples(ch)
		copy(samples, s.pending[ch][:framesRead])
		for i := framesRead; i < len(samples); i++ {
			samples[i] = 0
		}
		s.pending[ch] = s.pending[ch][framesRead:]
	}
	s.frames += uint64(framesRead)

	return framesRead == want && len(s.pending[0]) > 0
}

// WriteBlock implements Source.
func (s *flacSource) WriteBlock(*Buffer) error {
	return ErrSourceNotOpen
}

// FramesProcessed implements Source.
func (s *flacSource) FramesProcessed() uint64 { return s.frames }

// Close implements Source.
func (s *flacSource) Close() error {
	if s.state != stateOpen {
		return nil
	}
	s.state = stateClosed
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
