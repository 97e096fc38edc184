package audio

import (
	"os"

	"github.com/go-audio/aiff"
	gaudio "github.com/go-audio/audio"

	"github.com/tphakala/plughost/internal/errors"
)

// aiffSource reads or writes AIFF files through go-audio/aiff.
type aiffSource struct {
	path      string
	settings  *Settings
	state     sourceState
	direction Direction
	frames    uint64

	file    *os.File
	decoder *aiff.Decoder
	encoder *aiff.Encoder

	totalFrames uint64
	intBuf      *gaudio.IntBuffer
}

func newAIFFSource(path string, settings *Settings) *aiffSource {
	return &aiffSource{path: path, settings: settings}
}

// Name implements Source.
func (s *aiffSource) Name() string { return s.path }

// Type implements Source.
func (s *aiffSource) Type() SourceType { return SourceTypeAIFF }

// Open implements Source.
func (s *aiffSource) Open(direction Direction) error {
	if s.state != stateUnopened {
		return ErrSourceNotOpen
	}
	s.direction = direction

	var err error
	if direction == DirectionRead {
		err = s.openRead()
	} else {
		err = s.openWrite()
	}
	if err != nil {
		s.state = stateFailed
		return err
	}
	s.state = stateOpen
	return nil
}

func (s *aiffSource) openRead() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	decoder := aiff.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		_ = f.Close()
		return errors.Newf("not a valid AIFF file: %s", s.path).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}
	if err := checkFormat(s.path, float64(decoder.SampleRate), int(decoder.NumChans), s.settings); err != nil {
		_ = f.Close()
		return err
	}

	s.file = f
	s.decoder = decoder
	s.totalFrames = uint64(decoder.NumSampleFrames)
	s.intBuf = newInterleavedIntBuffer(s.settings, int(decoder.SampleRate))

	sourceLogger().Debug("opened AIFF source for reading",
		"path", s.path,
		"sample_rate", decoder.SampleRate,
		"channels", decoder.NumChans,
		"bit_depth", decoder.BitDepth,
		"total_frames", s.totalFrames)
	return nil
}

func (s *aiffSource) openWrite() error {
	f, err := os.Create(s.path)
	if err != nil {
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	s.file = f
	s.encoder = aiff.NewEncoder(f,
		int(s.settings.SampleRate), encodeBitDepth, s.settings.NumChannels)
	s.intBuf = newInterleavedIntBuffer(s.settings, int(s.settings.SampleRate))

	sourceLogger().Debug("opened AIFF source for writing",
		"path", s.path,
		"sample_rate", s.settings.SampleRate,
		"channels", s.settings.NumChannels,
		"bit_depth", encodeBitDepth)
	return nil
}

// ReadBlock implements Source.
func (s *aiffSource) ReadBlock(buf *Buffer) bool {
	if s.state != stateOpen || s.direction != DirectionRead {
		buf.Clear()
		return false
	}

	n, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil {
		sourceLogger().Error("AIFF read failed", "path", s.path, "error", err)
		buf.Clear()
		return false
	}

	framesRead := n / s.settings.NumChannels
	deinterleave(buf, s.intBuf.Data, framesRead, int(s.decoder.BitDepth))
	s.frames += uint64(framesRead)

	return framesRead == buf.Frames() && s.frames < s.totalFrames
}

// WriteBlock implements Source.
func (s *aiffSource) WriteBlock(buf *Buffer) error {
	if s.state != stateOpen || s.direction != DirectionWrite {
		return ErrSourceNotOpen
	}

	interleave(s.intBuf.Data, buf, encodeBitDepth)
	if err := s.encoder.Write(s.intBuf); err != nil {
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}
	s.frames += uint64(buf.Frames())
	return nil
}

// FramesProcessed implements Source.
func (s *aiffSource) FramesProcessed() uint64 { return s.frames }

// Close implements Source.
func (s *aiffSource) Close() error {
	if s.state != stateOpen {
		return nil
	}
	s.state = stateClosed

	var errs []error
	if s.encoder != nil {
		if err := s.encoder.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
