package audio

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/tphakala/plughost/internal/errors"
)

// pcmSource reads and writes headerless PCM streams. The data is assumed
// to be interleaved signed 16-bit little-endian at the engine sample rate
// and channel count; there is no header to disagree with.
type pcmSource struct {
	path      string
	settings  *Settings
	state     sourceState
	direction Direction
	frames    uint64

	file   *os.File
	reader *bufio.Reader
	writer *bufio.Writer

	scratch []byte
}

func newPCMSource(path string, settings *Settings) *pcmSource {
	return &pcmSource{path: path, settings: settings}
}

// Name implements Source.
func (s *pcmSource) Name() string { return s.path }

// Type implements Source.
func (s *pcmSource) Type() SourceType { return SourceTypePCM }

// Open implements Source.
func (s *pcmSource) Open(direction Direction) error {
	if s.state != stateUnopened {
		return ErrSourceNotOpen
	}
	s.direction = direction
	s.scratch = make([]byte, 2*s.settings.NumChannels*s.settings.Blocksize)

	var f *os.File
	var err error
	if direction == DirectionRead {
		f, err = os.Open(s.path)
	} else {
		f, err = os.Create(s.path)
	}
	if err != nil {
		s.state = stateFailed
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	s.file = f
	if direction == DirectionRead {
		s.reader = bufio.NewReader(f)
	} else {
		s.writer = bufio.NewWriter(f)
	}
	s.state = stateOpen

	sourceLogger().Debug("opened raw PCM source",
		"path", s.path,
		"direction", direction,
		"sample_rate", s.settings.SampleRate,
		"channels", s.settings.NumChannels)
	return nil
}

// ReadBlock implements Source.
func (s *pcmSource) ReadBlock(buf *Buffer) bool {
	if s.state != stateOpen || s.direction != DirectionRead {
		buf.Clear()
		return false
	}

	n, err := io.ReadFull(s.reader, s.scratch)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		sourceLogger().Error("PCM read failed", "path", s.path, "error", err)
		buf.Clear()
		return false
	}

	channels := buf.Channels()
	framesRead := n / (2 * channels)
	const scale = float32(1 << 15)
	for ch := 0; ch < channels; ch++ {
		samples := buf.Samples(ch)
		for i := 0; i < framesRead; i++ {
			raw := int16(binary.LittleEndian.Uint16(s.scratch[2*(i*channels+ch):]))
			samples[i] = float32(raw) / scale
		}
		for i := framesRead; i < len(samples); i++ {
			samples[i] = 0
		}
	}
	s.frames += uint64(framesRead)

	if framesRead < buf.Frames() || err != nil {
		return false
	}
	// A full block that lands exactly on EOF still finishes the stream.
	if _, peekErr := s.reader.Peek(1); peekErr == io.EOF {
		return false
	}
	return true
}

// WriteBlock implements Source.
func (s *pcmSource) WriteBlock(buf *Buffer) error {
	if s.state != stateOpen || s.direction != DirectionWrite {
		return ErrSourceNotOpen
	}

	channels := buf.Channels()
	const scale = float64(1 << 15)
	for ch := 0; ch < channels; ch++ {
		samples := buf.Samples(ch)
		for i, v := range samples {
			sample := float64(v) * scale
			if sample > scale-1 {
				sample = scale - 1
			} else if sample < -scale {
				sample = -scale
			}
			binary.LittleEndian.PutUint16(s.scratch[2*(i*channels+ch):], uint16(int16(sample)))
		}
	}
	if _, err := s.writer.Write(s.scratch); err != nil {
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
func (s *pcmSource) FramesProcessed() uint64 { return s.frames }

// Close implements Source.
func (s *pcmSource) Close() error {
	if s.state != stateOpen {
		return nil
	}
	s.state = stateClosed

	var errs []error
	if s.writer != nil {
		if err := s.writer.Flush(); err != nil {
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
