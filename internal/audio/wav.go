package audio

import (
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/plughost/internal/errors"
)

// Output bit depth for encoded PCM containers.
const encodeBitDepth = 16

// wavSource reads or writes RIFF/WAVE files through go-audio/wav.
type wavSource struct {
	path      string
	settings  *Settings
	state     sourceState
	direction Direction
	frames    uint64

	file    *os.File
	decoder *wav.Decoder
	encoder *wav.Encoder

	totalFrames uint64
	intBuf      *gaudio.IntBuffer
}

func newWAVSource(path string, settings *Settings) *wavSource {
	return &wavSource{path: path, settings: settings}
}

// Name implements Source.
func (s *wavSource) Name() string { return s.path }

// Type implements Source.
func (s *wavSource) Type() SourceType { return SourceTypeWAV }

// Open implements Source.
func (s *wavSource) Open(direction Direction) error {
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

func (s *wavSource) openRead() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		_ = f.Close()
		return errors.Newf("not a valid WAV file: %s", s.path).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}
	if err := checkFormat(s.path, float64(decoder.SampleRate), int(decoder.NumChans), s.settings); err != nil {
		_ = f.Close()
		return err
	}
	if err := decoder.FwdToPCM(); err != nil {
		_ = f.Close()
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	duration, err := decoder.Duration()
	if err != nil {
		_ = f.Close()
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	s.file = f
	s.decoder = decoder
	s.totalFrames = uint64(math.Round(duration.Seconds() * float64(decoder.SampleRate)))
	s.intBuf = newInterleavedIntBuffer(s.settings, int(decoder.SampleRate))

	sourceLogger().Debug("opened WAV source for reading",
		"path", s.path,
		"sample_rate", decoder.SampleRate,
		"channels", decoder.NumChans,
		"bit_depth", decoder.BitDepth,
		"total_frames", s.totalFrames)
	return nil
}

func (s *wavSource) openWrite() error {
	f, err := os.Create(s.path)
	if err != nil {
		return errors.New(err).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(s.path).
			Build()
	}

	s.file = f
	s.encoder = wav.NewEncoder(f,
		int(s.settings.SampleRate), encodeBitDepth, s.settings.NumChannels, 1)
	s.intBuf = newInterleavedIntBuffer(s.settings, int(s.settings.SampleRate))

	sourceLogger().Debug("opened WAV source for writing",
		"path", s.path,
		"sample_rate", s.settings.SampleRate,
		"channels", s.settings.NumChannels,
		"bit_depth", encodeBitDepth)
	return nil
}

// ReadBlock implements Source.
func (s *wavSource) ReadBlock(buf *Buffer) bool {
	if s.state != stateOpen || s.direction != DirectionRead {
		buf.Clear()
		return false
	}

	n, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil {
		sourceLogger().Error("WAV read failed", "path", s.path, "error", err)
		buf.Clear()
		return false
	}

	framesRead := n / s.settings.NumChannels
	deinterleave(buf, s.intBuf.Data, framesRead, int(s.decoder.BitDepth))
	s.frames += uint64(framesRead)

	return framesRead == buf.Frames() && s.frames < s.totalFrames
}

// WriteBlock implements Source.
func (s *wavSource) WriteBlock(buf *Buffer) error {
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
func (s *wavSource) FramesProcessed() uint64 { return s.frames }

// Close implements Source.
func (s *wavSource) Close() error {
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

// checkFormat verifies that a file agrees with the engine settings; the
// host performs no sample-rate or channel conversion.
func checkFormat(path string, sampleRate float64, channels int, settings *Settings) error {
	if sampleRate != settings.SampleRate || channels != settings.NumChannels {
		return errors.Newf("file %s is %gHz/%dch but engine is %gHz/%dch",
			path, sampleRate, channels, settings.SampleRate, settings.NumChannels).
			Component(ComponentAudio).
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return nil
}

// newInterleavedIntBuffer allocates the scratch integer buffer shared by
// the go-audio codecs, sized for one block.
func newInterleavedIntBuffer(settings *Settings, sampleRate int) *gaudio.IntBuffer {
	return &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: settings.NumChannels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, settings.NumChannels*settings.Blocksize),
		SourceBitDepth: encodeBitDepth,
	}
}

// deinterleave converts framesRead interleaved integer frames into the
// channel-major float buffer, zero-padding the remainder.
func deinterleave(buf *Buffer, data []int, framesRead, bitDepth int) {
	scale := float32(int64(1) << (bitDepth - 1))
	channels := buf.Channels()
	for ch := 0; ch < channels; ch++ {
		samples := buf.Samples(ch)
		for i := 0; i < framesRead; i++ {
			samples[i] = float32(data[i*channels+ch]) / scale
		}
		for i := framesRead; i < len(samples); i++ {
			samples[i] = 0
		}
	}
}

// interleave converts the channel-major float buffer into interleaved
// integers at the given bit depth, clipping out-of-range samples.
func interleave(data []int, buf *Buffer, bitDepth int) {
	scale := float64(int64(1) << (bitDepth - 1))
	channels := buf.Channels()
	for ch := 0; ch < channels; ch++ {
		samples := buf.Samples(ch)
		for i, v := range samples {
			sample := float64(v) * scale
			if sample > scale-1 {
				sample = scale - 1
			} else if sample < -scale {
				sample = -scale
			}
			data[i*channels+ch] = int(sample)
		}
	}
}
