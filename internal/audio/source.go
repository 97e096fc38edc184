package audio

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tphakala/plughost/internal/logging"
)

// SourceType identifies the codec behind a sample source.
type SourceType int

const (
	SourceTypeInvalid SourceType = iota
	SourceTypeSilence
	SourceTypePCM
	SourceTypeWAV
	SourceTypeAIFF
	SourceTypeFLAC
)

// String returns the human readable name of the source type.
func (t SourceType) String() string {
	switch t {
	case SourceTypeSilence:
		return "silence"
	case SourceTypePCM:
		return "pcm"
	case SourceTypeWAV:
		return "wav"
	case SourceTypeAIFF:
		return "aiff"
	case SourceTypeFLAC:
		return "flac"
	default:
		return "invalid"
	}
}

// Direction distinguishes read sources from write sources.
type Direction int

const (
	DirectionRead Direction = iota
	DirectionWrite
)

// sourceState tracks the lifecycle of a source.
type sourceState int

const (
	stateUnopened sourceState = iota
	stateOpen
	stateClosed
	stateFailed
)

// Source is a pull/push interface over block-based audio I/O.
//
// ReadBlock fills the buffer with up to one block of frames and returns
// true while real samples remain. On the block that exhausts the stream
// the remainder of the buffer is zero-padded and ReadBlock returns
// false. WriteBlock writes all frames of all channels.
type Source interface {
	// Name returns a human-readable identifier, usually the file path
	Name() string

	// Type returns the codec type of this source
	Type() SourceType

	// Open transitions the source to the open state for the direction
	Open(direction Direction) error

	// ReadBlock fills buf, zero-padding short reads; false means EOF
	ReadBlock(buf *Buffer) bool

	// WriteBlock writes one full block from buf
	WriteBlock(buf *Buffer) error

	// FramesProcessed returns the number of frames read or written
	FramesProcessed() uint64

	// Close flushes and releases the source; safe to call repeatedly
	Close() error
}

// extensionTypes maps lower-case file extensions to source types.
var extensionTypes = map[string]SourceType{
	".wav":  SourceTypeWAV,
	".wave": SourceTypeWAV,
	".aif":  SourceTypeAIFF,
	".aiff": SourceTypeAIFF,
	".flac": SourceTypeFLAC,
	".pcm":  SourceTypePCM,
	".raw":  SourceTypePCM,
}

// SourceTypeForPath guesses the source type from the file extension,
// case-insensitively. Unknown extensions yield SourceTypeInvalid.
func SourceTypeForPath(path string) SourceType {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return SourceTypeInvalid
}

// NewSource constructs an unopened source for the given path based on its
// extension. The settings are captured so the source can verify format
// agreement and shape raw streams at open time.
func NewSource(path string, settings *Settings) (Source, error) {
	switch SourceTypeForPath(path) {
	case SourceTypeWAV:
		return newWAVSource(path, settings), nil
	case SourceTypeAIFF:
		return newAIFFSource(path, settings), nil
	case SourceTypeFLAC:
		return newFLACSource(path, settings), nil
	case SourceTypePCM:
		return newPCMSource(path, settings), nil
	default:
		return nil, errUnknownSourceType(path)
	}
}

// ListFileTypes returns the supported file extensions, sorted, for the
// formats command.
func ListFileTypes() []string {
	exts := make([]string, 0, len(extensionTypes))
	for ext := range extensionTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// sourceLogger returns the package logger for sources.
func sourceLogger() *slog.Logger {
	return logging.ForService("audio")
}

// SilenceSource produces zero-filled blocks indefinitely. It is selected
// automatically when the chain head is an instrument and no input file
// was given; the MIDI sequence end terminates the loop instead of EOF.
type SilenceSource struct {
	frames uint64
	state  sourceState
}

// NewSilenceSource returns an unopened silence generator.
func NewSilenceSource() *SilenceSource {
	return &SilenceSource{}
}

// Name implements Source.
func (s *SilenceSource) Name() string { return "silence" }

// Type implements Source.
func (s *SilenceSource) Type() SourceType { return SourceTypeSilence }

// Open implements Source. Silence can only be read.
func (s *SilenceSource) Open(direction Direction) error {
	if direction != DirectionRead {
		s.state = stateFailed
		return ErrSourceNotOpen
	}
	s.state = stateOpen
	return nil
}

// ReadBlock implements Source; it always fills with zeros and never
// signals end of stream.
func (s *SilenceSource) ReadBlock(buf *Buffer) bool {
	buf.Clear()
	s.frames += uint64(buf.Frames())
	return true
}

// WriteBlock implements Source.
func (s *SilenceSource) WriteBlock(*Buffer) error {
	return ErrSourceNotOpen
}

// FramesProcessed implements Source.
func (s *SilenceSource) FramesProcessed() uint64 { return s.frames }

// Close implements Source.
func (s *SilenceSource) Close() error {
	s.state = stateClosed
	return nil
}
