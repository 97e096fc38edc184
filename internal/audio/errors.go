package audio

import (
	"github.com/tphakala/plughost/internal/errors"
)

// Component identifier for audio errors
const ComponentAudio = "audio"

// ErrInvalidSettings builds a validation error for a bad settings value.
func ErrInvalidSettings(msg string) error {
	return errors.New(nil).
		Component(ComponentAudio).
		Category(errors.CategoryValidation).
		Message(msg).
		Build()
}

// errUnknownSourceType builds the descriptive error for an unrecognized
// file extension.
func errUnknownSourceType(path string) error {
	return errors.Newf("unrecognized sample source file type: %s", path).
		Component(ComponentAudio).
		Category(errors.CategoryFileIO).
		FileContext(path).
		Build()
}

// ErrSourceNotOpen is returned when reading or writing a source that is
// not in the open state for that direction.
var ErrSourceNotOpen = errors.New(nil).
	Component(ComponentAudio).
	Category(errors.CategoryState).
	Context("resource", "sample_source").
	Message("sample source is not open").
	Build()
