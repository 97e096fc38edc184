// Package audio provides the audio data model for the plugin host:
// engine settings, the transport clock, channel-major sample buffers and
// file-backed sample sources.
//
// Architecture overview:
//
//	Source(read) -> Buffer -> plugin chain -> Buffer -> Source(write)
//
// All components observe a single Settings value which is finalized
// before the render loop starts.
package audio

// Settings holds the process-wide audio parameters. It is written only
// during initialization; during the render loop every component treats it
// as read-only.
type Settings struct {
	SampleRate  float64
	Blocksize   int
	NumChannels int
}

// NewSettings returns settings populated with the engine defaults.
func NewSettings() *Settings {
	return &Settings{
		SampleRate:  44100,
		Blocksize:   512,
		NumChannels: 2,
	}
}

// Validate reports whether the settings describe a runnable configuration.
func (s *Settings) Validate() error {
	if s.SampleRate <= 0 {
		return ErrInvalidSettings("sample rate must be positive")
	}
	if s.Blocksize <= 0 {
		return ErrInvalidSettings("blocksize must be positive")
	}
	if s.NumChannels < 1 {
		return ErrInvalidSettings("channel count must be at least 1")
	}
	return nil
}
