// Package conf handles the loading and validation of host settings from
// the command line, environment and optional config file using viper.
package conf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/logging"
)

// Settings holds all host configuration. Flag values are bound on top of
// config file values; the struct is finalized before the render loop
// starts and treated as read-only afterwards.
type Settings struct {
	Debug bool // true to enable debug output
	Quiet bool // true to restrict output to errors

	Main struct {
		Name string // name of this host instance, used in log output
		Log  FileLogConfig
	}

	Audio struct {
		SampleRate float64 // engine sample rate in Hz
		Blocksize  int     // frames per processing block
		Channels   int     // channel count for all buffers
	}

	Input struct {
		Path string // path to input audio file, empty for instrument chains
	}

	Output struct {
		Path string // path to output audio file
	}

	MIDI struct {
		Path string // path to input MIDI file
	}

	Plugins struct {
		Chain       string  // delimited list of plugin names
		DisplayInfo bool    // dump plugin metadata after initialization
		TailSeconds float64 // keep driving silence for this long after input EOF
	}

	ColorScheme string // log color scheme, empty for no color
}

// FileLogConfig mirrors logging.FileConfig for viper binding.
type FileLogConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

// Load reads defaults, the optional config file and the environment into
// a Settings struct.
func Load() (*Settings, error) {
	setDefaultConfig()

	if err := initViper(); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryValidation).
			Message(fmt.Sprintf("error unmarshaling config: %v", err)).
			Build()
	}
	return settings, nil
}

// initViper locates and reads the optional config file. A missing config
// file is not an error; defaults and flags cover everything.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("plughost")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryFileIO).
				Message(fmt.Sprintf("error reading config file: %v", err)).
				Build()
		}
	} else {
		slog.Debug("config file loaded", "path", viper.ConfigFileUsed())
	}
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "plughost"))
	}
	return paths, nil
}

// ApplyLogSettings configures the logging package from the settings.
func (s *Settings) ApplyLogSettings() error {
	switch {
	case s.Quiet:
		logging.SetLevel(slog.LevelError)
	case s.Debug:
		logging.SetLevel(slog.LevelDebug)
	}

	if s.ColorScheme != "" {
		if err := logging.EnableColor(s.ColorScheme); err != nil {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryValidation).
				Context("scheme", s.ColorScheme).
				Build()
		}
	}

	logging.EnableFileOutput(&logging.FileConfig{
		Enabled:    s.Main.Log.Enabled,
		Path:       s.Main.Log.Path,
		MaxSize:    s.Main.Log.MaxSize,
		MaxAge:     s.Main.Log.MaxAge,
		MaxBackups: s.Main.Log.MaxBackups,
	})
	return nil
}

// ValidateAudio checks the audio settings for sane values before the
// engine is allowed to start.
func (s *Settings) ValidateAudio() error {
	if s.Audio.SampleRate <= 0 {
		return errors.Newf("sample rate must be positive, got %g", s.Audio.SampleRate).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if s.Audio.Blocksize <= 0 {
		return errors.Newf("blocksize must be positive, got %d", s.Audio.Blocksize).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if s.Audio.Channels < 1 {
		return errors.Newf("channel count must be at least 1, got %d", s.Audio.Channels).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}
