// cmd.go viper root command code
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/plughost/cmd/authors"
	"github.com/tphakala/plughost/cmd/formats"
	"github.com/tphakala/plughost/cmd/license"
	"github.com/tphakala/plughost/cmd/render"
	"github.com/tphakala/plughost/internal/conf"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plughost",
		Short: "Offline audio plugin host",
		Long: `plughost loads a chain of audio-effect and instrument plugins, streams
audio blocks (and MIDI events) through it and writes the processed
result to an output file, without an interactive DAW.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Running with no arguments is equivalent to asking for help.
			if err := cmd.Help(); err != nil {
				return err
			}
			return errors.ErrNotRun
		},
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		logging.Default().Error("error setting up flags", "error", err)
	}

	subcommands := []*cobra.Command{
		render.Command(settings),
		formats.Command(),
		license.Command(),
		authors.Command(),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The license and authors commands skip log reconfiguration.
		if cmd.Name() == "license" || cmd.Name() == "authors" {
			return nil
		}
		return settings.ApplyLogSettings()
	}

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "verbose", "v", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&settings.Quiet, "quiet", "q", viper.GetBool("quiet"), "Only log errors")
	rootCmd.PersistentFlags().StringVar(&settings.ColorScheme, "color", viper.GetString("color"), "Enable colored logging with the given scheme (dark, light, none)")
	rootCmd.PersistentFlags().IntVarP(&settings.Audio.Blocksize, "blocksize", "b", viper.GetInt("audio.blocksize"), "Processing blocksize in frames")
	rootCmd.PersistentFlags().IntVarP(&settings.Audio.Channels, "channels", "c", viper.GetInt("audio.channels"), "Channel count")
	rootCmd.PersistentFlags().Float64VarP(&settings.Audio.SampleRate, "sample-rate", "r", viper.GetFloat64("audio.samplerate"), "Sample rate in Hz")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
