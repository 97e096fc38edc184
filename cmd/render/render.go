// Package render implements the render command: the offline processing
// run that drives the plugin chain from input to output.
package render

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/conf"
	"github.com/tphakala/plughost/internal/engine"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/midi"
	"github.com/tphakala/plughost/internal/plugin"
)

// Command creates the render command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Process audio through a plugin chain",
		Long: `Render pulls audio blocks from the input source (or silence for an
instrument chain), drives them through the plugin chain in order and
writes the processed result to the output file. MIDI events from a
standard MIDI file are delivered block-aligned ahead of the audio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case sig := <-sigChan:
					fmt.Printf("\nReceived signal %v, stopping after the current block...\n", sig)
					cancel()
				case <-ctx.Done():
				}
			}()

			err := run(settings, ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the render command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Input.Path, "input", "i", viper.GetString("input.path"), "Input sample source")
	cmd.Flags().StringVarP(&settings.Output.Path, "output", "o", viper.GetString("output.path"), "Output sample source")
	cmd.Flags().StringVarP(&settings.MIDI.Path, "midi-file", "m", viper.GetString("midi.path"), "MIDI source file")
	cmd.Flags().StringVarP(&settings.Plugins.Chain, "plugin", "p", viper.GetString("plugins.chain"), "Plugin chain, delimited by ',' or ';'")
	cmd.Flags().BoolVar(&settings.Plugins.DisplayInfo, "display-info", viper.GetBool("plugins.displayinfo"), "Dump plugin metadata before running")
	cmd.Flags().Float64Var(&settings.Plugins.TailSeconds, "tail", viper.GetFloat64("plugins.tailseconds"), "Keep driving silence for this many seconds after input ends")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// run assembles the engine configuration from the settings and executes
// the processing loop.
func run(settings *conf.Settings, ctx context.Context) error {
	if err := settings.ValidateAudio(); err != nil {
		return err
	}

	audioSettings := &audio.Settings{
		SampleRate:  settings.Audio.SampleRate,
		Blocksize:   settings.Audio.Blocksize,
		NumChannels: settings.Audio.Channels,
	}

	chain := plugin.NewChain()
	if settings.Plugins.Chain == "" {
		return errors.Newf("No plugins loaded").
			Component("cmd").
			Category(errors.CategoryMissingOption).
			Build()
	}
	if err := chain.AddFromArgumentString(settings.Plugins.Chain); err != nil {
		return err
	}

	if settings.Output.Path == "" {
		return errors.Newf("no output source given").
			Component("cmd").
			Category(errors.CategoryMissingOption).
			Build()
	}
	output, err := audio.NewSource(settings.Output.Path, audioSettings)
	if err != nil {
		return err
	}

	var input audio.Source
	if settings.Input.Path != "" {
		input, err = audio.NewSource(settings.Input.Path, audioSettings)
		if err != nil {
			return err
		}
	}

	var sequence *midi.Sequence
	if settings.MIDI.Path != "" {
		source := midi.NewFileSource(settings.MIDI.Path, audioSettings.SampleRate)
		if err := source.Open(); err != nil {
			return err
		}
		sequence = midi.NewSequence()
		if err := source.ReadAll(sequence); err != nil {
			return err
		}
	}

	eng := engine.New(engine.Config{
		Settings:    audioSettings,
		Input:       input,
		Output:      output,
		Chain:       chain,
		MIDI:        sequence,
		DisplayInfo: settings.Plugins.DisplayInfo,
		TailFrames:  int(settings.Plugins.TailSeconds * audioSettings.SampleRate),
	})
	return eng.Run(ctx)
}
