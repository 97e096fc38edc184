// Package formats implements the command listing supported file types.
package formats

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/plughost/internal/audio"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/plugin"
)

// Command creates a new cobra.Command listing supported source types.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List supported file types and built-in plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Supported audio file types:")
			for _, ext := range audio.ListFileTypes() {
				fmt.Printf("  %s\n", ext)
			}
			fmt.Println("MIDI file types:")
			fmt.Println("  .mid (Type-0 and Type-1)")
			fmt.Println("Built-in plugins:")
			for _, name := range plugin.InternalNames() {
				fmt.Printf("  %s\n", name)
			}
			return errors.ErrNotRun
		},
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
