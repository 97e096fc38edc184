package main

import (
	"fmt"
	"os"

	"github.com/tphakala/plughost/cmd"
	"github.com/tphakala/plughost/internal/conf"
	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		return errors.ExitCode(err)
	}

	rootCmd := cmd.RootCommand(settings)
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errors.ErrNotRun) {
			return errors.ExitNotRun
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return errors.ExitCode(err)
	}

	// Cobra handles help and version itself and reports success; both
	// are informational and map to the not-run exit code.
	if wasInformational(os.Args[1:]) {
		return errors.ExitNotRun
	}
	return errors.ExitSuccess
}

// wasInformational reports whether the invocation only printed help or
// version output.
func wasInformational(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "help", "--help", "-h", "--version":
			return true
		}
	}
	return false
}
