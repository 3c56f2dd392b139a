package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/chunkfs/chunkfs/internal/debug"
	"github.com/chunkfs/chunkfs/internal/errors"
)

func init() {
	// don't import `go.uber.org/automaxprocs` to disable the log output
	_, _ = maxprocs.Set()
}

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "chunkfs",
	Short: "Content-addressed chunk storage",
	Long: `
chunkfs stores data in content-addressed 4 MiB chunks in a local repository.

The full documentation can be found in the repository's doc directory.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,

	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if globalOptions.Quiet && globalOptions.Verbose > 0 {
			return errors.Fatal("--quiet and --verbose cannot be specified at the same time")
		}

		return startProfile(globalOptions)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		stopProfile()
		return nil
	},
}

func init() {
	globalOptions.AddFlags(cmdRoot.PersistentFlags())
}

func main() {
	debug.Log("main %#v", os.Args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := cmdRoot.ExecuteContext(ctx)

	switch {
	case err == nil:
		return
	case errors.IsFatal(err):
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
