package main

import (
	"github.com/spf13/cobra"

	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/provider/local"
)

var cmdInit = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new repository",
	Long: `
The "init" command creates a new chunk repository in the directory given with
--repo.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runInit(globalOptions)
	},
}

func init() {
	cmdRoot.AddCommand(cmdInit)
}

func runInit(gopts GlobalOptions) error {
	if gopts.Repo == "" {
		return errors.Fatal("Please specify a repository location (-r or $CHUNKFS_REPOSITORY)")
	}

	be, err := local.Open(gopts.Repo)
	if err != nil {
		return err
	}
	defer func() { _ = be.Close() }()

	Verbosef("created chunk repository at %v\n", gopts.Repo)
	return nil
}
