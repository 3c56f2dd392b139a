package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chunkfs/chunkfs/internal/id"
)

var cmdList = &cobra.Command{
	Use:   "list",
	Short: "List all chunk ids in the repository",
	Long: `
The "list" command prints the id of every chunk in the repository, one per
line.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runList(cmd.Context(), globalOptions)
	},
}

func init() {
	cmdRoot.AddCommand(cmdList)
}

func runList(ctx context.Context, gopts GlobalOptions) error {
	p, err := OpenProvider(gopts)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	return p.List(ctx, func(chunkID id.ID) error {
		Printf("%v\n", chunkID)
		return nil
	})
}
