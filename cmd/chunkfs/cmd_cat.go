package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/id"
)

var catOptions struct {
	Count uint64
}

var cmdCat = &cobra.Command{
	Use:   "cat [flags] ID",
	Short: "Print chunk contents to stdout",
	Long: `
The "cat" command materializes the chunk with the given id and streams its
contents to stdout. With --count n it follows the derived ids and prints n
consecutive chunks, which reassembles a file stored with "store". Whole chunks
are printed, so the output ends with the zero padding of the last chunk.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCat(cmd.Context(), globalOptions, args)
	},
}

func init() {
	cmdRoot.AddCommand(cmdCat)
	cmdCat.Flags().Uint64Var(&catOptions.Count, "count", 1, "`number` of consecutive chunks to print")
}

func runCat(ctx context.Context, gopts GlobalOptions, args []string) error {
	if len(args) != 1 {
		return errors.Fatal("ID not specified")
	}

	headID, err := id.Parse(args[0])
	if err != nil {
		return errors.Fatalf("unable to parse ID: %v", err)
	}

	p, err := OpenProvider(gopts)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	for n := uint64(0); n < catOptions.Count; n++ {
		chunkID := headID
		if n > 0 {
			chunkID = headID.DeriveN(n)
		}

		c, err := p.Materialize(ctx, chunkID)
		if err != nil {
			return err
		}

		rd := c.Reader()
		_, err = io.Copy(os.Stdout, rd)
		cerr := rd.Close()
		if err != nil {
			return errors.WithStack(err)
		}
		if cerr != nil {
			return cerr
		}
	}

	return nil
}
