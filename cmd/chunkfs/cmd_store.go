package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/id"
)

var cmdStore = &cobra.Command{
	Use:   "store [flags] [file]",
	Short: "Store a file or stdin as chunks",
	Long: `
The "store" command splits its input into 4 MiB chunks and persists them in
the repository. The first chunk's id is the input's head id; the ids of all
following chunks are derived from it, so the head id alone addresses the
whole input. The head id is printed on stdout.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStore(cmd.Context(), globalOptions, args)
	},
}

func init() {
	cmdRoot.AddCommand(cmdStore)
}

func runStore(ctx context.Context, gopts GlobalOptions, args []string) error {
	if len(args) > 1 {
		return errors.Fatal("store takes at most one file argument")
	}

	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.WithStack(err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	p, err := OpenProvider(gopts)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	headID := id.NewRandom()

	// the producer fills one chunk at a time while closed chunks are
	// persisted in the background
	wg, wgCtx := errgroup.WithContext(ctx)
	pending := make(chan *chunk.Chunk)

	wg.Go(func() error {
		for c := range pending {
			if err := p.Persist(wgCtx, c); err != nil {
				return err
			}
			Verbosef("persisted chunk %v\n", c.ID())
		}
		return p.Flush(wgCtx)
	})

	var n uint64
	err = func() error {
		defer close(pending)

		for {
			chunkID := headID
			if n > 0 {
				chunkID = headID.DeriveN(n)
			}

			c := chunk.New(chunkID)
			w := c.Writer()

			copied, err := io.Copy(w, io.LimitReader(in, chunk.ChunkSize))
			cerr := w.Close()
			if err != nil {
				return errors.WithStack(err)
			}
			if cerr != nil {
				return cerr
			}

			if copied == 0 && n > 0 {
				return nil
			}
			n++

			select {
			case pending <- c:
			case <-wgCtx.Done():
				return wgCtx.Err()
			}

			if copied < chunk.ChunkSize {
				return nil
			}
		}
	}()

	if werr := wg.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return err
	}

	Verbosef("stored %d chunk(s)\n", n)
	Printf("%v\n", headID)
	return nil
}
