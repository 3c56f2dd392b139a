package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/pflag"

	"github.com/chunkfs/chunkfs/internal/debug"
	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/provider"
	"github.com/chunkfs/chunkfs/internal/provider/cache"
	"github.com/chunkfs/chunkfs/internal/provider/local"
	"github.com/chunkfs/chunkfs/internal/provider/retry"
)

var version = "0.1.0-dev (compiled manually)"

// GlobalOptions hold all global options for chunkfs.
type GlobalOptions struct {
	Repo       string
	Quiet      bool
	Verbose    int
	NoCache    bool
	CacheSize  int
	CPUProfile string
}

var globalOptions GlobalOptions

func (opts *GlobalOptions) AddFlags(f *pflag.FlagSet) {
	f.StringVarP(&opts.Repo, "repo", "r", "", "`repository` to store chunks in (default: $CHUNKFS_REPOSITORY)")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not output comprehensive progress report")
	f.CountVarP(&opts.Verbose, "verbose", "v", "be verbose")
	f.BoolVar(&opts.NoCache, "no-cache", false, "do not keep materialized chunks in memory")
	f.IntVar(&opts.CacheSize, "cache-size", 32, "maximum `number` of chunks kept in memory")
	f.StringVar(&opts.CPUProfile, "cpu-profile", "", "write a CPU profile to `dir`")

	opts.Repo = os.Getenv("CHUNKFS_REPOSITORY")
}

// OpenProvider opens the repository named by the global options, wrapped with
// retries and, unless disabled, an in-memory chunk cache.
func OpenProvider(gopts GlobalOptions) (provider.Provider, error) {
	if gopts.Repo == "" {
		return nil, errors.Fatal("Please specify a repository location (-r or $CHUNKFS_REPOSITORY)")
	}

	debug.Log("opening repository at %v", gopts.Repo)

	be, err := local.Open(gopts.Repo)
	if err != nil {
		return nil, err
	}

	report := func(msg string, err error, d time.Duration) {
		if gopts.verbosity() >= 2 {
			Warnf("%v returned error, retrying after %v: %v\n", msg, d, err)
		}
	}

	var p provider.Provider = retry.New(be, 15*time.Minute, report)

	if !gopts.NoCache {
		p, err = cache.New(p, gopts.CacheSize)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// verbosity is set as follows:
//
//	0 means: don't print any messages except errors, this is used when --quiet is specified
//	1 is the default: print essential messages
//	2 means: print more messages, report minor things, this is used when --verbose is specified
func (opts *GlobalOptions) verbosity() int {
	switch {
	case opts.Quiet:
		return 0
	case opts.Verbose > 0:
		return 2
	default:
		return 1
	}
}

// Printf writes the message to the configured stdout stream.
func Printf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

// Verbosef calls Printf to write the message when the verbose flag is set.
func Verbosef(format string, args ...interface{}) {
	if globalOptions.verbosity() >= 2 {
		Printf(format, args...)
	}
}

// Warnf writes the message to the configured stderr stream.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

var prof interface{ Stop() }

func startProfile(gopts GlobalOptions) error {
	if gopts.CPUProfile == "" {
		return nil
	}

	prof = profile.Start(profile.CPUProfile, profile.ProfilePath(gopts.CPUProfile), profile.Quiet)
	return nil
}

func stopProfile() {
	if prof != nil {
		prof.Stop()
		prof = nil
	}
}
