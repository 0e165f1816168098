// Package cli implements the command-line interface. It is separate from the
// binary so that other tools can embed the same argument handling.
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/minroll/minroll/internal/exitcode"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/pkg/api"
)

// Run parses the arguments and runs a build. It returns the exit code. In
// watch mode it only returns after an interrupt signal.
func Run(osArgs []string) int {
	err := runImpl(osArgs)
	if exitcode.Get(err) == exitcode.Usage {
		logger.PrintErrorToStderr(osArgs, err.Error())
	}
	return exitcode.Get(err)
}

func runImpl(osArgs []string) error {
	options := newBuildOptions()
	watch, err := parseOptionsImpl(osArgs, &options)
	if err != nil {
		return exitcode.Set(err, exitcode.Usage)
	}

	if watch == watchNone {
		// The output has already been written if there were no errors
		if result := api.Build(options); len(result.Errors) > 0 {
			return exitcode.ErrBuildFailed
		}
		return nil
	}

	_, handle := api.Watch(options, api.WatchOptions{Poll: watch == watchPoll})
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals
	handle.Stop()
	return nil
}
