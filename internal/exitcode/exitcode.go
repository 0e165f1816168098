// Package exitcode maps errors returned from the command-line front end to
// process exit codes.
package exitcode

import "errors"

const (
	Success     = 0
	BuildFailed = 1
	Usage       = 2
)

// Coder is an error that knows which exit code it should produce.
type Coder interface {
	error
	ExitCode() int
}

// ErrBuildFailed is returned after the build logged at least one error. The
// messages themselves have already been printed.
var ErrBuildFailed = Set(errors.New("Build failed"), BuildFailed)

// Get returns the exit code for an error. A nil error is a success, errors
// anywhere in the chain implementing Coder choose their own code, and
// anything else counts as a failed build.
func Get(err error) int {
	if err == nil {
		return Success
	}
	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return BuildFailed
}

// Set attaches an exit code to an error without changing its message.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coded{err, code}
}

type coded struct {
	error
	code int
}

func (c coded) ExitCode() int {
	return c.code
}

func (c coded) Unwrap() error {
	return c.error
}
