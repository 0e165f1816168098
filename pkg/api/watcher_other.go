//go:build !linux

package api

import (
	"errors"

	"github.com/minroll/minroll/internal/fs"
	"github.com/minroll/minroll/internal/logger"
)

// Change notifications are only implemented for linux. Everything else uses
// the polling watcher.
type notifyWatcher struct{}

func newNotifyWatcher(fs.FS, string, string, func() []string, bool, logger.StderrColor) (*notifyWatcher, error) {
	return nil, errors.New("File change notifications are not supported on this platform")
}

func (*notifyWatcher) start() {}
func (*notifyWatcher) Stop()  {}
