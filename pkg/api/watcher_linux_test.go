//go:build linux

package api

import (
	"testing"

	"github.com/minroll/minroll/internal/fs"
	"github.com/minroll/minroll/internal/test"
	"golang.org/x/sys/unix"
)

func TestNotifyEvents(t *testing.T) {
	w := &notifyWatcher{
		fs:         fs.MockFS(nil),
		dirs:       map[int]string{1: "/src"},
		outputPath: "/src/out.js",
	}
	expectDirty := func(wd int32, mask uint32, name string, expected string) {
		t.Helper()
		test.AssertEqual(t, w.handleEvent(&unix.InotifyEvent{Wd: wd, Mask: mask}, name), expected)
	}

	expectDirty(1, unix.IN_MODIFY, "entry.js", "/src/entry.js")
	expectDirty(1, unix.IN_CLOSE_WRITE, "out.js", "")
	expectDirty(2, unix.IN_MODIFY, "entry.js", "")

	// Removing or renaming a directory changes the modules inside it
	expectDirty(1, unix.IN_DELETE|unix.IN_ISDIR, "lib", "/src/lib")
	expectDirty(1, unix.IN_MOVED_FROM|unix.IN_ISDIR, "lib", "/src/lib")
	expectDirty(1, unix.IN_DELETE|unix.IN_ISDIR, "node_modules", "")
	expectDirty(1, unix.IN_DELETE|unix.IN_ISDIR, ".git", "")
}
