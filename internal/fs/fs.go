package fs

import (
	"errors"
	"fmt"
	"strings"
)

type FS interface {
	ReadFile(path string) (contents string, err error)

	// This is a key made from the information returned by "stat". It is
	// intended to be different if the file has been edited, and to otherwise
	// be equal if the file has not been edited. It should usually work, but
	// no guarantees.
	ModKey(path string) (ModKey, error)

	// This is part of the interface because the mock interface used for tests
	// should not depend on file system behavior (i.e. different slashes for
	// Windows) while the real interface should.
	IsAbs(path string) bool
	Abs(path string) (string, bool)
	Dir(path string) string
	Base(path string) string
	Ext(path string) string
	Join(parts ...string) string
	Cwd() string
	Rel(base string, target string) (string, bool)
}

type ModKey struct {
	// What gets filled in here is OS-dependent
	inode      uint64
	size       int64
	mtime_sec  int64
	mtime_nsec int64
	mode       uint32
	uid        uint32
}

// Some file systems have a time resolution of only a few seconds. If a mtime
// value is too new, we won't be able to tell if it has been recently modified
// or not. So we only use mtimes for comparison if they are sufficiently old.
// Apparently the FAT file system has a resolution of two seconds according to
// this article: https://en.wikipedia.org/wiki/Stat_(system_call).
const modKeySafetyGap = 3 // In seconds
var modKeyUnusable = errors.New("The modification key is unusable")

var ErrNotExist = errors.New("The file does not exist")

// PrettyPath turns an absolute path into something suitable for error
// messages: relative to the current directory when possible, always with
// forward slashes.
func PrettyPath(fs FS, path string) string {
	if cwd := fs.Cwd(); cwd != "" {
		if rel, ok := fs.Rel(cwd, path); ok && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return strings.ReplaceAll(path, "\\", "/")
}

// ReadError is the error shown when a module cannot be loaded.
func ReadError(path string) string {
	return fmt.Sprintf("Could not read from file: %s", path)
}
