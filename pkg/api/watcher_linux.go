//go:build linux

package api

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	minfs "github.com/minroll/minroll/internal/fs"
	"github.com/minroll/minroll/internal/logger"
	"golang.org/x/sys/unix"
)

const notifyMask = unix.IN_MODIFY | unix.IN_CLOSE_WRITE | unix.IN_CREATE | unix.IN_DELETE |
	unix.IN_MOVED_FROM | unix.IN_MOVED_TO | unix.IN_DELETE_SELF

// Editors often save a file with several writes in a row. A rebuild starts
// once no event has arrived for this long.
const notifyDebounce = 50 * time.Millisecond

// notifyWatcher uses inotify to watch every directory under a root directory.
// Directories created later are watched as soon as they appear.
type notifyWatcher struct {
	fd      int
	fs      minfs.FS
	rebuild func() []string
	dirs    map[int]string

	// Writing the output file must not trigger another build
	outputPath string

	mutex     sync.Mutex
	shouldLog bool
	useColor  logger.StderrColor

	shouldStop    int32
	stopWaitGroup sync.WaitGroup
}

func newNotifyWatcher(realFS minfs.FS, root string, outputPath string, rebuild func() []string, shouldLog bool, useColor logger.StderrColor) (*notifyWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init failed: %v", err)
	}

	w := &notifyWatcher{
		fd:         fd,
		fs:         realFS,
		rebuild:    rebuild,
		dirs:       make(map[int]string),
		outputPath: outputPath,
		shouldLog:  shouldLog,
		useColor:   useColor,
	}
	if err := w.addTree(root); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return w, nil
}

func isIgnoredDir(name string) bool {
	return name == "node_modules" || (strings.HasPrefix(name, ".") && name != ".")
}

func (w *notifyWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// The root must exist but anything below it may vanish while walking
			if path == root {
				return err
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && isIgnoredDir(entry.Name()) {
			return filepath.SkipDir
		}
		return w.addDir(path)
	})
}

func (w *notifyWatcher) addDir(path string) error {
	wd, err := unix.InotifyAddWatch(w.fd, path, notifyMask)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %v", path, err)
	}
	w.mutex.Lock()
	w.dirs[wd] = path
	w.mutex.Unlock()
	return nil
}

func (w *notifyWatcher) start() {
	logWatchEvent(w.shouldLog, w.useColor, "build finished, watching for changes...")
	w.stopWaitGroup.Add(1)

	go func() {
		defer w.stopWaitGroup.Done()
		defer unix.Close(w.fd)

		buffer := make([]byte, (unix.SizeofInotifyEvent+256)*16)
		dirtyPath := ""
		var lastEvent time.Time

		for atomic.LoadInt32(&w.shouldStop) == 0 {
			n, err := unix.Read(w.fd, buffer)
			if err != nil {
				if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
					return
				}

				// Nothing to read right now, so this is a good time to rebuild
				if dirtyPath != "" && time.Since(lastEvent) >= notifyDebounce {
					logWatchEvent(w.shouldLog, w.useColor, fmt.Sprintf("build started (change: %q)", minfs.PrettyPath(w.fs, dirtyPath)))
					w.rebuild()
					logWatchEvent(w.shouldLog, w.useColor, "build finished")
					dirtyPath = ""
					continue
				}
				time.Sleep(10 * time.Millisecond)
				continue
			}

			for offset := 0; offset+unix.SizeofInotifyEvent <= n; {
				event := (*unix.InotifyEvent)(unsafe.Pointer(&buffer[offset]))
				nameBytes := buffer[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+int(event.Len)]
				offset += unix.SizeofInotifyEvent + int(event.Len)

				if path := w.handleEvent(event, strings.TrimRight(string(nameBytes), "\x00")); path != "" {
					if dirtyPath == "" {
						dirtyPath = path
					}
					lastEvent = time.Now()
				}
			}
		}
	}()
}

// Returns the path of the file that changed, if any
func (w *notifyWatcher) handleEvent(event *unix.InotifyEvent, name string) string {
	w.mutex.Lock()
	dir, ok := w.dirs[int(event.Wd)]
	if ok && event.Mask&(unix.IN_DELETE_SELF|unix.IN_IGNORED) != 0 {
		delete(w.dirs, int(event.Wd))
	}
	w.mutex.Unlock()
	if !ok {
		return ""
	}

	path := dir
	if name != "" {
		path = filepath.Join(dir, name)
	}

	if event.Mask&unix.IN_ISDIR != 0 {
		if isIgnoredDir(name) {
			return ""
		}
		if event.Mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
			w.addTree(path)
		}

		// Modules inside a directory that went away or moved in have changed
		if event.Mask&(unix.IN_DELETE|unix.IN_MOVED_FROM|unix.IN_MOVED_TO) != 0 {
			return path
		}
		return ""
	}
	if event.Mask&notifyMask == 0 || path == w.outputPath {
		return ""
	}
	return path
}

func (w *notifyWatcher) Stop() {
	atomic.StoreInt32(&w.shouldStop, 1)
	w.stopWaitGroup.Wait()
}
