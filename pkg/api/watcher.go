package api

// This file implements a polling file watcher (i.e. it detects when files are
// changed by repeatedly checking their contents). It's used where file change
// notifications aren't available, and it only knows about the files that
// were loaded by the previous build.
//
// Each scan only checks a random subset of the files, so a change to a file
// will be picked up soon after the change is made but not necessarily
// instantly. After a change has been noticed the change's path goes on a
// short list of recently changed paths which are checked on every scan, so
// further changes to recently changed files are noticed almost instantly.

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minroll/minroll/internal/fs"
	"github.com/minroll/minroll/internal/logger"
)

// The time to wait between watch intervals
const watchIntervalSleep = 100 * time.Millisecond

// The maximum number of recently-edited items to check every interval
const maxRecentItemCount = 16

// The minimum number of non-recent items to check every interval
const minItemCountPerIter = 64

// The maximum number of intervals before a change is detected
const maxIntervalsBeforeUpdate = 20

// Maps each absolute path to a function that returns the path again if the
// file is different now than it was during the build, or "" otherwise
type watchData map[string]func() string

func makeWatchData(realFS fs.FS, paths []string) watchData {
	data := make(watchData, len(paths))
	for _, path := range paths {
		path := path
		contents, err := realFS.ReadFile(path)
		data[path] = func() string {
			newContents, newErr := realFS.ReadFile(path)
			if (err == nil) != (newErr == nil) || newContents != contents {
				return path
			}
			return ""
		}
	}
	return data
}

func logWatchEvent(shouldLog bool, useColor logger.StderrColor, text string) {
	if shouldLog {
		logger.PrintTextWithColor(os.Stderr, useColor, func(colors logger.Colors) string {
			return fmt.Sprintf("%s[watch] %s%s\n", colors.Dim, text, colors.Reset)
		})
	}
}

type pollWatcher struct {
	data              watchData
	fs                fs.FS
	rebuild           func() []string
	recentItems       []string
	itemsToScan       []string
	mutex             sync.Mutex
	itemsPerIteration int
	shouldStop        int32
	shouldLog         bool
	useColor          logger.StderrColor
	stopWaitGroup     sync.WaitGroup
}

func (w *pollWatcher) setWatchData(data watchData) {
	defer w.mutex.Unlock()
	w.mutex.Lock()

	// Print something for the end of the first build
	if w.data == nil {
		logWatchEvent(w.shouldLog, w.useColor, "build finished, watching for changes...")
	}

	w.data = data
	w.itemsToScan = w.itemsToScan[:0] // Reuse memory

	// Remove any recent items that weren't a part of the latest build
	end := 0
	for _, path := range w.recentItems {
		if data[path] != nil {
			w.recentItems[end] = path
			end++
		}
	}
	w.recentItems = w.recentItems[:end]
}

func (w *pollWatcher) start() {
	w.stopWaitGroup.Add(1)

	go func() {
		for atomic.LoadInt32(&w.shouldStop) == 0 {
			// Sleep for the watch interval
			time.Sleep(watchIntervalSleep)

			// Rebuild if we're dirty
			if absPath := w.tryToFindDirtyPath(); absPath != "" {
				logWatchEvent(w.shouldLog, w.useColor, fmt.Sprintf("build started (change: %q)", fs.PrettyPath(w.fs, absPath)))
				w.setWatchData(makeWatchData(w.fs, w.rebuild()))
				logWatchEvent(w.shouldLog, w.useColor, "build finished")
			}
		}

		w.stopWaitGroup.Done()
	}()
}

func (w *pollWatcher) Stop() {
	atomic.StoreInt32(&w.shouldStop, 1)
	w.stopWaitGroup.Wait()
}

func (w *pollWatcher) tryToFindDirtyPath() string {
	defer w.mutex.Unlock()
	w.mutex.Lock()

	// If we ran out of items to scan, fill the items back up in a random order
	if len(w.itemsToScan) == 0 {
		items := w.itemsToScan[:0] // Reuse memory
		for path := range w.data {
			items = append(items, path)
		}
		rand.Shuffle(len(items), func(i int, j int) {
			items[i], items[j] = items[j], items[i]
		})
		w.itemsToScan = items

		// Determine how many items to check every iteration, rounded up
		perIter := (len(items) + maxIntervalsBeforeUpdate - 1) / maxIntervalsBeforeUpdate
		if perIter < minItemCountPerIter {
			perIter = minItemCountPerIter
		}
		w.itemsPerIteration = perIter
	}

	// Always check all recent items every iteration
	for i, path := range w.recentItems {
		if dirtyPath := w.data[path](); dirtyPath != "" {
			// Move this path to the back of the list (i.e. the "most recent" position)
			copy(w.recentItems[i:], w.recentItems[i+1:])
			w.recentItems[len(w.recentItems)-1] = path
			return dirtyPath
		}
	}

	// Check a constant number of items every iteration
	remainingCount := len(w.itemsToScan) - w.itemsPerIteration
	if remainingCount < 0 {
		remainingCount = 0
	}
	toCheck, remaining := w.itemsToScan[remainingCount:], w.itemsToScan[:remainingCount]
	w.itemsToScan = remaining

	// Check if any of the entries in this iteration have been modified
	for _, path := range toCheck {
		if dirtyPath := w.data[path](); dirtyPath != "" {
			// Mark this item as recent by adding it to the back of the list
			w.recentItems = append(w.recentItems, path)
			if len(w.recentItems) > maxRecentItemCount {
				// Remove items from the front of the list when we hit the limit
				copy(w.recentItems, w.recentItems[1:])
				w.recentItems = w.recentItems[:maxRecentItemCount]
			}
			return dirtyPath
		}
	}
	return ""
}
