package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minroll/minroll/internal/fs"
)

// This cache uses information from the "stat" syscall to try to avoid re-
// reading files from the file system during subsequent builds if the file
// hasn't changed. The assumption is reading the file metadata is faster than
// reading the file contents.

type FSCache struct {
	entries *lru.Cache[string, *fsEntry]
}

type fsEntry struct {
	contents       string
	modKey         fs.ModKey
	isModKeyUsable bool
}

func (c *FSCache) ReadFile(fs fs.FS, path string) (string, error) {
	entry, _ := c.entries.Get(path)

	// If the file's modification key hasn't changed since it was cached, assume
	// the contents of the file are also the same and skip reading the file.
	modKey, modKeyErr := fs.ModKey(path)
	if entry != nil && entry.isModKeyUsable && modKeyErr == nil && entry.modKey == modKey {
		return entry.contents, nil
	}

	contents, err := fs.ReadFile(path)
	if err != nil {
		c.entries.Remove(path)
		return "", err
	}

	c.entries.Add(path, &fsEntry{
		contents:       contents,
		modKey:         modKey,
		isModKeyUsable: modKeyErr == nil,
	})
	return contents, nil
}

func (c *FSCache) Len() int {
	return c.entries.Len()
}
