package fs

import (
	"os"
	"path/filepath"
)

type realFS struct {
	// For the current working directory
	cwd string
}

func realpath(path string) string {
	dir := filepath.Dir(path)
	if dir == path {
		return path
	}
	dir = realpath(dir)
	path = filepath.Join(dir, filepath.Base(path))
	if link, err := os.Readlink(path); err == nil {
		if filepath.IsAbs(link) {
			return link
		}
		return filepath.Join(dir, link)
	}
	return path
}

func RealFS() FS {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	} else {
		// Resolve symlinks in the current working directory so that pretty
		// paths computed against it line up with absolute input paths
		cwd = realpath(cwd)
	}
	return &realFS{cwd: cwd}
}

func (fs *realFS) ReadFile(path string) (string, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotExist
		}
		return "", err
	}

	// Skip over a UTF-8 byte order mark
	contents := string(buffer)
	if len(contents) >= 3 && contents[:3] == "\xEF\xBB\xBF" {
		contents = contents[3:]
	}
	return contents, nil
}

func (fs *realFS) ModKey(path string) (ModKey, error) {
	return modKey(path)
}

func (*realFS) IsAbs(p string) bool {
	return filepath.IsAbs(p)
}

func (fs *realFS) Abs(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(fs.cwd, p)
	}
	return filepath.Clean(p), true
}

func (*realFS) Dir(p string) string {
	return filepath.Dir(p)
}

func (*realFS) Base(p string) string {
	return filepath.Base(p)
}

func (*realFS) Ext(p string) string {
	return filepath.Ext(p)
}

func (*realFS) Join(parts ...string) string {
	return filepath.Clean(filepath.Join(parts...))
}

func (fs *realFS) Cwd() string {
	return fs.cwd
}

func (*realFS) Rel(base string, target string) (string, bool) {
	if rel, err := filepath.Rel(base, target); err == nil {
		return rel, true
	}
	return "", false
}
