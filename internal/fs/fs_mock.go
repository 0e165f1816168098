package fs

// This is a mock implementation of the "fs" module for use with tests. It
// uses forward slashes on all platforms and never touches the disk.

import (
	"errors"
	"path"
	"strings"
)

type mockFS struct {
	files map[string]string
}

func MockFS(input map[string]string) FS {
	files := make(map[string]string, len(input))
	for k, v := range input {
		files[path.Clean(k)] = v
	}
	return &mockFS{files}
}

func (fs *mockFS) ReadFile(p string) (string, error) {
	contents, ok := fs.files[path.Clean(p)]
	if !ok {
		return "", ErrNotExist
	}
	return contents, nil
}

func (fs *mockFS) ModKey(string) (ModKey, error) {
	return ModKey{}, errors.New("This is not available during tests")
}

func (*mockFS) IsAbs(p string) bool {
	return path.IsAbs(p)
}

func (*mockFS) Abs(p string) (string, bool) {
	return path.Clean(path.Join("/", p)), true
}

func (*mockFS) Dir(p string) string {
	return path.Dir(p)
}

func (*mockFS) Base(p string) string {
	return path.Base(p)
}

func (*mockFS) Ext(p string) string {
	return path.Ext(p)
}

func (*mockFS) Join(parts ...string) string {
	return path.Clean(path.Join(parts...))
}

func (*mockFS) Cwd() string {
	return "/"
}

func splitOnSlash(p string) (string, string) {
	if slash := strings.IndexByte(p, '/'); slash != -1 {
		return p[:slash], p[slash+1:]
	}
	return p, ""
}

func (*mockFS) Rel(base string, target string) (string, bool) {
	base = path.Clean(base)
	target = path.Clean(target)

	// Go's implementation does these checks
	if base == target {
		return ".", true
	}
	if base == "." {
		base = ""
	}

	// Go's implementation fails when this condition is false. I believe this
	// is because of this part of the contract, from Go's documentation: "An
	// error is returned if targpath can't be made relative to basepath or if
	// knowing the current working directory would be necessary to compute it."
	if (len(base) > 0 && base[0] == '/') != (len(target) > 0 && target[0] == '/') {
		return "", false
	}

	// Find the common parent directory
	for {
		bHead, bTail := splitOnSlash(base)
		tHead, tTail := splitOnSlash(target)
		if bHead != tHead {
			break
		}
		base = bTail
		target = tTail
	}

	// Stop now if base is a subpath of target
	if base == "" {
		return target, true
	}

	// Traverse up to the common parent
	commonParent := strings.Repeat("../", strings.Count(base, "/")+1)

	// Stop now if target is a subpath of base
	if target == "" {
		return commonParent[:len(commonParent)-1], true
	}

	// Otherwise, down to the parent
	return commonParent + target, true
}
