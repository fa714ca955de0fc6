package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase image stems under a model directory to filesystem
// paths. Alpha-capable formats (PNG, TGA) take priority over JPEG for the
// same stem.
type Index struct {
	root    string
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for loadable image files.
func BuildIndex(dir string) *Index {
	idx := &Index{root: dir, entries: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !loadableExt(ext) {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists {
			idx.entries[stem] = path
		} else if hasAlpha(ext) && !hasAlpha(strings.ToLower(filepath.Ext(existing))) {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

func loadableExt(ext string) bool {
	switch ext {
	case ".png", ".tga", ".jpg", ".jpeg":
		return true
	}
	return false
}

func hasAlpha(ext string) bool {
	return ext == ".png" || ext == ".tga"
}

// ResolvePath returns the filesystem path for a texture reference, or
// ("", false). References may be package:// URIs, paths relative to the
// model directory, absolute paths, or bare names matched by stem.
func (idx *Index) ResolvePath(ref string) (string, bool) {
	ref = strings.ReplaceAll(ref, "\\", "/")

	if rest, ok := strings.CutPrefix(ref, "package://"); ok {
		// Drop the package name; the remainder is relative to the model dir.
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[i+1:]
		}
		ref = rest
	} else if rest, ok := strings.CutPrefix(ref, "file://"); ok {
		ref = rest
	}

	if filepath.IsAbs(ref) {
		if fileExists(ref) {
			return ref, true
		}
	} else if idx.root != "" {
		full := filepath.Join(idx.root, filepath.FromSlash(ref))
		if fileExists(full) {
			return full, true
		}
	}

	base := filepath.Base(ref)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	path, ok := idx.entries[stem]
	return path, ok
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Len returns the number of indexed images.
func (idx *Index) Len() int {
	return len(idx.entries)
}
