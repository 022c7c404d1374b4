package site

import (
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFile is one regular file of the site output, with the object it becomes.
type LocalFile struct {
	Path        string // path on disk
	Key         string
	ContentType string
	Size        int64
}

// ListFiles enumerates localRoot recursively in lexical order. localRoot is resolved to
// an absolute, clean path first and enumerated paths are relative to its parent, so each
// one starts with the root's own name and KeyForPath strips exactly that segment. This
// holds for spellings like ".", "./_site" or "_site/". Directories, including symlinks
// to directories, are skipped; skip is consulted with the derived key.
func ListFiles(localRoot string, skip func(key string) bool) ([]LocalFile, error) {
	abs, err := filepath.Abs(localRoot)
	if err != nil {
		return nil, err
	}
	parent := filepath.Dir(abs)
	base := filepath.Base(abs)
	fsys := os.DirFS(parent)

	files := make([]LocalFile, 0)
	err = fs.WalkDir(fsys, filepath.ToSlash(base), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := fs.Stat(fsys, p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		key := KeyForPath(p)
		if skip != nil && skip(key) {
			return nil
		}
		files = append(files, LocalFile{
			Path:        filepath.Join(parent, filepath.FromSlash(p)),
			Key:         key,
			ContentType: ContentTypeFor(p),
			Size:        info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
