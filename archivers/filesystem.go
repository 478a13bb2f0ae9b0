package archivers

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash"
)

// Filesystem is the fallback archiver for trees without version control.
// It produces a single synthetic revision keyed by a content hash of the
// tree, so re-archiving an unchanged tree yields the same key.
type Filesystem struct{}

func (f *Filesystem) Name() string { return "filesystem" }

func (f *Filesystem) Revisions(path string, max int) ([]*Revision, error) {
	h := xxhash.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".wily":
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		// hash path names too, so renames change the key
		if _, err := io.WriteString(h, rel); err != nil {
			return err
		}
		file, err := os.Open(p)
		if err != nil {
			return err
		}
		_, err = io.Copy(h, file)
		file.Close()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("wily: hash tree %s: %w", path, err)
	}
	return []*Revision{{
		Key:        fmt.Sprintf("%016x", h.Sum64()),
		AuthorName: "filesystem",
		Date:       time.Now().UTC(),
		Message:    "snapshot of untracked tree",
	}}, nil
}
