package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jangelesg/wily/config"
)

const indexFile = "index.json"

// FileStore keeps one directory per archiver under the cache root:
//
//	<cache_path>/<archiver>/index.json
//
// This is the default backend; the layout is trivially inspectable.
type FileStore struct {
	root string
}

func NewFileStore(cfg *config.Config) (*FileStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FileStore{root: cfg.CachePath}, nil
}

func (s *FileStore) Exists() bool {
	info, err := os.Stat(s.root)
	return err == nil && info.IsDir()
}

func (s *FileStore) Create() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errors.Wrap(err, "wily: create cache root")
	}
	return nil
}

func (s *FileStore) indexPath(archiver string) string {
	return filepath.Join(s.root, archiver, indexFile)
}

func (s *FileStore) HasIndex(archiver string) bool {
	_, err := os.Stat(s.indexPath(archiver))
	return err == nil
}

func (s *FileStore) GetIndex(archiver string) ([]Entry, error) {
	Reads.WithLabelValues("file", archiver).Inc()
	data, err := os.ReadFile(s.indexPath(archiver))
	if err != nil {
		Failures.WithLabelValues("file", archiver, "read").Inc()
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoIndex, archiver)
		}
		return nil, errors.Wrapf(err, "wily: read index for %s", archiver)
	}
	entries, err := decodeIndex(data)
	if err != nil {
		Failures.WithLabelValues("file", archiver, "decode").Inc()
		return nil, err
	}
	return entries, nil
}

func (s *FileStore) StoreIndex(archiver string, entries []Entry) error {
	Writes.WithLabelValues("file", archiver).Inc()
	data, err := encodeIndex(entries)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.root, archiver)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		Failures.WithLabelValues("file", archiver, "write").Inc()
		return errors.Wrapf(err, "wily: create index dir for %s", archiver)
	}
	// write-then-rename keeps the total overwrite atomic; the uuid suffix
	// keeps concurrent writers from tripping over each other's temp file
	tmp := filepath.Join(dir, indexFile+"."+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		Failures.WithLabelValues("file", archiver, "write").Inc()
		return errors.Wrapf(err, "wily: write index for %s", archiver)
	}
	if err := os.Rename(tmp, filepath.Join(dir, indexFile)); err != nil {
		Failures.WithLabelValues("file", archiver, "write").Inc()
		os.Remove(tmp)
		return errors.Wrapf(err, "wily: replace index for %s", archiver)
	}
	return nil
}

func (s *FileStore) ListArchivers() ([]string, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "wily: list archivers")
	}
	var names []string
	for _, d := range dirents {
		if d.IsDir() && s.HasIndex(d.Name()) {
			names = append(names, d.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }
