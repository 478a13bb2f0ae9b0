package cache

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/jangelesg/wily/config"
)

const pebbleKeyPrefix = "index/"

// PebbleStore keeps every archiver's index in one pebble keyspace under the
// cache root. Suited to long histories, where rewriting a large JSON file
// on every save churns the filesystem.
type PebbleStore struct {
	root    string
	db      *pebble.DB
	decoded *lru.Cache[string, []Entry]
}

func NewPebbleStore(cfg *config.Config) (*PebbleStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	decoded, err := lru.New[string, []Entry](16)
	if err != nil {
		return nil, err
	}
	return &PebbleStore{root: cfg.CachePath, decoded: decoded}, nil
}

// open is deferred so Exists can answer before anything touches disk;
// pebble.Open materializes the directory as a side effect.
func (s *PebbleStore) open() (*pebble.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := pebble.Open(s.root, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "wily: open cache db")
	}
	s.db = db
	return db, nil
}

func pebbleKey(archiver string) []byte {
	return []byte(pebbleKeyPrefix + archiver)
}

func (s *PebbleStore) Exists() bool {
	info, err := os.Stat(s.root)
	return err == nil && info.IsDir()
}

func (s *PebbleStore) Create() error {
	_, err := s.open()
	return err
}

func (s *PebbleStore) HasIndex(archiver string) bool {
	db, err := s.open()
	if err != nil {
		return false
	}
	_, closer, err := db.Get(pebbleKey(archiver))
	if err != nil {
		return false
	}
	closer.Close()
	return true
}

func (s *PebbleStore) GetIndex(archiver string) ([]Entry, error) {
	Reads.WithLabelValues("pebble", archiver).Inc()
	if entries, ok := s.decoded.Get(archiver); ok {
		return append([]Entry(nil), entries...), nil
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	data, closer, err := db.Get(pebbleKey(archiver))
	if err == pebble.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoIndex, archiver)
	}
	if err != nil {
		Failures.WithLabelValues("pebble", archiver, "read").Inc()
		return nil, errors.Wrapf(err, "wily: read index for %s", archiver)
	}
	defer closer.Close()
	entries, err := decodeIndex(data)
	if err != nil {
		Failures.WithLabelValues("pebble", archiver, "decode").Inc()
		return nil, err
	}
	s.decoded.Add(archiver, append([]Entry(nil), entries...))
	return entries, nil
}

func (s *PebbleStore) StoreIndex(archiver string, entries []Entry) error {
	Writes.WithLabelValues("pebble", archiver).Inc()
	data, err := encodeIndex(entries)
	if err != nil {
		return err
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	if err := db.Set(pebbleKey(archiver), data, pebble.Sync); err != nil {
		Failures.WithLabelValues("pebble", archiver, "write").Inc()
		return errors.Wrapf(err, "wily: write index for %s", archiver)
	}
	s.decoded.Remove(archiver)
	return nil
}

func (s *PebbleStore) ListArchivers() ([]string, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	iter := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(pebbleKeyPrefix),
		UpperBound: []byte(pebbleKeyPrefix + "\xff"),
	})
	defer iter.Close()
	var names []string
	for valid := iter.First(); valid; valid = iter.Next() {
		names = append(names, strings.TrimPrefix(string(iter.Key()), pebbleKeyPrefix))
	}
	sort.Strings(names)
	return names, nil
}

func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
