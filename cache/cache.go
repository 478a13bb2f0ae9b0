// Package cache persists revision indexes. One index per archiver, stored
// as a checksummed JSON document; StoreIndex always replaces the whole
// list, there is no incremental append. Two backends implement the same
// Store contract: a plain file tree and a pebble keyspace.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrCorruptIndex = errors.New("wily: corrupt index document")
	ErrNoIndex      = errors.New("wily: no index for archiver")
)

var Reads = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wily",
	Subsystem: "cache",
	Name:      "reads",
}, []string{"store", "archiver"})

var Writes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wily",
	Subsystem: "cache",
	Name:      "writes",
}, []string{"store", "archiver"})

var Failures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wily",
	Subsystem: "cache",
	Name:      "failures",
}, []string{"store", "archiver", "op"})

// Entry is the flat persisted form of one indexed revision.
type Entry struct {
	Revision    string    `json:"revision"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Date        time.Time `json:"date"`
	Message     string    `json:"message"`
	Operators   []string  `json:"operators,omitempty"`
}

// Store is the persistence backend for revision indexes. Single writer per
// archiver; the last StoreIndex wins at whole-list granularity.
type Store interface {
	// Exists reports whether the backing location has been created.
	Exists() bool
	// Create materializes the backing location. Idempotent.
	Create() error
	HasIndex(archiver string) bool
	GetIndex(archiver string) ([]Entry, error)
	StoreIndex(archiver string, entries []Entry) error
	// ListArchivers returns the archiver names with a stored index,
	// sorted lexicographically.
	ListArchivers() ([]string, error)
	Close() error
}

// document is the serialized envelope. The checksum covers the raw entries
// payload exactly as written, so any torn or hand-edited file is detected
// on the next read.
type document struct {
	Checksum string          `json:"checksum"`
	Entries  json.RawMessage `json:"entries"`
}

func encodeIndex(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, errors.Wrap(err, "wily: encode index")
	}
	return json.Marshal(document{
		Checksum: fmt.Sprintf("%016x", xxhash.Sum64(payload)),
		Entries:  payload,
	})
}

func decodeIndex(data []byte) ([]Entry, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptIndex, err)
	}
	if sum := fmt.Sprintf("%016x", xxhash.Sum64(doc.Entries)); sum != doc.Checksum {
		return nil, fmt.Errorf("%w: checksum %s, want %s", ErrCorruptIndex, sum, doc.Checksum)
	}
	var entries []Entry
	if err := json.Unmarshal(doc.Entries, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptIndex, err)
	}
	return entries, nil
}
