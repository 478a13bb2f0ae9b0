// Package wily tracks which revisions of a source history have been
// analyzed, and in what order. Index is the per-archiver record of that
// bookkeeping; State is the process-wide view over every archiver's index.
// Both persist through a cache.Store and restore from it on the next run.
package wily

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jangelesg/wily/archivers"
	"github.com/jangelesg/wily/cache"
	"github.com/jangelesg/wily/config"
	"github.com/jangelesg/wily/utils"
)

var (
	ErrRevisionNotFound = errors.New("wily: revision not in index")
	ErrBadContainsType  = errors.New("wily: Contains takes a key or a Revision")
	ErrOperatorsSet     = errors.New("wily: operators tag already set")
)

// Index is the ordered record of analyzed revisions for one archiver.
// Keys are unique; iteration order is recording order, which is not
// necessarily chronological commit order. Not safe for concurrent use.
type Index struct {
	cfg      *config.Config
	store    cache.Store
	archiver archivers.Archiver

	operators []string
	keys      []string
	revisions map[string]*archivers.Revision
}

// NewIndex hydrates the index for archiver from the store, or starts empty
// when the store holds nothing for it. The operators tag is taken from the
// first cached entry and never overwritten by later entries of the same
// load pass.
func NewIndex(cfg *config.Config, store cache.Store, archiver archivers.Archiver) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	idx := &Index{
		cfg:       cfg,
		store:     store,
		archiver:  archiver,
		revisions: make(map[string]*archivers.Revision),
	}
	if !store.HasIndex(archiver.Name()) {
		return idx, nil
	}
	entries, err := store.GetIndex(archiver.Name())
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if idx.operators == nil {
			idx.operators = e.Operators
		}
		idx.Add(&archivers.Revision{
			Key:         e.Revision,
			AuthorName:  e.AuthorName,
			AuthorEmail: e.AuthorEmail,
			Date:        e.Date,
			Message:     e.Message,
		})
	}
	return idx, nil
}

func (idx *Index) Archiver() archivers.Archiver { return idx.archiver }

// Operators is the tag naming what the indexed revisions were measured
// with. Nil for an index that started empty and was never tagged.
func (idx *Index) Operators() []string { return idx.operators }

// SetOperators tags a fresh index before its first save. The tag is
// immutable once set, whether from the cache or from a previous call.
func (idx *Index) SetOperators(names []string) error {
	if idx.operators != nil {
		return ErrOperatorsSet
	}
	idx.operators = append([]string(nil), names...)
	return nil
}

func (idx *Index) Len() int { return len(idx.keys) }

// Revisions returns a snapshot of all records in current order.
func (idx *Index) Revisions() []*archivers.Revision {
	out := make([]*archivers.Revision, 0, len(idx.keys))
	for _, k := range idx.keys {
		out = append(out, idx.revisions[k])
	}
	return out
}

// RevisionKeys returns a snapshot of all keys in current order.
func (idx *Index) RevisionKeys() []string {
	return append([]string(nil), idx.keys...)
}

// Contains reports whether the index holds the given revision. It accepts
// a key string, an archivers.Revision, or a *archivers.Revision; any other
// type is a caller bug and yields ErrBadContainsType.
func (idx *Index) Contains(item any) (bool, error) {
	switch v := item.(type) {
	case string:
		_, ok := idx.revisions[v]
		return ok, nil
	case archivers.Revision:
		_, ok := idx.revisions[v.Key]
		return ok, nil
	case *archivers.Revision:
		if v == nil {
			return false, fmt.Errorf("%w, got a nil revision", ErrBadContainsType)
		}
		_, ok := idx.revisions[v.Key]
		return ok, nil
	default:
		return false, fmt.Errorf("%w, got %T", ErrBadContainsType, item)
	}
}

// Get returns the record for key, or ErrRevisionNotFound.
func (idx *Index) Get(key string) (*archivers.Revision, error) {
	rev, ok := idx.revisions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, key)
	}
	return rev, nil
}

// Add inserts or overwrites the record at revision.Key. Overwriting keeps
// the key's position in iteration order. In-memory only; call Save to
// persist.
func (idx *Index) Add(revision *archivers.Revision) {
	if _, ok := idx.revisions[revision.Key]; !ok {
		idx.keys = append(idx.keys, revision.Key)
	}
	idx.revisions[revision.Key] = revision
}

// Save writes the full in-memory snapshot through the store, replacing
// whatever list was persisted before.
func (idx *Index) Save() error {
	entries := make([]cache.Entry, 0, len(idx.keys))
	for _, k := range idx.keys {
		rev := idx.revisions[k]
		entries = append(entries, cache.Entry{
			Revision:    rev.Key,
			AuthorName:  rev.AuthorName,
			AuthorEmail: rev.AuthorEmail,
			Date:        rev.Date,
			Message:     rev.Message,
			Operators:   idx.operators,
		})
	}
	return idx.store.StoreIndex(idx.archiver.Name(), entries)
}

// State is the wily process state: one Index per archiver in scope.
type State struct {
	cfg   *config.Config
	store cache.Store
	log   utils.Logger

	archivers       []string
	defaultArchiver string
	indexes         map[string]*Index
}

// StateOptions tune state construction.
type StateOptions struct {
	// Archiver narrows the scope to a single archiver. When nil, the
	// scope is every archiver the store lists.
	Archiver archivers.Archiver
	Logger   utils.Logger
}

// NewState builds one Index per scoped archiver. Archiver names reported
// by the store must resolve through the archivers registry; an unknown
// name fails construction with the registry's error.
func NewState(cfg *config.Config, store cache.Store, opts StateOptions) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
	st := &State{
		cfg:     cfg,
		store:   store,
		log:     opts.Logger,
		indexes: make(map[string]*Index),
	}
	if opts.Archiver != nil {
		st.archivers = []string{opts.Archiver.Name()}
	} else {
		names, err := store.ListArchivers()
		if err != nil {
			return nil, err
		}
		st.archivers = names
	}
	for _, name := range st.archivers {
		a, err := archivers.Resolve(name)
		if err != nil {
			return nil, err
		}
		idx, err := NewIndex(cfg, store, a)
		if err != nil {
			return nil, err
		}
		st.indexes[name] = idx
	}
	if len(st.archivers) > 0 {
		st.defaultArchiver = st.archivers[0]
	}
	return st, nil
}

// Archivers returns the scoped archiver names in order.
func (st *State) Archivers() []string {
	return append([]string(nil), st.archivers...)
}

// DefaultArchiver is the first scoped archiver name, used whenever no
// archiver is selected explicitly.
func (st *State) DefaultArchiver() string { return st.defaultArchiver }

// Index returns the index for the named archiver, or nil if the name is
// out of scope.
func (st *State) Index(name string) *Index { return st.indexes[name] }

// DefaultIndex returns the index of the default archiver.
func (st *State) DefaultIndex() *Index { return st.indexes[st.defaultArchiver] }

// EnsureExists creates the cache backing store if it is missing. Safe to
// call any number of times; creation happens at most once.
func (st *State) EnsureExists() error {
	if st.store.Exists() {
		return nil
	}
	st.log.Debug("cache not found, creating", "path", st.cfg.CachePath)
	if err := st.store.Create(); err != nil {
		return err
	}
	st.log.Debug("created cache", "path", st.cfg.CachePath)
	return nil
}
