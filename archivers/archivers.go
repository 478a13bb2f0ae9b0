// Package archivers produces revision identity from a source history.
// An Archiver knows how to enumerate the revisions of one kind of history
// (a git repository, a plain directory tree); the rest of wily only ever
// sees Revision values and archiver names.
package archivers

import (
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrArchiverUnknown = errors.New("wily: unknown archiver")
	ErrDirtyTree       = errors.New("wily: target has uncommitted changes")
)

// Revision is one recorded point of a source history. Identity is Key
// alone; the remaining fields are metadata carried along for display.
type Revision struct {
	Key         string
	AuthorName  string
	AuthorEmail string
	Date        time.Time
	Message     string
}

// Archiver enumerates the revisions of a source history rooted at a path.
type Archiver interface {
	Name() string
	// Revisions lists revisions newest first. max > 0 caps the walk.
	Revisions(path string, max int) ([]*Revision, error)
}

var registry = xsync.NewMapOf[string, Archiver]()

// Register makes an archiver resolvable by name. Safe for concurrent use.
func Register(a Archiver) {
	registry.Store(a.Name(), a)
}

// Resolve returns the archiver registered under name.
func Resolve(name string) (Archiver, error) {
	a, ok := registry.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrArchiverUnknown, name)
	}
	return a, nil
}

func init() {
	Register(&Git{})
	Register(&Filesystem{})
}
