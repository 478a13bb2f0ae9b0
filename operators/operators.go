// Package operators names the metric providers a revision was measured
// with. The names are bookkeeping tags persisted alongside indexed
// revisions; computing the metrics themselves is outside this tool's core.
package operators

import (
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

var ErrOperatorUnknown = errors.New("wily: unknown operator")

type Operator struct {
	Name        string
	Description string
}

var registry = xsync.NewMapOf[string, Operator]()

// Register makes an operator resolvable by name. Safe for concurrent use.
func Register(op Operator) {
	registry.Store(op.Name, op)
}

func Resolve(name string) (Operator, error) {
	op, ok := registry.Load(name)
	if !ok {
		return Operator{}, fmt.Errorf("%w: %q", ErrOperatorUnknown, name)
	}
	return op, nil
}

// ResolveAll maps a configured operator list onto registered operators,
// failing on the first unknown name.
func ResolveAll(names []string) ([]Operator, error) {
	ops := make([]Operator, 0, len(names))
	for _, name := range names {
		op, err := Resolve(name)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func init() {
	Register(Operator{Name: "cyclomatic", Description: "cyclomatic complexity of functions and methods"})
	Register(Operator{Name: "maintainability", Description: "maintainability index"})
	Register(Operator{Name: "raw", Description: "raw source metrics (loc, sloc, comments)"})
	Register(Operator{Name: "halstead", Description: "halstead complexity measures"})
}
