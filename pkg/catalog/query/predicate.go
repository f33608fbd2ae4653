// Package query parses the catalog filter language into predicate trees.
//
// The metadata filter grammar combines atoms with `&` (and) and `,` (or),
// with the restriction that no `&` may follow a `,`. Atoms are a bare key,
// a quoted literal, or a key/operator/quoted-value comparison. Separate
// filters cover file size, file count and comma-separated path, name and
// savepoint lists.
package query

import (
	"strconv"
	"strings"

	"github.com/datalakehq/catalogd/pkg/catalog/metadata"
)

// Op is a comparison operator in the filter language.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
)

// IsValid returns true if this is a valid operator.
func (o Op) IsValid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	default:
		return false
	}
}

// CompareFloat applies the operator to two numeric operands.
func (o Op) CompareFloat(a, b float64) bool {
	switch o {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	default:
		return false
	}
}

// CompareInt applies the operator to two integer operands.
func (o Op) CompareInt(a, b int64) bool {
	return o.CompareFloat(float64(a), float64(b))
}

// Predicate is a node in a parsed filter tree. The concrete types are And,
// Or, Compare, Like, HasKey and ValueIs; a nil Predicate matches
// everything.
type Predicate interface {
	pred()
}

// And matches when every child matches.
type And struct {
	Preds []Predicate
}

// Or matches when any child matches.
type Or struct {
	Preds []Predicate
}

// Compare matches files carrying a metadata entry whose key equals Key and
// whose parsed numeric value satisfies Op. The parser only emits Compare
// for the ordering operators; plain `=` becomes a Like.
type Compare struct {
	Key    string
	Op     Op
	Value  string
	Number float64
}

// Like matches files carrying an entry for Key whose value matches the SQL
// LIKE pattern (with % wildcards). Keys and values compare
// case-insensitively.
type Like struct {
	Key     string
	Pattern string
}

// HasKey matches files carrying an entry whose key matches the LIKE
// pattern, whatever the value. Case-insensitive.
type HasKey struct {
	Pattern string
}

// ValueIs matches files carrying any entry whose value matches the LIKE
// pattern. Case-insensitive.
type ValueIs struct {
	Pattern string
}

func (*And) pred()     {}
func (*Or) pred()      {}
func (*Compare) pred() {}
func (*Like) pred()    {}
func (*HasKey) pred()  {}
func (*ValueIs) pred() {}

// Eval applies the predicate to an in-memory metadata set. Used for
// directory metadata, which is filtered after permission scoping rather
// than in the database.
func Eval(p Predicate, entries []metadata.Entry) bool {
	switch n := p.(type) {
	case nil:
		return true
	case *And:
		for _, c := range n.Preds {
			if !Eval(c, entries) {
				return false
			}
		}
		return true
	case *Or:
		for _, c := range n.Preds {
			if Eval(c, entries) {
				return true
			}
		}
		return false
	case *HasKey:
		pattern := strings.ToLower(n.Pattern)
		for _, e := range entries {
			if likeMatch(pattern, strings.ToLower(e.Key)) {
				return true
			}
		}
		return false
	case *ValueIs:
		pattern := strings.ToLower(n.Pattern)
		for _, e := range entries {
			if likeMatch(pattern, strings.ToLower(e.Value)) {
				return true
			}
		}
		return false
	case *Like:
		pattern := strings.ToLower(n.Pattern)
		for _, e := range entries {
			if strings.EqualFold(e.Key, n.Key) && likeMatch(pattern, strings.ToLower(e.Value)) {
				return true
			}
		}
		return false
	case *Compare:
		for _, e := range entries {
			if !strings.EqualFold(e.Key, n.Key) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64)
			if err != nil {
				continue
			}
			if n.Op.CompareFloat(v, n.Number) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// likeMatch evaluates a SQL LIKE pattern with % wildcards against a value.
func likeMatch(pattern, value string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return pattern == value
	}
	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	rest := value[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return strings.HasSuffix(rest, parts[len(parts)-1])
}
