package store

import (
	"fmt"
	"strings"

	"github.com/datalakehq/catalogd/pkg/catalog/query"
)

// compileMetaPredicate renders a parsed metadata predicate as a SQL
// condition over the files table. Each atom becomes an EXISTS probe into
// file_metadata so one file can satisfy different atoms with different
// entries. Operators come from the parser's closed set and are interpolated
// directly; every value travels as a bind argument.
func compileMetaPredicate(p query.Predicate) (string, []any, error) {
	switch n := p.(type) {
	case nil:
		return "", nil, nil
	case *query.And:
		return compileGroup(n.Preds, " AND ")
	case *query.Or:
		return compileGroup(n.Preds, " OR ")
	case *query.HasKey:
		return metaExists("LOWER(key) LIKE LOWER(?)"), []any{n.Pattern}, nil
	case *query.ValueIs:
		return metaExists("LOWER(value) LIKE LOWER(?)"), []any{n.Pattern}, nil
	case *query.Like:
		return metaExists("LOWER(key) = LOWER(?) AND LOWER(value) LIKE LOWER(?)"), []any{n.Key, n.Pattern}, nil
	case *query.Compare:
		cond := fmt.Sprintf("LOWER(key) = LOWER(?) AND value_numeric IS NOT NULL AND value_numeric %s ?", n.Op)
		return metaExists(cond), []any{n.Key, n.Number}, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate node %T", p)
	}
}

func compileGroup(preds []query.Predicate, sep string) (string, []any, error) {
	clauses := make([]string, 0, len(preds))
	var args []any
	for _, c := range preds {
		sql, a, err := compileMetaPredicate(c)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		clauses = append(clauses, sql)
		args = append(args, a...)
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return "(" + strings.Join(clauses, sep) + ")", args, nil
}

func metaExists(cond string) string {
	return "EXISTS (SELECT 1 FROM file_metadata WHERE file_metadata.file_id = files.id AND " + cond + ")"
}
