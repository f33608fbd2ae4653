package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

var (
	// An `&` after a `,` would make precedence ambiguous, so the grammar
	// forbids it: and-groups must come before plain or-atoms.
	andAfterOrPattern = regexp.MustCompile(`.*,.*&.*`)

	splitOrPattern  = regexp.MustCompile(` *, *`)
	splitAndPattern = regexp.MustCompile(` *& *`)

	comparePattern = regexp.MustCompile(`^([^=<>!']+?) *(>=|<=|!=|=|>|<) *'(.*)'$`)
	literalPattern = regexp.MustCompile(`^'(.*)'$`)
	bareKeyPattern = regexp.MustCompile(`^[^=<>!',&]+$`)
)

// ParseMetaFilter compiles a metadata filter expression into a predicate
// tree. An empty or blank expression yields a nil predicate, which matches
// everything.
func ParseMetaFilter(expr string) (Predicate, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, nil
	}
	if andAfterOrPattern.MatchString(trimmed) {
		return nil, models.Validationf("filter", expr, "and-groups must precede or-atoms")
	}

	branches := splitOrPattern.Split(trimmed, -1)
	orPreds := make([]Predicate, 0, len(branches))
	for _, branch := range branches {
		atoms := splitAndPattern.Split(branch, -1)
		andPreds := make([]Predicate, 0, len(atoms))
		for _, atom := range atoms {
			p, err := parseAtom(atom)
			if err != nil {
				return nil, err
			}
			andPreds = append(andPreds, p)
		}
		if len(andPreds) == 1 {
			orPreds = append(orPreds, andPreds[0])
		} else {
			orPreds = append(orPreds, &And{Preds: andPreds})
		}
	}
	if len(orPreds) == 1 {
		return orPreds[0], nil
	}
	return &Or{Preds: orPreds}, nil
}

// Textual atoms compare case-insensitively via LIKE, so `=`, bare keys and
// bare literals all go through likePattern. Only the ordering operators
// demand a numeric operand.
func parseAtom(atom string) (Predicate, error) {
	atom = strings.TrimSpace(atom)
	if atom == "" {
		return nil, models.Validationf("filter", atom, "empty filter atom")
	}

	if m := comparePattern.FindStringSubmatch(atom); m != nil {
		key := strings.TrimSpace(m[1])
		op := Op(m[2])
		value := m[3]
		if key == "" || !op.IsValid() {
			return nil, models.Validationf("filter", atom, "malformed comparison")
		}
		if op == OpEq {
			return &Like{Key: key, Pattern: likePattern(value)}, nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, models.Validationf("filter", atom, "operator %s needs a numeric value", op)
		}
		return &Compare{Key: key, Op: op, Value: value, Number: n}, nil
	}

	if m := literalPattern.FindStringSubmatch(atom); m != nil {
		if m[1] == "" {
			return nil, models.Validationf("filter", atom, "empty literal")
		}
		return &ValueIs{Pattern: likePattern(m[1])}, nil
	}

	if bareKeyPattern.MatchString(atom) {
		return &HasKey{Pattern: likePattern(atom)}, nil
	}

	return nil, models.Validationf("filter", atom, "unrecognized filter atom")
}

// likePattern maps the grammar's `*` wildcard onto SQL LIKE's `%`.
func likePattern(s string) string {
	return strings.ReplaceAll(s, "*", "%")
}
