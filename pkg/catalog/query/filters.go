package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

var (
	sizePattern  = regexp.MustCompile(`^(>=|<=|!=|=|>|<)(\d+(\.\d{1,3})?)([kKmMgGtTpP]?)[bB] *$`)
	countPattern = regexp.MustCompile(`^(>=|<=|!=|=|>|<)(\d+) *$`)
)

// Per-unit magnitude ceilings. Every unit tops out at the equivalent of
// 100 PB so a filter can never overflow the byte count.
var sizeCeilings = map[string]float64{
	"":  100 * 1 << 50, // plain bytes
	"k": 100 * 1 << 40,
	"m": 100 * 1 << 30,
	"g": 100 * 1 << 20,
	"t": 100 * 1 << 10,
	"p": 100,
}

var sizeMultipliers = map[string]float64{
	"":  1,
	"k": 1 << 10,
	"m": 1 << 20,
	"g": 1 << 30,
	"t": 1 << 40,
	"p": 1 << 50,
}

// SizeFilter is a parsed file-size condition in bytes.
type SizeFilter struct {
	Op    Op
	Bytes int64
}

// Matches applies the filter to a size.
func (f *SizeFilter) Matches(size int64) bool {
	return f.Op.CompareInt(size, f.Bytes)
}

// ParseSizeFilter parses an expression such as ">10kb" or "<=1.5GB". The
// unit letter is case-insensitive; a blank expression yields nil. The
// magnitude may carry up to three decimals and must stay within 100 PB.
func ParseSizeFilter(expr string) (*SizeFilter, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, nil
	}
	m := sizePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, models.Validationf("size", expr, "malformed size filter")
	}
	magnitude, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, models.Validationf("size", expr, "malformed size magnitude")
	}
	unit := strings.ToLower(m[4])
	if magnitude > sizeCeilings[unit] {
		return nil, models.Validationf("size", expr, "size exceeds the 100PB limit")
	}
	return &SizeFilter{Op: Op(m[1]), Bytes: int64(magnitude * sizeMultipliers[unit])}, nil
}

// CountFilter is a parsed file-count condition.
type CountFilter struct {
	Op    Op
	Count int64
}

// Matches applies the filter to a count.
func (f *CountFilter) Matches(count int64) bool {
	return f.Op.CompareInt(count, f.Count)
}

// ParseCountFilter parses an expression such as ">=5". A blank expression
// yields nil.
func ParseCountFilter(expr string) (*CountFilter, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, nil
	}
	m := countPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, models.Validationf("count", expr, "malformed count filter")
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return nil, models.Validationf("count", expr, "malformed count")
	}
	return &CountFilter{Op: Op(m[1]), Count: n}, nil
}

// CSVFilter is a parsed comma-separated pattern list. Each item is a LIKE
// pattern whose `*` wildcards are mapped to `%`; a value matching any item
// passes. Path and name lists match case-sensitively, savepoint lists do
// not.
type CSVFilter struct {
	Patterns []string
	FoldCase bool
}

// ParseCSVFilter splits a comma-separated pattern list, dropping blank
// items. A blank expression yields nil.
func ParseCSVFilter(expr string, foldCase bool) *CSVFilter {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil
	}
	var patterns []string
	for _, v := range strings.Split(trimmed, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if foldCase {
			v = strings.ToLower(v)
		}
		patterns = append(patterns, likePattern(v))
	}
	if len(patterns) == 0 {
		return nil
	}
	return &CSVFilter{Patterns: patterns, FoldCase: foldCase}
}

// Matches reports whether the value matches any listed pattern.
func (f *CSVFilter) Matches(value string) bool {
	if f.FoldCase {
		value = strings.ToLower(value)
	}
	for _, p := range f.Patterns {
		if likeMatch(p, value) {
			return true
		}
	}
	return false
}

// maxPrefixDepth bounds how deep the hierarchical prefix expansion reaches.
const maxPrefixDepth = 4

// ExpandPrefix turns a directory prefix of up to three segments into the
// LIKE patterns covering each depth from the prefix itself down to depth
// four. The root prefix covers depths one through four.
func ExpandPrefix(prefix string) ([]string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if trimmed == "" || trimmed == "/" {
		trimmed = ""
	} else if !strings.HasPrefix(trimmed, "/") {
		return nil, models.Validationf("prefix", prefix, "prefix must be absolute")
	}

	depth := 0
	if trimmed != "" {
		depth = strings.Count(trimmed, "/")
	}
	if depth >= maxPrefixDepth {
		return nil, models.Validationf("prefix", prefix, "prefix deeper than %d segments", maxPrefixDepth-1)
	}

	patterns := make([]string, 0, maxPrefixDepth-depth+1)
	if trimmed != "" {
		patterns = append(patterns, trimmed)
	}
	pattern := trimmed
	for d := depth + 1; d <= maxPrefixDepth; d++ {
		pattern += "/%"
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}
