// Package metadata validates and transforms user-supplied metadata.
//
// Metadata arrives as comma-separated key=value tokens, optionally prefixed
// with public@ or private@. Validation is fail-fast: the first offending
// token rejects the whole set so callers can fix one problem at a time.
package metadata

import (
	"regexp"
	"strings"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// MaxCount is the hard cap on metadata entries in a single request.
const MaxCount = 1000

// Key length bounds, applied after stripping a privacy prefix.
const (
	MinKeyLen = 3
	MaxKeyLen = 255
)

// Value length bounds.
const (
	MinValueLen = 1
	MaxValueLen = 255
)

const (
	// PrefixPublic marks a key as public, the default visibility.
	PrefixPublic = "public@"

	// PrefixPrivate marks a key as visible to its owner only.
	PrefixPrivate = "private@"
)

var (
	listPattern  = regexp.MustCompile(`^(public@|private@)?(([^\s,=]+=[^,=]+)(?:,\s*)?)+$`)
	splitPattern = regexp.MustCompile(`,\s*`)
	keyPattern   = regexp.MustCompile(`^\w+$`)
	valuePattern = regexp.MustCompile(`^[^*,'"=&!]+$`)
)

// Entry is a single metadata key/value pair.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseList splits a raw comma-separated token list into entries. The list
// must match the token grammar as a whole; an empty or blank input yields
// no entries.
func ParseList(raw string) ([]Entry, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if !listPattern.MatchString(trimmed) {
		return nil, models.Validationf("metadata", raw, "metadata must be comma separated key=value pairs")
	}
	tokens := splitPattern.Split(trimmed, -1)
	entries := make([]Entry, 0, len(tokens))
	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, models.Validationf("metadata", tok, "token is not a key=value pair")
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return entries, nil
}

// StripPrefix removes a privacy prefix from a key, reporting whether the
// key was marked private.
func StripPrefix(key string) (bare string, private bool) {
	if strings.HasPrefix(key, PrefixPrivate) {
		return strings.TrimPrefix(key, PrefixPrivate), true
	}
	return strings.TrimPrefix(key, PrefixPublic), false
}

// Validate runs the full validation pipeline over the entries. Checks run
// in a fixed order and the first failure is returned immediately.
func Validate(entries []Entry) error {
	if len(entries) > MaxCount {
		return models.Validationf("metadata", "", "metadata count %d exceeds the limit of %d", len(entries), MaxCount)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		bare, _ := StripPrefix(e.Key)

		if len(bare) < MinKeyLen || len(bare) > MaxKeyLen {
			return models.Validationf(e.Key, e.Value, "key length must be between %d and %d", MinKeyLen, MaxKeyLen)
		}
		if !keyPattern.MatchString(bare) {
			return models.Validationf(e.Key, e.Value, "key may contain only letters, digits and underscores")
		}

		folded := strings.ToLower(bare)
		if _, dup := seen[folded]; dup {
			return models.Validationf(e.Key, e.Value, "duplicate key %q", bare)
		}
		seen[folded] = struct{}{}

		if len(e.Value) < MinValueLen || len(e.Value) > MaxValueLen {
			return models.Validationf(e.Key, e.Value, "value length must be between %d and %d", MinValueLen, MaxValueLen)
		}
		if !valuePattern.MatchString(e.Value) {
			return models.Validationf(e.Key, e.Value, `value may not contain any of * , ' " = & !`)
		}

		if strings.EqualFold(bare, e.Value) {
			return models.Validationf(e.Key, e.Value, "key and value must differ")
		}
	}
	return nil
}

// ApplyPrivacy resolves privacy prefixes against the owning user. Private
// keys are rewritten to "<ownerID>@key" so ownership travels with the key;
// the public prefix is dropped since public is the default.
func ApplyPrivacy(entries []Entry, ownerID string) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		bare, private := StripPrefix(e.Key)
		if private {
			out[i] = Entry{Key: ownerID + "@" + bare, Value: e.Value}
		} else {
			out[i] = Entry{Key: bare, Value: e.Value}
		}
	}
	return out
}
