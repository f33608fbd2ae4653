// Package rules applies per-directory metadata rules to file metadata.
//
// A directory may declare rule rows constraining the metadata of files
// cataloged beneath it. STRICT mode pins the metadata to the declared set;
// STANDARD mode fills gaps from rule defaults and tolerates extras.
package rules

import (
	"strings"

	"github.com/datalakehq/catalogd/pkg/catalog/metadata"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// Apply enforces the directory's rule rows against the entries and returns
// the resulting metadata set. Descriptive rows (IsMeta true) never
// constrain anything; when the directory has no rule rows the entries pass
// through unchanged.
func Apply(mode models.RuleMode, dirMeta []models.DirectoryMeta, entries []metadata.Entry) ([]metadata.Entry, error) {
	ruleRows := make([]models.DirectoryMeta, 0, len(dirMeta))
	for _, m := range dirMeta {
		if !m.IsMeta {
			ruleRows = append(ruleRows, m)
		}
	}
	if len(ruleRows) == 0 || mode == models.RuleModeNone {
		return entries, nil
	}

	for _, r := range ruleRows {
		if r.Mandatory && r.HasDefault() {
			return nil, models.Configurationf(r.Key, r.DefaultValue(),
				"rule must not be both mandatory and carry a default")
		}
	}

	switch mode {
	case models.RuleModeStrict:
		return entries, applyStrict(ruleRows, entries)
	case models.RuleModeStandard:
		return applyStandard(ruleRows, entries)
	default:
		return nil, models.Configurationf("mode", mode.String(), "unknown rule mode")
	}
}

// applyStrict rejects any deviation from the declared rule set: no key
// outside the rules, every mandatory key present, never more entries than
// rules.
func applyStrict(ruleRows []models.DirectoryMeta, entries []metadata.Entry) error {
	if len(entries) > len(ruleRows) {
		return models.Validationf("metadata", "",
			"%d metadata entries exceed the %d declared rules", len(entries), len(ruleRows))
	}
	for _, e := range entries {
		bare, _ := metadata.StripPrefix(e.Key)
		if findRule(ruleRows, bare) == nil {
			return models.Validationf(e.Key, e.Value, "key %q is not declared by the directory rules", bare)
		}
	}
	for _, r := range ruleRows {
		if r.Mandatory && !hasKey(entries, r.Key) {
			return models.Validationf(r.Key, "", "mandatory key %q is missing", r.Key)
		}
	}
	return nil
}

// applyStandard fills missing rule keys from their defaults and lets extra
// keys through. A missing mandatory key is still an error since mandatory
// rules carry no default.
func applyStandard(ruleRows []models.DirectoryMeta, entries []metadata.Entry) ([]metadata.Entry, error) {
	out := entries
	for _, r := range ruleRows {
		if hasKey(entries, r.Key) {
			continue
		}
		if r.Mandatory {
			return nil, models.Validationf(r.Key, "", "mandatory key %q is missing", r.Key)
		}
		if r.HasDefault() {
			out = append(out, metadata.Entry{Key: r.Key, Value: r.DefaultValue()})
		}
	}
	return out, nil
}

func findRule(ruleRows []models.DirectoryMeta, key string) *models.DirectoryMeta {
	for i := range ruleRows {
		if strings.EqualFold(ruleRows[i].Key, key) {
			return &ruleRows[i]
		}
	}
	return nil
}

func hasKey(entries []metadata.Entry, key string) bool {
	for _, e := range entries {
		bare, _ := metadata.StripPrefix(e.Key)
		if strings.EqualFold(bare, key) {
			return true
		}
	}
	return false
}
