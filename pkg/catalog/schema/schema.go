// Package schema enforces a tenant's declared metadata schema.
//
// Schematic tenants declare the metadata keys their files may carry as
// (name, type) pairs. Enforcement checks every supplied entry against the
// declarations and collects all mismatches, so the caller learns about the
// complete set of offending keys in one pass.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datalakehq/catalogd/pkg/catalog/metadata"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

// InferType classifies a value as NUMERIC when it parses as a float,
// TEXT otherwise.
func InferType(value string) models.MetaType {
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return models.MetaTypeNumeric
	}
	return models.MetaTypeText
}

// Enforce validates entries against the tenant's limits and declared
// schema. Limits (key length, value length, entry count) apply to every
// tenant; declaration matching applies only to schematic tenants, with
// AllowAdhoc permitting undeclared keys.
//
// Privacy prefixes must already be stripped from the keys.
func Enforce(tenant *models.Tenant, defs []models.SchemaDef, entries []metadata.Entry) error {
	if tenant.MaxMetaPerFile > 0 && len(entries) > tenant.MaxMetaPerFile {
		return models.Validationf("metadata", "",
			"metadata count %d exceeds the tenant limit of %d", len(entries), tenant.MaxMetaPerFile)
	}
	for _, e := range entries {
		bare, _ := metadata.StripPrefix(e.Key)
		if tenant.MaxKeyLen > 0 && len(bare) > tenant.MaxKeyLen {
			return models.Validationf(e.Key, e.Value,
				"key length %d exceeds the tenant limit of %d", len(bare), tenant.MaxKeyLen)
		}
		if tenant.MaxValueLen > 0 && len(e.Value) > tenant.MaxValueLen {
			return models.Validationf(e.Key, e.Value,
				"value length %d exceeds the tenant limit of %d", len(e.Value), tenant.MaxValueLen)
		}
	}

	if !tenant.Schematic {
		return nil
	}

	var unmatched []string
	for _, e := range entries {
		bare, _ := metadata.StripPrefix(e.Key)
		def := findDef(defs, bare)
		if def == nil {
			if tenant.AllowAdhoc {
				continue
			}
			unmatched = append(unmatched, fmt.Sprintf("%s(%s)", bare, InferType(e.Value)))
			continue
		}
		if def.Type == models.MetaTypeNumeric {
			if _, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64); err != nil {
				unmatched = append(unmatched, fmt.Sprintf("%s(%s)", bare, models.MetaTypeNumeric))
			}
		}
	}
	if len(unmatched) > 0 {
		return models.Validationf("metadata", strings.Join(unmatched, ", "),
			"metadata does not match the declared schema")
	}
	return nil
}

func findDef(defs []models.SchemaDef, name string) *models.SchemaDef {
	for i := range defs {
		if strings.EqualFold(defs[i].Name, name) {
			return &defs[i]
		}
	}
	return nil
}
