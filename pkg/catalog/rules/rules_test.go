package rules

import (
	"strings"
	"testing"

	"github.com/datalakehq/catalogd/pkg/catalog/metadata"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

func rule(key string, mandatory bool, def string) models.DirectoryMeta {
	return models.DirectoryMeta{Key: key, Mandatory: mandatory, DefaultText: def}
}

func descriptive(key, value string) models.DirectoryMeta {
	return models.DirectoryMeta{Key: key, Value: value, IsMeta: true}
}

func TestApplySkipsWithoutRules(t *testing.T) {
	entries := []metadata.Entry{{Key: "anything", Value: "goes"}}

	got, err := Apply(models.RuleModeStrict, nil, entries)
	if err != nil || len(got) != 1 {
		t.Errorf("no rules should pass through: %v %v", got, err)
	}

	// Descriptive rows alone never constrain.
	dirMeta := []models.DirectoryMeta{descriptive("owner", "alice")}
	got, err = Apply(models.RuleModeStrict, dirMeta, entries)
	if err != nil || len(got) != 1 {
		t.Errorf("descriptive-only should pass through: %v %v", got, err)
	}
}

func TestApplyMandatoryDefaultConflict(t *testing.T) {
	dirMeta := []models.DirectoryMeta{rule("region", true, "emea")}
	_, err := Apply(models.RuleModeStandard, dirMeta, nil)
	if err == nil {
		t.Fatal("mandatory rule with default accepted")
	}
	if !models.IsFault(err, models.KindConfiguration) {
		t.Errorf("expected configuration fault, got %v", err)
	}
}

func TestApplyStrict(t *testing.T) {
	dirMeta := []models.DirectoryMeta{
		rule("region", true, ""),
		rule("team", false, ""),
	}

	tests := []struct {
		name    string
		entries []metadata.Entry
		wantErr string
	}{
		{
			name:    "exact match",
			entries: []metadata.Entry{{Key: "region", Value: "emea"}, {Key: "Team", Value: "data"}},
		},
		{
			name:    "mandatory only",
			entries: []metadata.Entry{{Key: "region", Value: "emea"}},
		},
		{
			name:    "extra key rejected",
			entries: []metadata.Entry{{Key: "region", Value: "emea"}, {Key: "env", Value: "prod"}},
			wantErr: "not declared",
		},
		{
			name:    "missing mandatory",
			entries: []metadata.Entry{{Key: "team", Value: "data"}},
			wantErr: "mandatory key",
		},
		{
			name: "more entries than rules",
			entries: []metadata.Entry{
				{Key: "region", Value: "emea"}, {Key: "team", Value: "data"}, {Key: "env", Value: "prod"},
			},
			wantErr: "exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(models.RuleModeStrict, dirMeta, tt.entries)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Apply: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %v does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyStandard(t *testing.T) {
	num := 3.0
	dirMeta := []models.DirectoryMeta{
		rule("region", false, "emea"),
		{Key: "priority", DefaultNum: &num},
		rule("owner", true, ""),
	}

	entries := []metadata.Entry{
		{Key: "owner", Value: "alice"},
		{Key: "env", Value: "prod"},
	}
	got, err := Apply(models.RuleModeStandard, dirMeta, entries)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	byKey := map[string]string{}
	for _, e := range got {
		byKey[e.Key] = e.Value
	}
	if byKey["region"] != "emea" {
		t.Errorf("text default not filled: %v", byKey)
	}
	if byKey["priority"] != "3" {
		t.Errorf("numeric default not filled: %v", byKey)
	}
	if byKey["env"] != "prod" {
		t.Errorf("extra key dropped: %v", byKey)
	}

	// Missing mandatory still fails under STANDARD.
	_, err = Apply(models.RuleModeStandard, dirMeta, []metadata.Entry{{Key: "env", Value: "prod"}})
	if err == nil || !strings.Contains(err.Error(), "mandatory key") {
		t.Errorf("missing mandatory accepted: %v", err)
	}
}
