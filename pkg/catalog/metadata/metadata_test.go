package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Entry
		wantErr bool
	}{
		{
			name: "single pair",
			raw:  "region=emea",
			want: []Entry{{Key: "region", Value: "emea"}},
		},
		{
			name: "multiple pairs with spaces after commas",
			raw:  "region=emea, team=data,env=prod",
			want: []Entry{{Key: "region", Value: "emea"}, {Key: "team", Value: "data"}, {Key: "env", Value: "prod"}},
		},
		{
			name: "private prefix",
			raw:  "private@owner=alice",
			want: []Entry{{Key: "private@owner", Value: "alice"}},
		},
		{
			name: "blank input",
			raw:  "   ",
			want: nil,
		},
		{
			name:    "missing value",
			raw:     "region=",
			wantErr: true,
		},
		{
			name:    "bare word",
			raw:     "region",
			wantErr: true,
		},
		{
			name:    "double equals",
			raw:     "a=b=c",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseList(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseList(%q) succeeded, want error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseList(%q): %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr string
	}{
		{
			name:    "valid set",
			entries: []Entry{{Key: "region", Value: "emea"}, {Key: "private@cost_center", Value: "42"}},
		},
		{
			name:    "key too short",
			entries: []Entry{{Key: "ab", Value: "x1"}},
			wantErr: "key length",
		},
		{
			name:    "key too long",
			entries: []Entry{{Key: strings.Repeat("k", 256), Value: "v1"}},
			wantErr: "key length",
		},
		{
			name:    "key with punctuation",
			entries: []Entry{{Key: "reg-ion", Value: "emea"}},
			wantErr: "letters, digits and underscores",
		},
		{
			name:    "duplicate ignoring case",
			entries: []Entry{{Key: "Region", Value: "emea"}, {Key: "region", Value: "apac"}},
			wantErr: "duplicate key",
		},
		{
			name:    "duplicate ignoring privacy prefix",
			entries: []Entry{{Key: "region", Value: "emea"}, {Key: "private@region", Value: "apac"}},
			wantErr: "duplicate key",
		},
		{
			name:    "forbidden value character",
			entries: []Entry{{Key: "region", Value: "em*a"}},
			wantErr: "value may not contain",
		},
		{
			name:    "value too long",
			entries: []Entry{{Key: "region", Value: strings.Repeat("v", 256)}},
			wantErr: "value length",
		},
		{
			name:    "key equals value case-insensitively",
			entries: []Entry{{Key: "region", Value: "REGION"}},
			wantErr: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
			var f *models.Fault
			if !errors.As(err, &f) || f.Kind != models.KindValidation {
				t.Errorf("error is not a validation fault: %v", err)
			}
		})
	}
}

func TestValidateCountCap(t *testing.T) {
	entries := make([]Entry, MaxCount+1)
	for i := range entries {
		entries[i] = Entry{Key: fmt.Sprintf("key_%04d", i), Value: "val"}
	}
	err := Validate(entries)
	if err == nil {
		t.Fatal("oversized set accepted")
	}
	if !strings.Contains(err.Error(), "exceeds the limit") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateFailFast(t *testing.T) {
	// Two broken entries; only the first one must be reported.
	err := Validate([]Entry{{Key: "ab", Value: "x1"}, {Key: "region", Value: "em*a"}})
	if err == nil {
		t.Fatal("invalid set accepted")
	}
	if !strings.Contains(err.Error(), "key length") {
		t.Errorf("expected first failure to win, got %v", err)
	}
}

func TestApplyPrivacy(t *testing.T) {
	in := []Entry{
		{Key: "private@cost", Value: "42"},
		{Key: "public@region", Value: "emea"},
		{Key: "team", Value: "data"},
	}
	got := ApplyPrivacy(in, "u-1")
	want := []Entry{
		{Key: "u-1@cost", Value: "42"},
		{Key: "region", Value: "emea"},
		{Key: "team", Value: "data"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyPrivacy = %v, want %v", got, want)
	}
}

func TestMask(t *testing.T) {
	stored := []Entry{
		{Key: "region", Value: "emea"},
		{Key: "u-1@cost", Value: "42"},
	}

	owner := Mask(stored, "u-1")
	if owner[1].Key != "cost" || owner[1].Value != "42" {
		t.Errorf("owner view = %+v", owner[1])
	}

	other := Mask(stored, "u-2")
	if other[0].Key != "region" || other[0].Value != "emea" {
		t.Errorf("public entry changed for non-owner: %+v", other[0])
	}
	if other[1].Key != "cost[private]" || other[1].Value != MaskedValue {
		t.Errorf("non-owner view = %+v", other[1])
	}
}

func TestVisibleTo(t *testing.T) {
	if !VisibleTo("region", "u-2") {
		t.Error("public key should be visible to anyone")
	}
	if !VisibleTo("u-1@cost", "u-1") {
		t.Error("private key should be visible to its owner")
	}
	if VisibleTo("u-1@cost", "u-2") {
		t.Error("private key leaked to non-owner")
	}
}
