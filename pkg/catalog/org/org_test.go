package org

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme/platform/", "acme/platform"},
		{"  acme ", "acme"},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrefixChain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"three segments", "a/b/c", []string{"a/b/c", "a/b", "a"}},
		{"trailing slash", "a/b/", []string{"a/b", "a"}},
		{"single segment", "a", []string{"a"}},
		{"blank", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrefixChain(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PrefixChain(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsAncestor(t *testing.T) {
	tests := []struct {
		name     string
		ancestor string
		position string
		want     bool
	}{
		{"direct parent", "a", "a/b", true},
		{"grandparent", "a", "a/b/c", true},
		{"self is not ancestor", "a/b", "a/b", false},
		{"segment boundary respected", "a/b", "a/bc", false},
		{"trailing slashes ignored", "a/", "a/b/", true},
		{"unrelated", "x", "a/b", false},
		{"blank ancestor", "", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAncestor(tt.ancestor, tt.position); got != tt.want {
				t.Errorf("IsAncestor(%q, %q) = %v, want %v", tt.ancestor, tt.position, got, tt.want)
			}
		})
	}
}

func TestIsAncestorOrSelf(t *testing.T) {
	if !IsAncestorOrSelf("a/b", "a/b/") {
		t.Error("equal positions should match")
	}
	if !IsAncestorOrSelf("a", "a/b") {
		t.Error("ancestor should match")
	}
	if IsAncestorOrSelf("a/b", "a") {
		t.Error("descendant should not match")
	}
}

func TestHoldsAncestor(t *testing.T) {
	held := []string{"acme/sales", "acme/platform"}
	if !HoldsAncestor(held, "acme/platform/data") {
		t.Error("held ancestor not detected")
	}
	if HoldsAncestor(held, "acme/platform") {
		t.Error("equal position should not count as ancestor")
	}
	if HoldsAncestor(held, "other/org") {
		t.Error("unrelated position matched")
	}
}

func TestResolverChains(t *testing.T) {
	r, err := NewResolver()
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	chains := r.Chains("t1", []string{"a/b/c", "a/b/c", ""})
	if len(chains) != 1 {
		t.Fatalf("expected 1 chain, got %d", len(chains))
	}
	want := []string{"a/b/c", "a/b", "a"}
	if !reflect.DeepEqual(chains["a/b/c"], want) {
		t.Errorf("chain = %v, want %v", chains["a/b/c"], want)
	}

	// Memoized result must survive a second call.
	again := r.Chains("t1", []string{"a/b/c/"})
	if !reflect.DeepEqual(again["a/b/c"], want) {
		t.Errorf("memoized chain = %v, want %v", again["a/b/c"], want)
	}

	r.Invalidate("t1")
	fresh := r.Chains("t1", []string{"x/y"})
	if !reflect.DeepEqual(fresh["x/y"], []string{"x/y", "x"}) {
		t.Errorf("post-invalidate chain = %v", fresh["x/y"])
	}
}
