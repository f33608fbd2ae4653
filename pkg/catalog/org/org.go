// Package org resolves positions in a tenant's organizational hierarchy.
//
// Positions are slash-separated paths such as "acme/platform/data". A
// position's ancestors are the chain of prefixes obtained by dropping
// trailing segments one at a time. Admins holding an ancestor position of a
// user's position acquire access to that user's directories.
package org

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Normalize trims surrounding whitespace and a trailing slash from a
// position. The empty position stays empty.
func Normalize(position string) string {
	return strings.TrimSuffix(strings.TrimSpace(position), "/")
}

// PrefixChain returns the position followed by every proper ancestor, most
// specific first. "a/b/c" yields ["a/b/c", "a/b", "a"]. A blank position
// yields nil.
func PrefixChain(position string) []string {
	pos := Normalize(position)
	if pos == "" {
		return nil
	}
	chain := []string{pos}
	for {
		idx := strings.LastIndex(pos, "/")
		if idx < 0 {
			break
		}
		pos = pos[:idx]
		chain = append(chain, pos)
	}
	return chain
}

// IsAncestor reports whether ancestor is a strict prefix of position on
// segment boundaries. A position is not its own ancestor.
func IsAncestor(ancestor, position string) bool {
	a := Normalize(ancestor)
	p := Normalize(position)
	if a == "" || p == "" || a == p {
		return false
	}
	return strings.HasPrefix(p, a+"/")
}

// IsAncestorOrSelf reports whether ancestor equals position or is a strict
// ancestor of it.
func IsAncestorOrSelf(ancestor, position string) bool {
	return Normalize(ancestor) == Normalize(position) || IsAncestor(ancestor, position)
}

// HoldsAncestor reports whether any of the held positions is an ancestor of
// the target position.
func HoldsAncestor(held []string, position string) bool {
	for _, h := range held {
		if IsAncestor(h, position) {
			return true
		}
	}
	return false
}

// HoldsAncestorOrSelf reports whether any of the held positions equals the
// target position or is an ancestor of it.
func HoldsAncestorOrSelf(held []string, position string) bool {
	for _, h := range held {
		if IsAncestorOrSelf(h, position) {
			return true
		}
	}
	return false
}

// cacheSize bounds the number of tenants with resolved chains held at once.
const cacheSize = 1024

// Resolver caches per-tenant prefix chains so permission checks do not
// recompute them for every request. Entries are evicted whenever a
// tenant's org positions change.
type Resolver struct {
	cache *lru.Cache[string, map[string][]string]
}

// NewResolver creates a resolver with a bounded per-tenant cache.
func NewResolver() (*Resolver, error) {
	cache, err := lru.New[string, map[string][]string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{cache: cache}, nil
}

// Chains returns the prefix chains for every given position, memoized per
// tenant.
func (r *Resolver) Chains(tenantID string, positions []string) map[string][]string {
	chains, ok := r.cache.Get(tenantID)
	if !ok {
		chains = make(map[string][]string)
	}
	result := make(map[string][]string, len(positions))
	dirty := false
	for _, pos := range positions {
		key := Normalize(pos)
		if key == "" {
			continue
		}
		chain, ok := chains[key]
		if !ok {
			chain = PrefixChain(key)
			chains[key] = chain
			dirty = true
		}
		result[key] = chain
	}
	if dirty {
		r.cache.Add(tenantID, chains)
	}
	return result
}

// Invalidate drops the cached chains for a tenant. Call it after any write
// that changes a user's org positions.
func (r *Resolver) Invalidate(tenantID string) {
	r.cache.Remove(tenantID)
}
