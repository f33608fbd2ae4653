package metadata

import "strings"

// MaskedValue replaces a private value for viewers other than the owner.
const MaskedValue = "***"

// privateSuffix is appended to a private key's bare name when masked.
const privateSuffix = "[private]"

// SplitOwned splits a stored key of the form "<ownerID>@name" into its
// parts. Keys without an owner marker return ok false.
func SplitOwned(key string) (ownerID, name string, ok bool) {
	ownerID, name, ok = strings.Cut(key, "@")
	if !ok || ownerID == "" || name == "" {
		return "", "", false
	}
	return ownerID, name, true
}

// Mask prepares stored entries for a viewer. Public entries pass through.
// Private entries owned by the viewer are unmasked to their bare key;
// anyone else sees the bare key tagged [private] and a redacted value.
func Mask(entries []Entry, viewerID string) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		ownerID, name, ok := SplitOwned(e.Key)
		switch {
		case !ok:
			out[i] = e
		case ownerID == viewerID:
			out[i] = Entry{Key: name, Value: e.Value}
		default:
			out[i] = Entry{Key: name + privateSuffix, Value: MaskedValue}
		}
	}
	return out
}

// VisibleTo reports whether the viewer may use the stored key in a query.
// Public keys are visible to everyone; private keys only to their owner.
func VisibleTo(key, viewerID string) bool {
	ownerID, _, ok := SplitOwned(key)
	return !ok || ownerID == viewerID
}
