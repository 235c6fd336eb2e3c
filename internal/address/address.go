// Package address computes content identities and canonical object keys.
// Everything here is pure: no I/O, deterministic for a given input.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// IdentityLen is the hex-prefix length of a content identity. Eight hex
// chars give 32 bits of identity, which combined with the category/day
// partition makes accidental collision astronomically unlikely; a real
// collision is caught by full-digest comparison and disambiguated.
const IdentityLen = 8

// MaxLabelLen caps the sanitized label so object keys stay short.
const MaxLabelLen = 48

// Identity is a truncated hex digest of a processed asset's byte payload.
type Identity string

// Identify returns the content identity of a payload: lowercase hex SHA-256
// truncated to IdentityLen chars. Identity is a pure function of the payload
// bytes; the original filename never participates.
func Identify(payload []byte) Identity {
	sum := sha256.Sum256(payload)
	return Identity(hex.EncodeToString(sum[:])[:IdentityLen])
}

// FullDigest returns the complete hex SHA-256 of a payload, used by the
// duplicate resolver to distinguish a prefix collision from a true duplicate.
func FullDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// NameFor composes the canonical object key:
//
//	{category}/{YYYY}/{MM}/{DD}/{label}_{identity}{ext}
//
// An empty label degrades to {identity}{ext} so deduplication behaviour
// never depends on whether a label was available.
func NameFor(id Identity, category string, t time.Time, label, ext string) string {
	datePath := t.Format("2006/01/02")
	base := string(id)
	if label != "" {
		base = label + "_" + string(id)
	}
	return path.Join(category, datePath, base+ext)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeLabel lowercases s, collapses every run of non-alphanumerics into
// a single dash, trims leading/trailing dashes and caps the length.
func SanitizeLabel(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLabelLen {
		s = strings.Trim(s[:MaxLabelLen], "-")
	}
	return s
}

// Disambiguate inserts a numeric suffix before the extension of key.
// Used when a truncated identity collides with an object holding different
// bytes: collision, not overwrite, is the failure mode to avoid.
func Disambiguate(key string, n int) string {
	ext := path.Ext(key)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(key, ext), n, ext)
}

// PartitionPrefix returns the list prefix for a category and day, the scope
// within which duplicate resolution runs.
func PartitionPrefix(category string, t time.Time) string {
	return category + "/" + t.Format("2006/01/02") + "/"
}
