// Package pointid derives deterministic vector-store point identifiers
// from (collection, branch, path, ordinal), the content-addressed store
// abstraction underlying idempotent upserts and deletions.
package pointid

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// sep is a control character unlikely to appear in a collection name,
// branch name, or repo-relative path; it keeps the concatenation
// unambiguous (a NUL-joined tuple cannot be reconstructed by shifting
// bytes across field boundaries).
const sep = "\x00"

// Derive computes the deterministic point ID for (collection, branch,
// path, ordinal), per the invariant: id = hash(collection ∥ branch ∥
// path ∥ ordinal). The result is the full hex-encoded SHA-256 digest;
// callers that need a shorter ID truncate with Truncate.
func Derive(collection, branch, path string, ordinal int) string {
	h := sha256.New()
	h.Write([]byte(collection))
	h.Write([]byte(sep))
	h.Write([]byte(branch))
	h.Write([]byte(sep))
	h.Write([]byte(path))
	h.Write([]byte(sep))
	h.Write([]byte(strconv.Itoa(ordinal)))
	return hex.EncodeToString(h.Sum(nil))
}

// Truncate shortens a hex digest to width hex characters, as some stores
// impose a narrower ID width than a full SHA-256 digest.
func Truncate(id string, width int) string {
	if width <= 0 || width >= len(id) {
		return id
	}
	return id[:width]
}

// CollectionName builds the deterministic collection name for a
// repository: <prefix>_<repo_name>.
func CollectionName(prefix, repoName string) string {
	if prefix == "" {
		return repoName
	}
	return prefix + "_" + repoName
}

// DetachedPrefix is the reserved token prefix for detached-HEAD branch
// keys; a real branch name must never start with it (enforced at branch
// creation, not here).
const DetachedPrefix = "detached-"

// IsDetachedToken reports whether branch is a synthetic detached-HEAD
// token of the form detached-<oid>.
func IsDetachedToken(branch string) bool {
	return strings.HasPrefix(branch, DetachedPrefix) && len(branch) > len(DetachedPrefix)
}

// DetachedToken builds the synthetic branch key for a detached HEAD at
// the given commit oid.
func DetachedToken(oid string) string {
	return DetachedPrefix + oid
}
