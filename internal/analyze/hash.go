package analyze

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// contextSeparator joins context parts before hashing. The separator keeps
// adjacent parts distinguishable: "A"+"B" and "AB" must not collide.
const contextSeparator = "\n---\n"

// TextHash returns the hex SHA-256 of the whitespace-normalized text. It is
// the staleness key for cached analyses: same text, same hash, cache valid.
// SHA-256 is used for collision resistance, not for security.
func TextHash(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ContextHash hashes the ordered join of parts. Any change to part content,
// order, or membership changes the hash, which is what invalidates cached
// cat insights.
func ContextHash(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, contextSeparator)))
	return hex.EncodeToString(sum[:])
}
