package failcache

import (
	"crypto/sha256"
	"fmt"
)

// BuildKey maps a domain tag and a raw identifier to a deterministic cache
// key of the form "<domain>:<16 hex chars>". The identifier (a URL, a
// prompt+model pair, a file path) is hashed, so keys stay short and a
// crafted identifier can never forge another domain's prefix. Two calls with
// the same (domain, rawID) always yield the same key.
func BuildKey(domain, rawID string) string {
	sum := sha256.Sum256([]byte(rawID))
	return fmt.Sprintf("%s:%x", domain, sum)[:len(domain)+1+16]
}
