package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 digest of data. Input files are identified
// by the digest of their raw bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey digests parts under a stage prefix, giving keys like
// "chi:<64 hex chars>". Parts are encoded as JSON; values JSON cannot
// represent (NaN, ±Inf) fall back to their %#v form.
func hashKey(prefix string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", parts))
	}
	return prefix + ":" + Hash(data)
}
