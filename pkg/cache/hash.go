package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// layoutKey hashes the engine name together with a DOT description. The
// engine name is length-prefixed so that no name and description pair can
// produce the bytes of another.
func layoutKey(engine string, dot []byte) string {
	h := sha256.New()
	h.Write([]byte{byte(len(engine) >> 8), byte(len(engine))})
	h.Write([]byte(engine))
	h.Write(dot)
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of data. File cache entries are stored
// under the hash of their key.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
