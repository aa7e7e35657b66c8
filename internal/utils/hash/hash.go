package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

func GenerateSha256Hash(str string) string {
	hasher := sha256.New()
	hasher.Write([]byte(str))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Short returns the first n characters of a hex digest.
func Short(digest string, n int) string {
	if len(digest) <= n {
		return digest
	}
	return digest[:n]
}
