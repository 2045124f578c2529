package txparser

import (
	"crypto/sha256"
	"encoding/hex"
)

// calculateDiscriminator returns the hex encoded anchor sighash for a
// "namespace:name" preimage such as "global:route".
func calculateDiscriminator(instructionName string) string {
	hash := sha256.Sum256([]byte(instructionName))
	return hex.EncodeToString(hash[:8])
}

func discriminatorOf(data []byte) (string, bool) {
	if len(data) < 8 {
		return "", false
	}
	return hex.EncodeToString(data[:8]), true
}
