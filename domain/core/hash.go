package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// PayloadHash fingerprints a training request payload
type PayloadHash string

func (h PayloadHash) String() string { return string(h) }

// ComputePayloadHash hashes ordered key/value pairs. Order is significant:
// callers pass fields in their wire order so equal payloads hash equally.
func ComputePayloadHash(pairs [][2]string) PayloadHash {
	h := sha256.New()
	for _, kv := range pairs {
		h.Write([]byte(kv[0]))
		h.Write([]byte{0})
		h.Write([]byte(kv[1]))
		h.Write([]byte{0})
	}
	return PayloadHash(hex.EncodeToString(h.Sum(nil)))
}
