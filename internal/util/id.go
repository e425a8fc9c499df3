package util

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// LocalPrefix marks ids minted on the client for entities the server
// has not persisted yet.
const LocalPrefix = "loc"

func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalPrefix+"_")
}
