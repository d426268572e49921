package cache

import (
	"crypto/rand"
	"encoding/hex"
)

// newSessionID returns a fresh 8-hex-character session identifier (§6:
// "the 8-hex-character session identifier of the owning instance"), chosen
// at construction for each runtime instance.
func newSessionID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real host;
		// fall back to a fixed-but-distinguishable id rather than panic, so
		// a single degraded host doesn't take down the whole cache protocol.
		return "00000000"
	}
	return hex.EncodeToString(b[:])
}
