// Package codegen derives short reference codes from payload content.
//
// The candidate code is the big-endian CRC-32 (ISO-HDLC) of the payload,
// truncated and base64url-encoded without padding. Attempt 0 uses the first
// 3 checksum bytes (a 4-character code), attempt 1 widens to all 4 bytes,
// and later attempts append a decimal counter to the widened form. The
// derivation is deterministic and has no side effects, so collision retries
// are safe to repeat against the store.
package codegen

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"strconv"
)

const (
	shortBytes = 3

	// MaxAttempts bounds the allocation loop. Running out means the code
	// space is effectively exhausted and must be reported, not retried
	// forever.
	MaxAttempts = 10
)

// Candidate returns the code to try for the given payload on the given
// collision attempt (0-based).
func Candidate(payload []byte, attempt int) string {
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(payload))

	switch {
	case attempt <= 0:
		return base64.RawURLEncoding.EncodeToString(sum[:shortBytes])
	case attempt == 1:
		return base64.RawURLEncoding.EncodeToString(sum[:])
	default:
		return base64.RawURLEncoding.EncodeToString(sum[:]) + strconv.Itoa(attempt-1)
	}
}
