package models

import (
	"errors"
	"time"
)

type (
	// Entry is a stored blob plus its lifecycle metadata.
	Entry struct {
		ID        int64
		Code      string // short public reference, unique among live entries
		Payload   []byte // immutable after creation
		Size      int64
		Secret    string // authorizes deletion, shown only at creation
		CreatedAt time.Time
		ExpiresAt time.Time
	}
)

// Expired reports whether the entry is logically dead at the given instant,
// whether or not the sweeper has physically removed it yet.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

var (
	ErrInvalidData        = errors.New("invalid input data")
	ErrNotFound           = errors.New("entry not found")
	ErrForbidden          = errors.New("secret does not match")
	ErrUnauthorized       = errors.New("secret required")
	ErrPayloadTooLarge    = errors.New("payload exceeds size limit")
	ErrCodeSpaceExhausted = errors.New("failed to allocate a free code")
	ErrConflict           = errors.New("code taken by different content")
	ErrStorage            = errors.New("storage failure")
)
