package inmemory

import (
	"bytes"
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"tmpbin/internal/domain/models"
)

// InMemory keeps entries in a map guarded by a single RWMutex. Every
// critical section is short and free of I/O, so per-code operations are
// linearizable and reads run concurrently.
type InMemory struct {
	mu     sync.RWMutex
	mem    map[string]models.Entry
	lastID int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		mem: make(map[string]models.Entry),
	}
}

// EntryCreate claims entry.Code and commits the entry as one atomic step.
// A live entry with different payload under the same code is a conflict.
// A dead (expired) entry, or a live entry with identical payload, is
// overwritten: the code is refreshed with the new secret and expiry, and
// the previous secret stops working.
func (s *InMemory) EntryCreate(ctx context.Context, entry models.Entry) (models.Entry, error) {
	if entry.Code == "" || len(entry.Payload) == 0 {
		return models.Entry{}, models.ErrInvalidData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.mem[entry.Code]
	if ok && !existing.Expired(entry.CreatedAt) && !bytes.Equal(existing.Payload, entry.Payload) {
		return models.Entry{}, models.ErrConflict
	}

	if ok {
		entry.ID = existing.ID
	} else {
		s.lastID++
		entry.ID = s.lastID
	}

	// The store owns the payload for the entry's lifetime.
	entry.Payload = bytes.Clone(entry.Payload)
	entry.Size = int64(len(entry.Payload))
	s.mem[entry.Code] = entry
	return entry, nil
}

func (s *InMemory) EntryGetByCode(ctx context.Context, code string) (models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.mem[code]
	if !ok {
		return models.Entry{}, models.ErrNotFound
	}

	// Callers must never alias the stored buffer.
	entry.Payload = bytes.Clone(entry.Payload)
	return entry, nil
}

// EntryDelete removes the entry if the supplied secret matches. The compare
// is constant-time and happens inside the critical section, so a delete can
// never interleave with a create refreshing the same code.
func (s *InMemory) EntryDelete(ctx context.Context, code string, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.mem[code]
	if !ok {
		return models.ErrNotFound
	}
	if subtle.ConstantTimeCompare([]byte(entry.Secret), []byte(secret)) != 1 {
		return models.ErrForbidden
	}

	delete(s.mem, code)
	return nil
}

// EntryDeleteExpired removes every entry dead at the given instant and
// returns how many were removed. Removing nothing is not an error, so the
// sweep is idempotent.
func (s *InMemory) EntryDeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for code, entry := range s.mem {
		if entry.Expired(now) {
			delete(s.mem, code)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemory) EntryGetAll(ctx context.Context) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.Entry, 0, len(s.mem))
	for _, entry := range s.mem {
		entry.Payload = bytes.Clone(entry.Payload)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *InMemory) Ping(ctx context.Context) error {
	return nil
}
