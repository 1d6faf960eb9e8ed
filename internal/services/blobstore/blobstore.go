package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tmpbin/internal/codegen"
	"tmpbin/internal/domain/models"

	"github.com/google/uuid"
)

// EntryStorage is the storage contract the service depends on. Creation
// must be an atomic claim-and-commit: concurrent readers see either nothing
// or a fully-formed entry, and a code held by a live entry with different
// payload is reported as models.ErrConflict.
type EntryStorage interface {
	EntryCreate(ctx context.Context, entry models.Entry) (models.Entry, error)
	EntryGetByCode(ctx context.Context, code string) (models.Entry, error)
	EntryDelete(ctx context.Context, code string, secret string) error
	EntryDeleteExpired(ctx context.Context, now time.Time) (int, error)
	Ping(ctx context.Context) error
}

// Clock abstracts time so TTL behavior is testable deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Params carries the fixed startup configuration of the service.
type Params struct {
	BaseURL    string
	SizeLimit  int64         // max payload bytes, 0 = unlimited
	DefaultTTL time.Duration // applied when a create supplies no TTL
	Clock      Clock         // nil = system clock
}

// Service implements the blob lifecycle: guarded create with collision
// retry, read with expiry masking, authorized delete and the expiry sweep.
type Service struct {
	storage    EntryStorage
	clock      Clock
	baseURL    string
	sizeLimit  int64
	defaultTTL time.Duration
}

func NewService(storage EntryStorage, params Params) *Service {
	clock := params.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		baseURL:    params.BaseURL,
		sizeLimit:  params.SizeLimit,
		defaultTTL: params.DefaultTTL,
	}
}

// Create validates the payload, allocates a free code and commits the entry.
// The size check runs before any allocation or storage side effect, so an
// oversized upload leaves nothing behind. Collisions walk the deterministic
// candidate sequence; exhausting it is ErrCodeSpaceExhausted, never a silent
// overwrite.
func (s *Service) Create(ctx context.Context, payload []byte, ttl time.Duration) (models.Entry, error) {
	if len(payload) == 0 {
		return models.Entry{}, models.ErrInvalidData
	}
	if s.sizeLimit > 0 && int64(len(payload)) > s.sizeLimit {
		return models.Entry{}, models.ErrPayloadTooLarge
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.clock.Now()
	entry := models.Entry{
		Payload:   payload,
		Size:      int64(len(payload)),
		Secret:    uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	for attempt := 0; attempt < codegen.MaxAttempts; attempt++ {
		entry.Code = codegen.Candidate(payload, attempt)

		created, err := s.storage.EntryCreate(ctx, entry)
		switch {
		case err == nil:
			return created, nil
		case errors.Is(err, models.ErrConflict):
			continue
		default:
			return models.Entry{}, storageFailure("failed to store entry", err)
		}
	}

	return models.Entry{}, models.ErrCodeSpaceExhausted
}

// Get returns a live entry by code. Entries past their expiry are reported
// as not found even before the sweeper removes them.
func (s *Service) Get(ctx context.Context, code string) (models.Entry, error) {
	if code == "" {
		return models.Entry{}, models.ErrInvalidData
	}

	entry, err := s.storage.EntryGetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Entry{}, models.ErrNotFound
		}
		return models.Entry{}, storageFailure("failed to get entry", err)
	}

	if entry.Expired(s.clock.Now()) {
		return models.Entry{}, models.ErrNotFound
	}

	return entry, nil
}

// Delete removes the entry named by code when the supplied secret matches.
// A missing secret is ErrUnauthorized, a wrong one ErrForbidden; an unknown
// or already-expired code is ErrNotFound either way.
func (s *Service) Delete(ctx context.Context, code string, secret string) error {
	if code == "" {
		return models.ErrInvalidData
	}
	if secret == "" {
		return models.ErrUnauthorized
	}

	if _, err := s.Get(ctx, code); err != nil {
		return err
	}

	err := s.storage.EntryDelete(ctx, code, secret)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrForbidden):
		return err
	default:
		return storageFailure("failed to delete entry", err)
	}
}

// SweepExpired removes every entry dead at this instant and returns the
// count. Safe to call concurrently with request traffic.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	removed, err := s.storage.EntryDeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, storageFailure("failed to sweep expired entries", err)
	}
	return removed, nil
}

// EntryURL builds the public URL for a code.
func (s *Service) EntryURL(code string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, code)
}

// SizeLimit exposes the configured payload cap for the boundary layer.
func (s *Service) SizeLimit() int64 {
	return s.sizeLimit
}

// Ping checks the storage medium.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.storage.Ping(ctx); err != nil {
		return storageFailure("storage ping failed", err)
	}
	return nil
}

// storageFailure tags an unexpected storage error so the boundary can tell
// a medium failure apart from domain outcomes with errors.Is.
func storageFailure(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, errors.Join(models.ErrStorage, err))
}
