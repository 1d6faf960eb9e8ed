package blobstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"tmpbin/internal/codegen"
	"tmpbin/internal/domain/models"
	"tmpbin/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(clock Clock, sizeLimit int64) *Service {
	return NewService(inmemory.NewInMemory(), Params{
		BaseURL:    "http://localhost:3000",
		SizeLimit:  sizeLimit,
		DefaultTTL: time.Hour,
		Clock:      clock,
	})
}

func TestService_CreateGetDeleteScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeClock(), 1024)

	entry, err := svc.Create(ctx, []byte("1232\n"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "K8mw", entry.Code)
	assert.Len(t, entry.Code, 4)
	assert.Equal(t, int64(5), entry.Size)
	assert.NotEmpty(t, entry.Secret)
	assert.Equal(t, "http://localhost:3000/K8mw", svc.EntryURL(entry.Code))

	got, err := svc.Get(ctx, entry.Code)
	require.NoError(t, err)
	assert.Equal(t, []byte("1232\n"), got.Payload)

	require.NoError(t, svc.Delete(ctx, entry.Code, entry.Secret))

	_, err = svc.Get(ctx, entry.Code)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name      string
		payload   []byte
		sizeLimit int64
		wantErr   error
	}{
		{
			name:      "payload at the limit is accepted",
			payload:   []byte("12345"),
			sizeLimit: 5,
		},
		{
			name:      "oversized payload is rejected",
			payload:   []byte("123456"),
			sizeLimit: 5,
			wantErr:   models.ErrPayloadTooLarge,
		},
		{
			name:      "empty payload is rejected",
			payload:   nil,
			sizeLimit: 5,
			wantErr:   models.ErrInvalidData,
		},
		{
			name:      "zero limit means unlimited",
			payload:   []byte("a very long payload indeed"),
			sizeLimit: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newTestService(newFakeClock(), tt.sizeLimit)

			entry, err := svc.Create(ctx, tt.payload, 0)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				// A rejected create leaves nothing behind.
				_, err := svc.Get(ctx, codegen.Candidate(tt.payload, 0))
				require.ErrorIs(t, err, models.ErrNotFound)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, entry.Code)
		})
	}
}

func TestService_CreateDistinctPayloads(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeClock(), 0)

	first, err := svc.Create(ctx, []byte("first payload"), 0)
	require.NoError(t, err)
	second, err := svc.Create(ctx, []byte("second payload"), 0)
	require.NoError(t, err)

	assert.NotEqual(t, first.Code, second.Code)

	gotFirst, err := svc.Get(ctx, first.Code)
	require.NoError(t, err)
	gotSecond, err := svc.Get(ctx, second.Code)
	require.NoError(t, err)

	assert.Equal(t, []byte("first payload"), gotFirst.Payload)
	assert.Equal(t, []byte("second payload"), gotSecond.Payload)
}

func TestService_CreateConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeClock(), 0)

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]struct{})
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := svc.Create(ctx, []byte(fmt.Sprintf("payload %d", i)), 0)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			codes[entry.Code] = struct{}{}
		}(i)
	}
	wg.Wait()

	assert.Len(t, codes, workers)
}

func TestService_GetMasksExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newTestService(clock, 0)

	entry, err := svc.Create(ctx, []byte("short lived"), time.Minute)
	require.NoError(t, err)

	_, err = svc.Get(ctx, entry.Code)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	// Dead before the sweeper has run.
	_, err = svc.Get(ctx, entry.Code)
	require.ErrorIs(t, err, models.ErrNotFound)

	removed, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newTestService(clock, 0)

	entry, err := svc.Create(ctx, []byte("payload"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		code    string
		secret  string
		wantErr error
	}{
		{
			name:    "missing secret is unauthorized",
			code:    entry.Code,
			secret:  "",
			wantErr: models.ErrUnauthorized,
		},
		{
			name:    "wrong secret is forbidden",
			code:    entry.Code,
			secret:  "not-the-secret",
			wantErr: models.ErrForbidden,
		},
		{
			name:    "unknown code is not found",
			code:    "zzzz",
			secret:  "whatever",
			wantErr: models.ErrNotFound,
		},
		{
			name:   "exact secret deletes",
			code:   entry.Code,
			secret: entry.Secret,
		},
		{
			name:    "second delete is not found",
			code:    entry.Code,
			secret:  entry.Secret,
			wantErr: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Delete(ctx, tt.code, tt.secret)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestService_DeleteExpiredIsNotFound(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newTestService(clock, 0)

	entry, err := svc.Create(ctx, []byte("short lived"), time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	require.ErrorIs(t, svc.Delete(ctx, entry.Code, entry.Secret), models.ErrNotFound)
}

// conflictStorage forces EntryCreate conflicts to exercise the allocation
// retry path.
type conflictStorage struct {
	conflicts int
	creates   []string
}

func (s *conflictStorage) EntryCreate(ctx context.Context, entry models.Entry) (models.Entry, error) {
	s.creates = append(s.creates, entry.Code)
	if len(s.creates) <= s.conflicts {
		return models.Entry{}, models.ErrConflict
	}
	return entry, nil
}

func (s *conflictStorage) EntryGetByCode(ctx context.Context, code string) (models.Entry, error) {
	return models.Entry{}, models.ErrNotFound
}

func (s *conflictStorage) EntryDelete(ctx context.Context, code string, secret string) error {
	return models.ErrNotFound
}

func (s *conflictStorage) EntryDeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (s *conflictStorage) Ping(ctx context.Context) error { return nil }

func TestService_CreateCollisionFallback(t *testing.T) {
	ctx := context.Background()
	storage := &conflictStorage{conflicts: 2}
	svc := NewService(storage, Params{DefaultTTL: time.Hour, Clock: newFakeClock()})

	entry, err := svc.Create(ctx, []byte("1232\n"), 0)
	require.NoError(t, err)

	// The candidate sequence walks short code, widened code, counter.
	assert.Equal(t, []string{"K8mw", "K8mwpw", "K8mwpw1"}, storage.creates)
	assert.Equal(t, "K8mwpw1", entry.Code)
}

func TestService_CreateAllocationExhausted(t *testing.T) {
	ctx := context.Background()
	storage := &conflictStorage{conflicts: codegen.MaxAttempts}
	svc := NewService(storage, Params{DefaultTTL: time.Hour, Clock: newFakeClock()})

	_, err := svc.Create(ctx, []byte("1232\n"), 0)
	require.ErrorIs(t, err, models.ErrCodeSpaceExhausted)
	assert.Len(t, storage.creates, codegen.MaxAttempts)
}

// failingStorage reports a medium failure on every operation.
type failingStorage struct {
	err error
}

func (s *failingStorage) EntryCreate(ctx context.Context, entry models.Entry) (models.Entry, error) {
	return models.Entry{}, s.err
}

func (s *failingStorage) EntryGetByCode(ctx context.Context, code string) (models.Entry, error) {
	return models.Entry{}, s.err
}

func (s *failingStorage) EntryDelete(ctx context.Context, code string, secret string) error {
	return s.err
}

func (s *failingStorage) EntryDeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, s.err
}

func (s *failingStorage) Ping(ctx context.Context) error { return s.err }

func TestService_StorageFailureIsTagged(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{err: fmt.Errorf("disk on fire")}
	svc := NewService(storage, Params{DefaultTTL: time.Hour, Clock: newFakeClock()})

	_, err := svc.Create(ctx, []byte("payload"), 0)
	require.ErrorIs(t, err, models.ErrStorage)

	_, err = svc.Get(ctx, "Qw3f")
	require.ErrorIs(t, err, models.ErrStorage)

	_, err = svc.SweepExpired(ctx)
	require.ErrorIs(t, err, models.ErrStorage)

	require.ErrorIs(t, svc.Ping(ctx), models.ErrStorage)
}
