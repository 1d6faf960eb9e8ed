package storage

import (
	"context"
	"time"

	"tmpbin/internal/domain/models"
)

// EntryStorage is the single owner of the stored payloads. All other
// components reach the medium through these operations only.
type EntryStorage interface {
	EntryCreate(ctx context.Context, entry models.Entry) (models.Entry, error)
	EntryGetByCode(ctx context.Context, code string) (models.Entry, error)
	EntryDelete(ctx context.Context, code string, secret string) error
	EntryDeleteExpired(ctx context.Context, now time.Time) (int, error)
	EntryGetAll(ctx context.Context) ([]models.Entry, error)
	Ping(ctx context.Context) error
}
