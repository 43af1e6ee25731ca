package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("auth code not found")

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, code *Code) error
	// InvalidateLive marks every unused, unexpired code of the pair as used.
	InvalidateLive(ctx context.Context, estimationID uuid.UUID, email string, now time.Time) (int64, error)
	FindLive(ctx context.Context, estimationID uuid.UUID, email, code string, now time.Time) (*Code, error)
	// Consume binds token to the code only if it is still unused and unexpired.
	Consume(ctx context.Context, id uuid.UUID, token string, now time.Time) (bool, error)
	FindBySessionToken(ctx context.Context, token string) (*Code, error)
	DeleteExpiredUnused(ctx context.Context, now time.Time, limit int) (int64, error)
}
