//go:build integration

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodamigoles/dossiers.vevo/pkg/mongo/mongotest"
)

func TestMongoRepositoryCodeFlow(t *testing.T) {
	ctx := context.Background()
	database := mongotest.Database(t)
	require.NoError(t, EnsureCodeIndexes(ctx, database))
	repo := NewMongoRepository(database)

	now := time.Now().UTC().Truncate(time.Millisecond)
	estimationID := uuid.New()
	first := &Code{EstimationID: estimationID, Email: "a@example.com", Code: "111111", ExpiresAt: now.Add(DefaultCodeTTL)}
	require.NoError(t, repo.Create(ctx, first))

	n, err := repo.InvalidateLive(ctx, estimationID, "a@example.com", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	second := &Code{EstimationID: estimationID, Email: "a@example.com", Code: "222222", ExpiresAt: now.Add(DefaultCodeTTL)}
	require.NoError(t, repo.Create(ctx, second))

	_, err = repo.FindLive(ctx, estimationID, "a@example.com", "111111", now)
	assert.ErrorIs(t, err, ErrNotFound)

	live, err := repo.FindLive(ctx, estimationID, "a@example.com", "222222", now)
	require.NoError(t, err)

	ok, err := repo.Consume(ctx, live.ID, "tok", now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Consume(ctx, live.ID, "tok-2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	bound, err := repo.FindBySessionToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, estimationID, bound.EstimationID)
}
