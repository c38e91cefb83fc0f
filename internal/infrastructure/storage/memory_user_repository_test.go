package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"xray-assistant/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesAndSaveStores(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	// изменения без Save не видны другим читателям
	user.SetState(entity.StateProcessing)
	again, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, again.State)

	require.NoError(t, repo.Save(ctx, user))
	again, err = repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, again.State)
}
