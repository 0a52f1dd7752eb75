package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/testutil"
	"gorm.io/gorm"
)

func TestUserRepository(t *testing.T) {
	conn := testutil.NewConn(t)
	repo := NewUserRepository(conn)
	ctx := context.Background()

	user := &models.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Permission)

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "hash"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("update permission", func(t *testing.T) {
		require.NoError(t, repo.UpdatePermission(ctx, user.ID, 10))

		got, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 10, got.Permission)
	})

	t.Run("touch", func(t *testing.T) {
		require.NoError(t, repo.Touch(ctx, user.ID))

		got, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, got.IsModified)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdatePermission(ctx, 999, 2), gorm.ErrRecordNotFound)
		_, err := repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestMenuRepositoryListsEnabledItems(t *testing.T) {
	conn := testutil.NewConn(t)
	fx := testutil.NewFixture(t, conn)
	repo := NewMenuRepository(conn)

	fx.Menu("bento", "karaage", 600)
	fx.DisableMenu(fx.Menu("bento", "saba", 650))
	fx.Menu("curry", "katsu", 800)

	menus, err := repo.ListEnabledByShop(context.Background(), "bento")
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.Equal(t, "karaage", menus[0].Name)
}
