package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/model"
	"docflow/internal/testutil"
)

func TestTransactionManager_RunInTx(t *testing.T) {
	db := testutil.NewDB(t)
	tm := NewTransactionManager(db)
	audit := NewAuditRepository(db)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		err := tm.RunInTx(ctx, func(txCtx context.Context) error {
			assert.True(t, InTx(txCtx))
			return audit.Log(txCtx, &model.AuditLog{Action: model.ActionCreateDocument, EntityID: "committed"})
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&model.AuditLog{}).Where("entity_id = ?", "committed").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := tm.RunInTx(ctx, func(txCtx context.Context) error {
			require.NoError(t, audit.Log(txCtx, &model.AuditLog{Action: model.ActionCreateDocument, EntityID: "rolled-back"}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		var count int64
		require.NoError(t, db.Model(&model.AuditLog{}).Where("entity_id = ?", "rolled-back").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		boom := errors.New("outer failed")
		err := tm.RunInTx(ctx, func(outer context.Context) error {
			innerErr := tm.RunInTx(outer, func(inner context.Context) error {
				return audit.Log(inner, &model.AuditLog{Action: model.ActionCreateDocument, EntityID: "nested"})
			})
			require.NoError(t, innerErr)
			return boom
		})
		require.ErrorIs(t, err, boom)

		var count int64
		require.NoError(t, db.Model(&model.AuditLog{}).Where("entity_id = ?", "nested").Count(&count).Error)
		assert.Zero(t, count)
	})

	assert.False(t, InTx(ctx))
}
