package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/pkg/pagination"
)

func TestAuditService_GetAuditLogs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	admin := h.user(model.RoleAdmin, "")
	svc := NewAuditService(repository.NewAuditRepository(h.db))

	first := h.create(admin, h.createRequest(model.DocTypeProforma, item("1", "100", "")))
	h.create(admin, h.createRequest(model.DocTypeInvoice, item("1", "100", "")))
	_, err := h.convert.Convert(ctx, uuid.MustParse(first.ID), admin.ID)
	require.NoError(t, err)

	page, err := svc.GetAuditLogs(ctx, AuditLogFilter{}, pagination.New(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Meta.Total)
	for _, entry := range page.Data {
		require.NotNil(t, entry.UserID)
		assert.Equal(t, admin.ID.String(), *entry.UserID)
		assert.Equal(t, admin.DisplayName(), entry.UserName)
		assert.NotNil(t, entry.Details)
	}

	page, err = svc.GetAuditLogs(ctx, AuditLogFilter{EntityID: first.ID}, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, model.ActionCreateDocument, page.Data[0].Action)
	assert.Equal(t, first.DocumentNumber, page.Data[0].EntityName)

	page, err = svc.GetAuditLogs(ctx, AuditLogFilter{Action: model.ActionConvertDocument}, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	details, ok := page.Data[0].Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, first.ID, details["source_id"])

	_, err = svc.GetAuditLogs(ctx, AuditLogFilter{Action: "DROP_TABLE"}, pagination.New(1, 10))
	assert.ErrorIs(t, err, ErrBadRequest)
}
