package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/model"
	"docflow/internal/testutil"
)

func TestNextDocumentType(t *testing.T) {
	next, ok := NextDocumentType(model.DocTypeTempProforma)
	assert.True(t, ok)
	assert.Equal(t, model.DocTypeProforma, next)

	next, ok = NextDocumentType(model.DocTypeProforma)
	assert.True(t, ok)
	assert.Equal(t, model.DocTypeInvoice, next)

	for _, docType := range []string{model.DocTypeInvoice, model.DocTypeReturnInvoice, model.DocTypeReceipt, model.DocTypeOther} {
		_, ok := NextDocumentType(docType)
		assert.False(t, ok, docType)
	}
}

func TestConversionService_Convert(t *testing.T) {
	ctx := context.Background()

	t.Run("proforma keeps profit data and invoice drops it", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")

		req := h.createRequest(model.DocTypeTempProforma, item("2", "1000", "600"))
		req.DefaultProfitPercentage = testutil.DecPtr("20")
		req.Notes = "quote for spring order"
		tmp := h.create(admin, req)

		proforma, err := h.convert.Convert(ctx, uuid.MustParse(tmp.ID), admin.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DocTypeProforma, proforma.DocumentType)
		assert.Equal(t, "PRF-2026-000001", proforma.DocumentNumber)
		require.NotNil(t, proforma.ConvertedFromID)
		assert.Equal(t, tmp.ID, *proforma.ConvertedFromID)
		assert.Equal(t, model.DocStatusDraft, proforma.Status)
		assert.Equal(t, model.ApprovalNotRequired, proforma.ApprovalStatus)
		assert.Equal(t, 2000.0, proforma.FinalAmount)
		assert.Equal(t, 1200.0, proforma.TotalPurchaseAmount)
		assert.Equal(t, 800.0, proforma.TotalProfitAmount)
		assert.Equal(t, "quote for spring order", proforma.Notes)
		require.NotNil(t, proforma.DefaultProfitPercentage)
		require.Len(t, proforma.Items, 1)
		assert.Equal(t, 600.0, proforma.Items[0].PurchasePrice)
		assert.Equal(t, 66.67, proforma.Items[0].ProfitPercentage)

		invoice, err := h.convert.Convert(ctx, uuid.MustParse(proforma.ID), admin.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DocTypeInvoice, invoice.DocumentType)
		assert.Equal(t, "INV-2026-000001", invoice.DocumentNumber)
		assert.Equal(t, 2000.0, invoice.FinalAmount)
		assert.Zero(t, invoice.TotalPurchaseAmount)
		assert.Zero(t, invoice.TotalProfitAmount)
		assert.Nil(t, invoice.DefaultProfitPercentage)
		require.Len(t, invoice.Items, 1)
		assert.Zero(t, invoice.Items[0].PurchasePrice)
		assert.Zero(t, invoice.Items[0].ProfitAmount)
		assert.Equal(t, 2000.0, invoice.Items[0].TotalPrice)

		// Source documents are left untouched.
		assert.Equal(t, model.DocTypeTempProforma, h.stored(tmp.ID).DocumentType)
		assert.Equal(t, []string{model.ActionConvertDocument}, h.auditActions(invoice.ID))
		assert.Equal(t, []string{EventDocumentCreated, EventDocumentConverted, EventDocumentConverted}, h.events.names())
	})

	t.Run("refuses documents that cannot convert", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")

		tests := []struct {
			name string
			doc  model.Document
			msg  string
		}{
			{name: "terminal type", doc: model.Document{DocumentType: model.DocTypeInvoice}, msg: "cannot be converted"},
			{name: "cancelled", doc: model.Document{DocumentType: model.DocTypeProforma, Status: model.DocStatusCancelled}, msg: "cancelled"},
			{name: "rejected", doc: model.Document{DocumentType: model.DocTypeProforma, Status: model.DocStatusRejected, ApprovalStatus: model.ApprovalRejected}, msg: "rejected"},
			{name: "temp proforma awaiting approval", doc: model.Document{DocumentType: model.DocTypeTempProforma, RequiresApproval: true, ApprovalStatus: model.ApprovalPending}, msg: "not been approved"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				doc := tt.doc
				doc.CustomerID = h.customer.ID
				doc.CreatedBy = admin.ID
				src := testutil.CreateDocument(t, h.db, &doc)

				_, err := h.convert.Convert(ctx, src.ID, admin.ID)
				assert.ErrorIs(t, err, ErrBadRequest)
				assert.Contains(t, err.Error(), tt.msg)
			})
		}

		var converted int64
		require.NoError(t, h.db.Model(&model.Document{}).Where("converted_from_id IS NOT NULL").Count(&converted).Error)
		assert.Zero(t, converted)
	})

	t.Run("approved temp proforma converts", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")
		src := testutil.CreateDocument(t, h.db, &model.Document{
			DocumentType:     model.DocTypeTempProforma,
			CustomerID:       h.customer.ID,
			CreatedBy:        admin.ID,
			Status:           model.DocStatusApproved,
			ApprovalStatus:   model.ApprovalApproved,
			RequiresApproval: true,
			TotalAmount:      decimal.NewFromInt(700),
			FinalAmount:      decimal.NewFromInt(700),
		})

		out, err := h.convert.Convert(ctx, src.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DocTypeProforma, out.DocumentType)
		assert.Equal(t, 700.0, out.FinalAmount)
	})

	t.Run("a document converts only once", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")
		src := h.create(admin, h.createRequest(model.DocTypeProforma, item("1", "50", "")))

		first, err := h.convert.Convert(ctx, uuid.MustParse(src.ID), admin.ID)
		require.NoError(t, err)

		_, err = h.convert.Convert(ctx, uuid.MustParse(src.ID), admin.ID)
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Contains(t, err.Error(), first.DocumentNumber)
	})

	t.Run("unknown document or user", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")

		_, err := h.convert.Convert(ctx, uuid.New(), admin.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		src := h.create(admin, h.createRequest(model.DocTypeProforma, item("1", "50", "")))
		_, err = h.convert.Convert(ctx, uuid.MustParse(src.ID), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConversionService_GetConversionChain(t *testing.T) {
	ctx := context.Background()

	t.Run("returns root to leaf from any member", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")

		tmp := h.create(admin, h.createRequest(model.DocTypeTempProforma, item("1", "100", "")))
		proforma, err := h.convert.Convert(ctx, uuid.MustParse(tmp.ID), admin.ID)
		require.NoError(t, err)
		invoice, err := h.convert.Convert(ctx, uuid.MustParse(proforma.ID), admin.ID)
		require.NoError(t, err)

		want := []string{tmp.DocumentNumber, proforma.DocumentNumber, invoice.DocumentNumber}
		for _, id := range []string{tmp.ID, proforma.ID, invoice.ID} {
			chain, err := h.convert.GetConversionChain(ctx, uuid.MustParse(id))
			require.NoError(t, err)

			numbers := make([]string, 0, len(chain))
			for _, entry := range chain {
				numbers = append(numbers, entry.DocumentNumber)
			}
			assert.Equal(t, want, numbers)
		}
	})

	t.Run("standalone document is its own chain", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")
		doc := h.create(admin, h.createRequest(model.DocTypeReceipt, item("1", "10", "")))

		chain, err := h.convert.GetConversionChain(ctx, uuid.MustParse(doc.ID))
		require.NoError(t, err)
		require.Len(t, chain, 1)
		assert.Equal(t, doc.ID, chain[0].ID)
		assert.Equal(t, 10.0, chain[0].FinalAmount)
	})

	t.Run("deleted predecessor makes the successor the root", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")
		tmp := h.create(admin, h.createRequest(model.DocTypeTempProforma, item("1", "100", "")))
		proforma, err := h.convert.Convert(ctx, uuid.MustParse(tmp.ID), admin.ID)
		require.NoError(t, err)
		require.NoError(t, h.documents.Remove(ctx, uuid.MustParse(tmp.ID), admin.ID))

		chain, err := h.convert.GetConversionChain(ctx, uuid.MustParse(proforma.ID))
		require.NoError(t, err)
		require.Len(t, chain, 1)
		assert.Equal(t, proforma.ID, chain[0].ID)
	})

	t.Run("cycle is reported as a conflict", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")
		a := testutil.CreateDocument(t, h.db, &model.Document{CustomerID: h.customer.ID, CreatedBy: admin.ID})
		b := testutil.CreateDocument(t, h.db, &model.Document{CustomerID: h.customer.ID, CreatedBy: admin.ID, ConvertedFromID: &a.ID})
		require.NoError(t, h.db.Model(&model.Document{}).Where("id = ?", a.ID).Update("converted_from_id", b.ID).Error)

		_, err := h.convert.GetConversionChain(ctx, a.ID)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("overlong chain is reported as a conflict", func(t *testing.T) {
		h := newHarness(t)
		admin := h.user(model.RoleAdmin, "")

		prev := testutil.CreateDocument(t, h.db, &model.Document{CustomerID: h.customer.ID, CreatedBy: admin.ID})
		for i := 0; i < h.deps.MaxChainLength+1; i++ {
			from := prev.ID
			prev = testutil.CreateDocument(t, h.db, &model.Document{CustomerID: h.customer.ID, CreatedBy: admin.ID, ConvertedFromID: &from})
		}

		_, err := h.convert.GetConversionChain(ctx, prev.ID)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("unknown document", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.convert.GetConversionChain(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
