package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docflow/internal/model"
	"docflow/pkg/pagination"
)

// DocumentFilter narrows List; empty fields are ignored.
type DocumentFilter struct {
	CustomerID     *uuid.UUID
	DocumentType   string
	Status         string
	ApprovalStatus string
}

// ApprovalTransition is the set of columns written when a pending document is decided.
type ApprovalTransition struct {
	ApprovalStatus  string
	Status          string
	ApprovedBy      uuid.UUID
	ApprovedAt      time.Time
	RejectionReason *string
}

// ChainNode is the slice of a document needed to walk a conversion chain.
type ChainNode struct {
	ID              uuid.UUID
	DocumentNumber  string
	DocumentType    string
	FinalAmount     decimal.Decimal
	ConvertedFromID *uuid.UUID
	CreatedAt       time.Time
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Document, error)
	FindChainNode(ctx context.Context, id uuid.UUID) (*ChainNode, error)
	FindSuccessor(ctx context.Context, id uuid.UUID) (*ChainNode, error)
	List(ctx context.Context, filter DocumentFilter, p pagination.Params) ([]model.Document, int64, error)
	ListPending(ctx context.Context, ceiling *decimal.Decimal, p pagination.Params) ([]model.Document, int64, error)
	ListHistory(ctx context.Context, approverID uuid.UUID, p pagination.Params) ([]model.Document, int64, error)
	CountByTypeInYear(ctx context.Context, docType string, year int) (int64, error)
	Update(ctx context.Context, doc *model.Document) error
	ReplaceItems(ctx context.Context, documentID uuid.UUID, items []model.DocumentItem) error
	TransitionApproval(ctx context.Context, id uuid.UUID, t ApprovalTransition) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Creator").
		Preload("Approver").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		})
}

// Create inserts the document together with its items.
func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Omit("Customer", "Creator", "Approver").Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := withRelations(GetDB(ctx, r.db)).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByIDForUpdate row-locks the document for the rest of the transaction.
// Relations are not loaded.
func (r *documentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindChainNode(ctx context.Context, id uuid.UUID) (*ChainNode, error) {
	var node ChainNode
	err := GetDB(ctx, r.db).Model(&model.Document{}).
		Select("id, document_number, document_type, final_amount, converted_from_id, created_at").
		Where("id = ?", id).
		Take(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// FindSuccessor returns the earliest document converted from id, or
// gorm.ErrRecordNotFound when the chain ends at id.
func (r *documentRepository) FindSuccessor(ctx context.Context, id uuid.UUID) (*ChainNode, error) {
	var node ChainNode
	err := GetDB(ctx, r.db).Model(&model.Document{}).
		Select("id, document_number, document_type, final_amount, converted_from_id, created_at").
		Where("converted_from_id = ?", id).
		Order("created_at ASC").
		Take(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter, p pagination.Params) ([]model.Document, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Document{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.DocumentType != "" {
		query = query.Where("document_type = ?", filter.DocumentType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ApprovalStatus != "" {
		query = query.Where("approval_status = ?", filter.ApprovalStatus)
	}
	return r.page(query, "created_at DESC", p)
}

// ListPending returns documents awaiting a decision. A non-nil ceiling hides
// documents above it.
func (r *documentRepository) ListPending(ctx context.Context, ceiling *decimal.Decimal, p pagination.Params) ([]model.Document, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("approval_status = ? AND requires_approval = ?", model.ApprovalPending, true)
	if ceiling != nil {
		query = query.Where("final_amount <= ?", *ceiling)
	}
	return r.page(query, "created_at DESC", p)
}

func (r *documentRepository) ListHistory(ctx context.Context, approverID uuid.UUID, p pagination.Params) ([]model.Document, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("approved_by = ? AND approval_status IN ?", approverID,
			[]string{model.ApprovalApproved, model.ApprovalRejected})
	return r.page(query, "approved_at DESC", p)
}

func (r *documentRepository) page(query *gorm.DB, order string, p pagination.Params) ([]model.Document, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	var docs []model.Document
	err := withRelations(query.Session(&gorm.Session{})).
		Order(order).
		Offset(p.Offset).
		Limit(p.Limit).
		Find(&docs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return docs, total, nil
}

// CountByTypeInYear counts documents of one type created in the given UTC calendar year.
func (r *documentRepository) CountByTypeInYear(ctx context.Context, docType string, year int) (int64, error) {
	start, end := yearBounds(year)
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("document_type = ? AND created_at >= ? AND created_at < ?", docType, start, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Update writes the document's own columns; items and relations are untouched.
func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(doc).Error
}

// ReplaceItems deletes every item of the document and inserts the given set.
func (r *documentRepository) ReplaceItems(ctx context.Context, documentID uuid.UUID, items []model.DocumentItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("document_id = ?", documentID).Delete(&model.DocumentItem{}).Error; err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].DocumentID = documentID
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// TransitionApproval applies t only while the document is still pending.
// It reports false when another request already decided the document.
func (r *documentRepository) TransitionApproval(ctx context.Context, id uuid.UUID, t ApprovalTransition) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("id = ? AND approval_status = ?", id, model.ApprovalPending).
		Updates(map[string]interface{}{
			"approval_status":  t.ApprovalStatus,
			"status":           t.Status,
			"approved_by":      t.ApprovedBy,
			"approved_at":      t.ApprovedAt,
			"rejection_reason": t.RejectionReason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the items and then the document.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("document_id = ?", id).Delete(&model.DocumentItem{}).Error; err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	res := db.Where("id = ?", id).Delete(&model.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
