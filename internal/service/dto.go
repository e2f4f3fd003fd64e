package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Requests ---

type CreateDocumentRequest struct {
	DocumentType            string           `json:"document_type" validate:"required,oneof=temp_proforma proforma invoice return_invoice receipt other"`
	CustomerID              uuid.UUID        `json:"customer_id" validate:"required"`
	IssueDate               string           `json:"issue_date" validate:"required"`
	DueDate                 *string          `json:"due_date"`
	Items                   []ItemInput      `json:"items" validate:"required,min=1,dive"`
	DiscountAmount          decimal.Decimal  `json:"discount_amount" validate:"gte=0"`
	DefaultProfitPercentage *decimal.Decimal `json:"default_profit_percentage" validate:"omitempty,gte=0,lte=100"`
	RequiresApproval        *bool            `json:"requires_approval"`
	Notes                   string           `json:"notes"`
	Attachment              string           `json:"attachment"`
}

// DocumentListFilter carries the list query string. Empty fields are ignored.
type DocumentListFilter struct {
	CustomerID     string `form:"customer_id" json:"customer_id" validate:"omitempty,uuid"`
	DocumentType   string `form:"document_type" json:"document_type" validate:"omitempty,oneof=temp_proforma proforma invoice return_invoice receipt other"`
	Status         string `form:"status" json:"status" validate:"omitempty,oneof=draft pending approved rejected cancelled"`
	ApprovalStatus string `form:"approval_status" json:"approval_status" validate:"omitempty,oneof=not_required pending approved rejected"`
}

// Update kinds accepted by PATCH /documents/:id.
const (
	PatchKindItems  = "items"
	PatchKindFields = "fields"
	PatchKindStatus = "status"
)

// UpdatePatch is one of ItemsPatch, FieldsPatch or StatusPatch.
type UpdatePatch interface {
	patchKind() string
}

// ItemsPatch replaces the item set and/or the discount and recomputes totals.
// A nil Items keeps the current items.
type ItemsPatch struct {
	Items          []ItemInput      `json:"items" validate:"omitempty,min=1,dive"`
	DiscountAmount *decimal.Decimal `json:"discount_amount" validate:"omitempty,gte=0"`
}

// FieldsPatch edits descriptive fields. Nil fields are left as they are;
// ClearDueDate removes the due date.
type FieldsPatch struct {
	IssueDate               *string          `json:"issue_date"`
	DueDate                 *string          `json:"due_date"`
	ClearDueDate            bool             `json:"clear_due_date"`
	Notes                   *string          `json:"notes"`
	Attachment              *string          `json:"attachment"`
	DefaultProfitPercentage *decimal.Decimal `json:"default_profit_percentage" validate:"omitempty,gte=0,lte=100"`
}

// StatusPatch moves a document between draft, pending and cancelled.
type StatusPatch struct {
	Status string `json:"status" validate:"required,oneof=draft pending approved rejected cancelled"`
}

func (ItemsPatch) patchKind() string  { return PatchKindItems }
func (FieldsPatch) patchKind() string { return PatchKindFields }
func (StatusPatch) patchKind() string { return PatchKindStatus }

// UpdateDocumentRequest is the wire form of an UpdatePatch: Kind selects
// which of the embedded groups is read.
type UpdateDocumentRequest struct {
	Kind string `json:"kind"`
	ItemsPatch
	FieldsPatch
	StatusPatch
}

// Patch returns the typed patch selected by Kind.
func (r UpdateDocumentRequest) Patch() (UpdatePatch, error) {
	switch r.Kind {
	case PatchKindItems:
		if r.ItemsPatch.Items == nil && r.ItemsPatch.DiscountAmount == nil {
			return nil, badRequest("items patch needs items or discount_amount")
		}
		return r.ItemsPatch, nil
	case PatchKindFields:
		return r.FieldsPatch, nil
	case PatchKindStatus:
		return r.StatusPatch, nil
	default:
		return nil, badRequest("kind must be one of [items fields status]")
	}
}

type RejectDocumentRequest struct {
	Reason string `json:"reason" validate:"required,min=10"`
}

// --- Responses ---

type DocumentItemResponse struct {
	ID               string  `json:"id"`
	Position         int     `json:"position"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	UnitPrice        float64 `json:"unit_price"`
	TotalPrice       float64 `json:"total_price"`
	PurchasePrice    float64 `json:"purchase_price"`
	ProfitAmount     float64 `json:"profit_amount"`
	ProfitPercentage float64 `json:"profit_percentage"`
	IsManualPrice    bool    `json:"is_manual_price"`
}

type DocumentResponse struct {
	ID                      string                 `json:"id"`
	DocumentNumber          string                 `json:"document_number"`
	DocumentType            string                 `json:"document_type"`
	CustomerID              string                 `json:"customer_id"`
	CustomerName            string                 `json:"customer_name"`
	CreatedBy               string                 `json:"created_by"`
	CreatedByName           string                 `json:"created_by_name"`
	ApprovedBy              *string                `json:"approved_by"`
	ApprovedByName          *string                `json:"approved_by_name"`
	ConvertedFromID         *string                `json:"converted_from_id"`
	IssueDate               string                 `json:"issue_date"`
	DueDate                 *string                `json:"due_date"`
	TotalAmount             float64                `json:"total_amount"`
	DiscountAmount          float64                `json:"discount_amount"`
	FinalAmount             float64                `json:"final_amount"`
	TotalPurchaseAmount     float64                `json:"total_purchase_amount"`
	TotalProfitAmount       float64                `json:"total_profit_amount"`
	DefaultProfitPercentage *float64               `json:"default_profit_percentage"`
	Status                  string                 `json:"status"`
	ApprovalStatus          string                 `json:"approval_status"`
	RequiresApproval        bool                   `json:"requires_approval"`
	RejectionReason         *string                `json:"rejection_reason"`
	ApprovedAt              *string                `json:"approved_at"`
	Notes                   string                 `json:"notes"`
	Attachment              string                 `json:"attachment"`
	Items                   []DocumentItemResponse `json:"items"`
	CreatedAt               string                 `json:"created_at"`
	UpdatedAt               string                 `json:"updated_at"`
}

// ChainEntry is one document of a conversion chain.
type ChainEntry struct {
	ID             string  `json:"id"`
	DocumentNumber string  `json:"document_number"`
	DocumentType   string  `json:"document_type"`
	FinalAmount    float64 `json:"final_amount"`
	CreatedAt      string  `json:"created_at"`
}

type AuditLogResponse struct {
	ID         string      `json:"id"`
	UserID     *string     `json:"user_id"`
	UserName   string      `json:"user_name,omitempty"`
	Action     string      `json:"action"`
	EntityID   string      `json:"entity_id"`
	EntityName string      `json:"entity_name,omitempty"`
	Details    interface{} `json:"details"`
	CreatedAt  string      `json:"created_at"`
}
