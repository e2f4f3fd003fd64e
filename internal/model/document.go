package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentType enum constants
const (
	DocTypeTempProforma  = "temp_proforma"
	DocTypeProforma      = "proforma"
	DocTypeInvoice       = "invoice"
	DocTypeReturnInvoice = "return_invoice"
	DocTypeReceipt       = "receipt"
	DocTypeOther         = "other"
)

// DocumentStatus enum constants
const (
	DocStatusDraft     = "draft"
	DocStatusPending   = "pending"
	DocStatusApproved  = "approved"
	DocStatusRejected  = "rejected"
	DocStatusCancelled = "cancelled"
)

// ApprovalStatus enum constants
const (
	ApprovalNotRequired = "not_required"
	ApprovalPending     = "pending"
	ApprovalApproved    = "approved"
	ApprovalRejected    = "rejected"
)

// DocumentTypes lists every supported document type in display order.
var DocumentTypes = []string{
	DocTypeTempProforma,
	DocTypeProforma,
	DocTypeInvoice,
	DocTypeReturnInvoice,
	DocTypeReceipt,
	DocTypeOther,
}

// Document is a financial record (proforma, invoice, receipt...) with line items.
// ConvertedFromID links a converted document to its predecessor.
type Document struct {
	ID                      uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentNumber          string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"document_number"`
	DocumentType            string              `gorm:"type:varchar(20);not null;index" json:"document_type"`
	CustomerID              uuid.UUID           `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer                *Customer           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	CreatedBy               uuid.UUID           `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator                 *User               `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	ApprovedBy              *uuid.UUID          `gorm:"type:uuid;index" json:"approved_by"`
	Approver                *User               `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ConvertedFromID         *uuid.UUID          `gorm:"type:uuid;index" json:"converted_from_id"`
	IssueDate               time.Time           `gorm:"type:date;not null" json:"issue_date"`
	DueDate                 *time.Time          `gorm:"type:date" json:"due_date"`
	TotalAmount             decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	DiscountAmount          decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"discount_amount"`
	FinalAmount             decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0;index" json:"final_amount"` // total_amount - discount_amount
	TotalPurchaseAmount     decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"total_purchase_amount"`
	TotalProfitAmount       decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"total_profit_amount"`
	DefaultProfitPercentage decimal.NullDecimal `gorm:"type:decimal(7,2)" json:"default_profit_percentage"`
	Status                  string              `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ApprovalStatus          string              `gorm:"type:varchar(20);not null;default:'not_required';index" json:"approval_status"`
	RequiresApproval        bool                `gorm:"not null;default:false" json:"requires_approval"`
	RejectionReason         *string             `gorm:"type:text" json:"rejection_reason"`
	ApprovedAt              *time.Time          `gorm:"index" json:"approved_at"`
	Notes                   string              `gorm:"type:text" json:"notes"`
	Attachment              string              `gorm:"type:text" json:"attachment"`
	Items                   []DocumentItem      `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt               time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// IsApproved reports whether the document passed the approval workflow.
// Approved documents are immutable.
func (d *Document) IsApproved() bool {
	return d.ApprovalStatus == ApprovalApproved
}

// DocumentItem is a line of a Document; items are owned by exactly one document
// and replaced wholesale on edit.
type DocumentItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	Position         int             `gorm:"not null;default:0" json:"position"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_price"` // quantity * unit_price
	PurchasePrice    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"purchase_price"`
	ProfitAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"profit_amount"`
	ProfitPercentage decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"profit_percentage"`
	IsManualPrice    bool            `gorm:"not null;default:false" json:"is_manual_price"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (i *DocumentItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// DocumentSequence is the per (type, year) counter backing document numbers.
type DocumentSequence struct {
	DocumentType string    `gorm:"type:varchar(20);primaryKey" json:"document_type"`
	Year         int       `gorm:"primaryKey;autoIncrement:false" json:"year"`
	LastValue    int64     `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt    time.Time `json:"updated_at"`
}
