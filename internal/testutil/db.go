// Package testutil provides an in-memory database and fixtures shared by
// repository, service and handler tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"docflow/internal/database"
	"docflow/internal/model"
)

// NewDB opens a migrated in-memory sqlite database. A single connection
// keeps every statement, transactions included, on the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig("error", zap.NewNop()))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user with the given role. A nil ceiling means unlimited.
func CreateUser(t *testing.T, db *gorm.DB, role string, ceiling *decimal.Decimal) *model.User {
	t.Helper()

	name := role + "-" + uuid.NewString()[:8]
	user := &model.User{
		Username: name,
		FullName: "User " + name,
		Email:    name + "@example.com",
		Role:     role,
		IsActive: true,
	}
	if ceiling != nil {
		user.MaxApprovalAmount = decimal.NullDecimal{Decimal: *ceiling, Valid: true}
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateCustomer(t *testing.T, db *gorm.DB, name string) *model.Customer {
	t.Helper()

	customer := &model.Customer{Name: name, CompanyName: name + " Ltd", IsActive: true}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateDocument inserts a bare document with one item, bypassing the service.
func CreateDocument(t *testing.T, db *gorm.DB, doc *model.Document) *model.Document {
	t.Helper()

	if doc.DocumentNumber == "" {
		doc.DocumentNumber = "DOC-" + uuid.NewString()[:13]
	}
	if doc.DocumentType == "" {
		doc.DocumentType = model.DocTypeOther
	}
	if doc.Status == "" {
		doc.Status = model.DocStatusDraft
	}
	if doc.ApprovalStatus == "" {
		doc.ApprovalStatus = model.ApprovalNotRequired
	}
	if doc.IssueDate.IsZero() {
		doc.IssueDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if doc.Items == nil {
		doc.Items = []model.DocumentItem{{
			Description: "Item",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   doc.TotalAmount,
			TotalPrice:  doc.TotalAmount,
		}}
	}
	require.NoError(t, db.Create(doc).Error)
	return doc
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecPtr is Dec for optional fields.
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}
