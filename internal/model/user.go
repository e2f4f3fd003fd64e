package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Role constants
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSupervisor = "supervisor"
	RoleEmployee   = "employee"
	RoleUser       = "user"
)

// User is the acting identity for documents: creator, approver or rejecter.
// User management lives outside this service; rows are read-only here.
type User struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Username          string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	FullName          string              `gorm:"type:varchar(255);not null" json:"full_name"`
	Email             string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role              string              `gorm:"type:varchar(50);not null" json:"role"`         // admin, manager, supervisor, employee, user
	MaxApprovalAmount decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"max_approval_amount"` // NULL = unlimited
	IsActive          bool                `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt      `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
