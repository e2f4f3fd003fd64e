package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer owns documents. Customer CRUD is handled by another service;
// this one only reads customers to validate and denormalize names.
type Customer struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	CompanyName string         `gorm:"type:varchar(255)" json:"company_name"`
	TaxCode     string         `gorm:"type:varchar(50)" json:"tax_code"`
	Phone       string         `gorm:"type:varchar(50)" json:"phone"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	Address     string         `gorm:"type:text" json:"address"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
