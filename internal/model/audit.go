package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateDocument  = "CREATE_DOCUMENT"
	ActionUpdateDocument  = "UPDATE_DOCUMENT"
	ActionDeleteDocument  = "DELETE_DOCUMENT"
	ActionConvertDocument = "CONVERT_DOCUMENT"
	ActionRequestApproval = "REQUEST_APPROVAL"
	ActionApproveDocument = "APPROVE_DOCUMENT"
	ActionRejectDocument  = "REJECT_DOCUMENT"
)

// AuditLog tracks Who, What, and When for document lifecycle changes
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // Nullable for automated actions
	User       *User          `gorm:"foreignKey:UserID" json:"user"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`        // Document id
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Document number
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
