package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification is addressed either to a company or to a single user.
type Notification struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   *uuid.UUID        `gorm:"type:uuid;index" json:"company_id,omitempty"`
	UserID      *uuid.UUID        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SubjectKind Kind              `gorm:"size:32;not null" json:"content_type"`
	SubjectID   uuid.UUID         `gorm:"type:uuid;not null" json:"object_id"`
	Name        string            `gorm:"size:512;not null" json:"name"`
	Payload     datatypes.JSONMap `json:"payload,omitempty"`
	IsRead      bool              `gorm:"index" json:"is_read"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (n *Notification) Subject() Ref {
	return NewRef(n.SubjectKind, n.SubjectID)
}

// Recipient addresses a notification.
type Recipient struct {
	CompanyID *uuid.UUID
	UserID    *uuid.UUID
}

func CompanyRecipient(id uuid.UUID) Recipient {
	return Recipient{CompanyID: &id}
}

func UserRecipient(id uuid.UUID) Recipient {
	return Recipient{UserID: &id}
}
