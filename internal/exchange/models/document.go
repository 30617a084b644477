package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a generated file kept per (subject, type).
type Document struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectKind Kind         `gorm:"size:32;not null;uniqueIndex:idx_document_subject_type" json:"content_type"`
	SubjectID   uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_document_subject_type" json:"object_id"`
	Type        DocumentType `gorm:"size:48;not null;uniqueIndex:idx_document_subject_type" json:"type"`
	CompanyID   *uuid.UUID   `gorm:"type:uuid" json:"company_id,omitempty"`
	Name        string       `gorm:"size:512" json:"name"`
	ContentType string       `gorm:"size:128" json:"mime_type"`
	Content     []byte       `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (d *Document) Subject() Ref {
	return NewRef(d.SubjectKind, d.SubjectID)
}
