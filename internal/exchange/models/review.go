package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinReviewRate = 1
	MaxReviewRate = 5
)

// Review rates the counterparty of a completed deal. The unique index makes
// a second review by the same side of the same deal impossible.
type Review struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DealKind    Kind      `gorm:"size:32;not null;uniqueIndex:idx_review_deal_company" json:"deal_type"`
	DealID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_deal_company" json:"object_id"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_deal_company;index" json:"company_id"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	Rate        int       `gorm:"not null" json:"rate"`
	Comment     string    `gorm:"size:3000" json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Review) DealRef() Ref {
	return NewRef(r.DealKind, r.DealID)
}
