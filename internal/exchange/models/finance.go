package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoicePayment is the obligation of one deal party, issued once the deal
// completes. One invoice exists per (deal, company).
type InvoicePayment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DealKind  Kind            `gorm:"size:32;not null;uniqueIndex:idx_invoice_deal_company" json:"deal_type"`
	DealID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_deal_company" json:"object_id"`
	CompanyID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_deal_company;index" json:"company_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status    InvoiceStatus   `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i *InvoicePayment) DealRef() Ref {
	return NewRef(i.DealKind, i.DealID)
}

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoicePending:  {InvoicePaid, InvoiceCanceled},
	InvoicePaid:     {InvoiceRefunded},
	InvoiceCanceled: {},
	InvoiceRefunded: {},
}

// CanTransition reports whether an invoice may move to the given status.
func (s InvoiceStatus) CanTransition(to InvoiceStatus) bool {
	for _, v := range invoiceTransitions[s] {
		if v == to {
			return true
		}
	}
	return false
}
