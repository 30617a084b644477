package models

import (
	"fmt"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/google/uuid"
)

// Kind tags the entity type a Ref points at.
type Kind string

const (
	KindRecyclablesDeal        Kind = "recyclables_deal"
	KindEquipmentDeal          Kind = "equipment_deal"
	KindRecyclablesApplication Kind = "recyclables_application"
	KindEquipmentApplication   Kind = "equipment_application"
	KindTransportApplication   Kind = "transport_application"
	KindLogisticsOffer         Kind = "logistics_offer"
	KindChatMessage            Kind = "chat_message"
	KindCompany                Kind = "company"
	KindVerificationRequest    Kind = "verification_request"
	KindInvoicePayment         Kind = "invoice_payment"
)

// IsDeal reports whether the kind names one of the deal aggregates.
func (k Kind) IsDeal() bool {
	return k == KindRecyclablesDeal || k == KindEquipmentDeal
}

// ParseDealKind accepts both the singular kind and the plural route segment.
func ParseDealKind(s string) (Kind, error) {
	switch s {
	case "recyclables_deal", "recyclables_deals", "recyclablesdeal":
		return KindRecyclablesDeal, nil
	case "equipment_deal", "equipment_deals", "equipmentdeal":
		return KindEquipmentDeal, nil
	}
	return "", fmt.Errorf("%w: %q", e.ErrUnsupportedKind, s)
}

// Ref is a polymorphic reference to any entity by kind and id. Rows store it
// as two explicit columns and expose it through an accessor.
type Ref struct {
	Kind Kind      `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

func NewRef(kind Kind, id uuid.UUID) Ref {
	return Ref{Kind: kind, ID: id}
}

func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}
