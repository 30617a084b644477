package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransportApplication is a request for physical transport, optionally tied
// to a deal. At most one transport application exists per deal.
type TransportApplication struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DealKind    *Kind           `gorm:"size:32;uniqueIndex:idx_transport_deal" json:"deal_type,omitempty"`
	DealID      *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_transport_deal" json:"object_id,omitempty"`
	CreatedByID uuid.UUID       `gorm:"type:uuid;index;not null" json:"created_by_id"`
	Status      TransportStatus `gorm:"size:32;index;not null" json:"status"`

	ShippingAddress string           `gorm:"size:512" json:"shipping_address,omitempty"`
	DeliveryAddress string           `gorm:"size:512" json:"delivery_address,omitempty"`
	ShippingCityID  *uuid.UUID       `gorm:"type:uuid" json:"shipping_city_id,omitempty"`
	DeliveryCityID  *uuid.UUID       `gorm:"type:uuid" json:"delivery_city_id,omitempty"`
	ShippingDate    *time.Time       `json:"shipping_date,omitempty"`
	Cargo           string           `gorm:"size:512" json:"cargo,omitempty"`
	Weight          *float64         `json:"weight,omitempty"`
	Price           *decimal.Decimal `gorm:"type:decimal(14,2)" json:"price,omitempty"`
	Comment         string           `gorm:"size:3000" json:"comment,omitempty"`

	ApprovedLogisticsOfferID *uuid.UUID      `gorm:"type:uuid" json:"approved_logistics_offer_id,omitempty"`
	ApprovedLogisticsOffer   *LogisticsOffer `gorm:"foreignKey:ApprovedLogisticsOfferID" json:"approved_logistics_offer,omitempty"`

	// LogistStatus is computed for the calling logist on listing.
	LogistStatus LogistStatus `gorm:"-" json:"logist_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *TransportApplication) Ref() Ref {
	return NewRef(KindTransportApplication, t.ID)
}

// DealRef returns the linked deal reference and whether one is set.
func (t *TransportApplication) DealRef() (Ref, bool) {
	if t.DealKind == nil || t.DealID == nil {
		return Ref{}, false
	}
	return NewRef(*t.DealKind, *t.DealID), true
}

// TransportUpdate is a status change of a transport application plus the
// deal fields recorded along with it.
type TransportUpdate struct {
	Status TransportStatus
	Deal   DealUpdate
}

// RequiredDealFields lists the deal fields a transport status requires.
func RequiredDealFields(s TransportStatus) []string {
	switch s {
	case TransportCompleted:
		return []string{"delivery_date", "accepted_weight"}
	case TransportUnloading:
		return []string{"shipping_date", "loaded_weight"}
	}
	return nil
}

// MissingDealFields returns the required fields absent from the update.
func (u *TransportUpdate) MissingDealFields() []string {
	var missing []string
	for _, f := range RequiredDealFields(u.Status) {
		switch f {
		case "delivery_date":
			if u.Deal.DeliveryDate == nil {
				missing = append(missing, f)
			}
		case "accepted_weight":
			if u.Deal.AcceptedWeight == nil {
				missing = append(missing, f)
			}
		case "shipping_date":
			if u.Deal.ShippingDate == nil {
				missing = append(missing, f)
			}
		case "loaded_weight":
			if u.Deal.LoadedWeight == nil {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// LogisticsOffer is a logist's bid to carry out a transport application.
type LogisticsOffer struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID       `gorm:"type:uuid;index;not null" json:"application_id"`
	LogistID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"logist_id"`
	ContractorID  *uuid.UUID      `gorm:"type:uuid" json:"contractor_id,omitempty"`
	ChatID        uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"chat_id"`
	Name          string          `gorm:"size:255" json:"name"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	ShippingDate  *time.Time      `json:"shipping_date,omitempty"`
	Status        OfferStatus     `gorm:"size:16;index;not null" json:"status"`
	Comment       string          `gorm:"size:3000" json:"comment,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (o *LogisticsOffer) Ref() Ref {
	return NewRef(KindLogisticsOffer, o.ID)
}

// LogistStatusFor derives how a transport application looks to a logist
// given that logist's own offer, if any.
func LogistStatusFor(app *TransportApplication, own *LogisticsOffer) LogistStatus {
	if own == nil {
		return LogistNew
	}
	if app.ApprovedLogisticsOfferID != nil && *app.ApprovedLogisticsOfferID == own.ID {
		return LogistApproved
	}
	switch own.Status {
	case OfferApproved:
		return LogistApproved
	case OfferDeclined:
		return LogistDeclined
	}
	return LogistPending
}

// Contractor is a real-world carrier referenced by offers.
type Contractor struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedByID        uuid.UUID      `gorm:"type:uuid;not null" json:"created_by_id"`
	CompanyID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"company_id"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	ContractorType     ContractorType `gorm:"size:16;not null" json:"contractor_type"`
	Address            string         `gorm:"size:512;not null" json:"address"`
	TransportOwnsCount *int           `json:"transport_owns_count,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TransportFilter narrows transport application listings.
type TransportFilter struct {
	Status       TransportStatus
	CreatedByID  uuid.UUID
	LogistID     uuid.UUID
	LogistStatus LogistStatus
}
