package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecyclablesApplication is a standing offer to buy or sell a material.
type RecyclablesApplication struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID     uuid.UUID         `gorm:"type:uuid;index;not null" json:"company_id"`
	RecyclablesID uuid.UUID         `gorm:"type:uuid;index;not null" json:"recyclables_id"`
	DealType      DealType          `gorm:"size:8;not null" json:"deal_type"`
	UrgencyType   UrgencyType       `gorm:"size:32;not null" json:"urgency_type"`
	Status        ApplicationStatus `gorm:"size:16;index;not null" json:"status"`
	Price         decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"price"`
	WithNDS       bool              `json:"with_nds"`

	BaleCount  *float64 `json:"bale_count,omitempty"`
	BaleWeight *float64 `json:"bale_weight,omitempty"`
	FullWeight *float64 `json:"full_weight,omitempty"`
	Volume     *float64 `json:"volume,omitempty"`
	LotSize    *float64 `json:"lot_size,omitempty"`
	Weediness  *float64 `json:"weediness,omitempty"`
	Moisture   *float64 `json:"moisture,omitempty"`

	IsPackingDeduction    *bool                `json:"is_packing_deduction,omitempty"`
	PackingDeductionType  PackingDeductionType `gorm:"size:32" json:"packing_deduction_type,omitempty"`
	PackingDeductionValue int                  `json:"packing_deduction_value,omitempty"`

	CityID    *uuid.UUID `gorm:"type:uuid" json:"city_id,omitempty"`
	Address   string     `gorm:"size:512" json:"address,omitempty"`
	Latitude  *float64   `gorm:"index" json:"latitude,omitempty"`
	Longitude *float64   `gorm:"index" json:"longitude,omitempty"`
	VideoURL  string     `gorm:"size:512" json:"video_url,omitempty"`
	Comment   string     `gorm:"size:3000" json:"comment,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (a *RecyclablesApplication) Ref() Ref {
	return NewRef(KindRecyclablesApplication, a.ID)
}

// PackingDeduction reports whether the packaging weight is deducted.
func (a *RecyclablesApplication) PackingDeduction() bool {
	return a.IsPackingDeduction != nil && *a.IsPackingDeduction
}

// TotalWeight is the full weight when given, bale count times bale weight for
// lots ready for shipment, and the contract volume otherwise.
func (a *RecyclablesApplication) TotalWeight() float64 {
	if a.FullWeight != nil && *a.FullWeight > 0 {
		return *a.FullWeight
	}
	if a.UrgencyType == ReadyForShipment {
		if a.BaleCount == nil || a.BaleWeight == nil {
			return 0
		}
		return *a.BaleCount * *a.BaleWeight
	}
	if a.Volume == nil {
		return 0
	}
	return *a.Volume
}

func (a *RecyclablesApplication) TotalPrice() decimal.Decimal {
	if a.UrgencyType == SupplyContract {
		if a.Volume == nil {
			return decimal.Zero
		}
		return decimal.NewFromFloat(*a.Volume).Mul(a.Price)
	}
	return decimal.NewFromFloat(a.TotalWeight()).Mul(a.Price)
}

func (a *RecyclablesApplication) NDSAmount(nds int) decimal.Decimal {
	if !a.WithNDS {
		return decimal.Zero
	}
	return NDSAmount(a.TotalPrice(), nds)
}

// EquipmentApplication is a standing offer to buy or sell equipment units.
type EquipmentApplication struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"company_id"`
	EquipmentID     uuid.UUID         `gorm:"type:uuid;index;not null" json:"equipment_id"`
	DealType        DealType          `gorm:"size:8;not null" json:"deal_type"`
	Status          ApplicationStatus `gorm:"size:16;index;not null" json:"status"`
	Price           decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"price"`
	WithNDS         bool              `json:"with_nds"`
	Count           int               `gorm:"not null" json:"count"`
	ManufactureDate *time.Time        `json:"manufacture_date,omitempty"`
	WasInUse        bool              `json:"was_in_use"`
	SaleByParts     bool              `json:"sale_by_parts"`
	CityID          *uuid.UUID        `gorm:"type:uuid" json:"city_id,omitempty"`
	Address         string            `gorm:"size:512" json:"address,omitempty"`
	Latitude        *float64          `json:"latitude,omitempty"`
	Longitude       *float64          `json:"longitude,omitempty"`
	VideoURL        string            `gorm:"size:512" json:"video_url,omitempty"`
	Comment         string            `gorm:"size:3000" json:"comment,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (a *EquipmentApplication) Ref() Ref {
	return NewRef(KindEquipmentApplication, a.ID)
}

func (a *EquipmentApplication) NDSAmount(nds int) decimal.Decimal {
	if !a.WithNDS {
		return decimal.Zero
	}
	return NDSAmount(a.Price, nds)
}

// InitialApplicationStatus decides publication at creation time only.
func InitialApplicationStatus(company *Company) ApplicationStatus {
	if company != nil && company.IsTrusted() {
		return ApplicationPublished
	}
	return ApplicationOnReview
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	DealType      DealType
	UrgencyType   UrgencyType
	Status        ApplicationStatus
	CompanyID     uuid.UUID
	RecyclablesID uuid.UUID
	Polygon       Polygon
}
