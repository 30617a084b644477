package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deal is the capability shared by recyclables and equipment deals.
type Deal interface {
	Ref() Ref
	Number() string
	CurrentStatus() DealStatus
	SupplierID() uuid.UUID
	BuyerID() uuid.UUID
	ChatRef() uuid.UUID
	// InvoiceAmount is what each party is billed once the deal completes.
	InvoiceAmount() decimal.Decimal
}

// Participants returns both companies of a deal.
func Participants(d Deal) []uuid.UUID {
	return []uuid.UUID{d.SupplierID(), d.BuyerID()}
}

// IsParticipant reports whether the company is one side of the deal.
func IsParticipant(d Deal, companyID uuid.UUID) bool {
	return companyID != uuid.Nil && (companyID == d.SupplierID() || companyID == d.BuyerID())
}

// Counterparty returns the other side of the deal for the given company.
func Counterparty(d Deal, companyID uuid.UUID) uuid.UUID {
	if companyID == d.SupplierID() {
		return d.BuyerID()
	}
	return d.SupplierID()
}

// DeliveryFields are the shipment details shared by both deal kinds.
type DeliveryFields struct {
	PaymentTerm       PaymentTerm `gorm:"size:16" json:"payment_term,omitempty"`
	OtherPaymentTerm  string      `gorm:"size:255" json:"other_payment_term,omitempty"`
	WhoDelivers       WhoDelivers `gorm:"size:16" json:"who_delivers,omitempty"`
	ShippingAddress   string      `gorm:"size:512" json:"shipping_address,omitempty"`
	DeliveryAddress   string      `gorm:"size:512" json:"delivery_address,omitempty"`
	ShippingCityID    *uuid.UUID  `gorm:"type:uuid" json:"shipping_city_id,omitempty"`
	DeliveryCityID    *uuid.UUID  `gorm:"type:uuid" json:"delivery_city_id,omitempty"`
	LoadedWeight      *float64    `json:"loaded_weight,omitempty"`
	AcceptedWeight    *float64    `json:"accepted_weight,omitempty"`
	ShippingDate      *time.Time  `json:"shipping_date,omitempty"`
	DeliveryDate      *time.Time  `json:"delivery_date,omitempty"`
	LoadingHours      string      `gorm:"size:64" json:"loading_hours,omitempty"`
	BuyerPaysShipping bool        `json:"buyer_pays_shipping"`
}

// RecyclablesDeal is an agreed trade derived from a recyclables application.
type RecyclablesDeal struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DealNumber        string     `gorm:"size:8;uniqueIndex;not null" json:"deal_number"`
	ApplicationID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"application_id"`
	SupplierCompanyID uuid.UUID  `gorm:"type:uuid;index;not null" json:"supplier_company_id"`
	BuyerCompanyID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"buyer_company_id"`
	ChatID            uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"chat_id"`
	CreatedByID       *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
	Status            DealStatus `gorm:"size:32;index;not null" json:"status"`

	Weight                *float64             `json:"weight,omitempty"`
	Price                 decimal.Decimal      `gorm:"type:decimal(14,2);not null" json:"price"`
	WithNDS               bool                 `json:"with_nds"`
	IsPackingDeduction    bool                 `json:"is_packing_deduction"`
	PackingDeductionType  PackingDeductionType `gorm:"size:32" json:"packing_deduction_type,omitempty"`
	PackingDeductionValue int                  `json:"packing_deduction_value,omitempty"`
	Comment               string               `gorm:"size:3000" json:"comment,omitempty"`

	DeliveryFields `gorm:"embedded"`

	Application *RecyclablesApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func (d *RecyclablesDeal) Ref() Ref { return NewRef(KindRecyclablesDeal, d.ID) }
func (d *RecyclablesDeal) Number() string { return d.DealNumber }
func (d *RecyclablesDeal) CurrentStatus() DealStatus { return d.Status }
func (d *RecyclablesDeal) SupplierID() uuid.UUID { return d.SupplierCompanyID }
func (d *RecyclablesDeal) BuyerID() uuid.UUID { return d.BuyerCompanyID }
func (d *RecyclablesDeal) ChatRef() uuid.UUID { return d.ChatID }

// InvoiceAmount is the deal weight. Invoices are issued per transported
// weight, not per total price.
func (d *RecyclablesDeal) InvoiceAmount() decimal.Decimal {
	if d.Weight == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*d.Weight)
}

// TotalPrice is weight times price with the packaging deduction applied.
// The second result is false while the weight is not agreed yet.
func (d *RecyclablesDeal) TotalPrice() (decimal.Decimal, bool, error) {
	if d.Weight == nil || *d.Weight == 0 {
		return decimal.Zero, false, nil
	}
	weight := decimal.NewFromFloat(*d.Weight)
	if !d.IsPackingDeduction {
		return weight.Mul(d.Price), true, nil
	}
	baleCount := decimal.Zero
	if d.Application != nil && d.Application.BaleWeight != nil && *d.Application.BaleWeight > 0 {
		baleCount = weight.Div(decimal.NewFromFloat(*d.Application.BaleWeight)).Floor()
	}
	total, err := PriceIncludingDeduction(weight, d.Price, baleCount, d.PackingDeductionType, d.PackingDeductionValue)
	if err != nil {
		return decimal.Zero, false, err
	}
	return total, true, nil
}

func (d *RecyclablesDeal) NDSAmount(nds int) decimal.Decimal {
	if !d.WithNDS {
		return decimal.Zero
	}
	total, ok, err := d.TotalPrice()
	if err != nil || !ok {
		return decimal.Zero
	}
	return NDSAmount(total, nds)
}

// EquipmentDeal is an agreed trade derived from an equipment application.
type EquipmentDeal struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DealNumber        string          `gorm:"size:8;uniqueIndex;not null" json:"deal_number"`
	ApplicationID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"application_id"`
	SupplierCompanyID uuid.UUID       `gorm:"type:uuid;index;not null" json:"supplier_company_id"`
	BuyerCompanyID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"buyer_company_id"`
	ChatID            uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"chat_id"`
	CreatedByID       *uuid.UUID      `gorm:"type:uuid" json:"created_by_id,omitempty"`
	Status            DealStatus      `gorm:"size:32;index;not null" json:"status"`
	Count             int             `gorm:"not null" json:"count"`
	Price             decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	WithNDS           bool            `json:"with_nds"`
	Weight            *float64        `json:"weight,omitempty"`
	Comment           string          `gorm:"size:3000" json:"comment,omitempty"`

	DeliveryFields `gorm:"embedded"`

	Application *EquipmentApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (d *EquipmentDeal) Ref() Ref { return NewRef(KindEquipmentDeal, d.ID) }
func (d *EquipmentDeal) Number() string { return d.DealNumber }
func (d *EquipmentDeal) CurrentStatus() DealStatus { return d.Status }
func (d *EquipmentDeal) SupplierID() uuid.UUID { return d.SupplierCompanyID }
func (d *EquipmentDeal) BuyerID() uuid.UUID { return d.BuyerCompanyID }
func (d *EquipmentDeal) ChatRef() uuid.UUID { return d.ChatID }

// InvoiceAmount falls back to the unit count while no weight is recorded.
func (d *EquipmentDeal) InvoiceAmount() decimal.Decimal {
	if d.Weight != nil {
		return decimal.NewFromFloat(*d.Weight)
	}
	return decimal.NewFromInt(int64(d.Count))
}

func (d *EquipmentDeal) TotalPrice() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Count)))
}

func (d *EquipmentDeal) NDSAmount(nds int) decimal.Decimal {
	if !d.WithNDS {
		return decimal.Zero
	}
	return NDSAmount(d.Price, nds)
}

// DealUpdate carries the mutable fields of either deal kind.
// Pointer types are used to allow partial updates.
type DealUpdate struct {
	Status            *DealStatus      `json:"status,omitempty"`
	Weight            *float64         `json:"weight,omitempty"`
	Count             *int             `json:"count,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	PaymentTerm       *PaymentTerm     `json:"payment_term,omitempty"`
	OtherPaymentTerm  *string          `json:"other_payment_term,omitempty"`
	WhoDelivers       *WhoDelivers     `json:"who_delivers,omitempty"`
	ShippingAddress   *string          `json:"shipping_address,omitempty"`
	DeliveryAddress   *string          `json:"delivery_address,omitempty"`
	ShippingCityID    *uuid.UUID       `json:"shipping_city_id,omitempty"`
	DeliveryCityID    *uuid.UUID       `json:"delivery_city_id,omitempty"`
	LoadedWeight      *float64         `json:"loaded_weight,omitempty"`
	AcceptedWeight    *float64         `json:"accepted_weight,omitempty"`
	ShippingDate      *time.Time       `json:"shipping_date,omitempty"`
	DeliveryDate      *time.Time       `json:"delivery_date,omitempty"`
	LoadingHours      *string          `json:"loading_hours,omitempty"`
	BuyerPaysShipping *bool            `json:"buyer_pays_shipping,omitempty"`
	Comment           *string          `json:"comment,omitempty"`
}

// Columns converts the update into a column map for the given deal kind,
// skipping status which is written by the state machine.
func (u *DealUpdate) Columns(kind Kind) map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Weight != nil {
		cols["weight"] = *u.Weight
	}
	if u.Count != nil && kind == KindEquipmentDeal {
		cols["count"] = *u.Count
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.PaymentTerm != nil {
		cols["payment_term"] = *u.PaymentTerm
	}
	if u.OtherPaymentTerm != nil {
		cols["other_payment_term"] = *u.OtherPaymentTerm
	}
	if u.WhoDelivers != nil {
		cols["who_delivers"] = *u.WhoDelivers
	}
	if u.ShippingAddress != nil {
		cols["shipping_address"] = *u.ShippingAddress
	}
	if u.DeliveryAddress != nil {
		cols["delivery_address"] = *u.DeliveryAddress
	}
	if u.ShippingCityID != nil {
		cols["shipping_city_id"] = *u.ShippingCityID
	}
	if u.DeliveryCityID != nil {
		cols["delivery_city_id"] = *u.DeliveryCityID
	}
	if u.LoadedWeight != nil {
		cols["loaded_weight"] = *u.LoadedWeight
	}
	if u.AcceptedWeight != nil {
		cols["accepted_weight"] = *u.AcceptedWeight
	}
	if u.ShippingDate != nil {
		cols["shipping_date"] = *u.ShippingDate
	}
	if u.DeliveryDate != nil {
		cols["delivery_date"] = *u.DeliveryDate
	}
	if u.LoadingHours != nil {
		cols["loading_hours"] = *u.LoadingHours
	}
	if u.BuyerPaysShipping != nil {
		cols["buyer_pays_shipping"] = *u.BuyerPaysShipping
	}
	if u.Comment != nil {
		cols["comment"] = *u.Comment
	}
	return cols
}

// DealFilter narrows deal listings.
type DealFilter struct {
	CompanyID uuid.UUID
	Status    DealStatus
}
