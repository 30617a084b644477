// Package events carries the typed domain events emitted after a state change
// commits. A Dispatcher fans them out to in-process handlers and mirrors them
// to Kafka.
package events

import (
	"encoding/json"
	"fmt"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	TypeDealCreated                       EventType = "deal_created"
	TypeDealStatusChanged                 EventType = "deal_status_changed"
	TypeDealCompleted                     EventType = "deal_completed"
	TypeTransportApplicationCreated       EventType = "transport_application_created"
	TypeTransportApplicationStatusChanged EventType = "transport_application_status_changed"
	TypeApplicationCreated                EventType = "application_created"
	TypeApplicationStatusChanged          EventType = "application_status_changed"
	TypeVerificationStatusChanged         EventType = "verification_status_changed"
	TypeChatMessageCreated                EventType = "chat_message_created"
)

// Event is implemented by every domain event.
type Event interface {
	Type() EventType
	// Subject is the entity the event is about. It keys Kafka messages so
	// events of one entity stay ordered.
	Subject() models.Ref
}

// DealCreated is emitted when two applications are matched into a deal.
type DealCreated struct {
	Deal       models.Ref `json:"deal"`
	DealNumber string     `json:"deal_number"`
	// OwnerCompanyID owns the application the deal was opened on.
	OwnerCompanyID uuid.UUID `json:"owner_company_id"`
	SupplierID     uuid.UUID `json:"supplier_id"`
	BuyerID        uuid.UUID `json:"buyer_id"`
}

type DealStatusChanged struct {
	Deal       models.Ref        `json:"deal"`
	DealNumber string            `json:"deal_number"`
	From       models.DealStatus `json:"from"`
	To         models.DealStatus `json:"to"`
	// Label is the display name of To.
	Label      string            `json:"label"`
	SupplierID uuid.UUID         `json:"supplier_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
}

// DealCompleted follows a DealStatusChanged into COMPLETED and triggers
// settlement.
type DealCompleted struct {
	Deal       models.Ref      `json:"deal"`
	DealNumber string          `json:"deal_number"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	BuyerID    uuid.UUID       `json:"buyer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type TransportApplicationCreated struct {
	Application models.Ref `json:"application"`
	CreatedByID uuid.UUID  `json:"created_by_id"`
}

type TransportApplicationStatusChanged struct {
	Application models.Ref             `json:"application"`
	CreatedByID uuid.UUID              `json:"created_by_id"`
	Status      models.TransportStatus `json:"status"`
	// ApprovedLogistID is nil while no offer has been approved.
	ApprovedLogistID *uuid.UUID `json:"approved_logist_id,omitempty"`
}

// ApplicationCreated covers both recyclables and equipment applications.
type ApplicationCreated struct {
	Application models.Ref `json:"application"`
	CompanyID   uuid.UUID  `json:"company_id"`
}

type ApplicationStatusChanged struct {
	Application models.Ref               `json:"application"`
	CompanyID   uuid.UUID                `json:"company_id"`
	Status      models.ApplicationStatus `json:"status"`
}

type VerificationStatusChanged struct {
	Request   models.Ref                `json:"request"`
	CompanyID uuid.UUID                 `json:"company_id"`
	Status    models.VerificationStatus `json:"status"`
}

type ChatMessageCreated struct {
	Message         models.Ref `json:"message"`
	ChatID          uuid.UUID  `json:"chat_id"`
	AuthorID        uuid.UUID  `json:"author_id"`
	AuthorCompanyID uuid.UUID  `json:"author_company_id"`
	Text            string     `json:"text"`
}

func (DealCreated) Type() EventType { return TypeDealCreated }
func (DealStatusChanged) Type() EventType { return TypeDealStatusChanged }
func (DealCompleted) Type() EventType { return TypeDealCompleted }
func (TransportApplicationCreated) Type() EventType { return TypeTransportApplicationCreated }
func (TransportApplicationStatusChanged) Type() EventType { return TypeTransportApplicationStatusChanged }
func (ApplicationCreated) Type() EventType { return TypeApplicationCreated }
func (ApplicationStatusChanged) Type() EventType { return TypeApplicationStatusChanged }
func (VerificationStatusChanged) Type() EventType { return TypeVerificationStatusChanged }
func (ChatMessageCreated) Type() EventType { return TypeChatMessageCreated }

func (ev DealCreated) Subject() models.Ref { return ev.Deal }
func (ev DealStatusChanged) Subject() models.Ref { return ev.Deal }
func (ev DealCompleted) Subject() models.Ref { return ev.Deal }
func (ev TransportApplicationCreated) Subject() models.Ref { return ev.Application }
func (ev TransportApplicationStatusChanged) Subject() models.Ref { return ev.Application }
func (ev ApplicationCreated) Subject() models.Ref { return ev.Application }
func (ev ApplicationStatusChanged) Subject() models.Ref { return ev.Application }
func (ev VerificationStatusChanged) Subject() models.Ref { return ev.Request }
func (ev ChatMessageCreated) Subject() models.Ref { return ev.Message }

// Envelope is the wire form of an event on Kafka.
type Envelope struct {
	Type    EventType       `json:"type"`
	Subject models.Ref      `json:"subject"`
	Payload json.RawMessage `json:"payload"`
}

var decoders = map[EventType]func([]byte) (Event, error){
	TypeDealCreated:                       decodeAs[DealCreated],
	TypeDealStatusChanged:                 decodeAs[DealStatusChanged],
	TypeDealCompleted:                     decodeAs[DealCompleted],
	TypeTransportApplicationCreated:       decodeAs[TransportApplicationCreated],
	TypeTransportApplicationStatusChanged: decodeAs[TransportApplicationStatusChanged],
	TypeApplicationCreated:                decodeAs[ApplicationCreated],
	TypeApplicationStatusChanged:          decodeAs[ApplicationStatusChanged],
	TypeVerificationStatusChanged:         decodeAs[VerificationStatusChanged],
	TypeChatMessageCreated:                decodeAs[ChatMessageCreated],
}

func decodeAs[T Event](data []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Encode wraps the event into its wire envelope.
func Encode(ev Event) ([]byte, error) {
	payload, err := jsonMarshal(ev)
	if err != nil {
		return nil, err
	}
	return jsonMarshal(Envelope{Type: ev.Type(), Subject: ev.Subject(), Payload: payload})
}

// Decode restores a typed event from its wire envelope.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: event type %q", e.ErrUnsupportedKind, env.Type)
	}
	return decode(env.Payload)
}
