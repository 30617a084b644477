package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LogisticsRepository interface {
	GetTransportApplication(ctx context.Context, id uuid.UUID) (*models.TransportApplication, error)
	ListTransportApplications(ctx context.Context, f models.TransportFilter, page db.Page) ([]models.TransportApplication, int64, error)
	GetLogisticsOffer(ctx context.Context, id uuid.UUID) (*models.LogisticsOffer, error)
	ListLogisticsOffers(ctx context.Context, applicationID uuid.UUID) ([]models.LogisticsOffer, error)
	CreateContractor(ctx context.Context, c *models.Contractor) error
	GetContractor(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
	SaveContractor(ctx context.Context, c *models.Contractor) error
	DeleteContractor(ctx context.Context, id uuid.UUID) error
	ListContractors(ctx context.Context, companyID uuid.UUID, page db.Page) ([]models.Contractor, int64, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// LogisticsService runs transport applications and the offers logists make
// on them.
type LogisticsService struct {
	repo       LogisticsRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
}

func NewLogisticsService(repo LogisticsRepository, dispatcher EventDispatcher, logger *zap.Logger) *LogisticsService {
	return &LogisticsService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger.Named("logistics_service"),
	}
}

func offerChatName(offerID, applicationID uuid.UUID) string {
	return fmt.Sprintf("Logistics offer № %s for application № %s", offerID, applicationID)
}

// offerName is the display name of an offer: who bids, how much and by when.
func offerName(logist *models.User, offer *models.LogisticsOffer) string {
	who := strings.TrimSpace(logist.LastName + " " + logist.FirstName)
	if who == "" {
		who = logist.Phone
	}
	return fmt.Sprintf("Offer from logist %s %s RUB until %s",
		who, offer.Amount.String(), offer.ShippingDate.Format("2006-01-02"))
}

// CreateTransportApplication opens a transport request, optionally for a
// deal. A linked deal moves to DISPATCHER_APPOINTMENT in the same
// transaction.
func (s *LogisticsService) CreateTransportApplication(ctx context.Context, actor models.Actor, app *models.TransportApplication) (*models.TransportApplication, error) {
	if (app.DealKind == nil) != (app.DealID == nil) {
		return nil, e.NewValidationError(map[string]string{
			"deal_type": "deal_type and object_id must be given together",
			"object_id": "deal_type and object_id must be given together",
		})
	}
	ref, linked := app.DealRef()
	if linked && !ref.Kind.IsDeal() {
		return nil, fmt.Errorf("%w: %q is not a deal", e.ErrUnsupportedKind, ref.Kind)
	}
	fields := map[string]string{}
	if app.Weight != nil && *app.Weight < 0 {
		fields["weight"] = "must not be negative"
	}
	if app.Price != nil && app.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, e.NewValidationError(fields)
	}

	app.ID = uuid.New()
	app.CreatedByID = actor.UserID
	app.Status = models.TransportAgreement
	app.ApprovedLogisticsOfferID = nil
	app.ApprovedLogisticsOffer = nil

	var before, after models.Deal
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if linked {
			var err error
			before, err = tx.GetDeal(ctx, ref)
			if err != nil {
				return err
			}
			if !actor.IsStaff() && !models.IsParticipant(before, actor.CompanyID) {
				return fmt.Errorf("%w: not a party of deal %s", e.ErrForbidden, before.Number())
			}
			status := models.DealDispatcherAppointment
			if err := applyDealUpdate(ctx, tx, before, &models.DealUpdate{Status: &status}); err != nil {
				return err
			}
			if after, err = tx.GetDeal(ctx, ref); err != nil {
				return err
			}
		}
		return tx.CreateTransportApplication(ctx, app)
	})
	if err != nil {
		if errors.Is(err, e.ErrDuplicate) {
			return nil, fmt.Errorf("%w: the deal already has a transport application", e.ErrDuplicate)
		}
		return nil, err
	}

	s.logger.Info("Transport application created",
		zap.String("application_id", app.ID.String()),
		zap.Bool("linked_to_deal", linked),
	)
	evs := []events.Event{events.TransportApplicationCreated{Application: app.Ref(), CreatedByID: app.CreatedByID}}
	if linked {
		evs = append(evs, statusEvents(before, after)...)
	}
	s.dispatcher.Dispatch(ctx, evs...)
	return app, nil
}

// GetTransportApplication is visible to logists so they can bid; the
// logist's own position is filled in.
func (s *LogisticsService) GetTransportApplication(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.TransportApplication, error) {
	app, err := s.repo.GetTransportApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsLogist():
		offers, err := s.repo.ListLogisticsOffers(ctx, id)
		if err != nil {
			return nil, err
		}
		var own *models.LogisticsOffer
		for i := range offers {
			if offers[i].LogistID == actor.UserID {
				own = &offers[i]
				break
			}
		}
		app.LogistStatus = models.LogistStatusFor(app, own)
	case actor.IsStaff(), app.CreatedByID == actor.UserID:
	default:
		return nil, fmt.Errorf("%w: not your transport application", e.ErrForbidden)
	}
	return app, nil
}

// ListTransportApplications shows logists every application annotated with
// their own status, staff everything and other users their own requests.
func (s *LogisticsService) ListTransportApplications(ctx context.Context, actor models.Actor, f models.TransportFilter, page db.Page) (Page[models.TransportApplication], error) {
	switch {
	case actor.IsLogist():
		f.LogistID = actor.UserID
	case actor.IsStaff():
		f.LogistStatus = ""
	default:
		f.CreatedByID = actor.UserID
		f.LogistStatus = ""
	}
	items, total, err := s.repo.ListTransportApplications(ctx, f, page)
	if err != nil {
		return Page[models.TransportApplication]{}, err
	}
	return Page[models.TransportApplication]{Items: items, Total: total}, nil
}

func canManageTransport(actor models.Actor, app *models.TransportApplication) bool {
	return actor.IsStaff() || app.CreatedByID == actor.UserID
}

// UpdateTransportStatus moves a transport application through its
// transition table, writes the deal fields that come with the status and
// propagates LOADING and UNLOADING to the linked deal.
func (s *LogisticsService) UpdateTransportStatus(ctx context.Context, actor models.Actor, id uuid.UUID, update *models.TransportUpdate) (*models.TransportApplication, error) {
	if !update.Status.Valid() {
		return nil, e.NewValidationError(map[string]string{"status": fmt.Sprintf("unknown status %q", update.Status)})
	}
	if err := validateDealUpdate(&update.Deal); err != nil {
		return nil, err
	}

	var (
		app           *models.TransportApplication
		previous      models.TransportStatus
		logistID      *uuid.UUID
		before, after models.Deal
	)
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		app, err = tx.GetTransportApplication(ctx, id)
		if err != nil {
			return err
		}
		approvedLogist := app.ApprovedLogisticsOffer != nil && app.ApprovedLogisticsOffer.LogistID == actor.UserID
		if !canManageTransport(actor, app) && !approvedLogist {
			return fmt.Errorf("%w: not allowed to change transport application %s", e.ErrForbidden, id)
		}
		previous = app.Status
		// CANCELED clears the approved offer, its logist is still notified.
		if app.ApprovedLogisticsOffer != nil {
			logistID = &app.ApprovedLogisticsOffer.LogistID
		}
		if err := models.ValidateTransportTransition(app.Status, update.Status); err != nil {
			return err
		}

		ref, linked := app.DealRef()
		if linked {
			if missing := update.MissingDealFields(); len(missing) > 0 {
				return e.Required(missing...)
			}
		}

		if update.Status != previous {
			if err := s.applyOfferRules(ctx, tx, app, update.Status); err != nil {
				return err
			}
			if err := tx.CompareAndSetTransportStatus(ctx, app.ID, previous, update.Status); err != nil {
				return err
			}
		}

		if linked {
			if before, err = tx.GetDeal(ctx, ref); err != nil {
				return err
			}
			dealUpdate := update.Deal
			dealUpdate.Status = nil
			if target, ok := models.DealStatusForTransport(update.Status); ok && update.Status != previous {
				dealUpdate.Status = &target
			}
			if before.CurrentStatus().IsTerminal() && (dealUpdate.Status != nil || len(dealUpdate.Columns(ref.Kind)) > 0) {
				return fmt.Errorf("%w: deal %s is %s", e.ErrDealClosed, before.Number(), before.CurrentStatus())
			}
			if err := applyDealUpdate(ctx, tx, before, &dealUpdate); err != nil {
				return err
			}
			if after, err = tx.GetDeal(ctx, ref); err != nil {
				return err
			}
		}

		app, err = tx.GetTransportApplication(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	var evs []events.Event
	if app.Status != previous {
		s.logger.Info("Transport application status changed",
			zap.String("application_id", app.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(app.Status)),
		)
		evs = append(evs, events.TransportApplicationStatusChanged{
			Application:      app.Ref(),
			CreatedByID:      app.CreatedByID,
			Status:           app.Status,
			ApprovedLogistID: logistID,
		})
	}
	if before != nil && after != nil {
		evs = append(evs, statusEvents(before, after)...)
	}
	s.dispatcher.Dispatch(ctx, evs...)
	return app, nil
}

// applyOfferRules settles the offers for the status being entered:
// UNLOADING keeps only the approved offer, CANCELED declines every offer.
func (s *LogisticsService) applyOfferRules(ctx context.Context, tx *db.Repository, app *models.TransportApplication, to models.TransportStatus) error {
	switch to {
	case models.TransportUnloading:
		if app.ApprovedLogisticsOfferID == nil {
			return fmt.Errorf("%w: transport application %s", e.ErrNoApprovedOffer, app.ID)
		}
		n, err := tx.DeclineOtherOffers(ctx, app.ID, *app.ApprovedLogisticsOfferID)
		if err != nil {
			return err
		}
		s.logger.Debug("Declined competing offers", zap.String("application_id", app.ID.String()), zap.Int64("count", n))
	case models.TransportCanceled:
		if _, err := tx.DeclineAllOffers(ctx, app.ID); err != nil {
			return err
		}
		return tx.ClearApprovedOffer(ctx, app.ID)
	}
	return nil
}

// CreateOffer stores a logist's bid together with its chat. The offer id is
// allocated first so the chat can be named after it in the same write.
func (s *LogisticsService) CreateOffer(ctx context.Context, actor models.Actor, offer *models.LogisticsOffer) (*models.LogisticsOffer, error) {
	fields := map[string]string{}
	if offer.ApplicationID == uuid.Nil {
		fields["application"] = "required field"
	}
	if !offer.Amount.IsPositive() {
		fields["amount"] = "must be positive"
	}
	if offer.ContractorID == nil {
		fields["contractor"] = "required field"
	}
	if offer.ShippingDate == nil {
		fields["shipping_date"] = "required field"
	}
	if len(fields) > 0 {
		return nil, e.NewValidationError(fields)
	}

	offer.ID = uuid.New()
	offer.LogistID = actor.UserID
	offer.Status = models.OfferPending

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		app, err := tx.GetTransportApplication(ctx, offer.ApplicationID)
		if err != nil {
			return err
		}
		if app.Status.IsTerminal() {
			return fmt.Errorf("%w: transport application is %s", e.ErrInvalidTransition, app.Status)
		}
		if _, err := tx.GetContractor(ctx, *offer.ContractorID); err != nil {
			return fmt.Errorf("contractor: %w", err)
		}
		logist, err := tx.GetUser(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("logist: %w", err)
		}
		offer.Name = offerName(logist, offer)
		chat := &models.Chat{ID: uuid.New(), Name: offerChatName(offer.ID, app.ID)}
		if err := tx.CreateChat(ctx, chat); err != nil {
			return err
		}
		offer.ChatID = chat.ID
		return tx.CreateLogisticsOffer(ctx, offer)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Logistics offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("application_id", offer.ApplicationID.String()),
	)
	return offer, nil
}

// ListOffers returns every offer to the requester and staff, and a logist
// only their own.
func (s *LogisticsService) ListOffers(ctx context.Context, actor models.Actor, applicationID uuid.UUID) ([]models.LogisticsOffer, error) {
	app, err := s.repo.GetTransportApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	offers, err := s.repo.ListLogisticsOffers(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if canManageTransport(actor, app) {
		return offers, nil
	}
	own := make([]models.LogisticsOffer, 0, 1)
	for _, o := range offers {
		if o.LogistID == actor.UserID {
			own = append(own, o)
		}
	}
	return own, nil
}

// ApproveOffer gives the application's approved slot to the offer. Once an
// offer holds it, approving another fails with ErrOfferAlreadyApproved.
func (s *LogisticsService) ApproveOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.LogisticsOffer, error) {
	var offer *models.LogisticsOffer
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		offer, err = tx.GetLogisticsOffer(ctx, offerID)
		if err != nil {
			return err
		}
		app, err := tx.GetTransportApplication(ctx, offer.ApplicationID)
		if err != nil {
			return err
		}
		if !canManageTransport(actor, app) {
			return fmt.Errorf("%w: only the requester approves offers", e.ErrForbidden)
		}
		if app.Status.IsTerminal() {
			return fmt.Errorf("%w: transport application is %s", e.ErrInvalidTransition, app.Status)
		}
		if offer.Status == models.OfferDeclined {
			return fmt.Errorf("%w: offer was declined", e.ErrInvalidTransition)
		}
		if err := tx.ClaimApprovedOffer(ctx, app.ID, offer.ID); err != nil {
			return err
		}
		offer.Status = models.OfferApproved
		return tx.SetOfferStatus(ctx, offer.ID, models.OfferApproved)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Logistics offer approved",
		zap.String("offer_id", offer.ID.String()),
		zap.String("application_id", offer.ApplicationID.String()),
	)
	return offer, nil
}

// DeclineOffer declines the offer; declining the approved one frees the
// application's approved slot.
func (s *LogisticsService) DeclineOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.LogisticsOffer, error) {
	var offer *models.LogisticsOffer
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		offer, err = tx.GetLogisticsOffer(ctx, offerID)
		if err != nil {
			return err
		}
		app, err := tx.GetTransportApplication(ctx, offer.ApplicationID)
		if err != nil {
			return err
		}
		if !canManageTransport(actor, app) {
			return fmt.Errorf("%w: only the requester declines offers", e.ErrForbidden)
		}
		if err := tx.SetOfferStatus(ctx, offer.ID, models.OfferDeclined); err != nil {
			return err
		}
		offer.Status = models.OfferDeclined
		if app.ApprovedLogisticsOfferID != nil && *app.ApprovedLogisticsOfferID == offer.ID {
			return tx.ClearApprovedOffer(ctx, app.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Contractors belong to the company of the logist or company admin who
// registered them.
func requireContractorAccess(actor models.Actor) error {
	if actor.Role < models.RoleLogist || actor.CompanyID == uuid.Nil {
		return fmt.Errorf("%w: contractors are managed by company logists and admins", e.ErrForbidden)
	}
	return nil
}

func validateContractor(c *models.Contractor) error {
	fields := map[string]string{}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		fields["name"] = "required field"
	}
	if strings.TrimSpace(c.Address) == "" {
		fields["address"] = "required field"
	}
	switch c.ContractorType {
	case models.ContractorTransport:
		if c.TransportOwnsCount == nil {
			fields["transport_owns_count"] = "required for transport companies"
		} else if *c.TransportOwnsCount < 0 {
			fields["transport_owns_count"] = "must not be negative"
		}
	case models.ContractorDispatcher, models.ContractorDriver:
	default:
		fields["contractor_type"] = fmt.Sprintf("unknown type %q", c.ContractorType)
	}
	if len(fields) > 0 {
		return e.NewValidationError(fields)
	}
	return nil
}

func (s *LogisticsService) CreateContractor(ctx context.Context, actor models.Actor, c *models.Contractor) (*models.Contractor, error) {
	if err := requireContractorAccess(actor); err != nil {
		return nil, err
	}
	if err := validateContractor(c); err != nil {
		return nil, err
	}
	c.ID = uuid.New()
	c.CreatedByID = actor.UserID
	c.CompanyID = actor.CompanyID
	if err := s.repo.CreateContractor(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contractor: %w", err)
	}
	return c, nil
}

func (s *LogisticsService) GetContractor(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Contractor, error) {
	if err := requireContractorAccess(actor); err != nil {
		return nil, err
	}
	c, err := s.repo.GetContractor(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.CompanyID != actor.CompanyID {
		// other companies' contractors are invisible
		return nil, e.ErrNotFound
	}
	return c, nil
}

func (s *LogisticsService) UpdateContractor(ctx context.Context, actor models.Actor, c *models.Contractor) (*models.Contractor, error) {
	existing, err := s.GetContractor(ctx, actor, c.ID)
	if err != nil {
		return nil, err
	}
	if err := validateContractor(c); err != nil {
		return nil, err
	}
	c.CreatedByID = existing.CreatedByID
	c.CompanyID = existing.CompanyID
	c.CreatedAt = existing.CreatedAt
	if err := s.repo.SaveContractor(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update contractor: %w", err)
	}
	return c, nil
}

func (s *LogisticsService) DeleteContractor(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if _, err := s.GetContractor(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.DeleteContractor(ctx, id)
}

func (s *LogisticsService) ListContractors(ctx context.Context, actor models.Actor, page db.Page) (Page[models.Contractor], error) {
	if err := requireContractorAccess(actor); err != nil {
		return Page[models.Contractor]{}, err
	}
	items, total, err := s.repo.ListContractors(ctx, actor.CompanyID, page)
	if err != nil {
		return Page[models.Contractor]{}, err
	}
	return Page[models.Contractor]{Items: items, Total: total}, nil
}
