package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dealNumberLength   = 8
	dealNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	dealNumberAttempts = 5

	recyclablesChatPrefix = "Recyclables deal № "
	equipmentChatPrefix   = "Equipment deal № "
)

// newDealNumber is swapped in tests to force collisions.
var newDealNumber = randomDealNumber

func randomDealNumber() string {
	b := make([]byte, dealNumberLength)
	for i := range b {
		b[i] = dealNumberAlphabet[rand.IntN(len(dealNumberAlphabet))]
	}
	return string(b)
}

type DealRepository interface {
	GetRecyclablesApplication(ctx context.Context, id uuid.UUID) (*models.RecyclablesApplication, error)
	GetEquipmentApplication(ctx context.Context, id uuid.UUID) (*models.EquipmentApplication, error)
	GetDeal(ctx context.Context, ref models.Ref) (models.Deal, error)
	ListRecyclablesDeals(ctx context.Context, f models.DealFilter, page db.Page) ([]models.RecyclablesDeal, int64, error)
	ListEquipmentDeals(ctx context.Context, f models.DealFilter, page db.Page) ([]models.EquipmentDeal, int64, error)
	TransportApplicationByDeal(ctx context.Context, ref models.Ref) (*models.TransportApplication, error)
	ReviewExists(ctx context.Context, ref models.Ref, companyID uuid.UUID) (bool, error)
	CreateReview(ctx context.Context, review *models.Review) error
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// DealView is a deal with the figures computed for the caller.
type DealView struct {
	Deal models.Deal `json:"deal"`
	// TotalPrice is nil while the weight is not agreed.
	TotalPrice *decimal.Decimal `json:"total_price"`
	NDSAmount  decimal.Decimal  `json:"nds_amount"`
	NeedReview bool             `json:"need_review"`
}

// DealService matches applications into deals and drives the deal
// lifecycle.
type DealService struct {
	repo       DealRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
}

func NewDealService(repo DealRepository, dispatcher EventDispatcher, logger *zap.Logger) *DealService {
	return &DealService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger.Named("deal_service"),
	}
}

// Match pairs a buying and a selling recyclables application into a deal on
// the selling application. Neither application changes status.
func (s *DealService) Match(ctx context.Context, actor models.Actor, buyingID, sellingID uuid.UUID) (*models.RecyclablesDeal, error) {
	buying, err := s.repo.GetRecyclablesApplication(ctx, buyingID)
	if err != nil {
		return nil, fmt.Errorf("buying application: %w", err)
	}
	selling, err := s.repo.GetRecyclablesApplication(ctx, sellingID)
	if err != nil {
		return nil, fmt.Errorf("selling application: %w", err)
	}
	if err := validateMatch(buying, selling); err != nil {
		return nil, err
	}

	deal := &models.RecyclablesDeal{
		ID:                    uuid.New(),
		ApplicationID:         selling.ID,
		SupplierCompanyID:     selling.CompanyID,
		BuyerCompanyID:        buying.CompanyID,
		Status:                models.DealAgreement,
		Price:                 selling.Price,
		WithNDS:               selling.WithNDS,
		IsPackingDeduction:    selling.PackingDeduction(),
		PackingDeductionType:  selling.PackingDeductionType,
		PackingDeductionValue: selling.PackingDeductionValue,
	}
	if w := selling.TotalWeight(); w > 0 {
		deal.Weight = &w
	}
	if actor.UserID != uuid.Nil {
		deal.CreatedByID = &actor.UserID
	}

	if err := s.persistRecyclablesDeal(ctx, deal); err != nil {
		return nil, err
	}
	deal.Application = selling

	s.logger.Info("Applications matched",
		zap.String("deal_id", deal.ID.String()),
		zap.String("deal_number", deal.DealNumber),
		zap.String("buying_id", buyingID.String()),
		zap.String("selling_id", sellingID.String()),
	)
	s.dispatcher.Dispatch(ctx, dealCreated(deal, selling.CompanyID))
	return deal, nil
}

func validateMatch(buying, selling *models.RecyclablesApplication) error {
	if buying.DealType != models.Buy || selling.DealType != models.Sell {
		return e.NewValidationError(map[string]string{
			"deal_type": "expected one buying and one selling application, they may be swapped",
		})
	}
	if buying.RecyclablesID != selling.RecyclablesID {
		return e.NewValidationError(map[string]string{"recyclables": "applications are for different recyclables"})
	}
	if buying.UrgencyType != selling.UrgencyType {
		return e.NewValidationError(map[string]string{"urgency_type": "applications have different urgency"})
	}
	return nil
}

// CreateRecyclablesDeal lets staff open a deal directly on an application.
func (s *DealService) CreateRecyclablesDeal(ctx context.Context, actor models.Actor, deal *models.RecyclablesDeal) (*models.RecyclablesDeal, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	app, err := s.repo.GetRecyclablesApplication(ctx, deal.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := validateParties(deal.SupplierCompanyID, deal.BuyerCompanyID); err != nil {
		return nil, err
	}
	if deal.Price.IsNegative() {
		return nil, e.NewValidationError(map[string]string{"price": "must not be negative"})
	}
	deal.ID = uuid.New()
	deal.Status = models.DealAgreement
	deal.CreatedByID = &actor.UserID
	if err := s.persistRecyclablesDeal(ctx, deal); err != nil {
		return nil, err
	}
	deal.Application = app
	s.dispatcher.Dispatch(ctx, dealCreated(deal, app.CompanyID))
	return deal, nil
}

func (s *DealService) CreateEquipmentDeal(ctx context.Context, actor models.Actor, deal *models.EquipmentDeal) (*models.EquipmentDeal, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	app, err := s.repo.GetEquipmentApplication(ctx, deal.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := validateParties(deal.SupplierCompanyID, deal.BuyerCompanyID); err != nil {
		return nil, err
	}
	if deal.Count <= 0 {
		return nil, e.NewValidationError(map[string]string{"count": "must be positive"})
	}
	deal.ID = uuid.New()
	deal.Status = models.DealAgreement
	deal.CreatedByID = &actor.UserID

	err = s.withDealNumber(ctx, equipmentChatPrefix, func(tx *db.Repository, number string, chatID uuid.UUID) error {
		deal.DealNumber = number
		deal.ChatID = chatID
		return tx.CreateEquipmentDeal(ctx, deal)
	})
	if err != nil {
		return nil, err
	}
	deal.Application = app
	s.dispatcher.Dispatch(ctx, dealCreated(deal, app.CompanyID))
	return deal, nil
}

func validateParties(supplier, buyer uuid.UUID) error {
	fields := map[string]string{}
	if supplier == uuid.Nil {
		fields["supplier_company"] = "required field"
	}
	if buyer == uuid.Nil {
		fields["buyer_company"] = "required field"
	}
	if supplier != uuid.Nil && supplier == buyer {
		fields["buyer_company"] = "must differ from the supplier"
	}
	if len(fields) > 0 {
		return e.NewValidationError(fields)
	}
	return nil
}

func (s *DealService) persistRecyclablesDeal(ctx context.Context, deal *models.RecyclablesDeal) error {
	return s.withDealNumber(ctx, recyclablesChatPrefix, func(tx *db.Repository, number string, chatID uuid.UUID) error {
		deal.DealNumber = number
		deal.ChatID = chatID
		return tx.CreateRecyclablesDeal(ctx, deal)
	})
}

// withDealNumber creates the deal chat and runs create in one transaction,
// drawing a fresh deal number whenever the unique index rejects one.
func (s *DealService) withDealNumber(ctx context.Context, chatPrefix string, create func(tx *db.Repository, number string, chatID uuid.UUID) error) error {
	for attempt := 1; attempt <= dealNumberAttempts; attempt++ {
		number := newDealNumber()
		err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
			chat := &models.Chat{ID: uuid.New(), Name: chatPrefix + number}
			if err := tx.CreateChat(ctx, chat); err != nil {
				return err
			}
			return create(tx, number, chat.ID)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, e.ErrDuplicate) {
			return fmt.Errorf("failed to create deal: %w", err)
		}
		s.logger.Warn("Deal number collision, retrying",
			zap.String("deal_number", number),
			zap.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("%w: no free deal number after %d attempts", e.ErrDuplicate, dealNumberAttempts)
}

func dealCreated(d models.Deal, ownerID uuid.UUID) events.DealCreated {
	return events.DealCreated{
		Deal:           d.Ref(),
		DealNumber:     d.Number(),
		OwnerCompanyID: ownerID,
		SupplierID:     d.SupplierID(),
		BuyerID:        d.BuyerID(),
	}
}

// canView allows staff, both parties and the logist carrying the deal.
func (s *DealService) canView(ctx context.Context, actor models.Actor, deal models.Deal) error {
	if actor.IsStaff() || models.IsParticipant(deal, actor.CompanyID) {
		return nil
	}
	if actor.IsLogist() {
		app, err := s.repo.TransportApplicationByDeal(ctx, deal.Ref())
		if err != nil && !errors.Is(err, e.ErrNotFound) {
			return err
		}
		if app != nil && app.ApprovedLogisticsOffer != nil && app.ApprovedLogisticsOffer.LogistID == actor.UserID {
			return nil
		}
	}
	return fmt.Errorf("%w: not a party of deal %s", e.ErrForbidden, deal.Number())
}

// GetDeal returns the deal with its totals and whether the caller still
// owes the counterparty a review.
func (s *DealService) GetDeal(ctx context.Context, actor models.Actor, ref models.Ref) (*DealView, error) {
	deal, err := s.repo.GetDeal(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, actor, deal); err != nil {
		return nil, err
	}
	return s.view(ctx, actor, deal)
}

func (s *DealService) view(ctx context.Context, actor models.Actor, deal models.Deal) (*DealView, error) {
	v := &DealView{Deal: deal}
	switch d := deal.(type) {
	case *models.RecyclablesDeal:
		total, ok, err := d.TotalPrice()
		if err != nil {
			return nil, err
		}
		if ok {
			v.TotalPrice = &total
		}
		v.NDSAmount = d.NDSAmount(models.DefaultNDS)
	case *models.EquipmentDeal:
		total := d.TotalPrice()
		v.TotalPrice = &total
		v.NDSAmount = d.NDSAmount(models.DefaultNDS)
	}

	if deal.CurrentStatus() == models.DealCompleted && models.IsParticipant(deal, actor.CompanyID) {
		reviewed := models.Counterparty(deal, actor.CompanyID)
		exists, err := s.repo.ReviewExists(ctx, deal.Ref(), reviewed)
		if err != nil {
			return nil, fmt.Errorf("failed to check review: %w", err)
		}
		v.NeedReview = !exists
	}
	return v, nil
}

// ListDeals lists deals of one kind. Non-staff callers only see deals of
// their own company.
func (s *DealService) ListDeals(ctx context.Context, actor models.Actor, kind models.Kind, f models.DealFilter, page db.Page) (Page[models.Deal], error) {
	if !actor.IsStaff() {
		if actor.CompanyID == uuid.Nil {
			return Page[models.Deal]{Items: []models.Deal{}}, nil
		}
		f.CompanyID = actor.CompanyID
	}
	switch kind {
	case models.KindRecyclablesDeal:
		list, total, err := s.repo.ListRecyclablesDeals(ctx, f, page)
		if err != nil {
			return Page[models.Deal]{}, err
		}
		items := make([]models.Deal, len(list))
		for i := range list {
			items[i] = &list[i]
		}
		return Page[models.Deal]{Items: items, Total: total}, nil
	case models.KindEquipmentDeal:
		list, total, err := s.repo.ListEquipmentDeals(ctx, f, page)
		if err != nil {
			return Page[models.Deal]{}, err
		}
		items := make([]models.Deal, len(list))
		for i := range list {
			items[i] = &list[i]
		}
		return Page[models.Deal]{Items: items, Total: total}, nil
	}
	return Page[models.Deal]{}, fmt.Errorf("%w: %q is not a deal", e.ErrUnsupportedKind, kind)
}

// UpdateDeal writes the changed fields and moves the deal through the
// transition table when a new status is given. Closed deals reject updates.
func (s *DealService) UpdateDeal(ctx context.Context, actor models.Actor, ref models.Ref, update *models.DealUpdate) (*DealView, error) {
	if err := validateDealUpdate(update); err != nil {
		return nil, err
	}

	var before, after models.Deal
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		before, err = tx.GetDeal(ctx, ref)
		if err != nil {
			return err
		}
		if !actor.IsStaff() && !models.IsParticipant(before, actor.CompanyID) {
			return fmt.Errorf("%w: not a party of deal %s", e.ErrForbidden, before.Number())
		}
		if before.CurrentStatus().IsTerminal() {
			return fmt.Errorf("%w: deal %s is %s", e.ErrDealClosed, before.Number(), before.CurrentStatus())
		}
		if err := applyDealUpdate(ctx, tx, before, update); err != nil {
			return err
		}
		after, err = tx.GetDeal(ctx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, statusEvents(before, after)...)
	return s.view(ctx, actor, after)
}

// applyDealUpdate writes fields, then the status through compare-and-set.
// It is shared with transport status propagation.
func applyDealUpdate(ctx context.Context, tx *db.Repository, deal models.Deal, update *models.DealUpdate) error {
	if err := tx.UpdateDealFields(ctx, deal.Ref(), update.Columns(deal.Ref().Kind)); err != nil {
		return err
	}
	if update.Status == nil || *update.Status == deal.CurrentStatus() {
		return nil
	}
	if err := models.ValidateDealTransition(deal.CurrentStatus(), *update.Status); err != nil {
		return err
	}
	return tx.CompareAndSetDealStatus(ctx, deal.Ref(), deal.CurrentStatus(), *update.Status)
}

// statusEvents returns the events implied by a committed status change.
func statusEvents(before, after models.Deal) []events.Event {
	if before.CurrentStatus() == after.CurrentStatus() {
		return nil
	}
	evs := []events.Event{events.DealStatusChanged{
		Deal:       after.Ref(),
		DealNumber: after.Number(),
		From:       before.CurrentStatus(),
		To:         after.CurrentStatus(),
		Label:      after.CurrentStatus().Label(),
		SupplierID: after.SupplierID(),
		BuyerID:    after.BuyerID(),
	}}
	if after.CurrentStatus() == models.DealCompleted {
		evs = append(evs, events.DealCompleted{
			Deal:       after.Ref(),
			DealNumber: after.Number(),
			SupplierID: after.SupplierID(),
			BuyerID:    after.BuyerID(),
			Amount:     after.InvoiceAmount(),
		})
	}
	return evs
}

func validateDealUpdate(u *models.DealUpdate) error {
	fields := map[string]string{}
	if u.Status != nil && !u.Status.Valid() {
		fields["status"] = fmt.Sprintf("unknown status %q", *u.Status)
	}
	if u.Weight != nil && *u.Weight <= 0 {
		fields["weight"] = "must be positive"
	}
	if u.Count != nil && *u.Count <= 0 {
		fields["count"] = "must be positive"
	}
	if u.Price != nil && u.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if u.LoadedWeight != nil && *u.LoadedWeight < 0 {
		fields["loaded_weight"] = "must not be negative"
	}
	if u.AcceptedWeight != nil && *u.AcceptedWeight < 0 {
		fields["accepted_weight"] = "must not be negative"
	}
	if u.PaymentTerm != nil {
		switch *u.PaymentTerm {
		case models.UponLoading, models.UponUnloading:
		case models.OtherTerm:
			if u.OtherPaymentTerm == nil || *u.OtherPaymentTerm == "" {
				fields["other_payment_term"] = "required when payment term is OTHER"
			}
		default:
			fields["payment_term"] = fmt.Sprintf("unknown payment term %q", *u.PaymentTerm)
		}
	}
	if u.WhoDelivers != nil {
		switch *u.WhoDelivers {
		case models.SupplierDelivers, models.BuyerDelivers, models.PlatformDelivers:
		default:
			fields["who_delivers"] = fmt.Sprintf("unknown value %q", *u.WhoDelivers)
		}
	}
	if len(fields) > 0 {
		return e.NewValidationError(fields)
	}
	return nil
}

// CreateReview rates the counterparty of a completed deal. Each side may
// review a deal once.
func (s *DealService) CreateReview(ctx context.Context, actor models.Actor, ref models.Ref, rate int, comment string) (*models.Review, error) {
	if !ref.Kind.IsDeal() {
		return nil, fmt.Errorf("%w: %q is not a deal", e.ErrUnsupportedKind, ref.Kind)
	}
	if rate < models.MinReviewRate || rate > models.MaxReviewRate {
		return nil, e.NewValidationError(map[string]string{
			"rate": fmt.Sprintf("must be between %d and %d", models.MinReviewRate, models.MaxReviewRate),
		})
	}
	if len(comment) > 3000 {
		return nil, e.NewValidationError(map[string]string{"comment": "too long"})
	}

	deal, err := s.repo.GetDeal(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !models.IsParticipant(deal, actor.CompanyID) {
		return nil, fmt.Errorf("%w: only deal parties may leave a review", e.ErrForbidden)
	}
	if deal.CurrentStatus() != models.DealCompleted {
		return nil, e.NewValidationError(map[string]string{"deal": "only completed deals can be reviewed"})
	}

	review := &models.Review{
		ID:          uuid.New(),
		DealKind:    ref.Kind,
		DealID:      ref.ID,
		CompanyID:   models.Counterparty(deal, actor.CompanyID),
		CreatedByID: actor.UserID,
		Rate:        rate,
		Comment:     comment,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	s.logger.Info("Review created",
		zap.String("deal_id", ref.ID.String()),
		zap.String("company_id", review.CompanyID.String()),
		zap.Int("rate", rate),
	)
	return review, nil
}
