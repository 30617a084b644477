package controller

import (
	"context"
	"fmt"

	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ApplicationRepository interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateRecyclablesApplication(ctx context.Context, app *models.RecyclablesApplication) error
	GetRecyclablesApplication(ctx context.Context, id uuid.UUID) (*models.RecyclablesApplication, error)
	SaveRecyclablesApplication(ctx context.Context, app *models.RecyclablesApplication) error
	SetRecyclablesApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error
	ListRecyclablesApplications(ctx context.Context, f models.ApplicationFilter, page db.Page) ([]models.RecyclablesApplication, int64, error)
	CreateEquipmentApplication(ctx context.Context, app *models.EquipmentApplication) error
	GetEquipmentApplication(ctx context.Context, id uuid.UUID) (*models.EquipmentApplication, error)
	SaveEquipmentApplication(ctx context.Context, app *models.EquipmentApplication) error
	SetEquipmentApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error
	ListEquipmentApplications(ctx context.Context, f models.ApplicationFilter, page db.Page) ([]models.EquipmentApplication, int64, error)
}

// CityResolver returns a city with its coordinates filled in.
type CityResolver interface {
	ResolveCity(ctx context.Context, id uuid.UUID) (*models.City, error)
}

// ApplicationService manages buy and sell applications for recyclables and
// equipment.
type ApplicationService struct {
	repo       ApplicationRepository
	cities     CityResolver
	dispatcher EventDispatcher
	maxWeight  float64
	logger     *zap.Logger
}

// NewApplicationService caps READY_FOR_SHIPMENT lots at maxWeight kilograms.
func NewApplicationService(repo ApplicationRepository, cities CityResolver, dispatcher EventDispatcher, maxWeight float64, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		repo:       repo,
		cities:     cities,
		dispatcher: dispatcher,
		maxWeight:  maxWeight,
		logger:     logger.Named("application_service"),
	}
}

// owningCompany resolves the company an application is filed for. Staff may
// file for any company, everyone else only for their own.
func owningCompany(actor models.Actor, requested uuid.UUID) (uuid.UUID, error) {
	if requested == uuid.Nil {
		requested = actor.CompanyID
	}
	if requested == uuid.Nil {
		return uuid.Nil, e.Required("company")
	}
	if err := requireCompanyAccess(actor, requested); err != nil {
		return uuid.Nil, err
	}
	return requested, nil
}

// locate fills coordinates from the city when the client sent none. A
// geocoder failure leaves the application without coordinates.
func (s *ApplicationService) locate(ctx context.Context, cityID *uuid.UUID, lat, lon **float64) {
	if cityID == nil || (*lat != nil && *lon != nil) || s.cities == nil {
		return
	}
	city, err := s.cities.ResolveCity(ctx, *cityID)
	if err != nil {
		s.logger.Warn("Failed to resolve application city",
			zap.String("city_id", cityID.String()),
			zap.Error(err),
		)
		return
	}
	*lat, *lon = city.Latitude, city.Longitude
}

func validDealType(t models.DealType) bool {
	return t == models.Buy || t == models.Sell
}

func validApplicationStatus(s models.ApplicationStatus) bool {
	switch s {
	case models.ApplicationOnReview, models.ApplicationPublished, models.ApplicationClosed, models.ApplicationDeclined:
		return true
	}
	return false
}

func (s *ApplicationService) validateRecyclables(app *models.RecyclablesApplication) error {
	fields := map[string]string{}
	if app.RecyclablesID == uuid.Nil {
		fields["recyclables"] = "required field"
	}
	if !validDealType(app.DealType) {
		fields["deal_type"] = fmt.Sprintf("unknown deal type %q", app.DealType)
	}
	if app.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	switch app.UrgencyType {
	case models.ReadyForShipment:
		if app.LotSize == nil {
			fields["lot_size"] = "required field"
		}
		if app.IsPackingDeduction == nil {
			fields["is_packing_deduction"] = "required field"
		}
		if w := app.TotalWeight(); s.maxWeight > 0 && w > s.maxWeight {
			fields["total_weight"] = fmt.Sprintf("must not exceed %g kg", s.maxWeight)
		}
	case models.SupplyContract:
		if app.Volume == nil {
			fields["volume"] = "required field"
		}
	default:
		fields["urgency_type"] = fmt.Sprintf("unknown urgency type %q", app.UrgencyType)
	}
	if app.PackingDeduction() {
		switch app.PackingDeductionType {
		case models.FromBale, models.FromTotalWeight:
		default:
			fields["packing_deduction_type"] = "required when packing is deducted"
		}
		if app.PackingDeductionValue < 0 || (app.PackingDeductionType == models.FromTotalWeight && app.PackingDeductionValue > 100) {
			fields["packing_deduction_value"] = "out of range"
		}
	}
	if len(app.Comment) > 3000 {
		fields["comment"] = "too long"
	}
	if len(fields) > 0 {
		return e.NewValidationError(fields)
	}
	return nil
}

// CreateRecyclablesApplication files an application. It is published right
// away for verified and reliable companies and goes to review otherwise.
func (s *ApplicationService) CreateRecyclablesApplication(ctx context.Context, actor models.Actor, app *models.RecyclablesApplication) (*models.RecyclablesApplication, error) {
	companyID, err := owningCompany(actor, app.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := s.validateRecyclables(app); err != nil {
		return nil, err
	}
	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("company: %w", err)
	}

	app.ID = uuid.New()
	app.CompanyID = companyID
	app.Status = models.InitialApplicationStatus(company)
	s.locate(ctx, app.CityID, &app.Latitude, &app.Longitude)
	if err := s.repo.CreateRecyclablesApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.logger.Info("Recyclables application created",
		zap.String("application_id", app.ID.String()),
		zap.String("status", string(app.Status)),
	)
	s.dispatcher.Dispatch(ctx, events.ApplicationCreated{Application: app.Ref(), CompanyID: app.CompanyID})
	return app, nil
}

func (s *ApplicationService) GetRecyclablesApplication(ctx context.Context, id uuid.UUID) (*models.RecyclablesApplication, error) {
	return s.repo.GetRecyclablesApplication(ctx, id)
}

// UpdateRecyclablesApplication replaces the editable fields. Company, status
// and creation time stay as stored.
func (s *ApplicationService) UpdateRecyclablesApplication(ctx context.Context, actor models.Actor, app *models.RecyclablesApplication) (*models.RecyclablesApplication, error) {
	existing, err := s.repo.GetRecyclablesApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyAccess(actor, existing.CompanyID); err != nil {
		return nil, err
	}
	if err := s.validateRecyclables(app); err != nil {
		return nil, err
	}
	app.CompanyID = existing.CompanyID
	app.Status = existing.Status
	app.CreatedAt = existing.CreatedAt
	s.locate(ctx, app.CityID, &app.Latitude, &app.Longitude)
	if err := s.repo.SaveRecyclablesApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return app, nil
}

// ListRecyclablesApplications shows other companies' applications only once
// published.
func (s *ApplicationService) ListRecyclablesApplications(ctx context.Context, actor models.Actor, f models.ApplicationFilter, page db.Page) (Page[models.RecyclablesApplication], error) {
	if !actor.IsStaff() && !actor.BelongsTo(f.CompanyID) {
		f.Status = models.ApplicationPublished
	}
	items, total, err := s.repo.ListRecyclablesApplications(ctx, f, page)
	if err != nil {
		return Page[models.RecyclablesApplication]{}, err
	}
	return Page[models.RecyclablesApplication]{Items: items, Total: total}, nil
}

// SetRecyclablesApplicationStatus is the moderation step for staff.
func (s *ApplicationService) SetRecyclablesApplicationStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.ApplicationStatus) (*models.RecyclablesApplication, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !validApplicationStatus(status) {
		return nil, e.NewValidationError(map[string]string{"status": fmt.Sprintf("unknown status %q", status)})
	}
	app, err := s.repo.GetRecyclablesApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status == status {
		return app, nil
	}
	if err := s.repo.SetRecyclablesApplicationStatus(ctx, id, status); err != nil {
		return nil, err
	}
	app.Status = status
	s.dispatcher.Dispatch(ctx, events.ApplicationStatusChanged{
		Application: app.Ref(),
		CompanyID:   app.CompanyID,
		Status:      status,
	})
	return app, nil
}

func validateEquipment(app *models.EquipmentApplication) error {
	fields := map[string]string{}
	if app.EquipmentID == uuid.Nil {
		fields["equipment"] = "required field"
	}
	if !validDealType(app.DealType) {
		fields["deal_type"] = fmt.Sprintf("unknown deal type %q", app.DealType)
	}
	if app.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if app.Count <= 0 {
		fields["count"] = "must be positive"
	}
	if len(app.Comment) > 3000 {
		fields["comment"] = "too long"
	}
	if len(fields) > 0 {
		return e.NewValidationError(fields)
	}
	return nil
}

func (s *ApplicationService) CreateEquipmentApplication(ctx context.Context, actor models.Actor, app *models.EquipmentApplication) (*models.EquipmentApplication, error) {
	companyID, err := owningCompany(actor, app.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := validateEquipment(app); err != nil {
		return nil, err
	}
	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("company: %w", err)
	}

	app.ID = uuid.New()
	app.CompanyID = companyID
	app.Status = models.InitialApplicationStatus(company)
	s.locate(ctx, app.CityID, &app.Latitude, &app.Longitude)
	if err := s.repo.CreateEquipmentApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.logger.Info("Equipment application created",
		zap.String("application_id", app.ID.String()),
		zap.String("status", string(app.Status)),
	)
	s.dispatcher.Dispatch(ctx, events.ApplicationCreated{Application: app.Ref(), CompanyID: app.CompanyID})
	return app, nil
}

func (s *ApplicationService) GetEquipmentApplication(ctx context.Context, id uuid.UUID) (*models.EquipmentApplication, error) {
	return s.repo.GetEquipmentApplication(ctx, id)
}

func (s *ApplicationService) UpdateEquipmentApplication(ctx context.Context, actor models.Actor, app *models.EquipmentApplication) (*models.EquipmentApplication, error) {
	existing, err := s.repo.GetEquipmentApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyAccess(actor, existing.CompanyID); err != nil {
		return nil, err
	}
	if err := validateEquipment(app); err != nil {
		return nil, err
	}
	app.CompanyID = existing.CompanyID
	app.Status = existing.Status
	app.CreatedAt = existing.CreatedAt
	s.locate(ctx, app.CityID, &app.Latitude, &app.Longitude)
	if err := s.repo.SaveEquipmentApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return app, nil
}

func (s *ApplicationService) ListEquipmentApplications(ctx context.Context, actor models.Actor, f models.ApplicationFilter, page db.Page) (Page[models.EquipmentApplication], error) {
	if !actor.IsStaff() && !actor.BelongsTo(f.CompanyID) {
		f.Status = models.ApplicationPublished
	}
	items, total, err := s.repo.ListEquipmentApplications(ctx, f, page)
	if err != nil {
		return Page[models.EquipmentApplication]{}, err
	}
	return Page[models.EquipmentApplication]{Items: items, Total: total}, nil
}

func (s *ApplicationService) SetEquipmentApplicationStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.ApplicationStatus) (*models.EquipmentApplication, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !validApplicationStatus(status) {
		return nil, e.NewValidationError(map[string]string{"status": fmt.Sprintf("unknown status %q", status)})
	}
	app, err := s.repo.GetEquipmentApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status == status {
		return app, nil
	}
	if err := s.repo.SetEquipmentApplicationStatus(ctx, id, status); err != nil {
		return nil, err
	}
	app.Status = status
	s.dispatcher.Dispatch(ctx, events.ApplicationStatusChanged{
		Application: app.Ref(),
		CompanyID:   app.CompanyID,
		Status:      status,
	})
	return app, nil
}
