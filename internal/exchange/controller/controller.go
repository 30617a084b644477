// Package controller implements the business logic (service layer) of the
// exchange: companies, applications, deals, logistics, chats, finance,
// notifications and documents. Services orchestrate repository operations
// and dispatch domain events once the data is committed.
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
	"github.com/gartstein/tradehub/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventDispatcher delivers committed domain events to their consumers.
type EventDispatcher interface {
	Dispatch(ctx context.Context, evs ...events.Event)
}

// Page is a slice of a listing together with the total row count.
type Page[T any] struct {
	Items []T
	Total int64
}

func requireStaff(actor models.Actor) error {
	if !actor.IsStaff() {
		return fmt.Errorf("%w: staff role required", e.ErrForbidden)
	}
	return nil
}

// requireCompanyAccess lets staff through and everyone else only for their
// own company.
func requireCompanyAccess(actor models.Actor, companyID uuid.UUID) error {
	if actor.IsStaff() || actor.BelongsTo(companyID) {
		return nil
	}
	return fmt.Errorf("%w: not a member of company %s", e.ErrForbidden, companyID)
}

// CompanyRepository defines the storage interface for companies,
// verification requests and favorites.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context, status models.CompanyStatus, page db.Page) ([]models.Company, int64, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
	SetCompanyStatus(ctx context.Context, id uuid.UUID, status models.CompanyStatus) error
	CreateVerificationRequest(ctx context.Context, req *models.VerificationRequest) error
	GetVerificationRequest(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error)
	ListVerificationRequests(ctx context.Context, status models.VerificationStatus, page db.Page) ([]models.VerificationRequest, int64, error)
	AddFavorite(ctx context.Context, fav *models.Favorite) error
	RemoveFavorite(ctx context.Context, userID, companyID uuid.UUID) error
	ListCompanyReviews(ctx context.Context, companyID uuid.UUID, page db.Page) ([]models.Review, int64, error)
	AverageReviewRate(ctx context.Context, companyID uuid.UUID) (float64, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// CompanyService manages companies and their verification.
type CompanyService struct {
	repo       CompanyRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
}

// NewCompanyService constructs a CompanyService with a repository,
// an event dispatcher, and a logger.
func NewCompanyService(repo CompanyRepository, dispatcher EventDispatcher, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger.Named("company_service"),
	}
}

// CreateCompany registers a new, unverified company.
func (s *CompanyService) CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	fields := map[string]string{}
	company.Name = strings.TrimSpace(company.Name)
	if company.Name == "" || len(company.Name) > 255 {
		fields["name"] = "must be 1 to 255 characters"
	}
	if l := len(company.INN); l != 10 && l != 12 {
		fields["inn"] = "must be 10 or 12 digits"
	}
	if len(company.Description) > 3000 {
		fields["description"] = "too long"
	}
	if len(fields) > 0 {
		return nil, e.NewValidationError(fields)
	}

	company.ID = uuid.New()
	company.Status = models.CompanyNotVerified
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

// GetCompany retrieves a Company by ID, returning an error if not found.
func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if company.AverageReviewRate, err = s.repo.AverageReviewRate(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to rate company: %w", err)
	}
	return company, nil
}

// ListReviews returns the reviews left for the company, newest first.
func (s *CompanyService) ListReviews(ctx context.Context, companyID uuid.UUID, page db.Page) (Page[models.Review], error) {
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return Page[models.Review]{}, err
	}
	items, total, err := s.repo.ListCompanyReviews(ctx, companyID, page)
	if err != nil {
		return Page[models.Review]{}, err
	}
	return Page[models.Review]{Items: items, Total: total}, nil
}

func (s *CompanyService) ListCompanies(ctx context.Context, status models.CompanyStatus, page db.Page) (Page[models.Company], error) {
	items, total, err := s.repo.ListCompanies(ctx, status, page)
	if err != nil {
		return Page[models.Company]{}, fmt.Errorf("failed to list companies: %w", err)
	}
	return Page[models.Company]{Items: items, Total: total}, nil
}

// UpdateCompany modifies the specified Company fields and returns the
// updated version.
func (s *CompanyService) UpdateCompany(ctx context.Context, actor models.Actor, update *models.CompanyUpdate) (*models.Company, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid company ID", e.ErrInvalidInput)
	}
	if err := requireCompanyAccess(actor, update.ID); err != nil {
		return nil, err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, e.NewValidationError(map[string]string{"name": "must not be empty"})
	}

	if err := s.repo.UpdateCompany(ctx, update); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return s.GetCompany(ctx, update.ID)
}

// RequestVerification files a verification request for the actor's company.
// A still-new earlier request is replaced.
func (s *CompanyService) RequestVerification(ctx context.Context, actor models.Actor, companyID uuid.UUID, comment string) (*models.VerificationRequest, error) {
	if err := requireCompanyAccess(actor, companyID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	req := &models.VerificationRequest{
		ID:         uuid.New(),
		CompanyID:  companyID,
		EmployeeID: actor.UserID,
		Comment:    comment,
		Status:     models.VerificationNew,
	}
	if err := s.repo.CreateVerificationRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}
	return req, nil
}

func (s *CompanyService) ListVerificationRequests(ctx context.Context, actor models.Actor, status models.VerificationStatus, page db.Page) (Page[models.VerificationRequest], error) {
	if err := requireStaff(actor); err != nil {
		return Page[models.VerificationRequest]{}, err
	}
	items, total, err := s.repo.ListVerificationRequests(ctx, status, page)
	if err != nil {
		return Page[models.VerificationRequest]{}, err
	}
	return Page[models.VerificationRequest]{Items: items, Total: total}, nil
}

// companyStatusFor maps a decision onto the company status. A nil entry
// means the company keeps the status it has.
var companyStatusFor = map[models.VerificationStatus]*models.CompanyStatus{
	models.VerificationVerified: utils.Ptr(models.CompanyVerified),
	models.VerificationReliable: utils.Ptr(models.CompanyReliable),
	models.VerificationDecline:  nil,
}

// Verify records a staff decision on a verification request and updates the
// company status accordingly.
func (s *CompanyService) Verify(ctx context.Context, actor models.Actor, requestID uuid.UUID, status models.VerificationStatus) (*models.VerificationRequest, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	companyStatus, ok := companyStatusFor[status]
	if !ok {
		return nil, e.NewValidationError(map[string]string{"status": fmt.Sprintf("unsupported decision %q", status)})
	}

	var req *models.VerificationRequest
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		req, err = tx.GetVerificationRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if err := tx.SetVerificationStatus(ctx, req.ID, status); err != nil {
			return err
		}
		req.Status = status
		if companyStatus == nil {
			return nil
		}
		return tx.SetCompanyStatus(ctx, req.CompanyID, *companyStatus)
	})
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to verify company: %w", err)
	}

	s.logger.Info("Company verification decided",
		zap.String("company_id", req.CompanyID.String()),
		zap.String("status", string(status)),
	)
	s.dispatcher.Dispatch(ctx, events.VerificationStatusChanged{
		Request:   models.NewRef(models.KindVerificationRequest, req.ID),
		CompanyID: req.CompanyID,
		Status:    status,
	})
	return req, nil
}

func (s *CompanyService) AddFavorite(ctx context.Context, actor models.Actor, companyID uuid.UUID) error {
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return err
	}
	err := s.repo.AddFavorite(ctx, &models.Favorite{ID: uuid.New(), UserID: actor.UserID, CompanyID: companyID})
	if errors.Is(err, e.ErrDuplicate) {
		return nil
	}
	return err
}

func (s *CompanyService) RemoveFavorite(ctx context.Context, actor models.Actor, companyID uuid.UUID) error {
	return s.repo.RemoveFavorite(ctx, actor.UserID, companyID)
}
