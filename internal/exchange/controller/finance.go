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

type FinanceRepository interface {
	CreateInvoiceIfAbsent(ctx context.Context, inv *models.InvoicePayment) (bool, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoicePayment, error)
	ListInvoices(ctx context.Context, companyID uuid.UUID, status models.InvoiceStatus, page db.Page) ([]models.InvoicePayment, int64, error)
	SetInvoiceStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error
}

// FinanceService issues and tracks invoices for completed deals.
type FinanceService struct {
	repo   FinanceRepository
	logger *zap.Logger
}

func NewFinanceService(repo FinanceRepository, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		repo:   repo,
		logger: logger.Named("finance_service"),
	}
}

// Handle issues one invoice per deal party on DealCompleted. Replaying the
// event writes nothing new.
func (s *FinanceService) Handle(ctx context.Context, ev events.Event) error {
	done, ok := ev.(events.DealCompleted)
	if !ok {
		return nil
	}
	for _, companyID := range []uuid.UUID{done.SupplierID, done.BuyerID} {
		inv := &models.InvoicePayment{
			ID:        uuid.New(),
			DealKind:  done.Deal.Kind,
			DealID:    done.Deal.ID,
			CompanyID: companyID,
			Amount:    done.Amount,
			Status:    models.InvoicePending,
		}
		created, err := s.repo.CreateInvoiceIfAbsent(ctx, inv)
		if err != nil {
			return fmt.Errorf("failed to issue invoice for deal %s: %w", done.DealNumber, err)
		}
		if !created {
			s.logger.Debug("Invoice already issued",
				zap.String("deal", done.Deal.String()),
				zap.String("company_id", companyID.String()),
			)
			continue
		}
		s.logger.Info("Invoice issued",
			zap.String("deal_number", done.DealNumber),
			zap.String("company_id", companyID.String()),
			zap.String("amount", done.Amount.String()),
		)
	}
	return nil
}

func (s *FinanceService) GetInvoice(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InvoicePayment, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyAccess(actor, inv.CompanyID); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices shows staff every invoice and other users their company's.
func (s *FinanceService) ListInvoices(ctx context.Context, actor models.Actor, status models.InvoiceStatus, page db.Page) (Page[models.InvoicePayment], error) {
	companyID := actor.CompanyID
	if actor.IsStaff() {
		companyID = uuid.Nil
	} else if companyID == uuid.Nil {
		return Page[models.InvoicePayment]{Items: []models.InvoicePayment{}}, nil
	}
	items, total, err := s.repo.ListInvoices(ctx, companyID, status, page)
	if err != nil {
		return Page[models.InvoicePayment]{}, err
	}
	return Page[models.InvoicePayment]{Items: items, Total: total}, nil
}

// SetInvoiceStatus records a payment outcome. Only staff may do it.
func (s *FinanceService) SetInvoiceStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.InvoiceStatus) (*models.InvoicePayment, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: invoice %s -> %s", e.ErrInvalidTransition, inv.Status, status)
	}
	if err := s.repo.SetInvoiceStatus(ctx, id, status); err != nil {
		return nil, err
	}
	inv.Status = status
	return inv, nil
}
