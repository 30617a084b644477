package db

import (
	"context"
	"database/sql"
	"errors"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// CreateInvoiceIfAbsent inserts the invoice unless one already exists for
// the same deal and company. It reports whether a row was written.
func (r *Repository) CreateInvoiceIfAbsent(ctx context.Context, inv *models.InvoicePayment) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "deal_kind"}, {Name: "deal_id"}, {Name: "company_id"}},
			DoNothing: true,
		}).
		Create(inv)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoicePayment, error) {
	var inv models.InvoicePayment
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *Repository) InvoicesForDeal(ctx context.Context, ref models.Ref) ([]models.InvoicePayment, error) {
	var list []models.InvoicePayment
	err := r.db.WithContext(ctx).
		Where("deal_kind = ? AND deal_id = ?", ref.Kind, ref.ID).
		Order("created_at").
		Find(&list).Error
	return list, err
}

func (r *Repository) ListInvoices(ctx context.Context, companyID uuid.UUID, status models.InvoiceStatus, page Page) ([]models.InvoicePayment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.InvoicePayment{})
	if companyID != uuid.Nil {
		q = q.Where("company_id = ?", companyID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.InvoicePayment
	if err := page.scope(q.Order("created_at DESC")).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) SetInvoiceStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	return setStatus(r.db.WithContext(ctx).Model(&models.InvoicePayment{}), id, status)
}

func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	err := translate(r.db.WithContext(ctx).Create(review).Error)
	if errors.Is(err, e.ErrDuplicate) {
		return e.ErrDuplicateReview
	}
	return err
}

func (r *Repository) ReviewExists(ctx context.Context, ref models.Ref, companyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("deal_kind = ? AND deal_id = ? AND company_id = ?", ref.Kind, ref.ID, companyID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ReviewsForDeal(ctx context.Context, ref models.Ref) ([]models.Review, error) {
	var list []models.Review
	err := r.db.WithContext(ctx).
		Where("deal_kind = ? AND deal_id = ?", ref.Kind, ref.ID).
		Order("created_at").
		Find(&list).Error
	return list, err
}

func (r *Repository) ListCompanyReviews(ctx context.Context, companyID uuid.UUID, page Page) ([]models.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Review{}).Where("company_id = ?", companyID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Review
	if err := page.scope(q.Order("created_at DESC")).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) AverageReviewRate(ctx context.Context, companyID uuid.UUID) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(rate)").
		Where("company_id = ?", companyID).
		Row().Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}
