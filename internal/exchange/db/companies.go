package db

import (
	"context"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	return translate(r.db.WithContext(ctx).Create(company).Error)
}

// GetCompany loads a company together with its average review rate.
func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	rate, err := r.AverageReviewRate(ctx, id)
	if err != nil {
		return nil, err
	}
	company.AverageReviewRate = rate
	return &company, nil
}

func (r *Repository) ListCompanies(ctx context.Context, status models.CompanyStatus, page Page) ([]models.Company, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Company{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var companies []models.Company
	if err := page.scope(q.Order("created_at DESC")).Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	cols := map[string]interface{}{}
	if update.Name != nil {
		cols["name"] = *update.Name
	}
	if update.Email != nil {
		cols["email"] = *update.Email
	}
	if update.Phone != nil {
		cols["phone"] = *update.Phone
	}
	if update.Address != nil {
		cols["address"] = *update.Address
	}
	if update.CityID != nil {
		cols["city_id"] = *update.CityID
	}
	if update.Description != nil {
		cols["description"] = *update.Description
	}
	if len(cols) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", update.ID).
		Updates(cols)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) SetCompanyStatus(ctx context.Context, id uuid.UUID, status models.CompanyStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// CreateVerificationRequest replaces any still-new request of the company.
func (r *Repository) CreateVerificationRequest(ctx context.Context, req *models.VerificationRequest) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.db.WithContext(ctx).
			Where("company_id = ? AND status = ?", req.CompanyID, models.VerificationNew).
			Delete(&models.VerificationRequest{}).Error; err != nil {
			return err
		}
		return translate(tx.db.WithContext(ctx).Create(req).Error)
	})
}

func (r *Repository) GetVerificationRequest(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error) {
	var req models.VerificationRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *Repository) SetVerificationStatus(ctx context.Context, id uuid.UUID, status models.VerificationStatus) error {
	result := r.db.WithContext(ctx).Model(&models.VerificationRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) ListVerificationRequests(ctx context.Context, status models.VerificationStatus, page Page) ([]models.VerificationRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.VerificationRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reqs []models.VerificationRequest
	if err := page.scope(q.Order("created_at DESC")).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}
