package db

import (
	"context"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *Repository) CreateRecyclablesApplication(ctx context.Context, app *models.RecyclablesApplication) error {
	return translate(r.db.WithContext(ctx).Create(app).Error)
}

func (r *Repository) GetRecyclablesApplication(ctx context.Context, id uuid.UUID) (*models.RecyclablesApplication, error) {
	var app models.RecyclablesApplication
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *Repository) SaveRecyclablesApplication(ctx context.Context, app *models.RecyclablesApplication) error {
	return translate(r.db.WithContext(ctx).Save(app).Error)
}

func (r *Repository) SetRecyclablesApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	return setStatus(r.db.WithContext(ctx).Model(&models.RecyclablesApplication{}), id, status)
}

// ListRecyclablesApplications applies the filter in SQL. A polygon is
// narrowed by its bounding box first and then checked point by point.
func (r *Repository) ListRecyclablesApplications(ctx context.Context, f models.ApplicationFilter, page Page) ([]models.RecyclablesApplication, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.RecyclablesApplication{})
	q = applicationScope(q, f)
	if f.UrgencyType != "" {
		q = q.Where("urgency_type = ?", f.UrgencyType)
	}
	if f.RecyclablesID != uuid.Nil {
		q = q.Where("recyclables_id = ?", f.RecyclablesID)
	}
	q = q.Order("created_at DESC")

	if len(f.Polygon) > 0 {
		var all []models.RecyclablesApplication
		if err := polygonScope(q, f.Polygon).Find(&all).Error; err != nil {
			return nil, 0, err
		}
		inside := all[:0]
		for _, a := range all {
			if a.Latitude != nil && a.Longitude != nil &&
				f.Polygon.Contains(models.Point{Lat: *a.Latitude, Lon: *a.Longitude}) {
				inside = append(inside, a)
			}
		}
		return paginate(inside, page), int64(len(inside)), nil
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []models.RecyclablesApplication
	if err := page.scope(q).Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (r *Repository) CreateEquipmentApplication(ctx context.Context, app *models.EquipmentApplication) error {
	return translate(r.db.WithContext(ctx).Create(app).Error)
}

func (r *Repository) GetEquipmentApplication(ctx context.Context, id uuid.UUID) (*models.EquipmentApplication, error) {
	var app models.EquipmentApplication
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *Repository) SaveEquipmentApplication(ctx context.Context, app *models.EquipmentApplication) error {
	return translate(r.db.WithContext(ctx).Save(app).Error)
}

func (r *Repository) SetEquipmentApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	return setStatus(r.db.WithContext(ctx).Model(&models.EquipmentApplication{}), id, status)
}

func (r *Repository) ListEquipmentApplications(ctx context.Context, f models.ApplicationFilter, page Page) ([]models.EquipmentApplication, int64, error) {
	q := applicationScope(r.db.WithContext(ctx).Model(&models.EquipmentApplication{}), f).
		Order("created_at DESC")

	if len(f.Polygon) > 0 {
		var all []models.EquipmentApplication
		if err := polygonScope(q, f.Polygon).Find(&all).Error; err != nil {
			return nil, 0, err
		}
		inside := all[:0]
		for _, a := range all {
			if a.Latitude != nil && a.Longitude != nil &&
				f.Polygon.Contains(models.Point{Lat: *a.Latitude, Lon: *a.Longitude}) {
				inside = append(inside, a)
			}
		}
		return paginate(inside, page), int64(len(inside)), nil
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []models.EquipmentApplication
	if err := page.scope(q).Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func applicationScope(q *gorm.DB, f models.ApplicationFilter) *gorm.DB {
	if f.DealType != "" {
		q = q.Where("deal_type = ?", f.DealType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CompanyID != uuid.Nil {
		q = q.Where("company_id = ?", f.CompanyID)
	}
	return q
}

func polygonScope(q *gorm.DB, poly models.Polygon) *gorm.DB {
	minLat, maxLat, minLon, maxLon := poly.Bounds()
	return q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", minLat, maxLat, minLon, maxLon)
}

func paginate[T any](items []T, page Page) []T {
	p := page.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func setStatus(q *gorm.DB, id uuid.UUID, status interface{}) error {
	result := q.Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
