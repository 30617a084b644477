package db

import (
	"context"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateCity(ctx context.Context, city *models.City) error {
	return translate(r.db.WithContext(ctx).Create(city).Error)
}

func (r *Repository) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var city models.City
	if err := r.db.WithContext(ctx).First(&city, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &city, nil
}

func (r *Repository) GetCityByName(ctx context.Context, name string) (*models.City, error) {
	var city models.City
	if err := r.db.WithContext(ctx).First(&city, "name = ?", name).Error; err != nil {
		return nil, translate(err)
	}
	return &city, nil
}

// SetCityCoordinates stores the geocoded position of a city.
func (r *Repository) SetCityCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	result := r.db.WithContext(ctx).Model(&models.City{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"latitude": lat, "longitude": lon})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
