package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CityRepository interface {
	CreateCity(ctx context.Context, city *models.City) error
	GetCity(ctx context.Context, id uuid.UUID) (*models.City, error)
	GetCityByName(ctx context.Context, name string) (*models.City, error)
	SetCityCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error
}

// Geocoder turns a place name into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Point, error)
}

// CityService keeps the city directory and resolves city coordinates on
// first use.
type CityService struct {
	repo     CityRepository
	geocoder Geocoder
	logger   *zap.Logger
}

func NewCityService(repo CityRepository, geocoder Geocoder, logger *zap.Logger) *CityService {
	return &CityService{
		repo:     repo,
		geocoder: geocoder,
		logger:   logger.Named("city_service"),
	}
}

// CreateCity returns the existing city when the name is already known.
func (s *CityService) CreateCity(ctx context.Context, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.Required("name")
	}
	city, err := s.repo.GetCityByName(ctx, name)
	if err == nil {
		return city, nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}
	city = &models.City{ID: uuid.New(), Name: name}
	if err := s.repo.CreateCity(ctx, city); err != nil {
		if errors.Is(err, e.ErrDuplicate) {
			return s.repo.GetCityByName(ctx, name)
		}
		return nil, fmt.Errorf("failed to create city: %w", err)
	}
	return city, nil
}

func (s *CityService) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	return s.repo.GetCity(ctx, id)
}

// ResolveCity returns the city with coordinates, geocoding and storing them
// if the city has none yet.
func (s *CityService) ResolveCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	city, err := s.repo.GetCity(ctx, id)
	if err != nil {
		return nil, err
	}
	if city.Resolved() || s.geocoder == nil {
		return city, nil
	}
	p, err := s.geocoder.Geocode(ctx, city.Name)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", city.Name, err)
	}
	if err := s.repo.SetCityCoordinates(ctx, city.ID, p.Lat, p.Lon); err != nil {
		return nil, err
	}
	city.Latitude, city.Longitude = &p.Lat, &p.Lon
	s.logger.Debug("City resolved", zap.String("city", city.Name))
	return city, nil
}
