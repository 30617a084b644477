package db

import (
	"context"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "phone = ?", phone).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserIDsByRole returns every user holding the role.
func (r *Repository) UserIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", role).
		Pluck("id", &ids).Error
	return ids, err
}

// CompanyEmails returns the addresses of the company and its employees.
func (r *Repository) CompanyEmails(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	var emails []string
	var company models.Company
	if err := r.db.WithContext(ctx).Select("email").First(&company, "id = ?", companyID).Error; err != nil {
		return nil, translate(err)
	}
	if company.Email != "" {
		emails = append(emails, company.Email)
	}
	var staff []string
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("company_id = ? AND email <> ''", companyID).
		Pluck("email", &staff).Error; err != nil {
		return nil, err
	}
	return append(emails, staff...), nil
}

func (r *Repository) AddFavorite(ctx context.Context, fav *models.Favorite) error {
	return translate(r.db.WithContext(ctx).Create(fav).Error)
}

func (r *Repository) RemoveFavorite(ctx context.Context, userID, companyID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// FavoritedBy returns the users following a company.
func (r *Repository) FavoritedBy(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("company_id = ?", companyID).
		Pluck("user_id", &ids).Error
	return ids, err
}
