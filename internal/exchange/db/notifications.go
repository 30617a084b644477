package db

import (
	"context"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateNotifications writes a batch of notifications in one statement.
func (r *Repository) CreateNotifications(ctx context.Context, list []models.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(list, 100).Error)
}

// notificationScope selects what a user sees: notifications addressed to
// them and to their company.
func notificationScope(q *gorm.DB, userID, companyID uuid.UUID) *gorm.DB {
	if companyID != uuid.Nil {
		return q.Where("user_id = ? OR company_id = ?", userID, companyID)
	}
	return q.Where("user_id = ?", userID)
}

func (r *Repository) ListNotifications(ctx context.Context, userID, companyID uuid.UUID, page Page) ([]models.Notification, int64, error) {
	q := notificationScope(r.db.WithContext(ctx).Model(&models.Notification{}), userID, companyID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Notification
	if err := page.scope(q.Order("created_at DESC")).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) UnreadNotificationCount(ctx context.Context, userID, companyID uuid.UUID) (int64, error) {
	var n int64
	err := notificationScope(r.db.WithContext(ctx).Model(&models.Notification{}), userID, companyID).
		Where("is_read = ?", false).
		Count(&n).Error
	return n, err
}

// MarkNotificationsRead flags the listed notifications as read.
func (r *Repository) MarkNotificationsRead(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id IN ?", ids).
		Update("is_read", true).Error
}
