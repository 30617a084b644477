package db

import (
	"context"
	"fmt"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateRecyclablesDeal(ctx context.Context, deal *models.RecyclablesDeal) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(deal).Error)
}

func (r *Repository) CreateEquipmentDeal(ctx context.Context, deal *models.EquipmentDeal) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(deal).Error)
}

func (r *Repository) GetRecyclablesDeal(ctx context.Context, id uuid.UUID) (*models.RecyclablesDeal, error) {
	var deal models.RecyclablesDeal
	if err := r.db.WithContext(ctx).Preload("Application").First(&deal, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &deal, nil
}

func (r *Repository) GetEquipmentDeal(ctx context.Context, id uuid.UUID) (*models.EquipmentDeal, error) {
	var deal models.EquipmentDeal
	if err := r.db.WithContext(ctx).Preload("Application").First(&deal, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &deal, nil
}

// GetDeal resolves a polymorphic deal reference.
func (r *Repository) GetDeal(ctx context.Context, ref models.Ref) (models.Deal, error) {
	switch ref.Kind {
	case models.KindRecyclablesDeal:
		return r.GetRecyclablesDeal(ctx, ref.ID)
	case models.KindEquipmentDeal:
		return r.GetEquipmentDeal(ctx, ref.ID)
	}
	return nil, fmt.Errorf("%w: %q is not a deal", e.ErrUnsupportedKind, ref.Kind)
}

func dealModel(kind models.Kind) (interface{}, error) {
	switch kind {
	case models.KindRecyclablesDeal:
		return &models.RecyclablesDeal{}, nil
	case models.KindEquipmentDeal:
		return &models.EquipmentDeal{}, nil
	}
	return nil, fmt.Errorf("%w: %q is not a deal", e.ErrUnsupportedKind, kind)
}

// UpdateDealFields writes the given columns of a deal.
func (r *Repository) UpdateDealFields(ctx context.Context, ref models.Ref, cols map[string]interface{}) error {
	if len(cols) == 0 {
		return nil
	}
	model, err := dealModel(ref.Kind)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(model).Where("id = ?", ref.ID).Updates(cols)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// CompareAndSetDealStatus moves a deal from one status to another only if it
// still holds the expected one.
func (r *Repository) CompareAndSetDealStatus(ctx context.Context, ref models.Ref, from, to models.DealStatus) error {
	model, err := dealModel(ref.Kind)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(model).
		Where("id = ? AND status = ?", ref.ID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: deal %s is no longer %s", e.ErrInvalidTransition, ref.ID, from)
	}
	return nil
}

func dealScope(q *gorm.DB, f models.DealFilter) *gorm.DB {
	if f.CompanyID != uuid.Nil {
		q = q.Where("supplier_company_id = ? OR buyer_company_id = ?", f.CompanyID, f.CompanyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q.Order("created_at DESC")
}

func (r *Repository) ListRecyclablesDeals(ctx context.Context, f models.DealFilter, page Page) ([]models.RecyclablesDeal, int64, error) {
	q := dealScope(r.db.WithContext(ctx).Model(&models.RecyclablesDeal{}), f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var deals []models.RecyclablesDeal
	if err := page.scope(q).Preload("Application").Find(&deals).Error; err != nil {
		return nil, 0, err
	}
	return deals, total, nil
}

func (r *Repository) ListEquipmentDeals(ctx context.Context, f models.DealFilter, page Page) ([]models.EquipmentDeal, int64, error) {
	q := dealScope(r.db.WithContext(ctx).Model(&models.EquipmentDeal{}), f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var deals []models.EquipmentDeal
	if err := page.scope(q).Preload("Application").Find(&deals).Error; err != nil {
		return nil, 0, err
	}
	return deals, total, nil
}

// DealByChat finds the deal owning a chat, if any.
func (r *Repository) DealByChat(ctx context.Context, chatID uuid.UUID) (models.Deal, error) {
	var rd models.RecyclablesDeal
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Limit(1).Find(&rd).Error
	if err != nil {
		return nil, err
	}
	if rd.ID != uuid.Nil {
		return &rd, nil
	}
	var ed models.EquipmentDeal
	err = r.db.WithContext(ctx).Where("chat_id = ?", chatID).Limit(1).Find(&ed).Error
	if err != nil {
		return nil, err
	}
	if ed.ID != uuid.Nil {
		return &ed, nil
	}
	return nil, e.ErrNotFound
}
