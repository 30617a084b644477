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

func (r *Repository) CreateTransportApplication(ctx context.Context, app *models.TransportApplication) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(app).Error)
}

func (r *Repository) GetTransportApplication(ctx context.Context, id uuid.UUID) (*models.TransportApplication, error) {
	var app models.TransportApplication
	if err := r.db.WithContext(ctx).Preload("ApprovedLogisticsOffer").First(&app, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

// TransportApplicationByDeal returns the transport request of a deal.
func (r *Repository) TransportApplicationByDeal(ctx context.Context, ref models.Ref) (*models.TransportApplication, error) {
	var app models.TransportApplication
	if err := r.db.WithContext(ctx).Preload("ApprovedLogisticsOffer").
		First(&app, "deal_kind = ? AND deal_id = ?", ref.Kind, ref.ID).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *Repository) UpdateTransportFields(ctx context.Context, id uuid.UUID, cols map[string]interface{}) error {
	if len(cols) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.TransportApplication{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) CompareAndSetTransportStatus(ctx context.Context, id uuid.UUID, from, to models.TransportStatus) error {
	result := r.db.WithContext(ctx).Model(&models.TransportApplication{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: transport application %s is no longer %s", e.ErrInvalidTransition, id, from)
	}
	return nil
}

// ListTransportApplications lists transport requests; with a logist set, each
// row carries that logist's status and may be filtered by it.
func (r *Repository) ListTransportApplications(ctx context.Context, f models.TransportFilter, page Page) ([]models.TransportApplication, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.TransportApplication{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CreatedByID != uuid.Nil {
		q = q.Where("created_by_id = ?", f.CreatedByID)
	}
	if f.LogistID != uuid.Nil && f.LogistStatus != "" {
		q = logistStatusScope(q, f.LogistID, f.LogistStatus)
	}
	q = q.Order("created_at DESC")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []models.TransportApplication
	if err := page.scope(q).Preload("ApprovedLogisticsOffer").Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	if f.LogistID != uuid.Nil && len(apps) > 0 {
		ids := make([]uuid.UUID, len(apps))
		for i := range apps {
			ids[i] = apps[i].ID
		}
		var own []models.LogisticsOffer
		if err := r.db.WithContext(ctx).
			Where("logist_id = ? AND application_id IN ?", f.LogistID, ids).
			Find(&own).Error; err != nil {
			return nil, 0, err
		}
		byApp := make(map[uuid.UUID]*models.LogisticsOffer, len(own))
		for i := range own {
			byApp[own[i].ApplicationID] = &own[i]
		}
		for i := range apps {
			apps[i].LogistStatus = models.LogistStatusFor(&apps[i], byApp[apps[i].ID])
		}
	}
	return apps, total, nil
}

func logistStatusScope(q *gorm.DB, logistID uuid.UUID, status models.LogistStatus) *gorm.DB {
	const own = "SELECT 1 FROM logistics_offers o WHERE o.application_id = transport_applications.id AND o.logist_id = ?"
	switch status {
	case models.LogistNew:
		return q.Where("NOT EXISTS ("+own+")", logistID)
	case models.LogistApproved:
		return q.Where("approved_logistics_offer_id IN (SELECT id FROM logistics_offers WHERE logist_id = ?)", logistID)
	case models.LogistDeclined:
		return q.Where("EXISTS ("+own+" AND o.status = ?)", logistID, models.OfferDeclined)
	case models.LogistPending:
		return q.Where("EXISTS ("+own+" AND o.status = ?)", logistID, models.OfferPending).
			Where("(approved_logistics_offer_id IS NULL OR approved_logistics_offer_id NOT IN (SELECT id FROM logistics_offers WHERE logist_id = ?))", logistID)
	}
	return q
}

func (r *Repository) CreateLogisticsOffer(ctx context.Context, offer *models.LogisticsOffer) error {
	return translate(r.db.WithContext(ctx).Create(offer).Error)
}

func (r *Repository) GetLogisticsOffer(ctx context.Context, id uuid.UUID) (*models.LogisticsOffer, error) {
	var offer models.LogisticsOffer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &offer, nil
}

func (r *Repository) ListLogisticsOffers(ctx context.Context, applicationID uuid.UUID) ([]models.LogisticsOffer, error) {
	var offers []models.LogisticsOffer
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at").
		Find(&offers).Error
	return offers, err
}

// ClaimApprovedOffer points the transport application at the offer unless
// another offer already holds the slot.
func (r *Repository) ClaimApprovedOffer(ctx context.Context, applicationID, offerID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.TransportApplication{}).
		Where("id = ? AND (approved_logistics_offer_id IS NULL OR approved_logistics_offer_id = ?)", applicationID, offerID).
		Update("approved_logistics_offer_id", offerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrOfferAlreadyApproved
	}
	return nil
}

func (r *Repository) ClearApprovedOffer(ctx context.Context, applicationID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.TransportApplication{}).
		Where("id = ?", applicationID).
		Update("approved_logistics_offer_id", nil).Error
}

func (r *Repository) SetOfferStatus(ctx context.Context, id uuid.UUID, status models.OfferStatus) error {
	return setStatus(r.db.WithContext(ctx).Model(&models.LogisticsOffer{}), id, status)
}

// DeclineOtherOffers declines every offer of the application except keep.
func (r *Repository) DeclineOtherOffers(ctx context.Context, applicationID, keep uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.LogisticsOffer{}).
		Where("application_id = ? AND id <> ?", applicationID, keep).
		Update("status", models.OfferDeclined)
	return result.RowsAffected, result.Error
}

func (r *Repository) DeclineAllOffers(ctx context.Context, applicationID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.LogisticsOffer{}).
		Where("application_id = ?", applicationID).
		Update("status", models.OfferDeclined)
	return result.RowsAffected, result.Error
}

func (r *Repository) CreateContractor(ctx context.Context, c *models.Contractor) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *Repository) GetContractor(ctx context.Context, id uuid.UUID) (*models.Contractor, error) {
	var c models.Contractor
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *Repository) SaveContractor(ctx context.Context, c *models.Contractor) error {
	return translate(r.db.WithContext(ctx).Save(c).Error)
}

func (r *Repository) DeleteContractor(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Contractor{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) ListContractors(ctx context.Context, companyID uuid.UUID, page Page) ([]models.Contractor, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Contractor{}).Where("company_id = ?", companyID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Contractor
	if err := page.scope(q.Order("created_at DESC")).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
