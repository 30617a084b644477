package db

import (
	"context"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateChat(ctx context.Context, chat *models.Chat) error {
	return translate(r.db.WithContext(ctx).Create(chat).Error)
}

func (r *Repository) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// ChatIDsForUser returns the chats a user takes part in: chats of deals of
// the user's company and chats of logistics offers the user made or received.
func (r *Repository) ChatIDsForUser(ctx context.Context, userID, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if companyID != uuid.Nil {
		for _, model := range []interface{}{&models.RecyclablesDeal{}, &models.EquipmentDeal{}} {
			var dealChats []uuid.UUID
			if err := r.db.WithContext(ctx).Model(model).
				Where("supplier_company_id = ? OR buyer_company_id = ?", companyID, companyID).
				Pluck("chat_id", &dealChats).Error; err != nil {
				return nil, err
			}
			ids = append(ids, dealChats...)
		}
	}
	var offerChats []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.LogisticsOffer{}).
		Where("logist_id = ? OR application_id IN (SELECT id FROM transport_applications WHERE created_by_id = ?)", userID, userID).
		Pluck("chat_id", &offerChats).Error; err != nil {
		return nil, err
	}
	return append(ids, offerChats...), nil
}

func (r *Repository) ListChats(ctx context.Context, ids []uuid.UUID, page Page) ([]models.Chat, int64, error) {
	if len(ids) == 0 {
		return []models.Chat{}, 0, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Chat{}).Where("id IN ?", ids)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var chats []models.Chat
	if err := page.scope(q.Order("created_at DESC")).Find(&chats).Error; err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

// UnreadCounts counts, per chat, messages the user did not write and has
// not read yet.
func (r *Repository) UnreadCounts(ctx context.Context, chatIDs []uuid.UUID, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(chatIDs))
	if len(chatIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ChatID uuid.UUID
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("chat_id, COUNT(*) AS n").
		Where("chat_id IN ? AND author_id <> ? AND is_read = ?", chatIDs, userID, false).
		Group("chat_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ChatID] = row.N
	}
	return counts, nil
}

func (r *Repository) LastMessage(ctx context.Context, chatID uuid.UUID) (*models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).
		Order("created_at DESC").Limit(1).Find(&msgs).Error; err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

func (r *Repository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

// ListMessages returns a page of a chat's messages, newest first.
func (r *Repository) ListMessages(ctx context.Context, chatID uuid.UUID, page Page) ([]models.Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Message{}).Where("chat_id = ?", chatID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var msgs []models.Message
	if err := page.scope(q.Order("created_at DESC")).Find(&msgs).Error; err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// MarkMessagesRead flags the given messages read unless the reader wrote them.
func (r *Repository) MarkMessagesRead(ctx context.Context, ids []uuid.UUID, readerID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id IN ? AND author_id <> ? AND is_read = ?", ids, readerID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
