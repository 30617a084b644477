package controller

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/hub"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxMessageLength = 4000

type ChatRepository interface {
	GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	ChatIDsForUser(ctx context.Context, userID, companyID uuid.UUID) ([]uuid.UUID, error)
	ListChats(ctx context.Context, ids []uuid.UUID, page db.Page) ([]models.Chat, int64, error)
	UnreadCounts(ctx context.Context, chatIDs []uuid.UUID, userID uuid.UUID) (map[uuid.UUID]int64, error)
	LastMessage(ctx context.Context, chatID uuid.UUID) (*models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatID uuid.UUID, page db.Page) ([]models.Message, int64, error)
	MarkMessagesRead(ctx context.Context, ids []uuid.UUID, readerID uuid.UUID) (int64, error)
}

// ChatHub fans persisted messages out to live listeners.
type ChatHub interface {
	Publish(ctx context.Context, msg models.Message) error
	Subscribe(chatID uuid.UUID) hub.Subscription
}

// ChatList is a page of chats plus the unread total over all of the user's
// chats.
type ChatList struct {
	Page[models.Chat]
	TotalUnread int64
}

type ChatService struct {
	repo       ChatRepository
	hub        ChatHub
	dispatcher EventDispatcher
	logger     *zap.Logger
}

func NewChatService(repo ChatRepository, chatHub ChatHub, dispatcher EventDispatcher, logger *zap.Logger) *ChatService {
	return &ChatService{
		repo:       repo,
		hub:        chatHub,
		dispatcher: dispatcher,
		logger:     logger.Named("chat_service"),
	}
}

// requireMember lets staff into any chat and others into the chats of their
// deals and logistics offers.
func (s *ChatService) requireMember(ctx context.Context, actor models.Actor, chatID uuid.UUID) error {
	if _, err := s.repo.GetChat(ctx, chatID); err != nil {
		return err
	}
	if actor.IsStaff() {
		return nil
	}
	ids, err := s.repo.ChatIDsForUser(ctx, actor.UserID, actor.CompanyID)
	if err != nil {
		return err
	}
	if !slices.Contains(ids, chatID) {
		return fmt.Errorf("%w: not a member of chat %s", e.ErrForbidden, chatID)
	}
	return nil
}

func (s *ChatService) ListChats(ctx context.Context, actor models.Actor, page db.Page) (*ChatList, error) {
	ids, err := s.repo.ChatIDsForUser(ctx, actor.UserID, actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chats: %w", err)
	}
	chats, total, err := s.repo.ListChats(ctx, ids, page)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.UnreadCounts(ctx, ids, actor.UserID)
	if err != nil {
		return nil, err
	}

	list := &ChatList{Page: Page[models.Chat]{Items: chats, Total: total}}
	for _, n := range counts {
		list.TotalUnread += n
	}
	for i := range list.Items {
		list.Items[i].UnreadCount = counts[list.Items[i].ID]
		last, err := s.repo.LastMessage(ctx, list.Items[i].ID)
		if err != nil {
			return nil, err
		}
		list.Items[i].LastMessage = last
	}
	return list, nil
}

// ListMessages returns a page of messages and then marks the ones written by
// others as read. The page shows the state before marking.
func (s *ChatService) ListMessages(ctx context.Context, actor models.Actor, chatID uuid.UUID, page db.Page) (Page[models.Message], error) {
	if err := s.requireMember(ctx, actor, chatID); err != nil {
		return Page[models.Message]{}, err
	}
	msgs, total, err := s.repo.ListMessages(ctx, chatID, page)
	if err != nil {
		return Page[models.Message]{}, err
	}

	unread := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		if !m.IsRead && m.AuthorID != actor.UserID {
			unread = append(unread, m.ID)
		}
	}
	if _, err := s.repo.MarkMessagesRead(ctx, unread, actor.UserID); err != nil {
		s.logger.Warn("Failed to mark messages read",
			zap.String("chat_id", chatID.String()),
			zap.Error(err),
		)
	}
	return Page[models.Message]{Items: msgs, Total: total}, nil
}

// PostMessage persists the message before publishing it to listeners.
func (s *ChatService) PostMessage(ctx context.Context, actor models.Actor, chatID uuid.UUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, e.Required("text")
	}
	if len(text) > maxMessageLength {
		return nil, e.NewValidationError(map[string]string{"text": "too long"})
	}
	if err := s.requireMember(ctx, actor, chatID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:       uuid.New(),
		ChatID:   chatID,
		AuthorID: actor.UserID,
		Text:     text,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	if err := s.hub.Publish(ctx, *msg); err != nil {
		s.logger.Warn("Failed to publish chat message",
			zap.String("message_id", msg.ID.String()),
			zap.Error(err),
		)
	}
	s.dispatcher.Dispatch(ctx, events.ChatMessageCreated{
		Message:         msg.Ref(),
		ChatID:          chatID,
		AuthorID:        actor.UserID,
		AuthorCompanyID: actor.CompanyID,
		Text:            text,
	})
	return msg, nil
}

// Subscribe opens a live feed of a chat. The caller closes the subscription.
func (s *ChatService) Subscribe(ctx context.Context, actor models.Actor, chatID uuid.UUID) (hub.Subscription, error) {
	if err := s.requireMember(ctx, actor, chatID); err != nil {
		return hub.Subscription{}, err
	}
	return s.hub.Subscribe(chatID), nil
}
