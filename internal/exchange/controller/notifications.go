package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/mail"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type NotificationRepository interface {
	CreateNotifications(ctx context.Context, list []models.Notification) error
	ListNotifications(ctx context.Context, userID, companyID uuid.UUID, page db.Page) ([]models.Notification, int64, error)
	UnreadNotificationCount(ctx context.Context, userID, companyID uuid.UUID) (int64, error)
	MarkNotificationsRead(ctx context.Context, ids []uuid.UUID) error
	UserIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error)
	FavoritedBy(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
	CompanyEmails(ctx context.Context, companyID uuid.UUID) ([]string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	DealByChat(ctx context.Context, chatID uuid.UUID) (models.Deal, error)
}

// Mailer delivers notification emails.
type Mailer interface {
	Send(m mail.Email) error
}

// NotificationService writes in-app notifications for domain events and
// mirrors them by email. It is registered as an event handler.
type NotificationService struct {
	repo   NotificationRepository
	mailer Mailer
	logger *zap.Logger
}

// NewNotificationService accepts a nil mailer, in which case no email is
// sent.
func NewNotificationService(repo NotificationRepository, mailer Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		mailer: mailer,
		logger: logger.Named("notification_service"),
	}
}

// notice is one notification before it is addressed.
type notice struct {
	subject models.Ref
	name    string
	payload map[string]interface{}
}

// Handle addresses the event:
//
//	ChatMessageCreated                 counterparty company of the chat's deal
//	DealCreated                        company owning the application
//	VerificationStatusChanged          company under verification
//	DealStatusChanged                  supplier and buyer
//	TransportApplicationStatusChanged  creator and approved logist
//	TransportApplicationCreated        every logist
//	ApplicationCreated                 users following the company
//	ApplicationStatusChanged           company owning the application
func (s *NotificationService) Handle(ctx context.Context, ev events.Event) error {
	switch ev := ev.(type) {
	case events.ChatMessageCreated:
		return s.onChatMessage(ctx, ev)

	case events.DealCreated:
		return s.notify(ctx, notice{
			subject: ev.Deal,
			name:    fmt.Sprintf("New deal № %s", ev.DealNumber),
			payload: map[string]interface{}{"deal_number": ev.DealNumber},
		}, models.CompanyRecipient(ev.OwnerCompanyID))

	case events.VerificationStatusChanged:
		return s.notify(ctx, notice{
			subject: ev.Request,
			name:    fmt.Sprintf("Company verification status changed to %s", ev.Status),
			payload: map[string]interface{}{"status": string(ev.Status)},
		}, models.CompanyRecipient(ev.CompanyID))

	case events.DealStatusChanged:
		label := ev.Label
		if label == "" {
			label = ev.To.Label()
		}
		return s.notify(ctx, notice{
			subject: ev.Deal,
			name:    fmt.Sprintf("Deal № %s: %s", ev.DealNumber, label),
			payload: map[string]interface{}{
				"deal_number": ev.DealNumber,
				"status":      string(ev.To),
			},
		}, models.CompanyRecipient(ev.SupplierID), models.CompanyRecipient(ev.BuyerID))

	case events.TransportApplicationStatusChanged:
		n := notice{
			subject: ev.Application,
			name:    fmt.Sprintf("Transport application status changed: %s", ev.Status.Label()),
			payload: map[string]interface{}{"status": string(ev.Status)},
		}
		if err := s.notify(ctx, n, models.UserRecipient(ev.CreatedByID)); err != nil {
			return err
		}
		if ev.ApprovedLogistID == nil {
			return fmt.Errorf("%w: transport application %s", e.ErrNoApprovedOffer, ev.Application.ID)
		}
		return s.notify(ctx, n, models.UserRecipient(*ev.ApprovedLogistID))

	case events.TransportApplicationCreated:
		logists, err := s.repo.UserIDsByRole(ctx, models.RoleLogist)
		if err != nil {
			return err
		}
		return s.notify(ctx, notice{
			subject: ev.Application,
			name:    "New transport application",
		}, userRecipients(logists)...)

	case events.ApplicationCreated:
		followers, err := s.repo.FavoritedBy(ctx, ev.CompanyID)
		if err != nil {
			return err
		}
		return s.notify(ctx, notice{
			subject: ev.Application,
			name:    "New application from a company you follow",
		}, userRecipients(followers)...)

	case events.ApplicationStatusChanged:
		return s.notify(ctx, notice{
			subject: ev.Application,
			name:    fmt.Sprintf("Application status changed to %s", ev.Status),
			payload: map[string]interface{}{"status": string(ev.Status)},
		}, models.CompanyRecipient(ev.CompanyID))
	}
	return nil
}

func (s *NotificationService) onChatMessage(ctx context.Context, ev events.ChatMessageCreated) error {
	deal, err := s.repo.DealByChat(ctx, ev.ChatID)
	if errors.Is(err, e.ErrNotFound) {
		// offer chats notify nobody
		return nil
	}
	if err != nil {
		return err
	}
	n := notice{
		subject: ev.Message,
		name:    fmt.Sprintf("New message in deal № %s", deal.Number()),
		payload: map[string]interface{}{"deal_number": deal.Number()},
	}
	if !models.IsParticipant(deal, ev.AuthorCompanyID) {
		return s.notify(ctx, n, models.CompanyRecipient(deal.SupplierID()), models.CompanyRecipient(deal.BuyerID()))
	}
	return s.notify(ctx, n, models.CompanyRecipient(models.Counterparty(deal, ev.AuthorCompanyID)))
}

func userRecipients(ids []uuid.UUID) []models.Recipient {
	out := make([]models.Recipient, len(ids))
	for i, id := range ids {
		out[i] = models.UserRecipient(id)
	}
	return out
}

func (s *NotificationService) notify(ctx context.Context, n notice, to ...models.Recipient) error {
	if len(to) == 0 {
		return nil
	}
	list := make([]models.Notification, len(to))
	for i, r := range to {
		list[i] = models.Notification{
			ID:          uuid.New(),
			CompanyID:   r.CompanyID,
			UserID:      r.UserID,
			SubjectKind: n.subject.Kind,
			SubjectID:   n.subject.ID,
			Name:        n.name,
			Payload:     datatypes.JSONMap(n.payload),
		}
	}
	if err := s.repo.CreateNotifications(ctx, list); err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	s.email(ctx, n, to)
	return nil
}

// email is best effort; failures are logged only.
func (s *NotificationService) email(ctx context.Context, n notice, to []models.Recipient) {
	if s.mailer == nil {
		return
	}
	var addrs []string
	for _, r := range to {
		switch {
		case r.CompanyID != nil:
			emails, err := s.repo.CompanyEmails(ctx, *r.CompanyID)
			if err != nil {
				s.logger.Warn("Failed to look up company emails", zap.String("company_id", r.CompanyID.String()), zap.Error(err))
				continue
			}
			addrs = append(addrs, emails...)
		case r.UserID != nil:
			user, err := s.repo.GetUser(ctx, *r.UserID)
			if err != nil {
				s.logger.Warn("Failed to look up user email", zap.String("user_id", r.UserID.String()), zap.Error(err))
				continue
			}
			if user.Email != "" {
				addrs = append(addrs, user.Email)
			}
		}
	}
	if len(addrs) == 0 {
		return
	}

	data := map[string]any{"name": n.name}
	for k, v := range n.payload {
		data[k] = v
	}
	if err := s.mailer.Send(mail.Email{To: addrs, Subject: n.name, Data: data}); err != nil {
		s.logger.Error("Failed to send notification email",
			zap.String("subject", n.subject.String()),
			zap.Int("recipients", len(addrs)),
			zap.Error(err),
		)
	}
}

// ListNotifications returns the caller's notifications. Unread ones in the
// page are flagged read once returned.
func (s *NotificationService) ListNotifications(ctx context.Context, actor models.Actor, page db.Page) (Page[models.Notification], error) {
	list, total, err := s.repo.ListNotifications(ctx, actor.UserID, actor.CompanyID, page)
	if err != nil {
		return Page[models.Notification]{}, err
	}
	var unread []uuid.UUID
	for _, n := range list {
		if !n.IsRead {
			unread = append(unread, n.ID)
		}
	}
	if err := s.repo.MarkNotificationsRead(ctx, unread); err != nil {
		return Page[models.Notification]{}, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return Page[models.Notification]{Items: list, Total: total}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor models.Actor) (int64, error) {
	return s.repo.UnreadNotificationCount(ctx, actor.UserID, actor.CompanyID)
}
