package notification

import (
	"context"
	"log/slog"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/email"
	"placement-service/internal/identity"
	"placement-service/internal/metrics"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
)

// Users is the identity lookup the notifier needs to address recipients.
type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
	FindActiveAdmins(ctx context.Context) ([]identity.User, error)
}

type Service struct {
	repo    Repository
	sender  email.Sender
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(repo Repository, sender email.Sender, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, sender: sender, logger: logger, metrics: m}
}

func (s *Service) SendEmail(ctx context.Context, to email.Address, subject, htmlBody string) error {
	err := s.sender.Send(ctx, to, subject, htmlBody)
	s.metrics.RecordNotification(ctx, "email", err)
	return err
}

func (s *Service) CreateNotification(ctx context.Context, userID uuid.UUID, title, message string, metadata map[string]string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	err := s.repo.Create(ctx, n)
	s.metrics.RecordNotification(ctx, "in_app", err)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the caller's own notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, p pagination.Params) (pagination.Page[Notification], error) {
	items, total, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return pagination.Page[Notification]{}, err
	}
	return pagination.NewPage(items, p, total), nil
}

// MarkRead marks a notification read. Only its recipient may do so.
func (s *Service) MarkRead(ctx context.Context, userID uuid.UUID, rawID string) (*Notification, error) {
	id, err := apperror.ParseID("notificationId", rawID)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, apperror.Forbidden("notification belongs to another user")
	}

	now := time.Now().UTC()
	if err := s.repo.MarkRead(ctx, id, now); err != nil {
		return nil, err
	}
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
	return n, nil
}
