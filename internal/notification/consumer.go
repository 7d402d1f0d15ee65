package notification

import (
	"context"
	"fmt"
	"log/slog"

	"placement-service/internal/email"
	"placement-service/internal/event"

	"github.com/google/uuid"
)

// Consumer turns application events into emails and in-app
// notifications. Delivery failures are logged and never returned.
type Consumer struct {
	service *Service
	users   Users
	logger  *slog.Logger
}

func NewConsumer(service *Service, users Users, logger *slog.Logger) *Consumer {
	return &Consumer{service: service, users: users, logger: logger}
}

// Handle is an event.Handler.
func (c *Consumer) Handle(ctx context.Context, e event.Envelope) error {
	switch e.Type {
	case event.TypeApplicationSubmitted:
		var p event.ApplicationSubmitted
		if err := e.Decode(&p); err != nil {
			c.logger.ErrorContext(ctx, "failed to decode event", "event_id", e.ID, "error", err)
			return nil
		}
		c.onSubmitted(ctx, p)
	case event.TypeApplicationStatusChanged:
		var p event.ApplicationStatusChanged
		if err := e.Decode(&p); err != nil {
			c.logger.ErrorContext(ctx, "failed to decode event", "event_id", e.ID, "error", err)
			return nil
		}
		c.onStatusChanged(ctx, p)
	default:
		c.logger.DebugContext(ctx, "ignoring event", "type", e.Type, "event_id", e.ID)
	}
	return nil
}

func (c *Consumer) onSubmitted(ctx context.Context, p event.ApplicationSubmitted) {
	data := email.TemplateData{StudentName: p.StudentName, JobTitle: p.JobTitle, CompanyName: p.CompanyName}
	meta := map[string]string{
		"applicationId": p.ApplicationID.String(),
		"jobId":         p.JobID.String(),
	}

	c.notify(ctx, p.StudentUserID, "Application submitted",
		fmt.Sprintf("Your application for %s has been submitted.", p.JobTitle), meta)
	c.mail(ctx, p.StudentUserID, "Application submitted: "+p.JobTitle, email.RenderSubmitted, data)
}

func (c *Consumer) onStatusChanged(ctx context.Context, p event.ApplicationStatusChanged) {
	data := email.TemplateData{
		StudentName: p.StudentName,
		JobTitle:    p.JobTitle,
		CompanyName: p.CompanyName,
		Status:      p.Status,
	}
	meta := map[string]string{
		"applicationId": p.ApplicationID.String(),
		"jobId":         p.JobID.String(),
		"status":        p.Status,
	}

	c.notify(ctx, p.StudentUserID, "Application "+p.Status,
		fmt.Sprintf("Your application for %s is now %s.", p.JobTitle, p.Status), meta)
	c.mail(ctx, p.StudentUserID, "Application update: "+p.JobTitle, email.RenderStatusChanged, data)

	if p.Status != "selected" {
		return
	}

	admins, err := c.users.FindActiveAdmins(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to load admins", "application_id", p.ApplicationID, "error", err)
		return
	}
	body, err := email.RenderSelection(data)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to render email", "error", err)
		return
	}
	for _, admin := range admins {
		c.notify(ctx, admin.ID, "Student selected",
			fmt.Sprintf("%s was selected for %s.", p.StudentName, p.JobTitle), meta)
		to := email.Address{Name: admin.Name, Email: admin.Email}
		if err := c.service.SendEmail(ctx, to, "Student selected: "+p.JobTitle, body); err != nil {
			c.logger.WarnContext(ctx, "failed to email admin", "admin_id", admin.ID, "error", err)
		}
	}
}

func (c *Consumer) notify(ctx context.Context, userID uuid.UUID, title, message string, meta map[string]string) {
	if _, err := c.service.CreateNotification(ctx, userID, title, message, meta); err != nil {
		c.logger.WarnContext(ctx, "failed to store notification", "user_id", userID, "error", err)
	}
}

func (c *Consumer) mail(ctx context.Context, userID uuid.UUID, subject string, render func(email.TemplateData) (string, error), data email.TemplateData) {
	user, err := c.users.GetUserByID(ctx, userID)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to load recipient", "user_id", userID, "error", err)
		return
	}
	body, err := render(data)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to render email", "error", err)
		return
	}
	if err := c.service.SendEmail(ctx, email.Address{Name: user.Name, Email: user.Email}, subject, body); err != nil {
		c.logger.WarnContext(ctx, "failed to send email", "user_id", userID, "error", err)
	}
}
