package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/events"
)

// Notification is a single outbound message derived from a lifecycle event.
type Notification struct {
	Channel     string
	Recipient   string
	ComplaintID string
	Subject     string
}

// NotificationService turns lifecycle events into email and webhook
// notifications. Delivery is a logged stub.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintUpdated, n.handleComplaintUpdated)
	n.dispatcher.Subscribe(events.EventComplaintReopened, n.handleComplaintReopened)
}

func (n *NotificationService) handleComplaintCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	subject := fmt.Sprintf("Complaint %s registered", payload.Code)
	n.deliver(ctx, n.notificationsFor(event, subject, event.Actor.UserID))
	return nil
}

func (n *NotificationService) handleComplaintUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintUpdatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.OldStatus == payload.NewStatus {
		return nil
	}
	subject := fmt.Sprintf("Complaint moved from %s to %s", payload.OldStatus, payload.NewStatus)
	n.deliver(ctx, n.notificationsFor(event, subject, payload.WardOfficerID, payload.MaintenanceTeamID))
	return nil
}

func (n *NotificationService) handleComplaintReopened(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintReopenedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.deliver(ctx, n.notificationsFor(event, "Complaint reopened and awaiting maintenance team assignment", payload.WardOfficerID))
	return nil
}

func (n *NotificationService) notificationsFor(event events.Event, subject string, recipients ...string) []Notification {
	var out []Notification
	seen := make(map[string]struct{})
	for _, recipient := range recipients {
		if !isAssignedID(recipient) {
			continue
		}
		if _, dup := seen[recipient]; dup {
			continue
		}
		seen[recipient] = struct{}{}
		if strings.TrimSpace(n.cfg.EmailFrom) != "" {
			out = append(out, Notification{Channel: "email", Recipient: recipient, ComplaintID: event.ComplaintID, Subject: subject})
		}
	}
	if strings.TrimSpace(n.cfg.WebhookURL) != "" {
		out = append(out, Notification{Channel: "webhook", Recipient: n.cfg.WebhookURL, ComplaintID: event.ComplaintID, Subject: subject})
	}
	return out
}

func (n *NotificationService) deliver(_ context.Context, notifications []Notification) {
	for _, item := range notifications {
		n.logger.Info("notification queued",
			zap.String("channel", item.Channel),
			zap.String("recipient", item.Recipient),
			zap.String("complaint_id", item.ComplaintID),
			zap.String("subject", item.Subject),
			zap.String("from", n.cfg.EmailFrom))
	}
}
