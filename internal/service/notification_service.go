package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
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
	n.dispatcher.Subscribe(events.RequestCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.RequestAssigned, n.handleEvent)
	n.dispatcher.Subscribe(events.RequestVerifying, n.handleEvent)
	n.dispatcher.Subscribe(events.RequestClosed, n.handleEvent)
	n.dispatcher.Subscribe(events.RequestEdited, n.handleEvent)
	n.dispatcher.Subscribe(events.RequestDeleted, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("lifecycle event",
		zap.String("event_type", string(event.Type)),
		zap.String("request_id", event.RequestID),
		zap.Int64("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("request_id", event.RequestID),
		zap.String("event_type", string(event.Type)))
}
