package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/config"
	"github.com/spec-kit/governance-service/internal/events"
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

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDecisionTransitioned, n.handleDecisionTransitioned)
	n.dispatcher.Subscribe(events.EventDecisionEscalated, n.handleDecisionEscalated)
	n.dispatcher.Subscribe(events.EventMeetingFinalized, n.handleMeetingFinalized)
	n.dispatcher.Subscribe(events.EventObligationCertified, n.handleObligationCertified)
}

func (n *NotificationService) handleDecisionTransitioned(ctx context.Context, event events.Event) error {
	n.logger.Info("DecisionTransitioned", zap.String("decision_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleDecisionEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("DecisionEscalated", zap.String("decision_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleMeetingFinalized(ctx context.Context, event events.Event) error {
	n.logger.Info("MeetingFinalized", zap.String("meeting_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleObligationCertified(ctx context.Context, event events.Event) error {
	n.logger.Info("ObligationCertified", zap.String("obligation_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
