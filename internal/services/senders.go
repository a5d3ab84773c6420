package services

import (
	"context"
	"fmt"

	"activityhub/internal/config"
	"activityhub/internal/models"

	"go.uber.org/zap"
)

// ===============================
// DELIVERY STRATEGIES
// ===============================

// mockSender simulates success without external integrations
type mockSender struct{}

func (mockSender) Send(ctx context.Context, notification *NotificationContext) error {
	return nil
}

// logSender writes the notification payload to the application log
type logSender struct {
	logger *zap.Logger
}

func (s *logSender) Send(ctx context.Context, notification *NotificationContext) error {
	s.logger.Info("Notification dispatched",
		zap.String("channel", string(notification.Channel)),
		zap.String("event", string(notification.Event)),
		zap.Any("participant_id", notification.ParticipantID),
		zap.Any("activity_id", notification.ActivityID),
		zap.Any("signup_id", notification.SignupID),
		zap.Any("payload", notification.Payload),
	)
	return nil
}

// newSender constructs a delivery strategy by kind
func newSender(kind string, logger *zap.Logger) (Sender, error) {
	switch kind {
	case "", "mock":
		return mockSender{}, nil
	case "log", "logging":
		return &logSender{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported notification sender: %s", kind)
	}
}

// ===============================
// SENDER REGISTRY
// ===============================

// SenderRegistry maps channels to delivery strategies, falling back to
// the no-op mock sender for anything unconfigured.
type SenderRegistry struct {
	senders  map[models.NotificationChannel]Sender
	fallback Sender
	logger   *zap.Logger
}

// NewSenderRegistry builds the registry from configured sender kinds.
// An unknown kind logs a warning and falls back to mock rather than
// failing startup.
func NewSenderRegistry(cfg config.NotificationConfig, logger *zap.Logger) *SenderRegistry {
	registry := &SenderRegistry{
		senders:  make(map[models.NotificationChannel]Sender),
		fallback: mockSender{},
		logger:   logger,
	}

	kinds := map[models.NotificationChannel]string{
		models.ChannelWechat: cfg.WechatSender,
		models.ChannelEmail:  cfg.EmailSender,
		models.ChannelSMS:    cfg.SMSSender,
	}
	for channel, kind := range kinds {
		sender, err := newSender(kind, logger)
		if err != nil {
			logger.Warn("Unknown notification sender kind, using mock",
				zap.String("channel", string(channel)),
				zap.String("kind", kind),
			)
			sender = mockSender{}
		}
		registry.senders[channel] = sender
	}
	return registry
}

// Register overrides the delivery strategy for one channel
func (r *SenderRegistry) Register(channel models.NotificationChannel, sender Sender) {
	r.senders[channel] = sender
}

// Resolve returns the sender for a channel, or the no-op fallback
func (r *SenderRegistry) Resolve(channel models.NotificationChannel) Sender {
	if sender, ok := r.senders[channel]; ok {
		return sender
	}
	return r.fallback
}
