package notify

import (
	"context"

	"chama-backend/internal/config"
	"chama-backend/internal/logger"
)

// FromConfig builds a dispatcher with every channel that has settings.
// Unconfigured channels are skipped. The returned func releases connections.
func FromConfig(ctx context.Context, cfg config.NotificationsConfig) (*Dispatcher, func(), error) {
	var sinks []Sink
	cleanup := func() {}

	if cfg.NATS.URL != "" {
		conn, err := ConnectNATS(cfg.NATS.URL, "chama-backend")
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := conn.Drain(); err != nil {
				logger.Warn("Failed to drain NATS connection", "error", err)
			}
		}
		sinks = append(sinks, NewNATSSink(conn, cfg.NATS.SubjectPrefix))
		logger.Info("NATS notification sink enabled", "url", cfg.NATS.URL, "subject_prefix", cfg.NATS.SubjectPrefix)
	}

	if cfg.SendGrid.APIKey != "" {
		sinks = append(sinks, NewEmailSink(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName))
		logger.Info("SendGrid notification sink enabled", "from", cfg.SendGrid.FromEmail)
	}

	if cfg.Firebase.CredentialsFile != "" {
		client, err := NewFirebaseMessenger(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		sinks = append(sinks, NewPushSink(client))
		logger.Info("Firebase push notification sink enabled")
	}

	if len(sinks) == 0 {
		logger.Warn("No notification channels configured; notifications stay in the in-app inbox")
	}
	return NewDispatcher(sinks...), cleanup, nil
}
