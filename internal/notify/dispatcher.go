// Package notify hands notification intents to external delivery channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/metrics"
)

// Sink delivers an intent to the resolved recipients over one channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, intent domain.NotificationIntent, recipients []domain.Member) error
}

type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Dispatch tries every sink and returns the joined failures. A failing sink
// does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, intent domain.NotificationIntent, recipients []domain.Member) error {
	var errs []error
	for _, s := range d.sinks {
		logger.ExternalServiceCall(s.Name(), "Deliver", "kind", intent.Kind, "groupID", intent.GroupID, "recipients", len(recipients))
		err := s.Deliver(ctx, intent, recipients)
		logger.ExternalServiceResult(s.Name(), "Deliver", err, "kind", intent.Kind)
		if err != nil {
			metrics.NotificationsDispatched.WithLabelValues(s.Name(), "failure").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		metrics.NotificationsDispatched.WithLabelValues(s.Name(), "success").Inc()
	}
	return errors.Join(errs...)
}
