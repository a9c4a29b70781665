package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"chama-backend/internal/domain"
)

// Publisher is the part of *nats.Conn the sink needs.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSSink publishes each intent as JSON on
// <prefix>.<group id>.<kind>, e.g. chama.notifications.12.approval_required.
type NATSSink struct {
	conn   Publisher
	prefix string
}

type natsEnvelope struct {
	Intent     domain.NotificationIntent `json:"intent"`
	Recipients []int32                   `json:"recipients"`
	SentAt     time.Time                 `json:"sent_at"`
}

func NewNATSSink(conn Publisher, subjectPrefix string) *NATSSink {
	return &NATSSink{conn: conn, prefix: subjectPrefix}
}

// ConnectNATS dials the server with reconnect settings suited to a long
// running service.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Subject(intent domain.NotificationIntent) string {
	return fmt.Sprintf("%s.%d.%s", s.prefix, intent.GroupID, strings.ToLower(intent.Kind))
}

func (s *NATSSink) Deliver(ctx context.Context, intent domain.NotificationIntent, recipients []domain.Member) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	env := natsEnvelope{Intent: intent, SentAt: time.Now().UTC()}
	for _, r := range recipients {
		env.Recipients = append(env.Recipients, r.UserID)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	msg := nats.NewMsg(s.Subject(intent))
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	msg.Data = data
	return s.conn.PublishMsg(msg)
}
