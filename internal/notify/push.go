package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"chama-backend/internal/domain"
)

// Messenger is the part of *messaging.Client the sink needs.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSink sends a Firebase Cloud Messaging notification to each recipient's
// per-user topic. Mobile clients subscribe to UserTopic on sign-in.
type PushSink struct {
	client Messenger
}

func NewPushSink(client Messenger) *PushSink {
	return &PushSink{client: client}
}

// NewFirebaseMessenger builds an FCM client from a service account file.
func NewFirebaseMessenger(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase messaging: %w", err)
	}
	return client, nil
}

func UserTopic(userID int32) string {
	return "chama-user-" + strconv.Itoa(int(userID))
}

func (s *PushSink) Name() string { return "firebase" }

func (s *PushSink) Deliver(ctx context.Context, intent domain.NotificationIntent, recipients []domain.Member) error {
	data := map[string]string{
		"kind":            intent.Kind,
		"group_id":        strconv.Itoa(int(intent.GroupID)),
		"requires_action": strconv.FormatBool(intent.RequiresAction),
	}
	if intent.TransactionID != 0 {
		data["transaction_id"] = strconv.Itoa(int(intent.TransactionID))
	}
	if intent.GoalID != 0 {
		data["goal_id"] = strconv.Itoa(int(intent.GoalID))
	}

	var errs []error
	for _, r := range recipients {
		msg := &messaging.Message{
			Topic: UserTopic(r.UserID),
			Notification: &messaging.Notification{
				Title: intent.Title,
				Body:  intent.Message,
			},
			Data: data,
		}
		if _, err := s.client.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("push to user %d: %w", r.UserID, err))
		}
	}
	return errors.Join(errs...)
}
