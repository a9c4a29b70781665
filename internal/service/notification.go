package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
)

type notificationService struct {
	noteRepo   repository.NotificationRepository
	groupRepo  repository.GroupRepository
	dispatcher Dispatcher
}

// NewNotificationService stores inbox rows and forwards intents to dispatcher.
// A nil dispatcher keeps notifications in the inbox only.
func NewNotificationService(noteRepo repository.NotificationRepository, groupRepo repository.GroupRepository, dispatcher Dispatcher) NotificationService {
	return &notificationService{noteRepo: noteRepo, groupRepo: groupRepo, dispatcher: dispatcher}
}

func (s *notificationService) Emit(ctx context.Context, intent domain.NotificationIntent) error {
	logger.EnterMethod("notificationService.Emit", "kind", intent.Kind, "groupID", intent.GroupID, "role", intent.RecipientRole, "userID", intent.RecipientUserID)

	recipients, err := s.resolve(ctx, intent)
	if err != nil {
		logger.ExitMethodWithError("notificationService.Emit", err)
		return err
	}
	if len(recipients) == 0 {
		logger.Warn("Notification has no recipients", "kind", intent.Kind, "groupID", intent.GroupID, "role", intent.RecipientRole)
		logger.ExitMethod("notificationService.Emit", "recipients", 0)
		return nil
	}

	var errs []error
	attrs := intentAttributes(intent)
	for _, r := range recipients {
		note := &domain.Notification{
			UserID:     r.UserID,
			GroupID:    intent.GroupID,
			Title:      intent.Title,
			Message:    intent.Message,
			Attributes: attrs,
		}
		if err := s.noteRepo.Create(ctx, note); err != nil {
			errs = append(errs, fmt.Errorf("store notification for user %d: %w", r.UserID, err))
		}
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, intent, recipients); err != nil {
			errs = append(errs, err)
		}
	}

	err = errors.Join(errs...)
	if err != nil {
		logger.ExitMethodWithError("notificationService.Emit", err, "recipients", len(recipients))
		return err
	}
	logger.ExitMethod("notificationService.Emit", "recipients", len(recipients))
	return nil
}

func (s *notificationService) resolve(ctx context.Context, intent domain.NotificationIntent) ([]domain.Member, error) {
	if intent.RecipientUserID != 0 {
		m, err := s.groupRepo.GetMember(ctx, intent.GroupID, intent.RecipientUserID)
		if err != nil {
			return nil, err
		}
		return []domain.Member{*m}, nil
	}

	role := roles.Parse(intent.RecipientRole)
	if role == roles.Member {
		return nil, nil
	}
	members, err := s.groupRepo.ListMembers(ctx, intent.GroupID)
	if err != nil {
		return nil, err
	}
	var out []domain.Member
	for _, m := range members {
		if roles.Parse(m.RoleName).Has(role) {
			out = append(out, m)
		}
	}
	return out, nil
}

func intentAttributes(intent domain.NotificationIntent) map[string]string {
	attrs := map[string]string{
		"kind":            intent.Kind,
		"requires_action": strconv.FormatBool(intent.RequiresAction),
	}
	if intent.TransactionID != 0 {
		attrs["transaction_id"] = strconv.Itoa(int(intent.TransactionID))
	}
	if intent.GoalID != 0 {
		attrs["goal_id"] = strconv.Itoa(int(intent.GoalID))
	}
	return attrs
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *notificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	offset := int64(page-1) * int64(pageSize)
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}
