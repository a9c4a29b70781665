package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chama-backend/internal/domain"
	"chama-backend/internal/service"
)

func TestNotificationService_Emit(t *testing.T) {
	ctx := context.Background()

	t.Run("Role recipients", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		groupRepo := new(MockGroupRepo)
		dispatcher := new(MockDispatcher)
		svc := service.NewNotificationService(noteRepo, groupRepo, dispatcher)

		roster := []domain.Member{
			{UserID: 1, RoleName: "Chairperson"},
			{UserID: 2, RoleName: "chairperson & treasurer"},
			{UserID: 3, RoleName: "Member"},
			{UserID: 4, RoleName: "ChamaAdmin"},
		}
		groupRepo.On("ListMembers", ctx, groupID).Return(roster, nil)
		noteRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Attributes["transaction_id"] == "9" && n.Attributes["requires_action"] == "true"
		})).Return(nil).Times(3)
		dispatcher.On("Dispatch", ctx, mock.Anything, mock.MatchedBy(func(r []domain.Member) bool {
			return len(r) == 3 && r[0].UserID == 1 && r[1].UserID == 2 && r[2].UserID == 4
		})).Return(nil).Once()

		err := svc.Emit(ctx, domain.NotificationIntent{
			Kind:           domain.NotificationKindApprovalRequired,
			GroupID:        groupID,
			RecipientRole:  "chairperson|chamaadmin",
			TransactionID:  9,
			RequiresAction: true,
			Title:          "Approval required",
		})
		require.NoError(t, err)
		noteRepo.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("Single recipient and failing dispatch", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		groupRepo := new(MockGroupRepo)
		dispatcher := new(MockDispatcher)
		svc := service.NewNotificationService(noteRepo, groupRepo, dispatcher)

		groupRepo.On("GetMember", ctx, groupID, memberID).Return(&members[0], nil)
		noteRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == memberID && n.GroupID == groupID
		})).Return(nil).Once()
		dispatcher.On("Dispatch", ctx, mock.Anything, []domain.Member{members[0]}).Return(errors.New("nats: timeout")).Once()

		err := svc.Emit(ctx, domain.NotificationIntent{
			Kind:            domain.NotificationKindRejected,
			GroupID:         groupID,
			RecipientUserID: memberID,
			Title:           "Request rejected",
		})
		assert.ErrorContains(t, err, "nats: timeout")
		noteRepo.AssertExpectations(t)
	})

	t.Run("Inbox only", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		groupRepo := new(MockGroupRepo)
		svc := service.NewNotificationService(noteRepo, groupRepo, nil)

		groupRepo.On("ListMembers", ctx, groupID).Return([]domain.Member{{UserID: 3, RoleName: "Member"}}, nil)

		err := svc.Emit(ctx, domain.NotificationIntent{GroupID: groupID, RecipientRole: "secretary"})
		assert.NoError(t, err)
		noteRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestNotificationService_GetNotifications(t *testing.T) {
	ctx := context.Background()
	noteRepo := new(MockNotificationRepo)
	svc := service.NewNotificationService(noteRepo, new(MockGroupRepo), nil)

	noteRepo.On("List", ctx, memberID, int32(10), int64(20)).Return([]domain.Notification{{ID: 1}}, int32(21), nil)
	notes, total, err := svc.GetNotifications(ctx, memberID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, int32(21), total)

	// Huge page numbers and sizes must not wrap into a negative offset.
	noteRepo.On("List", ctx, memberID, int32(100), int64(math.MaxInt32-1)*100).Return([]domain.Notification{}, int32(21), nil)
	notes, _, err = svc.GetNotifications(ctx, memberID, math.MaxInt32, math.MaxInt32)
	require.NoError(t, err)
	assert.Empty(t, notes)

	noteRepo.On("List", ctx, memberID, int32(20), int64(0)).Return([]domain.Notification{}, int32(21), nil)
	_, _, err = svc.GetNotifications(ctx, memberID, 0, 0)
	require.NoError(t, err)
	noteRepo.AssertExpectations(t)

	noteRepo.On("MarkAsRead", ctx, int32(1), memberID).Return(nil)
	assert.NoError(t, svc.MarkAsRead(ctx, memberID, 1))
}
