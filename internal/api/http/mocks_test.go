package http_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chama-backend/internal/domain"
	"chama-backend/internal/finance"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
	"chama-backend/internal/service"
)

// MockTransactionService
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, actingUserID int32, intent service.TransactionIntent) (*domain.Transaction, error) {
	args := m.Called(ctx, actingUserID, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) PrepareLoanApplication(ctx context.Context, actingUserID int32, intent service.TransactionIntent) (*finance.LoanApplication, error) {
	args := m.Called(ctx, actingUserID, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LoanApplication), args.Error(1)
}
func (m *MockTransactionService) ApproveAsGuarantor(ctx context.Context, transactionID, actingUserID int32) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) ApproveAsRole(ctx context.Context, transactionID int32, role string, actingUserID int32) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, role, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) RejectTransaction(ctx context.Context, transactionID int32, reason string, actingUserID int32) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, reason, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) GetTransaction(ctx context.Context, actingUserID, transactionID int32) (*service.TransactionDetail, error) {
	args := m.Called(ctx, actingUserID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransactionDetail), args.Error(1)
}
func (m *MockTransactionService) ListTransactions(ctx context.Context, actingUserID, groupID int32, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, actingUserID, groupID, filter)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) GetAffordability(ctx context.Context, actingUserID, groupID, memberID int32) (*service.AffordabilityView, error) {
	args := m.Called(ctx, actingUserID, groupID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AffordabilityView), args.Error(1)
}
func (m *MockTransactionService) GetCapabilities(ctx context.Context, actingUserID, groupID int32) (*roles.Capabilities, error) {
	args := m.Called(ctx, actingUserID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*roles.Capabilities), args.Error(1)
}

// MockGoalService
type MockGoalService struct {
	mock.Mock
}

func (m *MockGoalService) CreateGoal(ctx context.Context, actingUserID int32, intent service.GoalIntent) (*domain.Goal, error) {
	args := m.Called(ctx, actingUserID, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}
func (m *MockGoalService) ApproveGoal(ctx context.Context, goalID int32, role string, actingUserID int32) (*domain.Goal, error) {
	args := m.Called(ctx, goalID, role, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}
func (m *MockGoalService) RejectGoal(ctx context.Context, goalID int32, reason string, actingUserID int32) (*domain.Goal, error) {
	args := m.Called(ctx, goalID, reason, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}
func (m *MockGoalService) GetGoal(ctx context.Context, actingUserID, goalID int32) (*service.GoalDetail, error) {
	args := m.Called(ctx, actingUserID, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GoalDetail), args.Error(1)
}
func (m *MockGoalService) ListGoals(ctx context.Context, actingUserID, groupID int32) ([]domain.Goal, error) {
	args := m.Called(ctx, actingUserID, groupID)
	return args.Get(0).([]domain.Goal), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Emit(ctx context.Context, intent domain.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}
func (m *MockNotificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserProfile(ctx context.Context, userID int32) (*service.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserProfile), args.Error(1)
}
