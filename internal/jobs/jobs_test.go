package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chama-backend/internal/config"
	"chama-backend/internal/domain"
	"chama-backend/internal/jobs"
	"chama-backend/internal/repository"
)

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}
func (m *MockTransactionRepo) CreateLoan(ctx context.Context, tx *domain.Transaction, check func([]domain.Transaction) error) error {
	return m.Called(ctx, tx, check).Error(0)
}
func (m *MockTransactionRepo) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) Update(ctx context.Context, tx *domain.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}
func (m *MockTransactionRepo) ListByGroup(ctx context.Context, groupID int32, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, groupID, filter)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) ListPending(ctx context.Context) ([]domain.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) SumGoalContributions(ctx context.Context, goalID int32) (decimal.Decimal, error) {
	args := m.Called(ctx, goalID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockGoalRepo struct {
	mock.Mock
}

func (m *MockGoalRepo) Create(ctx context.Context, goal *domain.Goal) error {
	return m.Called(ctx, goal).Error(0)
}
func (m *MockGoalRepo) GetByID(ctx context.Context, id int32) (*domain.Goal, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Goal), args.Error(1)
}
func (m *MockGoalRepo) Update(ctx context.Context, goal *domain.Goal) error {
	return m.Called(ctx, goal).Error(0)
}
func (m *MockGoalRepo) ListByGroup(ctx context.Context, groupID int32) ([]domain.Goal, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]domain.Goal), args.Error(1)
}
func (m *MockGoalRepo) ListByStatus(ctx context.Context, status domain.GoalStatus) ([]domain.Goal, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Goal), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Emit(ctx context.Context, intent domain.NotificationIntent) error {
	return m.Called(ctx, intent).Error(0)
}
func (m *MockNotificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

var now = time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)

func newRunner() (*jobs.JobRunner, *MockTransactionRepo, *MockGoalRepo, *MockNotificationService) {
	txRepo := new(MockTransactionRepo)
	goalRepo := new(MockGoalRepo)
	noteSvc := new(MockNotificationService)
	cfg := &config.Config{Scheduler: config.SchedulerConfig{GuarantorReminderAgeDays: 3}}
	jr := jobs.NewJobRunner(jobs.Deps{
		Transactions:  txRepo,
		Goals:         goalRepo,
		Notifications: noteSvc,
	}, cfg).WithClock(func() time.Time { return now })
	return jr, txRepo, goalRepo, noteSvc
}

func TestSendPendingApprovalReminders(t *testing.T) {
	jr, txRepo, goalRepo, noteSvc := newRunner()

	txRepo.On("ListPending", mock.Anything).Return([]domain.Transaction{
		{ID: 1, GroupID: 1, TransactionType: domain.TransactionTypeContribution, Status: domain.TransactionStatusPending},
		{ID: 2, GroupID: 1, TransactionType: domain.TransactionTypeExpense, Status: domain.TransactionStatusPending},
		{ID: 3, GroupID: 1, TransactionType: domain.TransactionTypeIncome, Status: domain.TransactionStatusPending,
			ApprovalFlags: domain.ApprovalFlags{TreasurerApproved: true}},
		// Waiting on guarantors, so no office is reminded.
		{ID: 4, GroupID: 2, TransactionType: domain.TransactionTypeLoan, Status: domain.TransactionStatusPending,
			Guarantors: []domain.Guarantor{{UserID: 9}}},
	}, nil)
	goalRepo.On("ListByStatus", mock.Anything, domain.GoalStatusPendingApproval).Return([]domain.Goal{
		{ID: 5, GroupID: 2, Status: domain.GoalStatusPendingApproval,
			ApprovalFlags: domain.ApprovalFlags{TreasurerApproved: true, SecretaryApproved: true}},
	}, nil)

	noteSvc.On("Emit", mock.Anything, mock.MatchedBy(func(n domain.NotificationIntent) bool {
		return n.GroupID == 1 && n.RecipientRole == "treasurer" && n.Kind == domain.NotificationKindReminder
	})).Return(nil).Once()
	noteSvc.On("Emit", mock.Anything, mock.MatchedBy(func(n domain.NotificationIntent) bool {
		return n.GroupID == 1 && n.RecipientRole == "secretary"
	})).Return(nil).Once()
	noteSvc.On("Emit", mock.Anything, mock.MatchedBy(func(n domain.NotificationIntent) bool {
		return n.GroupID == 2 && n.RecipientRole == "chairperson|chamaadmin"
	})).Return(nil).Once()

	jr.SendPendingApprovalReminders()
	noteSvc.AssertExpectations(t)
	noteSvc.AssertNumberOfCalls(t, "Emit", 3)
}

func TestSendGuarantorReminders(t *testing.T) {
	jr, txRepo, _, noteSvc := newRunner()

	approvedAt := now.Add(-24 * time.Hour)
	txRepo.On("ListPending", mock.Anything).Return([]domain.Transaction{
		{ID: 1, GroupID: 1, TransactionType: domain.TransactionTypeLoan, CreatedAt: now.Add(-4 * 24 * time.Hour),
			Guarantors: []domain.Guarantor{{UserID: 20}, {UserID: 30, HasApproved: true, ApprovedAt: &approvedAt}}},
		{ID: 2, GroupID: 1, TransactionType: domain.TransactionTypeLoan, CreatedAt: now.Add(-24 * time.Hour),
			Guarantors: []domain.Guarantor{{UserID: 40}}},
		{ID: 3, GroupID: 1, TransactionType: domain.TransactionTypeExpense, CreatedAt: now.Add(-10 * 24 * time.Hour)},
	}, nil)
	noteSvc.On("Emit", mock.Anything, mock.MatchedBy(func(n domain.NotificationIntent) bool {
		return n.RecipientUserID == 20 && n.TransactionID == 1 && n.RequiresAction
	})).Return(nil).Once()

	jr.SendGuarantorReminders()
	noteSvc.AssertExpectations(t)
	noteSvc.AssertNumberOfCalls(t, "Emit", 1)
}

func TestUpdateGoalProgress(t *testing.T) {
	jr, txRepo, goalRepo, noteSvc := newRunner()

	goalRepo.On("ListByStatus", mock.Anything, domain.GoalStatusInProgress).Return([]domain.Goal{
		{ID: 1, GroupID: 1, CreatedByID: 20, Title: "Land", TargetAmount: decimal.NewFromInt(1000), Deadline: now.Add(48 * time.Hour), Status: domain.GoalStatusInProgress},
		{ID: 2, GroupID: 1, CreatedByID: 20, Title: "Bus", TargetAmount: decimal.NewFromInt(1000), Deadline: now.Add(-time.Hour), Status: domain.GoalStatusInProgress},
		{ID: 3, GroupID: 1, CreatedByID: 20, Title: "Hall", TargetAmount: decimal.NewFromInt(1000), Deadline: now.Add(48 * time.Hour), Status: domain.GoalStatusInProgress},
	}, nil)
	txRepo.On("SumGoalContributions", mock.Anything, int32(1)).Return(decimal.NewFromInt(1000), nil)
	txRepo.On("SumGoalContributions", mock.Anything, int32(2)).Return(decimal.NewFromInt(400), nil)
	txRepo.On("SumGoalContributions", mock.Anything, int32(3)).Return(decimal.NewFromInt(400), nil)

	goalRepo.On("Update", mock.Anything, mock.MatchedBy(func(g *domain.Goal) bool {
		return g.ID == 1 && g.Status == domain.GoalStatusAchieved
	})).Return(nil).Once()
	goalRepo.On("Update", mock.Anything, mock.MatchedBy(func(g *domain.Goal) bool {
		return g.ID == 2 && g.Status == domain.GoalStatusFailed
	})).Return(nil).Once()
	noteSvc.On("Emit", mock.Anything, mock.Anything).Return(nil)

	jr.UpdateGoalProgress()

	goalRepo.AssertExpectations(t)
	goalRepo.AssertNumberOfCalls(t, "Update", 2)
	noteSvc.AssertNumberOfCalls(t, "Emit", 4)
	noteSvc.AssertCalled(t, "Emit", mock.Anything, mock.MatchedBy(func(n domain.NotificationIntent) bool {
		return n.Kind == domain.NotificationKindGoalAchieved && n.GoalID == 1 && n.RecipientUserID == 20
	}))
	noteSvc.AssertCalled(t, "Emit", mock.Anything, mock.MatchedBy(func(n domain.NotificationIntent) bool {
		return n.Kind == domain.NotificationKindGoalFailed && n.GoalID == 2 && n.RecipientRole != ""
	}))
}

func TestRunWithRecovery_Panic(t *testing.T) {
	jr, txRepo, _, _ := newRunner()
	txRepo.On("ListPending", mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	assert.NotPanics(t, jr.SendGuarantorReminders)
}
