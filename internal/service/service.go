package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"chama-backend/internal/approval"
	"chama-backend/internal/domain"
	"chama-backend/internal/finance"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
)

// TransactionIntent is what a member submits when recording a transaction
// or applying for a loan.
type TransactionIntent struct {
	GroupID         int32                  `json:"group_id"`
	TargetUserID    int32                  `json:"member_id"`
	Amount          decimal.Decimal        `json:"amount"`
	TransactionType domain.TransactionType `json:"transaction_type"`
	PaymentMethod   string                 `json:"payment_method"`
	Description     string                 `json:"description"`
	Reference       string                 `json:"reference"`
	GoalID          *int32                 `json:"goal_id,omitempty"`

	// Loans only.
	Duration     int32   `json:"duration"`
	GuarantorIDs []int32 `json:"guarantor_ids"`
}

// ApprovalView is the caller-specific view of where a subject sits in the chain.
type ApprovalView struct {
	Stage                 string             `json:"stage"`
	NextRequiredRole      string             `json:"next_required_role,omitempty"`
	CanApprove            bool               `json:"can_approve"`
	CanApproveAsGuarantor bool               `json:"can_approve_as_guarantor"`
	CanReject             bool               `json:"can_reject"`
	PendingGuarantors     []domain.Guarantor `json:"pending_guarantors,omitempty"`
}

type TransactionDetail struct {
	Transaction *domain.Transaction `json:"transaction"`
	Approval    ApprovalView        `json:"approval"`
}

type AffordabilityView struct {
	MemberID int32 `json:"member_id"`
	finance.Affordability
	MaxLoanAmount decimal.Decimal      `json:"max_loan_amount"`
	Commitments   []finance.Commitment `json:"commitments"`
}

type GoalIntent struct {
	GroupID      int32           `json:"group_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Deadline     time.Time       `json:"deadline"`
}

type GoalDetail struct {
	Goal     *domain.Goal    `json:"goal"`
	Raised   decimal.Decimal `json:"raised"`
	Approval ApprovalView    `json:"approval"`
}

type GroupMembership struct {
	Group        domain.Group       `json:"group"`
	RoleName     string             `json:"role_name"`
	Capabilities roles.Capabilities `json:"capabilities"`
}

type UserProfile struct {
	User   *domain.User      `json:"user"`
	Groups []GroupMembership `json:"groups"`
}

type UserService interface {
	GetUserProfile(ctx context.Context, userID int32) (*UserProfile, error)
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, actingUserID int32, intent TransactionIntent) (*domain.Transaction, error)
	PrepareLoanApplication(ctx context.Context, actingUserID int32, intent TransactionIntent) (*finance.LoanApplication, error)
	ApproveAsGuarantor(ctx context.Context, transactionID, actingUserID int32) (*domain.Transaction, error)
	ApproveAsRole(ctx context.Context, transactionID int32, role string, actingUserID int32) (*domain.Transaction, error)
	RejectTransaction(ctx context.Context, transactionID int32, reason string, actingUserID int32) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, actingUserID, transactionID int32) (*TransactionDetail, error)
	ListTransactions(ctx context.Context, actingUserID, groupID int32, filter repository.TransactionFilter) ([]domain.Transaction, error)
	GetAffordability(ctx context.Context, actingUserID, groupID, memberID int32) (*AffordabilityView, error)
	GetCapabilities(ctx context.Context, actingUserID, groupID int32) (*roles.Capabilities, error)
}

type GoalService interface {
	CreateGoal(ctx context.Context, actingUserID int32, intent GoalIntent) (*domain.Goal, error)
	ApproveGoal(ctx context.Context, goalID int32, role string, actingUserID int32) (*domain.Goal, error)
	RejectGoal(ctx context.Context, goalID int32, reason string, actingUserID int32) (*domain.Goal, error)
	GetGoal(ctx context.Context, actingUserID, goalID int32) (*GoalDetail, error)
	ListGoals(ctx context.Context, actingUserID, groupID int32) ([]domain.Goal, error)
}

type NotificationService interface {
	// Emit resolves the intent's recipients, stores an inbox row for each and
	// hands the intent to external delivery.
	Emit(ctx context.Context, intent domain.NotificationIntent) error
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// Dispatcher forwards intents to delivery channels. *notify.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent domain.NotificationIntent, recipients []domain.Member) error
}

func approvalView(p approval.Policy, s approval.Subject, actor approval.Actor) ApprovalView {
	v := ApprovalView{
		Stage:                 p.Stage(s).String(),
		CanApprove:            p.CanApprove(s, actor),
		CanApproveAsGuarantor: p.CanApproveAsGuarantor(s, actor.UserID),
		CanReject:             p.CanReject(s, actor),
		PendingGuarantors:     approval.PendingGuarantors(s),
	}
	if next := p.NextRequiredRole(s); next != roles.Member {
		v.NextRequiredRole = next.String()
	}
	return v
}
