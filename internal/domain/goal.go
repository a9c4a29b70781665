package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoalStatus string

const (
	GoalStatusPendingApproval GoalStatus = "PENDING_APPROVAL"
	GoalStatusInProgress      GoalStatus = "IN_PROGRESS"
	GoalStatusAchieved        GoalStatus = "ACHIEVED"
	GoalStatusFailed          GoalStatus = "FAILED"
	GoalStatusRejected        GoalStatus = "REJECTED"
)

// Goal is a group savings target. It goes through the same office-bearer
// approval chain as transactions before members can contribute toward it.
type Goal struct {
	ID           int32           `json:"id"`
	GroupID      int32           `json:"group_id"`
	CreatedByID  int32           `json:"created_by_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Deadline     time.Time       `json:"deadline"`
	ApprovalFlags
	Status          GoalStatus `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Version         int32      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (g *Goal) Flags() *ApprovalFlags      { return &g.ApprovalFlags }
func (g *Goal) GuarantorList() []Guarantor { return nil }
func (g *Goal) OwnerID() int32             { return g.CreatedByID }

// Terminal is true once the approval chain has finished either way.
func (g *Goal) Terminal() bool {
	return g.Status != GoalStatusPendingApproval
}

func (g *Goal) Rejected() bool {
	return g.Status == GoalStatusRejected
}

func (g *Goal) Complete(at time.Time) {
	g.Status = GoalStatusInProgress
	g.UpdatedAt = at
}

func (g *Goal) Reject(reason string, at time.Time) {
	g.Status = GoalStatusRejected
	g.RejectionReason = reason
	g.UpdatedAt = at
}
