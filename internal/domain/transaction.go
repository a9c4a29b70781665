package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeContribution TransactionType = "CONTRIBUTION"
	TransactionTypeLoan         TransactionType = "LOAN"
	TransactionTypeExpense      TransactionType = "EXPENSE"
	TransactionTypeIncome       TransactionType = "INCOME"
	TransactionTypeFine         TransactionType = "FINE"
	TransactionTypeRepayment    TransactionType = "REPAYMENT"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeContribution, TransactionTypeLoan, TransactionTypeExpense,
		TransactionTypeIncome, TransactionTypeFine, TransactionTypeRepayment:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusPartial   TransactionStatus = "PARTIAL"
	TransactionStatusCanceled  TransactionStatus = "CANCELED"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
)

const PaymentMethodCash = "CASH"

type Transaction struct {
	ID              int32             `json:"id"`
	GroupID         int32             `json:"group_id"`
	UserID          int32             `json:"user_id"`
	CreatedByID     int32             `json:"created_by_id"`
	Amount          decimal.Decimal   `json:"amount"`
	TransactionType TransactionType   `json:"transaction_type"`
	Status          TransactionStatus `json:"status"`
	PaymentMethod   string            `json:"payment_method"`
	Description     string            `json:"description"`
	Reference       string            `json:"reference,omitempty"`
	ApprovalFlags
	CreatedByTreasurer bool   `json:"created_by_treasurer"`
	IsManualEntry      bool   `json:"is_manual_entry"`
	RejectionReason    string `json:"rejection_reason,omitempty"`
	GoalID             *int32 `json:"goal_id,omitempty"`

	// Loan fields.
	Guarantors              []Guarantor     `json:"guarantors,omitempty"`
	RequiredGuaranteeAmount decimal.Decimal `json:"required_guarantee_amount"`
	GuarantorShare          decimal.Decimal `json:"guarantor_share"`
	UserSavings             decimal.Decimal `json:"user_savings"`
	MaxLoanAmount           decimal.Decimal `json:"max_loan_amount"`
	Duration                int32           `json:"duration,omitempty"`

	Version   int32     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Transaction) IsLoan() bool {
	return t.TransactionType == TransactionTypeLoan
}

// IsSettled reports whether a loan no longer counts against its borrower or
// locks its guarantors' funds. Only COMPLETED and REJECTED release them.
func (t *Transaction) IsSettled() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusRejected
}

func (t *Transaction) HasGuarantor(userID int32) bool {
	for _, g := range t.Guarantors {
		if g.UserID == userID {
			return true
		}
	}
	return false
}

func (t *Transaction) Flags() *ApprovalFlags      { return &t.ApprovalFlags }
func (t *Transaction) GuarantorList() []Guarantor { return t.Guarantors }
func (t *Transaction) OwnerID() int32             { return t.UserID }

func (t *Transaction) Terminal() bool {
	return t.IsSettled() || t.Status == TransactionStatusCanceled
}

func (t *Transaction) Rejected() bool {
	return t.Status == TransactionStatusRejected || t.Status == TransactionStatusCanceled
}

func (t *Transaction) Complete(at time.Time) {
	t.Status = TransactionStatusCompleted
	t.UpdatedAt = at
}

func (t *Transaction) Reject(reason string, at time.Time) {
	t.Status = TransactionStatusRejected
	t.RejectionReason = reason
	t.UpdatedAt = at
}
