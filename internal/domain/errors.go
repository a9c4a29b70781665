package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingField               = errors.New("missing required field")
	ErrMissingMemberSelection     = errors.New("a member must be selected for this transaction")
	ErrExceedsMaxLoan             = errors.New("loan amount exceeds maximum allowed")
	ErrGuarantorsRequired         = errors.New("at least one guarantor is required")
	ErrInsufficientGuarantorFunds = errors.New("guarantors have insufficient funds")
	ErrInvalidGuarantor           = errors.New("invalid guarantor")
	ErrNotAGuarantor              = errors.New("user is not a guarantor for this loan")
	ErrAlreadyApproved            = errors.New("already approved")
	ErrWrongStage                 = errors.New("not at this approval stage")
	ErrNotAuthorized              = errors.New("not authorized")
	ErrEmptyReason                = errors.New("rejection reason is required")
	ErrAlreadyTerminal            = errors.New("already completed or rejected")
	ErrNotFound                   = errors.New("not found")
	ErrNotMember                  = errors.New("user is not a member of this group")
	ErrInvalidRole                = errors.New("unknown approval role")
	ErrInvalidTransactionType     = errors.New("unknown transaction type")
)

type GuarantorShortfall struct {
	UserID    int32           `json:"user_id"`
	Email     string          `json:"email"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
}

// InsufficientGuarantorFundsError lists every guarantor who cannot cover
// their share. It matches ErrInsufficientGuarantorFunds under errors.Is.
type InsufficientGuarantorFundsError struct {
	Shortfalls []GuarantorShortfall
}

func (e *InsufficientGuarantorFundsError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s has %s available, needs %s",
			s.Email, s.Available.StringFixed(2), s.Required.StringFixed(2)))
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientGuarantorFunds, strings.Join(parts, "; "))
}

func (e *InsufficientGuarantorFundsError) Is(target error) bool {
	return target == ErrInsufficientGuarantorFunds
}
