package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"chama-backend/internal/domain"
)

// MaxLoanMultiplier caps a loan at this multiple of the borrower's savings.
const MaxLoanMultiplier = 3

var (
	maxLoanMultiplier  = decimal.NewFromInt(MaxLoanMultiplier)
	guaranteeTolerance = decimal.New(1, -2)
)

type LoanRequest struct {
	GroupID     int32           `json:"group_id"`
	BorrowerID  int32           `json:"borrower_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Duration    int32           `json:"duration"`
}

// GuarantorCandidate is a member the borrower has asked to guarantee the loan.
type GuarantorCandidate struct {
	UserID int32  `json:"user_id"`
	Email  string `json:"email"`
}

type LoanApplication struct {
	Guarantors              []domain.Guarantor `json:"guarantors"`
	RequiredGuaranteeAmount decimal.Decimal    `json:"required_guarantee_amount"`
	GuarantorShare          decimal.Decimal    `json:"guarantor_share"`
	MaxLoanAmount           decimal.Decimal    `json:"max_loan_amount"`
	UserSavings             decimal.Decimal    `json:"user_savings"`
}

// MaxLoanAmount is the largest loan a member with savings may request.
func MaxLoanAmount(savings decimal.Decimal) decimal.Decimal {
	if savings.IsNegative() {
		return decimal.Zero
	}
	return savings.Mul(maxLoanMultiplier)
}

// PrepareLoanApplication validates a loan request against the borrower's
// savings and the selected guarantors' available funds.
func PrepareLoanApplication(req LoanRequest, borrowerSavings decimal.Decimal, candidates []GuarantorCandidate, history []domain.Transaction) (*LoanApplication, error) {
	if err := validateLoanRequest(req); err != nil {
		return nil, err
	}

	savings := borrowerSavings
	if savings.IsNegative() {
		savings = decimal.Zero
	}
	maxLoan := MaxLoanAmount(savings)
	if req.Amount.GreaterThan(maxLoan) {
		return nil, fmt.Errorf("%w: requested %s, maximum %s", domain.ErrExceedsMaxLoan, req.Amount.StringFixed(2), maxLoan.StringFixed(2))
	}

	app := &LoanApplication{
		Guarantors:              []domain.Guarantor{},
		RequiredGuaranteeAmount: decimal.Zero,
		GuarantorShare:          decimal.Zero,
		MaxLoanAmount:           maxLoan,
		UserSavings:             savings,
	}
	if req.Amount.LessThanOrEqual(savings) {
		return app, nil
	}

	guarantors, err := dedupeGuarantors(req.BorrowerID, candidates)
	if err != nil {
		return nil, err
	}
	if len(guarantors) == 0 {
		return nil, domain.ErrGuarantorsRequired
	}

	required := req.Amount.Sub(savings)
	share := required.Div(decimal.NewFromInt(int64(len(guarantors))))
	if err := checkGuarantorFunds(req.GroupID, share, guarantors, history); err != nil {
		return nil, err
	}

	for _, g := range guarantors {
		app.Guarantors = append(app.Guarantors, domain.Guarantor{UserID: g.UserID, Email: g.Email})
	}
	app.RequiredGuaranteeAmount = required
	app.GuarantorShare = share
	return app, nil
}

// Apply copies the computed loan terms onto a pending loan transaction.
func (a *LoanApplication) Apply(t *domain.Transaction) {
	t.Guarantors = append([]domain.Guarantor(nil), a.Guarantors...)
	t.RequiredGuaranteeAmount = a.RequiredGuaranteeAmount
	t.GuarantorShare = a.GuarantorShare
	t.MaxLoanAmount = a.MaxLoanAmount
	t.UserSavings = a.UserSavings
}

// RecheckGuarantors verifies, against fresh history, that every guarantor of
// a not-yet-persisted loan can still cover their share.
func RecheckGuarantors(loan *domain.Transaction, history []domain.Transaction) error {
	if len(loan.Guarantors) == 0 {
		return nil
	}
	candidates := make([]GuarantorCandidate, 0, len(loan.Guarantors))
	for _, g := range loan.Guarantors {
		candidates = append(candidates, GuarantorCandidate{UserID: g.UserID, Email: g.Email})
	}
	return checkGuarantorFunds(loan.GroupID, GuaranteeShare(loan), candidates, history)
}

func validateLoanRequest(req LoanRequest) error {
	switch {
	case req.GroupID == 0:
		return fmt.Errorf("%w: group_id", domain.ErrMissingField)
	case !req.Amount.IsPositive():
		return fmt.Errorf("%w: amount", domain.ErrMissingField)
	case strings.TrimSpace(req.Description) == "":
		return fmt.Errorf("%w: description", domain.ErrMissingField)
	case req.Duration <= 0:
		return fmt.Errorf("%w: duration", domain.ErrMissingField)
	}
	return nil
}

func dedupeGuarantors(borrowerID int32, candidates []GuarantorCandidate) ([]GuarantorCandidate, error) {
	seen := make(map[int32]bool, len(candidates))
	out := make([]GuarantorCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID == 0 {
			return nil, fmt.Errorf("%w: guarantor id is required", domain.ErrInvalidGuarantor)
		}
		if c.UserID == borrowerID {
			return nil, fmt.Errorf("%w: borrower cannot guarantee their own loan", domain.ErrInvalidGuarantor)
		}
		if seen[c.UserID] {
			continue
		}
		seen[c.UserID] = true
		out = append(out, c)
	}
	return out, nil
}

func checkGuarantorFunds(groupID int32, share decimal.Decimal, guarantors []GuarantorCandidate, history []domain.Transaction) error {
	var shortfalls []domain.GuarantorShortfall
	floor := share.Sub(guaranteeTolerance)
	for _, g := range guarantors {
		available := AvailableFunds(g.UserID, groupID, history)
		if available.LessThan(floor) {
			shortfalls = append(shortfalls, domain.GuarantorShortfall{
				UserID:    g.UserID,
				Email:     g.Email,
				Available: available,
				Required:  share,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &domain.InsufficientGuarantorFundsError{Shortfalls: shortfalls}
	}
	return nil
}
