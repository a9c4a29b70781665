// Package finance computes what a member can borrow or guarantee from the
// group's transaction history. Results are always recomputed from the
// history passed in.
package finance

import (
	"github.com/shopspring/decimal"

	"chama-backend/internal/domain"
)

type Affordability struct {
	TotalContributions    decimal.Decimal `json:"total_contributions"`
	OutstandingLoans      decimal.Decimal `json:"outstanding_loans"`
	LockedForGuaranteeing decimal.Decimal `json:"locked_for_guaranteeing"`
	AvailableFunds        decimal.Decimal `json:"available_funds"`
}

// Commitment is the share of a live loan that a guarantor has pledged.
type Commitment struct {
	LoanID      int32           `json:"loan_id"`
	BorrowerID  int32           `json:"borrower_id"`
	GuarantorID int32           `json:"guarantor_id"`
	Share       decimal.Decimal `json:"share"`
	Approved    bool            `json:"approved"`
}

// Breakdown computes contributions minus outstanding loans minus guarantee
// commitments for a member. The result may be negative.
func Breakdown(memberID, groupID int32, history []domain.Transaction) Affordability {
	a := Affordability{
		TotalContributions:    decimal.Zero,
		OutstandingLoans:      decimal.Zero,
		LockedForGuaranteeing: decimal.Zero,
	}
	for i := range history {
		t := &history[i]
		if t.GroupID != groupID {
			continue
		}
		switch t.TransactionType {
		case domain.TransactionTypeContribution:
			if t.UserID == memberID && t.Status == domain.TransactionStatusCompleted {
				a.TotalContributions = a.TotalContributions.Add(t.Amount)
			}
		case domain.TransactionTypeLoan:
			if t.IsSettled() {
				continue
			}
			if t.UserID == memberID {
				a.OutstandingLoans = a.OutstandingLoans.Add(t.Amount)
			}
			if t.HasGuarantor(memberID) {
				a.LockedForGuaranteeing = a.LockedForGuaranteeing.Add(GuaranteeShare(t))
			}
		}
	}
	a.AvailableFunds = a.TotalContributions.Sub(a.OutstandingLoans).Sub(a.LockedForGuaranteeing)
	return a
}

func AvailableFunds(memberID, groupID int32, history []domain.Transaction) decimal.Decimal {
	return Breakdown(memberID, groupID, history).AvailableFunds
}

// GuaranteeShare is the amount each guarantor of loan has pledged:
// the part of the loan not covered by the borrower's savings, split evenly.
func GuaranteeShare(loan *domain.Transaction) decimal.Decimal {
	if len(loan.Guarantors) == 0 {
		return decimal.Zero
	}
	uncovered := loan.Amount.Sub(loan.UserSavings)
	if uncovered.IsNegative() {
		return decimal.Zero
	}
	return uncovered.Div(decimal.NewFromInt(int64(len(loan.Guarantors))))
}

// Commitments lists the live guarantees memberID has pledged in the group.
func Commitments(memberID, groupID int32, history []domain.Transaction) []Commitment {
	var out []Commitment
	for i := range history {
		t := &history[i]
		if t.GroupID != groupID || !t.IsLoan() || t.IsSettled() {
			continue
		}
		for _, g := range t.Guarantors {
			if g.UserID != memberID {
				continue
			}
			out = append(out, Commitment{
				LoanID:      t.ID,
				BorrowerID:  t.UserID,
				GuarantorID: memberID,
				Share:       GuaranteeShare(t),
				Approved:    g.HasApproved,
			})
		}
	}
	return out
}
