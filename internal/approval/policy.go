// Package approval implements the office-bearer approval chain shared by
// transactions, loans and goals:
//
//	guarantors -> treasurer -> secretary -> chairperson -> completed
//
// with rejection possible from any non-terminal stage.
package approval

import (
	"strings"
	"time"

	"chama-backend/internal/domain"
	"chama-backend/internal/roles"
)

type Stage int

const (
	StageGuarantor Stage = iota + 1
	StageTreasurer
	StageSecretary
	StageChairperson
	StageCompleted
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StageGuarantor:
		return "guarantor"
	case StageTreasurer:
		return "treasurer"
	case StageSecretary:
		return "secretary"
	case StageChairperson:
		return "chairperson"
	case StageCompleted:
		return "completed"
	case StageRejected:
		return "rejected"
	}
	return "unknown"
}

func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageRejected
}

// ParseCapacity maps the role an approver claims to act in onto an office
// stage. "chamaadmin" signs the final stage.
func ParseCapacity(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "treasurer":
		return StageTreasurer, nil
	case "secretary":
		return StageSecretary, nil
	case "chairperson", "chamaadmin":
		return StageChairperson, nil
	}
	return 0, domain.ErrInvalidRole
}

// Subject is anything that moves through the approval chain.
type Subject interface {
	Flags() *domain.ApprovalFlags
	GuarantorList() []domain.Guarantor
	OwnerID() int32
	Terminal() bool
	Rejected() bool
	Complete(at time.Time)
	Reject(reason string, at time.Time)
}

type Actor struct {
	UserID int32
	Role   roles.Role
}

// Policy parameterises the chain. FinalApprovers lists the offices that may
// sign the last stage.
type Policy struct {
	Name           string
	GuarantorStage bool
	FinalApprovers roles.Role
	now            func() time.Time
}

var (
	LoanPolicy    = Policy{Name: "loan", GuarantorStage: true, FinalApprovers: roles.Chairperson | roles.ChamaAdmin}
	GeneralPolicy = Policy{Name: "transaction", FinalApprovers: roles.ChamaAdmin}
	GoalPolicy    = Policy{Name: "goal", FinalApprovers: roles.Chairperson | roles.ChamaAdmin}
)

func PolicyFor(t domain.TransactionType) Policy {
	if t == domain.TransactionTypeLoan {
		return LoanPolicy
	}
	return GeneralPolicy
}

// WithClock returns a copy of p stamping transitions with now.
func (p Policy) WithClock(now func() time.Time) Policy {
	p.now = now
	return p
}

func (p Policy) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now().UTC()
}

// StageRole is the set of offices that may sign stage s.
func (p Policy) StageRole(s Stage) roles.Role {
	switch s {
	case StageTreasurer:
		return roles.Treasurer
	case StageSecretary:
		return roles.Secretary
	case StageChairperson:
		return p.FinalApprovers
	}
	return roles.Member
}
