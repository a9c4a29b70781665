package approval

import (
	"fmt"
	"strings"

	"chama-backend/internal/domain"
	"chama-backend/internal/roles"
)

// Target is a notification recipient produced by a transition: either every
// holder of Role or the single user UserID.
type Target struct {
	Role           roles.Role
	UserID         int32
	RequiresAction bool
}

type Transition struct {
	From   Stage
	To     Stage
	Notify []Target
	// DeclinedBy is the guarantor who ended the chain by refusing to back a
	// loan. Zero for office-stage rejections.
	DeclinedBy int32
}

// Stage reports where s currently sits in the chain.
func (p Policy) Stage(s Subject) Stage {
	if s.Rejected() {
		return StageRejected
	}
	if s.Terminal() {
		return StageCompleted
	}
	if p.GuarantorStage && !AllGuarantorsApproved(s) {
		return StageGuarantor
	}
	f := s.Flags()
	switch {
	case !f.TreasurerApproved:
		return StageTreasurer
	case !f.SecretaryApproved:
		return StageSecretary
	case !f.ChairpersonApproved:
		return StageChairperson
	}
	return StageCompleted
}

// NextRequiredRole is the office whose signature is awaited, or Member when
// the subject waits on guarantors or is finished.
func (p Policy) NextRequiredRole(s Subject) roles.Role {
	return p.StageRole(p.Stage(s))
}

func (p Policy) CanApprove(s Subject, a Actor) bool {
	required := p.NextRequiredRole(s)
	return required != roles.Member && a.Role.Has(required)
}

func (p Policy) CanApproveAsGuarantor(s Subject, userID int32) bool {
	if !p.GuarantorStage || s.Terminal() {
		return false
	}
	for _, g := range s.GuarantorList() {
		if g.UserID == userID {
			return !g.HasApproved
		}
	}
	return false
}

// CanReject allows whoever could approve the current office stage and, while
// guarantors are still signing, any guarantor who has not yet approved.
func (p Policy) CanReject(s Subject, a Actor) bool {
	if s.Terminal() {
		return false
	}
	if p.Stage(s) == StageGuarantor {
		return p.CanApproveAsGuarantor(s, a.UserID)
	}
	return p.CanApprove(s, a)
}

func PendingGuarantors(s Subject) []domain.Guarantor {
	var out []domain.Guarantor
	for _, g := range s.GuarantorList() {
		if !g.HasApproved {
			out = append(out, g)
		}
	}
	return out
}

func AllGuarantorsApproved(s Subject) bool {
	for _, g := range s.GuarantorList() {
		if !g.HasApproved {
			return false
		}
	}
	return true
}

// ApproveAsGuarantor records userID's guarantee. Once the last guarantor
// signs, the treasurer is asked to approve.
func (p Policy) ApproveAsGuarantor(s Subject, userID int32) (Transition, error) {
	if s.Terminal() {
		return Transition{}, domain.ErrAlreadyTerminal
	}
	from := p.Stage(s)
	guarantors := s.GuarantorList()
	idx := -1
	for i := range guarantors {
		if guarantors[i].UserID == userID {
			idx = i
			break
		}
	}
	if !p.GuarantorStage || idx < 0 {
		return Transition{}, domain.ErrNotAGuarantor
	}
	if guarantors[idx].HasApproved {
		return Transition{}, fmt.Errorf("%w: guarantee already given", domain.ErrAlreadyApproved)
	}

	now := p.clock()
	guarantors[idx].HasApproved = true
	guarantors[idx].ApprovedAt = &now

	t := Transition{From: from, To: p.Stage(s)}
	t.Notify = append(t.Notify, Target{UserID: s.OwnerID()})
	if t.To != from {
		t.Notify = append(t.Notify, Target{Role: p.StageRole(t.To), RequiresAction: true})
	}
	return t, nil
}

// Approve signs the office stage named by capacity on behalf of a.
// Signing the final stage completes the subject.
func (p Policy) Approve(s Subject, a Actor, capacity Stage) (Transition, error) {
	if s.Terminal() {
		return Transition{}, domain.ErrAlreadyTerminal
	}
	flag := flagFor(s.Flags(), capacity)
	if flag == nil {
		return Transition{}, fmt.Errorf("%w: %s is not an office stage", domain.ErrWrongStage, capacity)
	}
	if *flag {
		return Transition{}, fmt.Errorf("%w: %s has already signed", domain.ErrAlreadyApproved, capacity)
	}
	from := p.Stage(s)
	if from != capacity {
		return Transition{}, fmt.Errorf("%w: waiting on %s", domain.ErrWrongStage, from)
	}
	if !a.Role.Has(p.StageRole(capacity)) {
		return Transition{}, fmt.Errorf("%w: %s stage requires %s", domain.ErrNotAuthorized, capacity, p.StageRole(capacity))
	}

	*flag = true
	t := Transition{From: from, To: p.Stage(s)}
	if t.To == StageCompleted {
		s.Complete(p.clock())
		t.Notify = []Target{{UserID: s.OwnerID()}}
		return t, nil
	}
	t.Notify = []Target{{Role: p.StageRole(t.To), RequiresAction: true}}
	return t, nil
}

// Reject ends the chain with reason.
func (p Policy) Reject(s Subject, a Actor, reason string) (Transition, error) {
	if s.Terminal() {
		return Transition{}, domain.ErrAlreadyTerminal
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transition{}, domain.ErrEmptyReason
	}
	if !p.CanReject(s, a) {
		return Transition{}, fmt.Errorf("%w: cannot reject at %s stage", domain.ErrNotAuthorized, p.Stage(s))
	}
	from := p.Stage(s)
	s.Reject(reason, p.clock())
	t := Transition{
		From:   from,
		To:     StageRejected,
		Notify: []Target{{UserID: s.OwnerID()}},
	}
	if from == StageGuarantor {
		t.DeclinedBy = a.UserID
	}
	return t, nil
}

// ApplyPreApproval marks the treasurer stage signed at creation when the
// treasurer recorded the entry themselves.
func ApplyPreApproval(s Subject) {
	s.Flags().TreasurerApproved = true
}

func flagFor(f *domain.ApprovalFlags, s Stage) *bool {
	switch s {
	case StageTreasurer:
		return &f.TreasurerApproved
	case StageSecretary:
		return &f.SecretaryApproved
	case StageChairperson:
		return &f.ChairpersonApproved
	}
	return nil
}
