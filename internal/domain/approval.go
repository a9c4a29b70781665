package domain

import "time"

// ApprovalFlags records which office bearers have signed off. Flags are set
// strictly in order treasurer, secretary, chairperson and are never unset.
type ApprovalFlags struct {
	TreasurerApproved   bool `json:"treasurer_approved"`
	SecretaryApproved   bool `json:"secretary_approved"`
	ChairpersonApproved bool `json:"chairperson_approved"`
}

// AllApproved reports whether every office stage has signed off.
func (f ApprovalFlags) AllApproved() bool {
	return f.TreasurerApproved && f.SecretaryApproved && f.ChairpersonApproved
}

type Guarantor struct {
	UserID      int32      `json:"user_id"`
	Email       string     `json:"email"`
	HasApproved bool       `json:"has_approved"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}
