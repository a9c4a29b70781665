// Package roles turns free-text group role labels into a set of office roles
// and derives what a member may do in the group.
package roles

import "strings"

// Role is a bit set of offices. The zero value is a plain member.
type Role uint8

const (
	Treasurer Role = 1 << iota
	Secretary
	Chairperson
	ChamaAdmin
)

const Member Role = 0

var tokens = []struct {
	role  Role
	token string
}{
	{Treasurer, "treasurer"},
	{Secretary, "secretary"},
	{Chairperson, "chairperson"},
	{ChamaAdmin, "chamaadmin"},
}

// Parse reads every office named anywhere in label, case-insensitively.
// "Chairperson/Treasurer" yields Chairperson|Treasurer.
func Parse(label string) Role {
	l := strings.ToLower(label)
	var r Role
	for _, t := range tokens {
		if strings.Contains(l, t.token) {
			r |= t.role
		}
	}
	return r
}

// Has reports whether r holds any of the offices in other.
func (r Role) Has(other Role) bool {
	return r&other != 0
}

func (r Role) IsOfficeBearer() bool {
	return r != Member
}

func (r Role) String() string {
	if r == Member {
		return "member"
	}
	var names []string
	for _, t := range tokens {
		if r&t.role != 0 {
			names = append(names, t.token)
		}
	}
	return strings.Join(names, "|")
}

// Capabilities is what the UI and services consult before offering or
// accepting an action.
type Capabilities struct {
	Role                            Role `json:"-"`
	IsGroupCreator                  bool `json:"is_group_creator"`
	CanPerformFinancialActions      bool `json:"can_perform_financial_actions"`
	CanPerformAdministrativeActions bool `json:"can_perform_administrative_actions"`
	IsOfficeBearer                  bool `json:"is_office_bearer"`
	IsGuarantorEligible             bool `json:"is_guarantor_eligible"`
}

// Classify derives capabilities from a role label. A zero id means unknown;
// the creator check needs both ids.
func Classify(label string, userID, groupCreatorID int32) Capabilities {
	r := Parse(label)
	creator := userID != 0 && groupCreatorID != 0 && userID == groupCreatorID
	return Capabilities{
		Role:                            r,
		IsGroupCreator:                  creator,
		CanPerformFinancialActions:      creator || r.Has(Treasurer|ChamaAdmin),
		CanPerformAdministrativeActions: creator || r.IsOfficeBearer(),
		IsOfficeBearer:                  r.IsOfficeBearer(),
		IsGuarantorEligible:             userID != 0,
	}
}
