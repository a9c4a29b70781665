package domain

import "time"

// Group is a chama: a savings and credit group whose members pool contributions.
type Group struct {
	ID          int32     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedByID int32     `json:"created_by_id"`
	CreatedOn   time.Time `json:"created_on"`
}

// IsCreator reports whether userID founded the group.
func (g *Group) IsCreator(userID int32) bool {
	return g != nil && userID != 0 && g.CreatedByID == userID
}

// Member is a user's membership in a group. RoleName is free text as
// entered by group administrators, e.g. "Treasurer" or "Chairperson & ChamaAdmin".
type Member struct {
	GroupID  int32     `json:"group_id"`
	UserID   int32     `json:"user_id"`
	RoleName string    `json:"role_name"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedOn time.Time `json:"joined_on"`
}
