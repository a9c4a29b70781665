package domain

import "time"

type Notification struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	GroupID    int32             `json:"group_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}

const (
	NotificationKindApprovalRequired  = "APPROVAL_REQUIRED"
	NotificationKindGuarantorRequest  = "GUARANTOR_REQUEST"
	NotificationKindGuarantorApproved = "GUARANTOR_APPROVED"
	NotificationKindCompleted         = "COMPLETED"
	NotificationKindRejected          = "REJECTED"
	NotificationKindReminder          = "REMINDER"
	NotificationKindGoalAchieved      = "GOAL_ACHIEVED"
	NotificationKindGoalFailed        = "GOAL_FAILED"
)

// NotificationIntent asks for a message to reach either every member holding
// RecipientRole or the single member RecipientUserID. Delivery is external.
type NotificationIntent struct {
	Kind            string `json:"kind"`
	GroupID         int32  `json:"group_id"`
	RecipientRole   string `json:"recipient_role,omitempty"`
	RecipientUserID int32  `json:"recipient_user_id,omitempty"`
	TransactionID   int32  `json:"transaction_id,omitempty"`
	GoalID          int32  `json:"goal_id,omitempty"`
	RequiresAction  bool   `json:"requires_action"`
	Title           string `json:"title"`
	Message         string `json:"message"`
}
