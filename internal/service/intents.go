package service

import (
	"fmt"

	"chama-backend/internal/approval"
	"chama-backend/internal/domain"
)

// transitionIntents turns the targets of a transition into notification
// intents. what names the subject in messages, e.g. "loan" or "goal".
func transitionIntents(tr approval.Transition, groupID int32, what, reason string) []domain.NotificationIntent {
	out := make([]domain.NotificationIntent, 0, len(tr.Notify))
	for _, t := range tr.Notify {
		n := domain.NotificationIntent{
			GroupID:        groupID,
			RequiresAction: t.RequiresAction,
		}
		if t.UserID != 0 {
			n.RecipientUserID = t.UserID
		} else {
			n.RecipientRole = t.Role.String()
		}

		switch {
		case t.RequiresAction:
			n.Kind = domain.NotificationKindApprovalRequired
			n.Title = "Approval required"
			n.Message = fmt.Sprintf("A %s is awaiting your approval as %s", what, tr.To)
		case tr.To == approval.StageRejected && tr.DeclinedBy != 0:
			n.Kind = domain.NotificationKindRejected
			n.Title = "Guarantee declined"
			n.Message = fmt.Sprintf("A guarantor declined to back your %s, so it was not submitted for approval: %s", what, reason)
		case tr.To == approval.StageRejected:
			n.Kind = domain.NotificationKindRejected
			n.Title = "Request rejected"
			n.Message = fmt.Sprintf("Your %s was rejected at the %s stage: %s", what, tr.From, reason)
		case tr.To == approval.StageCompleted:
			n.Kind = domain.NotificationKindCompleted
			n.Title = "Request approved"
			n.Message = fmt.Sprintf("Your %s has been fully approved", what)
		default:
			n.Kind = domain.NotificationKindGuarantorApproved
			n.Title = "Guarantee received"
			n.Message = fmt.Sprintf("A guarantor approved your %s", what)
		}
		out = append(out, n)
	}
	return out
}
