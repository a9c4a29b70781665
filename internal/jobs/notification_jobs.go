package jobs

import (
	"context"
	"fmt"
	"time"

	"chama-backend/internal/approval"
	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/roles"
)

type stageKey struct {
	groupID int32
	role    roles.Role
}

// SendPendingApprovalReminders sends each office a digest of the
// transactions and goals waiting on its signature.
func (jr *JobRunner) SendPendingApprovalReminders() {
	jr.runWithRecovery("SendPendingApprovalReminders", func() error {
		ctx := context.Background()

		pending, err := jr.deps.Transactions.ListPending(ctx)
		if err != nil {
			return fmt.Errorf("list pending transactions: %w", err)
		}
		goals, err := jr.deps.Goals.ListByStatus(ctx, domain.GoalStatusPendingApproval)
		if err != nil {
			return fmt.Errorf("list pending goals: %w", err)
		}

		counts := make(map[stageKey]int)
		var order []stageKey
		add := func(groupID int32, role roles.Role) {
			if role == roles.Member {
				return
			}
			k := stageKey{groupID: groupID, role: role}
			if counts[k] == 0 {
				order = append(order, k)
			}
			counts[k]++
		}
		for i := range pending {
			tx := &pending[i]
			add(tx.GroupID, approval.PolicyFor(tx.TransactionType).NextRequiredRole(tx))
		}
		for i := range goals {
			add(goals[i].GroupID, approval.GoalPolicy.NextRequiredRole(&goals[i]))
		}

		sent := 0
		for _, k := range order {
			n := counts[k]
			err := jr.deps.Notifications.Emit(ctx, domain.NotificationIntent{
				Kind:           domain.NotificationKindReminder,
				GroupID:        k.groupID,
				RecipientRole:  k.role.String(),
				RequiresAction: true,
				Title:          "Approvals waiting",
				Message:        fmt.Sprintf("%d request(s) are waiting for your approval as %s", n, k.role),
			})
			if err != nil {
				logger.WithGroup(k.groupID).Warn("Failed to send approval reminder", "role", k.role.String(), "error", err)
				continue
			}
			sent++
		}
		logger.Info("Pending approval reminders sent", "digests", sent, "transactions", len(pending), "goals", len(goals))
		return nil
	})
}

// SendGuarantorReminders nudges guarantors who have not acted on a loan
// older than the configured age.
func (jr *JobRunner) SendGuarantorReminders() {
	jr.runWithRecovery("SendGuarantorReminders", func() error {
		ctx := context.Background()

		pending, err := jr.deps.Transactions.ListPending(ctx)
		if err != nil {
			return fmt.Errorf("list pending transactions: %w", err)
		}
		age := time.Duration(jr.config.Scheduler.GuarantorReminderAgeDays) * 24 * time.Hour
		cutoff := jr.now().Add(-age)

		sent := 0
		for i := range pending {
			tx := &pending[i]
			if !tx.IsLoan() || tx.CreatedAt.After(cutoff) {
				continue
			}
			for _, g := range approval.PendingGuarantors(tx) {
				err := jr.deps.Notifications.Emit(ctx, domain.NotificationIntent{
					Kind:            domain.NotificationKindReminder,
					GroupID:         tx.GroupID,
					RecipientUserID: g.UserID,
					TransactionID:   tx.ID,
					RequiresAction:  true,
					Title:           "Guarantee still pending",
					Message: fmt.Sprintf("A loan of %s requested on %s is waiting for your guarantee of %s",
						tx.Amount.StringFixed(2), tx.CreatedAt.Format("2006-01-02"), tx.GuarantorShare.StringFixed(2)),
				})
				if err != nil {
					logger.WithGroup(tx.GroupID).Warn("Failed to send guarantor reminder",
						"transaction_id", tx.ID, "guarantor_id", g.UserID, "error", err)
					continue
				}
				sent++
			}
		}
		logger.Info("Guarantor reminders sent", "count", sent)
		return nil
	})
}
