package jobs

import (
	"context"
	"errors"
	"fmt"

	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
)

var officeBearers = roles.Treasurer | roles.Secretary | roles.Chairperson | roles.ChamaAdmin

// UpdateGoalProgress closes in-progress goals: ACHIEVED once completed
// contributions reach the target, FAILED once the deadline has passed.
func (jr *JobRunner) UpdateGoalProgress() {
	jr.runWithRecovery("UpdateGoalProgress", func() error {
		ctx := context.Background()

		goals, err := jr.deps.Goals.ListByStatus(ctx, domain.GoalStatusInProgress)
		if err != nil {
			return fmt.Errorf("list goals in progress: %w", err)
		}

		now := jr.now()
		achieved, failed := 0, 0
		for i := range goals {
			goal := &goals[i]
			log := logger.WithGroup(goal.GroupID)

			raised, err := jr.deps.Transactions.SumGoalContributions(ctx, goal.ID)
			if err != nil {
				log.Error("Failed to sum goal contributions", "goal_id", goal.ID, "error", err)
				continue
			}

			var kind, msg string
			switch {
			case raised.GreaterThanOrEqual(goal.TargetAmount):
				goal.Status = domain.GoalStatusAchieved
				kind = domain.NotificationKindGoalAchieved
				msg = fmt.Sprintf("Goal %q reached %s of its %s target", goal.Title, raised.StringFixed(2), goal.TargetAmount.StringFixed(2))
			case now.After(goal.Deadline):
				goal.Status = domain.GoalStatusFailed
				kind = domain.NotificationKindGoalFailed
				msg = fmt.Sprintf("Goal %q closed at %s of its %s target", goal.Title, raised.StringFixed(2), goal.TargetAmount.StringFixed(2))
			default:
				continue
			}

			if err := jr.deps.Goals.Update(ctx, goal); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					log.Warn("Goal changed while updating progress, skipping", "goal_id", goal.ID)
					continue
				}
				log.Error("Failed to update goal", "goal_id", goal.ID, "error", err)
				continue
			}
			if goal.Status == domain.GoalStatusAchieved {
				achieved++
			} else {
				failed++
			}

			for _, intent := range []domain.NotificationIntent{
				{Kind: kind, GroupID: goal.GroupID, GoalID: goal.ID, RecipientUserID: goal.CreatedByID, Title: "Goal closed", Message: msg},
				{Kind: kind, GroupID: goal.GroupID, GoalID: goal.ID, RecipientRole: officeBearers.String(), Title: "Goal closed", Message: msg},
			} {
				if err := jr.deps.Notifications.Emit(ctx, intent); err != nil {
					log.Warn("Failed to notify goal outcome", "goal_id", goal.ID, "error", err)
				}
			}
		}
		logger.Info("Goal progress updated", "checked", len(goals), "achieved", achieved, "failed", failed)
		return nil
	})
}
