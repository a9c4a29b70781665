package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chama-backend/internal/approval"
	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/metrics"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
)

type goalService struct {
	groupRepo repository.GroupRepository
	goalRepo  repository.GoalRepository
	txRepo    repository.TransactionRepository
	noteSvc   NotificationService
}

func NewGoalService(
	groupRepo repository.GroupRepository,
	goalRepo repository.GoalRepository,
	txRepo repository.TransactionRepository,
	noteSvc NotificationService,
) GoalService {
	return &goalService{
		groupRepo: groupRepo,
		goalRepo:  goalRepo,
		txRepo:    txRepo,
		noteSvc:   noteSvc,
	}
}

func (s *goalService) CreateGoal(ctx context.Context, actingUserID int32, intent GoalIntent) (*domain.Goal, error) {
	logger.EnterMethod("goalService.CreateGoal", "actingUserID", actingUserID, "groupID", intent.GroupID)

	title := strings.TrimSpace(intent.Title)
	switch {
	case intent.GroupID == 0:
		return nil, fmt.Errorf("%w: group_id", domain.ErrMissingField)
	case title == "":
		return nil, fmt.Errorf("%w: title", domain.ErrMissingField)
	case !intent.TargetAmount.IsPositive():
		return nil, fmt.Errorf("%w: target_amount", domain.ErrMissingField)
	case intent.Deadline.IsZero():
		return nil, fmt.Errorf("%w: deadline", domain.ErrMissingField)
	}

	m, err := loadMembership(ctx, s.groupRepo, intent.GroupID, actingUserID)
	if err != nil {
		logger.ExitMethodWithError("goalService.CreateGoal", err)
		return nil, err
	}

	goal := &domain.Goal{
		GroupID:      intent.GroupID,
		CreatedByID:  actingUserID,
		Title:        title,
		Description:  strings.TrimSpace(intent.Description),
		TargetAmount: intent.TargetAmount,
		Deadline:     intent.Deadline.UTC(),
		Status:       domain.GoalStatusPendingApproval,
	}
	if m.caps.Role.Has(roles.Treasurer) {
		approval.ApplyPreApproval(goal)
	}

	if err := s.goalRepo.Create(ctx, goal); err != nil {
		logger.ExitMethodWithError("goalService.CreateGoal", err)
		return nil, err
	}

	s.emit(ctx, domain.NotificationIntent{
		Kind:           domain.NotificationKindApprovalRequired,
		GroupID:        goal.GroupID,
		RecipientRole:  approval.GoalPolicy.NextRequiredRole(goal).String(),
		GoalID:         goal.ID,
		RequiresAction: true,
		Title:          "Goal awaiting approval",
		Message:        fmt.Sprintf("Goal %q with target %s is awaiting your approval", goal.Title, goal.TargetAmount.StringFixed(2)),
	})

	logger.ExitMethod("goalService.CreateGoal", "goalID", goal.ID)
	return goal, nil
}

func (s *goalService) ApproveGoal(ctx context.Context, goalID int32, role string, actingUserID int32) (*domain.Goal, error) {
	logger.EnterMethod("goalService.ApproveGoal", "goalID", goalID, "role", role, "actingUserID", actingUserID)
	capacity, err := approval.ParseCapacity(role)
	if err != nil {
		logger.ExitMethodWithError("goalService.ApproveGoal", err)
		return nil, fmt.Errorf("%w: %q", err, role)
	}
	goal, err := s.mutate(ctx, goalID, actingUserID, func(g *domain.Goal, m *membership) (approval.Transition, error) {
		return approval.GoalPolicy.Approve(g, m.actor(), capacity)
	})
	if err != nil {
		logger.ExitMethodWithError("goalService.ApproveGoal", err)
		return nil, err
	}
	metrics.Approvals.WithLabelValues(approval.GoalPolicy.Name, capacity.String()).Inc()
	logger.ExitMethod("goalService.ApproveGoal", "goalID", goal.ID, "status", goal.Status)
	return goal, nil
}

func (s *goalService) RejectGoal(ctx context.Context, goalID int32, reason string, actingUserID int32) (*domain.Goal, error) {
	logger.EnterMethod("goalService.RejectGoal", "goalID", goalID, "actingUserID", actingUserID)
	var stage approval.Stage
	goal, err := s.mutate(ctx, goalID, actingUserID, func(g *domain.Goal, m *membership) (approval.Transition, error) {
		tr, err := approval.GoalPolicy.Reject(g, m.actor(), reason)
		stage = tr.From
		return tr, err
	})
	if err != nil {
		logger.ExitMethodWithError("goalService.RejectGoal", err)
		return nil, err
	}
	metrics.Rejections.WithLabelValues(approval.GoalPolicy.Name, stage.String()).Inc()
	logger.ExitMethod("goalService.RejectGoal", "goalID", goal.ID)
	return goal, nil
}

func (s *goalService) mutate(ctx context.Context, goalID, actingUserID int32, op func(*domain.Goal, *membership) (approval.Transition, error)) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	m, err := loadMembership(ctx, s.groupRepo, goal.GroupID, actingUserID)
	if err != nil {
		return nil, err
	}
	tr, err := op(goal, m)
	if err != nil {
		return nil, err
	}
	if err := s.goalRepo.Update(ctx, goal); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		metrics.ApprovalConflicts.Inc()
		fresh, err := s.goalRepo.GetByID(ctx, goalID)
		if err != nil {
			return nil, err
		}
		if _, err := op(fresh, m); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: goal %d changed while approving, reload and retry", domain.ErrWrongStage, goalID)
	}

	for _, n := range transitionIntents(tr, goal.GroupID, fmt.Sprintf("goal %q", goal.Title), goal.RejectionReason) {
		n.GoalID = goal.ID
		s.emit(ctx, n)
	}
	return goal, nil
}

func (s *goalService) GetGoal(ctx context.Context, actingUserID, goalID int32) (*GoalDetail, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	m, err := loadMembership(ctx, s.groupRepo, goal.GroupID, actingUserID)
	if err != nil {
		return nil, err
	}
	raised, err := s.txRepo.SumGoalContributions(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	return &GoalDetail{
		Goal:     goal,
		Raised:   raised,
		Approval: approvalView(approval.GoalPolicy, goal, m.actor()),
	}, nil
}

func (s *goalService) ListGoals(ctx context.Context, actingUserID, groupID int32) ([]domain.Goal, error) {
	if _, err := loadMembership(ctx, s.groupRepo, groupID, actingUserID); err != nil {
		return nil, err
	}
	return s.goalRepo.ListByGroup(ctx, groupID)
}

func (s *goalService) emit(ctx context.Context, n domain.NotificationIntent) {
	if err := s.noteSvc.Emit(ctx, n); err != nil {
		logger.WarnContext(ctx, "Failed to emit notification", "kind", n.Kind, "goalID", n.GoalID, "error", err)
	}
}
