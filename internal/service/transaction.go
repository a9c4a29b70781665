package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"chama-backend/internal/approval"
	"chama-backend/internal/domain"
	"chama-backend/internal/finance"
	"chama-backend/internal/logger"
	"chama-backend/internal/metrics"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
)

var affordabilityTypes = []domain.TransactionType{domain.TransactionTypeContribution, domain.TransactionTypeLoan}

type transactionService struct {
	groupRepo repository.GroupRepository
	txRepo    repository.TransactionRepository
	goalRepo  repository.GoalRepository
	noteSvc   NotificationService
}

func NewTransactionService(
	groupRepo repository.GroupRepository,
	txRepo repository.TransactionRepository,
	goalRepo repository.GoalRepository,
	noteSvc NotificationService,
) TransactionService {
	return &transactionService{
		groupRepo: groupRepo,
		txRepo:    txRepo,
		goalRepo:  goalRepo,
		noteSvc:   noteSvc,
	}
}

func (s *transactionService) CreateTransaction(ctx context.Context, actingUserID int32, intent TransactionIntent) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.CreateTransaction", "actingUserID", actingUserID, "groupID", intent.GroupID, "type", intent.TransactionType)

	if err := validateIntent(intent); err != nil {
		logger.ExitMethodWithError("transactionService.CreateTransaction", err, "reason", "validation")
		return nil, err
	}
	m, err := loadMembership(ctx, s.groupRepo, intent.GroupID, actingUserID)
	if err != nil {
		logger.ExitMethodWithError("transactionService.CreateTransaction", err, "reason", "membership")
		return nil, err
	}

	if intent.TransactionType == domain.TransactionTypeLoan {
		tx, err := s.createLoan(ctx, m, intent)
		if err != nil {
			logger.ExitMethodWithError("transactionService.CreateTransaction", err, "reason", "loan")
			return nil, err
		}
		logger.ExitMethod("transactionService.CreateTransaction", "transactionID", tx.ID, "status", tx.Status)
		return tx, nil
	}

	tx := &domain.Transaction{
		GroupID:         intent.GroupID,
		CreatedByID:     actingUserID,
		Amount:          intent.Amount,
		TransactionType: intent.TransactionType,
		Status:          domain.TransactionStatusPending,
		PaymentMethod:   strings.ToUpper(strings.TrimSpace(intent.PaymentMethod)),
		Description:     strings.TrimSpace(intent.Description),
		Reference:       strings.TrimSpace(intent.Reference),
		GoalID:          intent.GoalID,
	}

	if m.caps.CanPerformFinancialActions {
		if intent.TargetUserID == 0 {
			err := domain.ErrMissingMemberSelection
			logger.ExitMethodWithError("transactionService.CreateTransaction", err)
			return nil, err
		}
		if _, err := s.groupRepo.GetMember(ctx, intent.GroupID, intent.TargetUserID); err != nil {
			logger.ExitMethodWithError("transactionService.CreateTransaction", err, "reason", "target member")
			return nil, err
		}
		tx.UserID = intent.TargetUserID
		tx.IsManualEntry = intent.TargetUserID != actingUserID
		if m.caps.Role.Has(roles.Treasurer) || m.caps.IsGroupCreator {
			approval.ApplyPreApproval(tx)
			tx.CreatedByTreasurer = true
		}
	} else {
		if intent.TargetUserID != 0 && intent.TargetUserID != actingUserID {
			err := fmt.Errorf("%w: only treasurers record transactions for other members", domain.ErrNotAuthorized)
			logger.ExitMethodWithError("transactionService.CreateTransaction", err)
			return nil, err
		}
		if !m.caps.IsOfficeBearer && !memberSubmittable(intent.TransactionType) {
			err := fmt.Errorf("%w: members may only submit contributions and repayments", domain.ErrNotAuthorized)
			logger.ExitMethodWithError("transactionService.CreateTransaction", err)
			return nil, err
		}
		tx.UserID = actingUserID
		if !m.caps.IsOfficeBearer && tx.TransactionType == domain.TransactionTypeContribution && tx.PaymentMethod == domain.PaymentMethodCash {
			tx.Status = domain.TransactionStatusCompleted
		}
	}

	if tx.GoalID != nil {
		if err := s.checkGoalOpen(ctx, tx); err != nil {
			logger.ExitMethodWithError("transactionService.CreateTransaction", err, "reason", "goal")
			return nil, err
		}
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		logger.ExitMethodWithError("transactionService.CreateTransaction", err, "reason", "persist")
		return nil, err
	}
	metrics.TransactionsCreated.WithLabelValues(string(tx.TransactionType), string(tx.Status)).Inc()

	policy := approval.PolicyFor(tx.TransactionType)
	if tx.Status == domain.TransactionStatusPending {
		s.emit(ctx, domain.NotificationIntent{
			Kind:           domain.NotificationKindApprovalRequired,
			GroupID:        tx.GroupID,
			RecipientRole:  policy.NextRequiredRole(tx).String(),
			TransactionID:  tx.ID,
			RequiresAction: true,
			Title:          "Approval required",
			Message:        fmt.Sprintf("%s of %s is awaiting your approval", describe(tx), tx.Amount.StringFixed(2)),
		})
	}
	if tx.IsManualEntry {
		s.emit(ctx, domain.NotificationIntent{
			Kind:            domain.NotificationKindCompleted,
			GroupID:         tx.GroupID,
			RecipientUserID: tx.UserID,
			TransactionID:   tx.ID,
			Title:           "Transaction recorded",
			Message:         fmt.Sprintf("A %s of %s was recorded on your behalf", describe(tx), tx.Amount.StringFixed(2)),
		})
	}

	logger.ExitMethod("transactionService.CreateTransaction", "transactionID", tx.ID, "status", tx.Status)
	return tx, nil
}

func (s *transactionService) createLoan(ctx context.Context, m *membership, intent TransactionIntent) (*domain.Transaction, error) {
	app, err := s.prepareLoan(ctx, m, intent)
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		GroupID:         intent.GroupID,
		UserID:          m.member.UserID,
		CreatedByID:     m.member.UserID,
		Amount:          intent.Amount,
		TransactionType: domain.TransactionTypeLoan,
		Status:          domain.TransactionStatusPending,
		PaymentMethod:   strings.ToUpper(strings.TrimSpace(intent.PaymentMethod)),
		Description:     strings.TrimSpace(intent.Description),
		Reference:       strings.TrimSpace(intent.Reference),
		Duration:        intent.Duration,
	}
	app.Apply(tx)

	err = s.txRepo.CreateLoan(ctx, tx, func(history []domain.Transaction) error {
		return finance.RecheckGuarantors(tx, history)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientGuarantorFunds) {
			metrics.LoanApplications.WithLabelValues("capacity_lost").Inc()
		}
		return nil, err
	}
	metrics.LoanApplications.WithLabelValues("submitted").Inc()
	metrics.TransactionsCreated.WithLabelValues(string(tx.TransactionType), string(tx.Status)).Inc()

	for _, g := range tx.Guarantors {
		s.emit(ctx, domain.NotificationIntent{
			Kind:            domain.NotificationKindGuarantorRequest,
			GroupID:         tx.GroupID,
			RecipientUserID: g.UserID,
			TransactionID:   tx.ID,
			RequiresAction:  true,
			Title:           "Guarantee requested",
			Message: fmt.Sprintf("%s asked you to guarantee %s of a %s loan",
				m.member.Name, tx.GuarantorShare.StringFixed(2), tx.Amount.StringFixed(2)),
		})
	}
	if len(tx.Guarantors) == 0 {
		s.emit(ctx, domain.NotificationIntent{
			Kind:           domain.NotificationKindApprovalRequired,
			GroupID:        tx.GroupID,
			RecipientRole:  roles.Treasurer.String(),
			TransactionID:  tx.ID,
			RequiresAction: true,
			Title:          "Approval required",
			Message:        fmt.Sprintf("Loan of %s is awaiting your approval", tx.Amount.StringFixed(2)),
		})
	}
	return tx, nil
}

func (s *transactionService) PrepareLoanApplication(ctx context.Context, actingUserID int32, intent TransactionIntent) (*finance.LoanApplication, error) {
	intent.TransactionType = domain.TransactionTypeLoan
	if err := validateIntent(intent); err != nil {
		return nil, err
	}
	m, err := loadMembership(ctx, s.groupRepo, intent.GroupID, actingUserID)
	if err != nil {
		return nil, err
	}
	return s.prepareLoan(ctx, m, intent)
}

func (s *transactionService) prepareLoan(ctx context.Context, m *membership, intent TransactionIntent) (*finance.LoanApplication, error) {
	borrowerID := m.member.UserID
	if intent.TargetUserID != 0 && intent.TargetUserID != borrowerID {
		return nil, fmt.Errorf("%w: loans are applied for by the borrower", domain.ErrNotAuthorized)
	}

	history, err := s.txRepo.ListByGroup(ctx, intent.GroupID, repository.TransactionFilter{Types: affordabilityTypes})
	if err != nil {
		return nil, err
	}
	savings := finance.AvailableFunds(borrowerID, intent.GroupID, history)

	var candidates []finance.GuarantorCandidate
	if intent.Amount.GreaterThan(decimal.Max(savings, decimal.Zero)) {
		for _, id := range intent.GuarantorIDs {
			if id == borrowerID {
				candidates = append(candidates, finance.GuarantorCandidate{UserID: id, Email: m.member.Email})
				continue
			}
			g, err := s.groupRepo.GetMember(ctx, intent.GroupID, id)
			if errors.Is(err, domain.ErrNotMember) {
				return nil, fmt.Errorf("%w: user %d is not a member of this group", domain.ErrInvalidGuarantor, id)
			}
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, finance.GuarantorCandidate{UserID: g.UserID, Email: g.Email})
		}
	}

	app, err := finance.PrepareLoanApplication(finance.LoanRequest{
		GroupID:     intent.GroupID,
		BorrowerID:  borrowerID,
		Amount:      intent.Amount,
		Description: intent.Description,
		Duration:    intent.Duration,
	}, savings, candidates, history)
	if err != nil {
		metrics.LoanApplications.WithLabelValues(loanOutcome(err)).Inc()
		return nil, err
	}
	return app, nil
}

func (s *transactionService) ApproveAsGuarantor(ctx context.Context, transactionID, actingUserID int32) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.ApproveAsGuarantor", "transactionID", transactionID, "actingUserID", actingUserID)
	tx, err := s.mutate(ctx, transactionID, actingUserID, func(p approval.Policy, tx *domain.Transaction, _ *membership) (approval.Transition, error) {
		return p.ApproveAsGuarantor(tx, actingUserID)
	})
	if err != nil {
		logger.ExitMethodWithError("transactionService.ApproveAsGuarantor", err)
		return nil, err
	}
	metrics.Approvals.WithLabelValues("loan", approval.StageGuarantor.String()).Inc()
	logger.ExitMethod("transactionService.ApproveAsGuarantor", "transactionID", tx.ID)
	return tx, nil
}

func (s *transactionService) ApproveAsRole(ctx context.Context, transactionID int32, role string, actingUserID int32) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.ApproveAsRole", "transactionID", transactionID, "role", role, "actingUserID", actingUserID)
	capacity, err := approval.ParseCapacity(role)
	if err != nil {
		logger.ExitMethodWithError("transactionService.ApproveAsRole", err)
		return nil, fmt.Errorf("%w: %q", err, role)
	}
	tx, err := s.mutate(ctx, transactionID, actingUserID, func(p approval.Policy, tx *domain.Transaction, m *membership) (approval.Transition, error) {
		return p.Approve(tx, m.actor(), capacity)
	})
	if err != nil {
		logger.ExitMethodWithError("transactionService.ApproveAsRole", err)
		return nil, err
	}
	metrics.Approvals.WithLabelValues(approval.PolicyFor(tx.TransactionType).Name, capacity.String()).Inc()
	logger.ExitMethod("transactionService.ApproveAsRole", "transactionID", tx.ID, "status", tx.Status)
	return tx, nil
}

func (s *transactionService) RejectTransaction(ctx context.Context, transactionID int32, reason string, actingUserID int32) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.RejectTransaction", "transactionID", transactionID, "actingUserID", actingUserID)
	var stage approval.Stage
	tx, err := s.mutate(ctx, transactionID, actingUserID, func(p approval.Policy, tx *domain.Transaction, m *membership) (approval.Transition, error) {
		tr, err := p.Reject(tx, m.actor(), reason)
		stage = tr.From
		return tr, err
	})
	if err != nil {
		logger.ExitMethodWithError("transactionService.RejectTransaction", err)
		return nil, err
	}
	metrics.Rejections.WithLabelValues(approval.PolicyFor(tx.TransactionType).Name, stage.String()).Inc()
	logger.ExitMethod("transactionService.RejectTransaction", "transactionID", tx.ID)
	return tx, nil
}

type transitionFunc func(p approval.Policy, tx *domain.Transaction, m *membership) (approval.Transition, error)

// mutate loads the transaction, applies op and persists the result with a
// version check. A lost race is reported as the error op gives on the fresh
// row, so callers see AlreadyTerminal, AlreadyApproved or WrongStage.
func (s *transactionService) mutate(ctx context.Context, transactionID, actingUserID int32, op transitionFunc) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	m, err := loadMembership(ctx, s.groupRepo, tx.GroupID, actingUserID)
	if err != nil {
		return nil, err
	}
	p := approval.PolicyFor(tx.TransactionType)

	tr, err := op(p, tx, m)
	if err != nil {
		return nil, err
	}
	if err := s.txRepo.Update(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.ApprovalConflicts.Inc()
			return nil, s.resolveConflict(ctx, transactionID, m, op)
		}
		return nil, err
	}

	for _, n := range transitionIntents(tr, tx.GroupID, describe(tx), tx.RejectionReason) {
		n.TransactionID = tx.ID
		s.emit(ctx, n)
	}
	return tx, nil
}

func (s *transactionService) resolveConflict(ctx context.Context, transactionID int32, m *membership, op transitionFunc) error {
	fresh, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if _, err := op(approval.PolicyFor(fresh.TransactionType), fresh, m); err != nil {
		return err
	}
	return fmt.Errorf("%w: transaction %d changed while approving, reload and retry", domain.ErrWrongStage, transactionID)
}

func (s *transactionService) GetTransaction(ctx context.Context, actingUserID, transactionID int32) (*TransactionDetail, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	m, err := loadMembership(ctx, s.groupRepo, tx.GroupID, actingUserID)
	if err != nil {
		return nil, err
	}
	return &TransactionDetail{
		Transaction: tx,
		Approval:    approvalView(approval.PolicyFor(tx.TransactionType), tx, m.actor()),
	}, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, actingUserID, groupID int32, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	if _, err := loadMembership(ctx, s.groupRepo, groupID, actingUserID); err != nil {
		return nil, err
	}
	return s.txRepo.ListByGroup(ctx, groupID, filter)
}

func (s *transactionService) GetAffordability(ctx context.Context, actingUserID, groupID, memberID int32) (*AffordabilityView, error) {
	m, err := loadMembership(ctx, s.groupRepo, groupID, actingUserID)
	if err != nil {
		return nil, err
	}
	if memberID == 0 {
		memberID = actingUserID
	}
	if memberID != actingUserID {
		if !m.caps.CanPerformFinancialActions && !m.caps.CanPerformAdministrativeActions {
			return nil, fmt.Errorf("%w: only office bearers may view another member's funds", domain.ErrNotAuthorized)
		}
		if _, err := s.groupRepo.GetMember(ctx, groupID, memberID); err != nil {
			return nil, err
		}
	}

	history, err := s.txRepo.ListByGroup(ctx, groupID, repository.TransactionFilter{Types: affordabilityTypes})
	if err != nil {
		return nil, err
	}
	b := finance.Breakdown(memberID, groupID, history)
	return &AffordabilityView{
		MemberID:      memberID,
		Affordability: b,
		MaxLoanAmount: finance.MaxLoanAmount(b.AvailableFunds),
		Commitments:   finance.Commitments(memberID, groupID, history),
	}, nil
}

func (s *transactionService) GetCapabilities(ctx context.Context, actingUserID, groupID int32) (*roles.Capabilities, error) {
	m, err := loadMembership(ctx, s.groupRepo, groupID, actingUserID)
	if err != nil {
		return nil, err
	}
	return &m.caps, nil
}

func (s *transactionService) checkGoalOpen(ctx context.Context, tx *domain.Transaction) error {
	if tx.TransactionType != domain.TransactionTypeContribution {
		return fmt.Errorf("%w: only contributions can count toward a goal", domain.ErrInvalidTransactionType)
	}
	goal, err := s.goalRepo.GetByID(ctx, *tx.GoalID)
	if err != nil {
		return err
	}
	if goal.GroupID != tx.GroupID {
		return fmt.Errorf("goal %d: %w", goal.ID, domain.ErrNotFound)
	}
	if goal.Status != domain.GoalStatusInProgress {
		return fmt.Errorf("%w: goal %d is %s", domain.ErrWrongStage, goal.ID, goal.Status)
	}
	return nil
}

// emit hands an intent to the notification service. Delivery problems are
// logged; the state change they describe has already been committed.
func (s *transactionService) emit(ctx context.Context, n domain.NotificationIntent) {
	if err := s.noteSvc.Emit(ctx, n); err != nil {
		logger.WarnContext(ctx, "Failed to emit notification", "kind", n.Kind, "transactionID", n.TransactionID, "error", err)
	}
}

func validateIntent(intent TransactionIntent) error {
	switch {
	case intent.GroupID == 0:
		return fmt.Errorf("%w: group_id", domain.ErrMissingField)
	case !intent.TransactionType.Valid():
		return fmt.Errorf("%w: %q", domain.ErrInvalidTransactionType, intent.TransactionType)
	case !intent.Amount.IsPositive():
		return fmt.Errorf("%w: amount", domain.ErrMissingField)
	}
	return nil
}

func memberSubmittable(t domain.TransactionType) bool {
	return t == domain.TransactionTypeContribution || t == domain.TransactionTypeRepayment
}

func loanOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrExceedsMaxLoan):
		return "exceeds_max"
	case errors.Is(err, domain.ErrInsufficientGuarantorFunds):
		return "insufficient_guarantors"
	case errors.Is(err, domain.ErrGuarantorsRequired):
		return "guarantors_required"
	}
	return "invalid"
}

func describe(tx *domain.Transaction) string {
	return strings.ToLower(string(tx.TransactionType))
}
