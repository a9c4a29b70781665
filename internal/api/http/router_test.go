package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apihttp "chama-backend/internal/api/http"
	"chama-backend/internal/domain"
	"chama-backend/internal/finance"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
	"chama-backend/internal/security"
	"chama-backend/internal/service"
)

const testSecret = "router-test-secret"

type apiFixture struct {
	txSvc   *MockTransactionService
	goalSvc *MockGoalService
	noteSvc *MockNotificationService
	userSvc *MockUserService
	router  http.Handler
	token   string
}

func newAPIFixture(t *testing.T) *apiFixture {
	tokens := security.NewTokenManager(testSecret)
	token, err := tokens.GenerateAccessToken(10, "wanjiru@test.com", time.Hour)
	require.NoError(t, err)

	f := &apiFixture{
		txSvc:   new(MockTransactionService),
		goalSvc: new(MockGoalService),
		noteSvc: new(MockNotificationService),
		userSvc: new(MockUserService),
		token:   token,
	}
	f.router = apihttp.NewRouter(apihttp.NewHandler(f.txSvc, f.goalSvc, f.noteSvc, f.userSvc), tokens)
	return f
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_Auth(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/1/capabilities", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/groups/1/capabilities", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CreateTransaction(t *testing.T) {
	f := newAPIFixture(t)
	f.txSvc.On("CreateTransaction", mock.Anything, int32(10), mock.MatchedBy(func(in service.TransactionIntent) bool {
		return in.GroupID == 1 && in.TransactionType == domain.TransactionTypeContribution && in.Amount.Equal(decimal.NewFromInt(500))
	})).Return(&domain.Transaction{ID: 3, Status: domain.TransactionStatusCompleted}, nil)

	rec := f.do(http.MethodPost, "/api/v1/transactions",
		`{"group_id":1,"amount":"500","transaction_type":"contribution","payment_method":"CASH"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tx domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, int32(3), tx.ID)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)

	rec = f.do(http.MethodPost, "/api/v1/transactions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: amount", domain.ErrMissingField), http.StatusBadRequest},
		{domain.ErrMissingMemberSelection, http.StatusBadRequest},
		{domain.ErrExceedsMaxLoan, http.StatusBadRequest},
		{domain.ErrNotAuthorized, http.StatusForbidden},
		{domain.ErrNotMember, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrAlreadyTerminal, http.StatusConflict},
		{domain.ErrWrongStage, http.StatusConflict},
		{repository.ErrConflict, http.StatusConflict},
		{fmt.Errorf("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			f := newAPIFixture(t)
			f.txSvc.On("ApproveAsRole", mock.Anything, int32(7), "treasurer", int32(10)).Return(nil, tc.err)

			rec := f.do(http.MethodPost, "/api/v1/transactions/7/approve", `{"role":"treasurer"}`)
			assert.Equal(t, tc.code, rec.Code)
			body := decodeError(t, rec)
			if tc.code == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", body["error"])
			} else {
				assert.Equal(t, tc.err.Error(), body["error"])
			}
		})
	}
}

func TestRouter_GuarantorShortfall(t *testing.T) {
	f := newAPIFixture(t)
	shortfall := &domain.InsufficientGuarantorFundsError{Shortfalls: []domain.GuarantorShortfall{
		{UserID: 20, Email: "otieno@test.com", Available: decimal.NewFromInt(100), Required: decimal.NewFromInt(1500)},
	}}
	f.txSvc.On("CreateTransaction", mock.Anything, int32(10), mock.Anything).Return(nil, shortfall)

	rec := f.do(http.MethodPost, "/api/v1/transactions",
		`{"group_id":1,"amount":"2500","transaction_type":"LOAN","guarantor_ids":[20]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	shortfalls, ok := body["shortfalls"].([]any)
	require.True(t, ok)
	assert.Len(t, shortfalls, 1)
}

func TestRouter_ListTransactions(t *testing.T) {
	f := newAPIFixture(t)
	goalID := int32(4)
	f.txSvc.On("ListTransactions", mock.Anything, int32(10), int32(1), repository.TransactionFilter{
		Types:    []domain.TransactionType{domain.TransactionTypeLoan},
		Statuses: []domain.TransactionStatus{domain.TransactionStatusPending},
		GoalID:   &goalID,
	}).Return([]domain.Transaction(nil), nil)

	rec := f.do(http.MethodGet, "/api/v1/groups/1/transactions?type=loan&status=pending&goal_id=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/groups/1/transactions?member_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Capabilities(t *testing.T) {
	f := newAPIFixture(t)
	f.txSvc.On("GetCapabilities", mock.Anything, int32(10), int32(1)).
		Return(&roles.Capabilities{Role: roles.Treasurer, CanPerformFinancialActions: true, IsOfficeBearer: true}, nil)

	rec := f.do(http.MethodGet, "/api/v1/groups/1/capabilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["can_perform_financial_actions"])
	assert.NotContains(t, body, "Role")
}

func TestRouter_Affordability(t *testing.T) {
	f := newAPIFixture(t)
	view := &service.AffordabilityView{
		MemberID: 12,
		Affordability: finance.Affordability{
			TotalContributions: decimal.NewFromInt(3000),
			AvailableFunds:     decimal.NewFromInt(2500),
		},
		MaxLoanAmount: decimal.NewFromInt(7500),
	}
	f.txSvc.On("GetAffordability", mock.Anything, int32(10), int32(1), int32(12)).Return(view, nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/groups/1/affordability?member_id=12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2500", body["available_funds"])
	assert.Equal(t, "7500", body["max_loan_amount"])

	f.txSvc.On("GetAffordability", mock.Anything, int32(10), int32(1), int32(13)).Return(nil, domain.ErrNotAuthorized).Once()
	rec = f.do(http.MethodGet, "/api/v1/groups/1/affordability?member_id=13", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_Goals(t *testing.T) {
	f := newAPIFixture(t)
	f.goalSvc.On("RejectGoal", mock.Anything, int32(3), "no budget", int32(10)).
		Return(&domain.Goal{ID: 3, Status: domain.GoalStatusRejected, RejectionReason: "no budget"}, nil)

	rec := f.do(http.MethodPost, "/api/v1/goals/3/reject", `{"reason":"no budget"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var goal domain.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &goal))
	assert.Equal(t, domain.GoalStatusRejected, goal.Status)
}

func TestRouter_Notifications(t *testing.T) {
	f := newAPIFixture(t)
	f.noteSvc.On("GetNotifications", mock.Anything, int32(10), int32(2), int32(5)).
		Return([]domain.Notification{{ID: 1, Title: "Approval required"}}, int32(6), nil)
	f.noteSvc.On("MarkAsRead", mock.Anything, int32(10), int32(1)).Return(nil)

	rec := f.do(http.MethodGet, "/api/v1/notifications?page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Notifications []domain.Notification `json:"notifications"`
		TotalCount    int32                 `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Notifications, 1)
	assert.Equal(t, int32(6), body.TotalCount)

	rec = f.do(http.MethodPost, "/api/v1/notifications/1/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_Profile(t *testing.T) {
	f := newAPIFixture(t)
	profile := &service.UserProfile{
		User: &domain.User{ID: 10, Name: "Wanjiru"},
		Groups: []service.GroupMembership{{
			Group:        domain.Group{ID: 1, Name: "Umoja"},
			RoleName:     "Treasurer",
			Capabilities: roles.Classify("Treasurer", 10, 100),
		}},
	}
	f.userSvc.On("GetUserProfile", mock.Anything, int32(10)).Return(profile, nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/me", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	groups := body["groups"].([]any)
	require.Len(t, groups, 1)
	caps := groups[0].(map[string]any)["capabilities"].(map[string]any)
	assert.Equal(t, true, caps["can_perform_financial_actions"])
	f.userSvc.AssertExpectations(t)
}
