package http

import (
	"net/http"
	"strings"

	"chama-backend/internal/domain"
	"chama-backend/internal/repository"
	"chama-backend/internal/service"
)

type approveRequest struct {
	Role string `json:"role"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var intent service.TransactionIntent
	if err := decode(r, &intent); err != nil {
		writeError(w, r, err)
		return
	}
	intent.TransactionType = domain.TransactionType(strings.ToUpper(string(intent.TransactionType)))

	tx, err := h.txSvc.CreateTransaction(r.Context(), UserIDFromContext(r.Context()), intent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) PreviewLoan(w http.ResponseWriter, r *http.Request) {
	var intent service.TransactionIntent
	if err := decode(r, &intent); err != nil {
		writeError(w, r, err)
		return
	}
	app, err := h.txSvc.PrepareLoanApplication(r.Context(), UserIDFromContext(r.Context()), intent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	detail, err := h.txSvc.GetTransaction(r.Context(), UserIDFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) ApproveAsGuarantor(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txSvc.ApproveAsGuarantor(r.Context(), pathID(r, "id"), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.txSvc.ApproveAsRole(r.Context(), pathID(r, "id"), req.Role, UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.txSvc.RejectTransaction(r.Context(), pathID(r, "id"), req.Reason, UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// ListTransactions accepts repeated type and status parameters plus
// member_id and goal_id.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter repository.TransactionFilter
	for _, t := range q["type"] {
		filter.Types = append(filter.Types, domain.TransactionType(strings.ToUpper(t)))
	}
	for _, s := range q["status"] {
		filter.Statuses = append(filter.Statuses, domain.TransactionStatus(strings.ToUpper(s)))
	}
	memberID, err := queryID(r, "member_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.UserID = memberID
	goalID, err := queryID(r, "goal_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if goalID != 0 {
		filter.GoalID = &goalID
	}

	txs, err := h.txSvc.ListTransactions(r.Context(), UserIDFromContext(r.Context()), pathID(r, "groupId"), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *Handler) GetAffordability(w http.ResponseWriter, r *http.Request) {
	memberID, err := queryID(r, "member_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.txSvc.GetAffordability(r.Context(), UserIDFromContext(r.Context()), pathID(r, "groupId"), memberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := h.txSvc.GetCapabilities(r.Context(), UserIDFromContext(r.Context()), pathID(r, "groupId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, caps)
}
