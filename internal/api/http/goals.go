package http

import (
	"net/http"

	"chama-backend/internal/domain"
	"chama-backend/internal/service"
)

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var intent service.GoalIntent
	if err := decode(r, &intent); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := h.goalSvc.CreateGoal(r.Context(), UserIDFromContext(r.Context()), intent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	detail, err := h.goalSvc.GetGoal(r.Context(), UserIDFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) ApproveGoal(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := h.goalSvc.ApproveGoal(r.Context(), pathID(r, "id"), req.Role, UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *Handler) RejectGoal(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := h.goalSvc.RejectGoal(r.Context(), pathID(r, "id"), req.Reason, UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalSvc.ListGoals(r.Context(), UserIDFromContext(r.Context()), pathID(r, "groupId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}
