package http

import (
	"net/http"

	"chama-backend/internal/domain"
)

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	TotalCount    int32                 `json:"total_count"`
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := queryID(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryID(r, "page_size")
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, total, err := h.noteSvc.GetNotifications(r.Context(), UserIDFromContext(r.Context()), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: notes, TotalCount: total})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.noteSvc.MarkAsRead(r.Context(), UserIDFromContext(r.Context()), pathID(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
