package http

import "net/http"

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userSvc.GetUserProfile(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
