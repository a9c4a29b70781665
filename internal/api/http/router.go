// Package http exposes the chama services as a JSON API.
package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chama-backend/internal/security"
	"chama-backend/internal/service"
)

type Handler struct {
	txSvc   service.TransactionService
	goalSvc service.GoalService
	noteSvc service.NotificationService
	userSvc service.UserService
}

func NewHandler(txSvc service.TransactionService, goalSvc service.GoalService, noteSvc service.NotificationService, userSvc service.UserService) *Handler {
	return &Handler{txSvc: txSvc, goalSvc: goalSvc, noteSvc: noteSvc, userSvc: userSvc}
}

// NewRouter wires every route. Everything under /api/v1 requires an access token.
func NewRouter(h *Handler, tokens security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(metricsMiddleware, loggingMiddleware)

	router.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware(tokens))

	api.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}", h.GetTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id:[0-9]+}/guarantee", h.ApproveAsGuarantor).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}/approve", h.ApproveTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}/reject", h.RejectTransaction).Methods(http.MethodPost)
	api.HandleFunc("/loans/preview", h.PreviewLoan).Methods(http.MethodPost)

	api.HandleFunc("/groups/{groupId:[0-9]+}/transactions", h.ListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupId:[0-9]+}/affordability", h.GetAffordability).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupId:[0-9]+}/capabilities", h.GetCapabilities).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupId:[0-9]+}/goals", h.ListGoals).Methods(http.MethodGet)

	api.HandleFunc("/goals", h.CreateGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id:[0-9]+}", h.GetGoal).Methods(http.MethodGet)
	api.HandleFunc("/goals/{id:[0-9]+}/approve", h.ApproveGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id:[0-9]+}/reject", h.RejectGoal).Methods(http.MethodPost)

	api.HandleFunc("/me", h.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods(http.MethodPost)

	return router
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
