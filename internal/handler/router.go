package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/segyhp/installment-engine/pkg/response"
)

// NewRouter wires the API, health and metrics routes.
func NewRouter(installments *InstallmentHandler, health *HealthHandler, log response.RequestLogger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware)
	if log != nil {
		router.Use(response.LoggingMiddleware(log))
	}

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/policies", installments.CreatePolicy).Methods(http.MethodPost)
	api.HandleFunc("/policies/{id}", installments.GetPolicy).Methods(http.MethodGet)
	api.HandleFunc("/policies/{id}/installments", installments.ListInstallments).Methods(http.MethodGet)
	api.HandleFunc("/policies/{id}/reminders", installments.ListReminders).Methods(http.MethodGet)

	// Static paths are registered before {id} routes
	api.HandleFunc("/installments/overdue", installments.Overdue).Methods(http.MethodGet)
	api.HandleFunc("/installments/upcoming", installments.Upcoming).Methods(http.MethodGet)
	api.HandleFunc("/installments/{id}/pay", installments.PayInstallment).Methods(http.MethodPost)
	api.HandleFunc("/installments/{id}/unpay", installments.UnpayInstallment).Methods(http.MethodPost)
	api.HandleFunc("/installments/{id}/cancel", installments.CancelInstallment).Methods(http.MethodPost)

	api.HandleFunc("/statistics", installments.Statistics).Methods(http.MethodGet)
	api.HandleFunc("/calendar/{year:[0-9]+}/{month:[0-9]+}", installments.CalendarMonth).Methods(http.MethodGet)
	api.HandleFunc("/jalali/convert", installments.Convert).Methods(http.MethodGet)
	api.HandleFunc("/reminders", installments.CreateReminder).Methods(http.MethodPost)
	api.HandleFunc("/reminders/{id}/cancel", installments.CancelReminder).Methods(http.MethodPost)

	return router
}
