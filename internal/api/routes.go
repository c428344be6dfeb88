package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Stock routes
	api.HandleFunc("/stock", handler.GetStock).Methods("GET")
	api.HandleFunc("/stock/history", handler.GetHistory).Methods("GET")

	// Notification routes
	api.HandleFunc("/notifications", handler.GetNotificationLogs).Methods("GET")
	api.HandleFunc("/notifications/test", handler.SendTestNotification).Methods("POST")

	// Settings routes
	api.HandleFunc("/settings", handler.GetSettings).Methods("GET")
	api.HandleFunc("/settings", handler.UpdateSettings).Methods("PUT")

	// User routes
	api.HandleFunc("/users", handler.RegisterUser).Methods("POST")
	api.HandleFunc("/users", handler.GetUsers).Methods("GET")

	return r
}
