// internal/matching/routes.go
package matching

import (
	"github.com/gorilla/mux"

	"github.com/hodlmatch/hodlmatch-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, hub *Hub, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Daily batch
	api.HandleFunc("/daily", handler.GetCurrentDailyMatch).Methods("GET")
	api.HandleFunc("/daily/advance", handler.AdvanceDailyMatch).Methods("POST")
	api.HandleFunc("/daily/{id}/viewed", handler.MarkViewed).Methods("POST")
	api.HandleFunc("/daily/{id}/liked", handler.MarkLiked).Methods("POST")

	// On-demand discovery
	api.HandleFunc("/live", handler.RefreshLiveCandidates).Methods("GET")

	// Explainability
	api.HandleFunc("/compatibility/{userId}", handler.GetCompatibility).Methods("GET")

	// Event stream
	if hub != nil {
		api.HandleFunc("/ws", hub.ServeWS).Methods("GET")
	}
}
