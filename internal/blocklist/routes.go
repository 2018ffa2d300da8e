package blocklist

import (
	"github.com/gorilla/mux"

	"github.com/hodlmatch/hodlmatch-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/users/{id}/block", handler.BlockUser).Methods("POST")
	api.HandleFunc("/users/{id}/block", handler.UnblockUser).Methods("DELETE")
	api.HandleFunc("/blocked", handler.GetBlockedUsers).Methods("GET")
}
