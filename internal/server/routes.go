// Package server exposes the market service over HTTP and the broadcaster over WebSocket.
package server

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/ws", h.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/indices", h.GetIndices).Methods("GET")
	api.HandleFunc("/sectors", h.GetSectors).Methods("GET")
	api.HandleFunc("/search/stocks", h.SearchStocks).Methods("GET")
	api.HandleFunc("/compare", h.Compare).Methods("GET")
	api.HandleFunc("/cycles", h.GetCycles).Methods("GET")

	return r
}
