package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every route onto a gorilla/mux router. OPTIONS is accepted on
// each route so the CORS middleware can answer preflight requests.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware, loggingMiddleware, corsMiddleware)

	router.HandleFunc("/", IndexHandler).Methods(http.MethodGet, http.MethodHead, http.MethodOptions)
	router.HandleFunc("/download", h.DownloadHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/download_file/{filename}", h.DownloadFileHandler).Methods(http.MethodGet, http.MethodHead, http.MethodOptions)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet, http.MethodOptions)

	return router
}
