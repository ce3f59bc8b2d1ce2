package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/api/handlers"
	"jamesfarrell.me/youtube-rag/internal/api/middleware"
)

// NewRouter wires the HTTP routes. When serviceKey is empty the API is open.
func NewRouter(runners handlers.RunnerFactory, serviceKey string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()
	r.Use(middleware.RequestID(logger))

	// Public routes
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	// Protected routes
	protected := r.PathPrefix("").Subrouter()
	if serviceKey != "" {
		protected.Use(middleware.Auth(serviceKey))
	}
	videoHandler := handlers.NewVideoHandler(runners, logger)

	protected.HandleFunc("/ask", videoHandler.Ask).Methods(http.MethodPost)
	protected.HandleFunc("/videos/{id}/transcript", videoHandler.GetTranscript).Methods(http.MethodGet)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
