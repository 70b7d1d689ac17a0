package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes builds the mux router for the API server. Each route is wrapped
// with the request metrics when metrics are configured.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()

	router.Handle("/health", s.instrument("/health", s.HandleHealth)).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Handle("/cities/search", s.instrument("/api/v1/cities/search", s.HandleSearch)).Methods(http.MethodGet)
	api.Handle("/aqi", s.instrument("/api/v1/aqi", s.HandleAQI)).Methods(http.MethodGet)
	api.Handle("/history", s.instrument("/api/v1/history", s.HandleHistory)).Methods(http.MethodGet)

	return router
}

func (s *Server) instrument(route string, handler http.HandlerFunc) http.Handler {
	if s.metrics == nil {
		return handler
	}
	return s.metrics.WrapHandler(route, handler)
}
