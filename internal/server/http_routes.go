package server

import (
	"net/http"
	"slices"
	"strings"

	"talentsparkle/internal/observability"
)

const (
	defaultAllowedHeaders = "authorization, x-client-info, apikey, content-type"
	allowedMethods        = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// Handler returns the instrumented route tree
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	return om.HTTPMiddleware()(s.corsMiddleware(s.setupRoutes(om)))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware(om)
	sizeLimit := s.requestSizeLimitMiddleware()
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(sizeLimit(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /api/chat", api(s.createChatHandler(om)))
	mux.HandleFunc("POST /api/actions", api(s.createActionsHandler(om)))

	mux.HandleFunc("GET /api/jobs", api(s.listJobs))
	mux.HandleFunc("POST /api/jobs", api(s.createJob))
	mux.HandleFunc("GET /api/jobs/{id}", api(s.getJob))
	mux.HandleFunc("PATCH /api/jobs/{id}", api(s.updateJob))
	mux.HandleFunc("DELETE /api/jobs/{id}", api(s.deleteJob))
	mux.HandleFunc("GET /api/jobs/{id}/candidates", api(s.listJobCandidates))

	mux.HandleFunc("GET /api/candidates", api(s.listCandidates))
	mux.HandleFunc("GET /api/candidates/{id}", api(s.getCandidate))
	mux.HandleFunc("PUT /api/candidates/{id}/stages/{jobId}", api(s.updateStage))

	mux.HandleFunc("GET /api/interviews", api(s.listInterviews))
	mux.HandleFunc("POST /api/interviews", api(s.createInterview))
	mux.HandleFunc("GET /api/campus-drives", api(s.listCampusDrives))
	mux.HandleFunc("POST /api/campus-drives", api(s.createCampusDrive))
	mux.HandleFunc("GET /api/activities", api(s.listActivities))
	mux.HandleFunc("POST /api/activities", api(s.createActivity))

	mux.HandleFunc("GET /api/universities", api(s.listUniversities))
	mux.HandleFunc("GET /api/templates", api(s.listTemplates))

	return mux
}

// corsMiddleware sets the CORS headers on every response and answers
// preflight requests itself
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	headers := defaultAllowedHeaders
	if len(s.CORS.AllowedHeaders) > 0 {
		headers = strings.Join(s.CORS.AllowedHeaders, ", ")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Headers", headers)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin,
// or "" when the origin is not allowed
func (s *Server) allowedOrigin(origin string) string {
	origins := s.CORS.AllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(origins, origin) {
		return origin
	}
	return ""
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// requestAPIKey reads X-API-Key, falling back to an Authorization bearer token
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
