package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"talentsparkle/internal/errors"
	"talentsparkle/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

const defaultHealthCheckTimeout = 5 * time.Second

func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		return s.AppConfig.Observability.HealthCheck.Timeout
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports model availability, store size and certificate status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "talentsparkle",
		"version": s.Version,
	}
	healthy := true

	if s.Backend.Chat != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
		info := s.Backend.Chat.GetModelInfo(ctx)
		cancel()
		response["ai_model"] = info
		if info == nil || !info.Available {
			healthy = false
		}
	} else {
		response["ai_model"] = map[string]any{"available": false, "error": "AI service not configured"}
		healthy = false
	}

	if st := s.Backend.Store; st != nil {
		response["store"] = map[string]any{
			"backend":    s.storeBackend(),
			"jobs":       len(st.Jobs()),
			"candidates": len(st.Candidates()),
		}
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (s *Server) storeBackend() string {
	if s.AppConfig == nil {
		return ""
	}
	return s.AppConfig.Store.Backend
}

// checkCertificateHealth returns nil when TLS is not served from a reloader
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertReloader == nil {
		return nil
	}

	const (
		criticalThreshold = 24 * time.Hour
		warningThreshold  = 7 * 24 * time.Hour
	)

	timeToExpiry, err := s.CertReloader.TimeToExpiry()
	if err != nil {
		return map[string]any{
			"healthy": false,
			"error":   fmt.Sprintf("Failed to check certificate expiry: %v", err),
		}
	}

	certStatus := map[string]any{
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"auto_reload":          s.CertReloader.IsWatching(),
		"reloads":              s.CertReloader.Reloads(),
	}
	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}
	return certStatus
}

// statsHandler reports limits, rate limiter state and collection sizes
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "talentsparkle",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auto_dispatch":          s.AutoDispatch,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if st := s.Backend.Store; st != nil {
		snap := st.Snapshot()
		response["store"] = map[string]any{
			"backend":       s.storeBackend(),
			"jobs":          len(snap.Jobs),
			"candidates":    len(snap.Candidates),
			"interviews":    len(snap.Interviews),
			"campus_drives": len(snap.CampusDrives),
			"activities":    len(snap.Activities),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest validates the body against schema and decodes it into v
func parseJSONRequest(r *http.Request, v any, schema gojsonschema.JSONLoader) error {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if schema != nil {
		if err := validateBody(schema, body); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, types.ErrorResponse{Error: error, Message: message})
}

// writeCodedError is writeErrorResponse with a machine-readable code
func writeCodedError(w http.ResponseWriter, title, code, message string, statusCode int) {
	writeJSON(w, statusCode, types.ErrorResponse{Error: title, Code: code, Message: message})
}

// writeAppError maps an error to a status code by its AppError type
func writeAppError(w http.ResponseWriter, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		writeErrorResponse(w, "Internal error", err.Error(), http.StatusInternalServerError)
		return
	}

	status, title := http.StatusInternalServerError, "Internal error"
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		status, title = http.StatusBadRequest, "Invalid request"
	case errors.ErrorTypeNotFound:
		status, title = http.StatusNotFound, "Not found"
	case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
		status, title = http.StatusBadGateway, "Upstream error"
	case errors.ErrorTypeIO:
		title = "Storage error"
	}
	writeCodedError(w, title, appErr.Code, appErr.Message, status)
}
