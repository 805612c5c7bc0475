package server

import (
	"context"
	"time"

	"talentsparkle/internal/ai"
	"talentsparkle/internal/config"
	"talentsparkle/internal/dispatch"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/store"
	"talentsparkle/internal/types"
)

// ActionsRequest is the body of POST /api/actions
type ActionsRequest struct {
	Actions []types.ActionResult `json:"actions"`
}

// ActionsResponse reports one outcome per submitted action
type ActionsResponse struct {
	Outcomes []types.ActionOutcome `json:"outcomes"`
}

// StageRequest is the body of PUT /api/candidates/{id}/stages/{jobId}
type StageRequest struct {
	Stage string `json:"stage"`
}

// Chatter answers chat requests. *ai.Service implements it.
type Chatter interface {
	Respond(ctx context.Context, req types.ChatRequest) (types.ChatResponse, *ai.TokenUsage, error)
	GetModelInfo(ctx context.Context) *ai.ModelInfo
}

// Backend is what the handlers serve. Start fills it from the application
// config when Store is nil.
type Backend struct {
	Store        *store.Store
	Dispatcher   *dispatch.Dispatcher
	Chat         Chatter
	Universities []types.University
	Templates    []types.MessageTemplate
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config
	TLSConfig config.TLSConfig

	// Set when TLS is enabled
	CertReloader *CertReloader

	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	CORS         config.CORSConfig
	AutoDispatch bool

	Backend Backend

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
	CORS           config.CORSConfig
	AutoDispatch   bool
}

// ServerConfigFrom copies the server section of cfg
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
		CORS:           cfg.Server.CORS,
		AutoDispatch:   cfg.Server.AutoDispatch,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, backend Backend, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		CORS:           cfg.CORS,
		AutoDispatch:   cfg.AutoDispatch,
		Backend:        backend,
		Logger:         logger,
	}
}
