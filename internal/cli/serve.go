package cli

import (
	"fmt"

	"talentsparkle/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for the recruiting assistant",
	Long: `Start an HTTP server that exposes the chat assistant and the recruiting store.

Available endpoints:
- POST /api/chat: Chat with the assistant (text or audio)
- POST /api/actions: Apply the actions returned by a chat
- /api/jobs, /api/candidates, /api/interviews, /api/campus-drives, /api/activities
- GET /api/universities, /api/templates: Reference data
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	serveCmd.Flags().Bool("auto-dispatch", false, "Apply chat actions on the server (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Only flags given on the command line override the loaded config
	cmd.Flags().Visit(func(f *pflag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "port":
			cfg.Server.Port = v
		case "host":
			cfg.Server.Host = v
		case "tls-mode":
			cfg.Server.TLS.Mode = v
		case "cert-file":
			cfg.Server.TLS.CertFile = v
		case "key-file":
			cfg.Server.TLS.KeyFile = v
		case "ca-file":
			cfg.Server.TLS.CAFile = v
		case "auto-dispatch":
			cfg.Server.AutoDispatch = v == "true"
		}
	})

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	logger.Info("Starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"tls_mode", cfg.Server.TLS.Mode,
		"auto_dispatch", cfg.Server.AutoDispatch)

	return server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), server.Backend{}, logger).Start()
}
