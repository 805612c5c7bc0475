package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health                               - Health check")
	fmt.Println("  GET  /stats                                - Server statistics")
	fmt.Println("  POST /api/chat                             - Chat with the recruiting assistant")
	fmt.Println("  POST /api/actions                          - Apply chat actions")
	fmt.Println("  GET|POST /api/jobs, GET|PATCH|DELETE /api/jobs/{id}")
	fmt.Println("  GET  /api/jobs/{id}/candidates")
	fmt.Println("  GET  /api/candidates, GET /api/candidates/{id}")
	fmt.Println("  PUT  /api/candidates/{id}/stages/{jobId}")
	fmt.Println("  GET|POST /api/interviews, /api/campus-drives, /api/activities")
	fmt.Println("  GET  /api/universities, /api/templates")
	if s.Backend.Chat == nil {
		fmt.Println("WARNING: no AI key configured, /api/chat answers 503")
	}
	if s.AutoDispatch {
		fmt.Println("Chat auto-dispatch: ENABLED (actions are applied server-side)")
	}
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /api/*")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit == nil || !s.RateLimit.Enabled {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}
