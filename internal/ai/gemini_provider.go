package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"talentsparkle/internal/config"
	appErrors "talentsparkle/internal/errors"
	"talentsparkle/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements ChatProvider with Gemini function calling
type GeminiProvider struct {
	client       *genai.Client
	config       config.OperationAIConfig
	chatBreaker  *Breaker[*genai.GenerateContentResponse]
	modelBreaker *Breaker[*genai.Model]
	logger       *appErrors.Logger
}

var _ ChatProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client for the chat operation
func NewGeminiProvider(ctx context.Context, cfg config.OperationAIConfig, logger *appErrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:       client,
		config:       cfg,
		chatBreaker:  NewChatBreaker[*genai.GenerateContentResponse](cfg.CircuitBreaker, logger),
		modelBreaker: NewModelBreaker[*genai.Model](cfg.CircuitBreaker, logger),
		logger:       logger,
	}, nil
}

// Chat sends the transcript with the recruiting tools and returns text and tool calls
func (g *GeminiProvider) Chat(ctx context.Context, input ChatInput) (*ChatReply, *TokenUsage, error) {
	tracer := otel.Tracer("talentsparkle.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.chat")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("input.messages", len(input.Messages)),
		attribute.Int("input.audio_bytes", len(input.Audio)),
	)

	contents, systemText := buildContents(input)
	genaiConfig := g.buildChatConfig(systemText)

	if g.config.Timeout != nil && *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	result, err := g.chatBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(ctx, g.logger, "chat", g.maxRetries(), func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, contents, genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed, "Failed to generate chat response", err)
	}

	reply := replyFromResponse(result)
	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Int("output.function_calls", len(reply.FunctionCalls)),
		attribute.Bool("success", true),
	)
	return reply, usage, nil
}

func (g *GeminiProvider) buildChatConfig(transcriptSystem string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Tools: Tools(),
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		},
	}

	if g.config.Temperature != nil && *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}

	useSystem := g.config.UseSystemPrompts == nil || *g.config.UseSystemPrompts
	system := ""
	if useSystem {
		system = resolvePrompt(g.config.SystemPrompt, DefaultSystemPrompt)
	}
	if transcriptSystem != "" {
		system = strings.TrimSpace(system + "\n\n" + transcriptSystem)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

func (g *GeminiProvider) maxRetries() int {
	if g.config.MaxRetries == nil {
		return 0
	}
	return *g.config.MaxRetries
}

// buildContents maps the transcript to Gemini contents. System turns are
// returned separately so they can join the system instruction.
func buildContents(input ChatInput) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system []string

	for _, m := range input.Messages {
		switch strings.ToLower(m.Role) {
		case "system":
			system = append(system, m.Content)
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(input.Audio) > 0 {
		mime := input.AudioMIMEType
		if mime == "" {
			mime = "audio/webm"
		}
		contents = append(contents, genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(AudioInstruction),
			genai.NewPartFromBytes(input.Audio, mime),
		}, genai.RoleUser))
	}

	return contents, strings.Join(system, "\n\n")
}

// replyFromResponse collects the text and tool calls of the first candidate
func replyFromResponse(resp *genai.GenerateContentResponse) *ChatReply {
	reply := &ChatReply{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return reply
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", len(reply.FunctionCalls))
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			reply.FunctionCalls = append(reply.FunctionCalls, types.FunctionCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
			continue
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	reply.Text = text.String()
	return reply
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"chat":            g.chatBreaker.Stats(),
		"model":           g.modelBreaker.Stats(),
		"overall_healthy": g.chatBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

func (g *GeminiProvider) Close() error {
	return nil
}

// backoff is the wait before retry attempt n (n >= 1)
var backoff = func(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
	jitterBig, err := rand.Int(rand.Reader, jitterMax)
	if err != nil {
		return baseDelay
	}
	return min(baseDelay+time.Duration(jitterBig.Int64()), 30*time.Second)
}

// executeWithRetry retries fn on retryable errors with exponential backoff
func executeWithRetry[T any](ctx context.Context, logger *appErrors.Logger, operation string, maxRetries int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)
	return zero, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// isRetryableError reports network failures, rate limiting and 5xx responses
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	code := 0
	var apiErr *googleapi.Error
	var genaiErr genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &genaiErr):
		code = genaiErr.Code
	}

	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
