package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/types"
)

const (
	messageFunctionExecuted = "Function executed"
	messageNoResponse       = "No response from AI"
)

// Service runs the chat proxy: one model round trip, then every tool call
// is translated into an action result for the dispatcher.
type Service struct {
	Provider      ChatProvider
	audioMIMEType string
	logger        *errors.Logger
}

// NewService creates the chat service for the configured provider
func NewService(ctx context.Context, cfg config.OperationAIConfig, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	var provider ChatProvider
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(provider, cfg.AudioMIMEType, logger), nil
}

// NewServiceWithProvider wraps an existing provider
func NewServiceWithProvider(provider ChatProvider, audioMIMEType string, logger *errors.Logger) *Service {
	return &Service{Provider: provider, audioMIMEType: audioMIMEType, logger: logger}
}

// Respond answers a chat request in the proxy's response shape
func (s *Service) Respond(ctx context.Context, req types.ChatRequest) (types.ChatResponse, *TokenUsage, error) {
	if len(req.Messages) == 0 && req.AudioData == "" {
		return types.ChatResponse{}, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"messages or audioData is required", nil)
	}

	input := ChatInput{Messages: req.Messages, AudioMIMEType: s.audioMIMEType}
	if req.AudioMIMEType != "" {
		input.AudioMIMEType = req.AudioMIMEType
	}
	if req.AudioData != "" {
		audio, err := base64.StdEncoding.DecodeString(req.AudioData)
		if err != nil {
			return types.ChatResponse{}, nil, errors.NewValidationError(errors.ErrCodeAudioDecode,
				"audioData is not valid base64", err)
		}
		input.Audio = audio
	}

	reply, usage, err := s.Provider.Chat(ctx, input)
	if err != nil {
		return types.ChatResponse{}, nil, err
	}

	if len(reply.FunctionCalls) == 0 {
		message := reply.Text
		if message == "" {
			message = messageNoResponse
		}
		return types.ChatResponse{Message: message}, usage, nil
	}

	resp := types.ChatResponse{
		Message:         reply.Text,
		FunctionCalls:   reply.FunctionCalls,
		FunctionResults: make([]types.FunctionResult, 0, len(reply.FunctionCalls)),
	}
	if resp.Message == "" {
		resp.Message = messageFunctionExecuted
	}

	for _, call := range reply.FunctionCalls {
		s.logger.Info("Executing function", "name", call.Name, "tool_call_id", call.ID)

		result := ExecuteFunction(call.Name, call.Arguments)
		content, err := json.Marshal(result)
		if err != nil {
			return types.ChatResponse{}, nil, errors.NewInternalError("ENCODE_FAILED",
				"failed to encode function result", err)
		}
		resp.FunctionResults = append(resp.FunctionResults, types.FunctionResult{
			ToolCallID: call.ID,
			Role:       "tool",
			Name:       call.Name,
			Content:    string(content),
		})
	}

	return resp, usage, nil
}

// ActionResults decodes the action results carried by a chat response
func ActionResults(resp types.ChatResponse) ([]types.ActionResult, error) {
	results := make([]types.ActionResult, 0, len(resp.FunctionResults))
	for _, fr := range resp.FunctionResults {
		var r types.ActionResult
		if err := json.Unmarshal([]byte(fr.Content), &r); err != nil {
			return nil, fmt.Errorf("function result %s: %w", fr.Name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}
