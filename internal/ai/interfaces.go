package ai

import (
	"context"

	"talentsparkle/internal/types"
)

// ChatProvider sends a transcript to a model that may answer with tool calls
type ChatProvider interface {
	Chat(ctx context.Context, input ChatInput) (*ChatReply, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// ChatInput is one chat round trip
type ChatInput struct {
	Messages      []types.ChatMessage
	Audio         []byte
	AudioMIMEType string
}

// ChatReply is the model's answer: free text, tool calls or both
type ChatReply struct {
	Text          string
	FunctionCalls []types.FunctionCall
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
