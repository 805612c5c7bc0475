package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const maxPromptFileSize = 64 * 1024

// loadSystemPrompts replaces the configured system prompts with the content
// of their files when a file path is set. The chat override wins over the
// global file.
func (c *Config) loadSystemPrompts() error {
	if c.AI.SystemPromptFile != "" {
		content, err := loadPromptFile(c.AI.SystemPromptFile)
		if err != nil {
			return fmt.Errorf("global system prompt: %w", err)
		}
		c.AI.SystemPrompt = content
	}

	if c.AI.Chat.SystemPromptFile != "" {
		content, err := loadPromptFile(c.AI.Chat.SystemPromptFile)
		if err != nil {
			return fmt.Errorf("chat system prompt: %w", err)
		}
		c.AI.Chat.SystemPrompt = content
	}

	return nil
}

func loadPromptFile(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve prompt file path '%s': %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("prompt file not found: %s", absPath)
		}
		return "", fmt.Errorf("cannot access prompt file '%s': %w", absPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("prompt path is a directory: %s", absPath)
	}
	if info.Size() > maxPromptFileSize {
		return "", fmt.Errorf("prompt file '%s' exceeds %d bytes", absPath, maxPromptFileSize)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file '%s': %w", absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", absPath)
	}

	log.Printf("[CONFIG] Loaded system prompt from file: %s (%d characters)", absPath, len(trimmed))
	return trimmed, nil
}
