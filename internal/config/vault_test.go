package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"talentsparkle/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeLogical serves KV v2 shaped secrets from memory
type fakeLogical struct {
	secrets map[string]map[string]any
	err     error
}

func (f *fakeLogical) Read(path string) (*api.Secret, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.secrets[path]
	if !ok {
		return nil, nil
	}
	return &api.Secret{Data: map[string]any{
		"data":     data,
		"metadata": map[string]any{"version": "3"},
	}}, nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "int value", input: 7, expected: 7},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  s.file-token\n"), 0o600))

	tests := []struct {
		name        string
		config      VaultConfig
		expected    string
		expectError bool
	}{
		{name: "inline token", config: VaultConfig{Token: "s.inline"}, expected: "s.inline"},
		{name: "inline wins over file", config: VaultConfig{Token: "s.inline", TokenFile: tokenFile}, expected: "s.inline"},
		{name: "token file", config: VaultConfig{TokenFile: tokenFile}, expected: "s.file-token"},
		{name: "missing file", config: VaultConfig{TokenFile: filepath.Join(t.TempDir(), "nope")}, expectError: true},
		{name: "no token", config: VaultConfig{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestGetSecretV2(t *testing.T) {
	client := &VaultClient{
		logical: &fakeLogical{secrets: map[string]map[string]any{
			"secret/data/gemini": {"api_key": "AIzaSyExample1234"},
		}},
		logger: newMockLogger(),
	}

	secret, err := client.GetSecretV2("secret/data/gemini")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)
	assert.Equal(t, "AIzaSyExample1234", secret.Data["api_key"])

	_, err = client.GetSecretV2("secret/data/missing")
	assert.ErrorContains(t, err, "secret not found")

	_, err = client.GetStringSecret("secret/data/gemini", "other")
	assert.ErrorContains(t, err, "key 'other' not found")

	var nilClient *VaultClient
	_, err = nilClient.GetSecretV2("secret/data/gemini")
	assert.ErrorContains(t, err, "not initialized")
}

func TestGetSecretV2RejectsKVv1(t *testing.T) {
	client := &VaultClient{logical: kvV1Reader{}, logger: newMockLogger()}

	_, err := client.GetSecretV2("kv/gemini")
	assert.ErrorContains(t, err, "not in KVv2 format")
}

type kvV1Reader struct{}

func (kvV1Reader) Read(string) (*api.Secret, error) {
	return &api.Secret{Data: map[string]any{"api_key": "flat"}}, nil
}

func TestApplySecrets(t *testing.T) {
	client := &VaultClient{
		logical: &fakeLogical{secrets: map[string]map[string]any{
			"secret/data/api":      {"keys": "alpha, beta"},
			"secret/data/gemini":   {"api_key": "gemini-from-vault"},
			"secret/data/tls":      {"cert": "CERT PEM", "key": "KEY PEM"},
			"secret/data/redis":    {"password": "redis-pass"},
			"secret/data/postgres": {"dsn": "postgres://ts@db/ts"},
		}},
		logger: newMockLogger(),
	}

	cfg := &Config{
		Vault: VaultConfig{Secrets: VaultSecrets{
			APIKeys:       "secret/data/api",
			GeminiKey:     "secret/data/gemini",
			TLSCerts:      "secret/data/tls",
			RedisPassword: "secret/data/redis",
			PostgresDSN:   "secret/data/postgres",
		}},
		Server: ServerConfig{TLS: TLSConfig{CertFile: "/etc/ts/cert.pem", KeyFile: "/etc/ts/key.pem"}},
	}
	cfg.AI.Chat.APIKey = "explicit-chat-key"

	require.NoError(t, client.applySecrets(cfg))

	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-from-vault", cfg.AI.APIKey)
	assert.Equal(t, "explicit-chat-key", cfg.AI.Chat.APIKey)
	assert.Equal(t, "CERT PEM", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY PEM", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CertFile)
	assert.Empty(t, cfg.Server.TLS.KeyFile)
	assert.Equal(t, "redis-pass", cfg.Store.Redis.Password)
	assert.Equal(t, "postgres://ts@db/ts", cfg.Store.PostgresDSN)
}

func TestApplySecretsReadError(t *testing.T) {
	client := &VaultClient{logical: &fakeLogical{err: fmt.Errorf("permission denied")}, logger: newMockLogger()}
	cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{GeminiKey: "secret/data/gemini"}}}

	err := client.applySecrets(cfg)
	assert.ErrorContains(t, err, "permission denied")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{AI: AIConfig{APIKey: "unchanged"}}
	require.NoError(t, ApplyVaultSecrets(cfg, newMockLogger()))
	assert.Equal(t, "unchanged", cfg.AI.APIKey)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "AIza****1234", maskSecret("AIzaSyExample1234"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Empty(t, maskSecret(""))
}
