package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"talentsparkle/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestLimiterManager(t *testing.T) {
	m := NewRateLimiter(60, 2, errors.Discard())
	defer m.Close()

	assert.True(t, m.Allow("ip:1"))
	assert.True(t, m.Allow("ip:1"))
	assert.False(t, m.Allow("ip:1"))
	assert.True(t, m.Allow("ip:2"))

	stats := m.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, 60.0, stats["rate_per_minute"])

	assert.Equal(t, 1, m.RetryAfter())
	slow := NewRateLimiter(2, 1, errors.Discard())
	defer slow.Close()
	assert.Equal(t, 30, slow.RetryAfter())

	m.cleanup(-time.Second)
	assert.Equal(t, 0, m.GetStats()["active_limiters"])
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{name: "api key header", headers: map[string]string{"X-API-Key": "k1"}, byAPIKey: true, byIP: true, want: "api:k1"},
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer k2"}, byAPIKey: true, want: "api:k2"},
		{name: "falls back to ip", byAPIKey: true, byIP: true, want: "ip:192.0.2.1"},
		{name: "ip ignores key", headers: map[string]string{"X-API-Key": "k1"}, byIP: true, want: "ip:192.0.2.1"},
		{name: "disabled", headers: map[string]string{"X-API-Key": "k1"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/jobs", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getRateLimitKey(r, tt.byAPIKey, tt.byIP))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", want: "192.0.2.1"},
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "garbage, 198.51.100.7, 10.0.0.1"}, want: "198.51.100.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.8"}, want: "198.51.100.8"},
		{name: "invalid real ip", headers: map[string]string{"X-Real-IP": "nope"}, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
