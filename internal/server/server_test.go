package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talentsparkle/internal/ai"
	"talentsparkle/internal/config"
	"talentsparkle/internal/dispatch"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/observability"
	"talentsparkle/internal/store"
	"talentsparkle/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatter struct {
	resp     types.ChatResponse
	err      error
	info     *ai.ModelInfo
	requests []types.ChatRequest
}

func (f *fakeChatter) Respond(_ context.Context, req types.ChatRequest) (types.ChatResponse, *ai.TokenUsage, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return types.ChatResponse{}, nil, f.err
	}
	return f.resp, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (f *fakeChatter) GetModelInfo(context.Context) *ai.ModelInfo {
	return f.info
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	store   *store.Store
	chat    *fakeChatter
}

func testSnapshot() store.Snapshot {
	return store.Snapshot{
		Jobs: []types.Job{
			{ID: "job-1", Title: "Frontend Engineer", Status: types.JobOpen},
			{ID: "job-2", Title: "Data Analyst", Status: types.JobClosed},
		},
		Candidates: []types.Candidate{
			{
				ID:            "1",
				Name:          "Aarav Sharma",
				Email:         "aarav.sharma@email.com",
				AppliedJobIDs: []string{"job-1"},
				CurrentStage:  map[string]types.Stage{"job-1": types.StageApplied},
			},
			{
				ID:            "2",
				Name:          "Diya Patel",
				Email:         "diya.patel@email.com",
				AppliedJobIDs: []string{"job-2"},
				CurrentStage:  map[string]types.Stage{"job-2": types.StageScreening},
			},
		},
	}
}

func newTestEnv(t *testing.T, configure func(*ServerConfig)) *testEnv {
	t.Helper()

	st, err := store.New(context.Background(), store.NewMemoryPersister(), store.Options{
		Keys:   store.KeysWithPrefix("test_"),
		Seed:   testSnapshot,
		Logger: errors.Discard(),
	})
	require.NoError(t, err)

	chat := &fakeChatter{info: &ai.ModelInfo{Name: "gemini-2.5-flash", Available: true}}
	backend := Backend{
		Store:        st,
		Dispatcher:   dispatch.New(st, dispatch.Options{Config: config.DispatchConfig{ResolveNames: true}}),
		Chat:         chat,
		Universities: []types.University{{ID: "uni-1", Name: "IIT Bombay"}},
		Templates:    []types.MessageTemplate{{ID: "template-1", Name: "Outreach"}},
	}

	cfg := ServerConfig{Version: "test"}
	if configure != nil {
		configure(&cfg)
	}
	srv := NewServer(&config.Config{}, cfg, backend, errors.Discard())
	if srv.RateLimiter != nil {
		t.Cleanup(srv.RateLimiter.Close)
	}

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	require.NoError(t, err)

	return &testEnv{srv: srv, handler: srv.Handler(om), store: st, chat: chat}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "talentsparkle", body["service"])

	env.chat.info = &ai.ModelInfo{Name: "gemini-2.5-flash", Available: false, Error: "circuit open"}
	rec = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rec)["status"])
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	storeStats := body["store"].(map[string]any)
	assert.Equal(t, float64(2), storeStats["jobs"])
	assert.Equal(t, float64(2), storeStats["candidates"])
	assert.Equal(t, map[string]any{"enabled": false}, body["rate_limiting"])
}

func TestCORS(t *testing.T) {
	t.Run("preflight skips auth", func(t *testing.T) {
		env := newTestEnv(t, func(c *ServerConfig) { c.APIKeys = []string{"secret-key-123"} })

		rec := env.do(t, http.MethodOptions, "/api/chat", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, defaultAllowedHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("restricted origins", func(t *testing.T) {
		env := newTestEnv(t, func(c *ServerConfig) {
			c.CORS.AllowedOrigins = []string{"https://app.example.com"}
		})

		rec := env.do(t, http.MethodGet, "/api/jobs", "", "Origin", "https://app.example.com")
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = env.do(t, http.MethodGet, "/api/jobs", "", "Origin", "https://evil.example.com")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		headers []string
		want    int
	}{
		{name: "no keys configured", want: http.StatusOK},
		{name: "missing key", keys: []string{"secret-key-123"}, want: http.StatusUnauthorized},
		{name: "wrong key", keys: []string{"secret-key-123"}, headers: []string{"X-API-Key", "nope"}, want: http.StatusUnauthorized},
		{name: "x-api-key", keys: []string{"secret-key-123"}, headers: []string{"X-API-Key", "secret-key-123"}, want: http.StatusOK},
		{name: "bearer token", keys: []string{"secret-key-123"}, headers: []string{"Authorization", "Bearer secret-key-123"}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(c *ServerConfig) { c.APIKeys = tt.keys })
			rec := env.do(t, http.MethodGet, "/api/jobs", "", tt.headers...)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("health stays public", func(t *testing.T) {
		env := newTestEnv(t, func(c *ServerConfig) { c.APIKeys = []string{"secret-key-123"} })
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "").Code)
	})
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 2, ByIP: true}
	})

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/jobs", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/jobs", "").Code)
	limited := env.do(t, http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// another client has its own bucket
	rec := env.do(t, http.MethodGet, "/api/jobs", "", "X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	env := newTestEnv(t, func(c *ServerConfig) { c.MaxRequestSize = 32 })

	body := `{"title": "` + strings.Repeat("x", 64) + `"}`
	rec := env.do(t, http.MethodPost, "/api/jobs", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestChatHandler(t *testing.T) {
	createJob := ai.ExecuteFunction("create_job", map[string]any{
		"title":      "Platform Engineer",
		"department": "Infrastructure",
		"location":   "Pune",
	})
	content, err := json.Marshal(createJob)
	require.NoError(t, err)

	toolResponse := types.ChatResponse{
		Message:         "Function executed",
		FunctionCalls:   []types.FunctionCall{{ID: "call-1", Name: "create_job"}},
		FunctionResults: []types.FunctionResult{{ToolCallID: "call-1", Role: "tool", Name: "create_job", Content: string(content)}},
	}

	t.Run("proxies the model reply", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.chat.resp = toolResponse

		rec := env.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"post a platform role"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[types.ChatResponse](t, rec)
		assert.Equal(t, "Function executed", got.Message)
		require.Len(t, got.FunctionResults, 1)
		assert.Empty(t, got.Outcomes)
		assert.Len(t, env.store.Jobs(), 2, "nothing is applied without auto-dispatch")
		require.Len(t, env.chat.requests, 1)
		assert.Equal(t, "post a platform role", env.chat.requests[0].Messages[0].Content)
	})

	t.Run("auto-dispatch applies actions", func(t *testing.T) {
		env := newTestEnv(t, func(c *ServerConfig) { c.AutoDispatch = true })
		env.chat.resp = toolResponse

		rec := env.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"post a platform role"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[types.ChatResponse](t, rec)
		require.Len(t, got.Outcomes, 1)
		assert.True(t, got.Outcomes[0].Applied)
		assert.Equal(t, "/jobs", got.Outcomes[0].Navigate)
		assert.Equal(t, "Platform Engineer", env.store.Jobs()[0].Title)
	})

	t.Run("upstream failure", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.chat.err = stderrors.New("model unavailable")

		rec := env.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"model unavailable"}`, rec.Body.String())
	})

	t.Run("bad audio", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.chat.err = errors.NewValidationError(errors.ErrCodeAudioDecode, "audioData is not valid base64", nil)

		rec := env.do(t, http.MethodPost, "/api/chat", `{"audioData":"%%%"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		got := decode[types.ErrorResponse](t, rec)
		assert.Equal(t, "Invalid request", got.Error)
		assert.Equal(t, errors.ErrCodeAudioDecode, got.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		env := newTestEnv(t, nil)

		rec := env.do(t, http.MethodPost, "/api/chat", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, env.chat.requests)
	})

	t.Run("no provider", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.srv.Backend.Chat = nil

		rec := env.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestActionsHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"actions":[
		{"success":true,"action":"update_stage","data":{"candidateName":"aarav","stage":"Screening"},"message":"Updated"},
		{"success":true,"action":"update_stage","data":{"candidateName":"Nobody","stage":"Offer"}},
		{"success":false,"message":"Function foo not implemented"}
	]}`
	rec := env.do(t, http.MethodPost, "/api/actions", body)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[ActionsResponse](t, rec)
	require.Len(t, got.Outcomes, 3)
	assert.True(t, got.Outcomes[0].Applied)
	assert.False(t, got.Outcomes[1].Applied)
	assert.Contains(t, got.Outcomes[1].Error, errors.ErrCodeNotFound)
	assert.False(t, got.Outcomes[2].Applied)

	c, ok := env.store.GetCandidateByID("1")
	require.True(t, ok)
	assert.Equal(t, types.StageScreening, c.StageFor("job-1"))

	rec = env.do(t, http.MethodPost, "/api/actions", `{"actions":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/jobs", `{"title":"SRE","city":"Bengaluru","department":"Platform"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[types.Job](t, rec)
	assert.True(t, strings.HasPrefix(created.ID, "job-"))
	assert.Equal(t, types.JobOpen, created.Status)
	assert.Equal(t, types.LocationRemote, created.Location)
	assert.Equal(t, time.Now().Format(time.DateOnly), created.PostedDate)

	rec = env.do(t, http.MethodGet, "/api/jobs/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SRE", decode[types.Job](t, rec).Title)

	rec = env.do(t, http.MethodPatch, "/api/jobs/"+created.ID, `{"title":"Senior SRE","status":"paused"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[types.Job](t, rec)
	assert.Equal(t, "Senior SRE", patched.Title)
	assert.Equal(t, types.JobPaused, patched.Status)
	assert.Equal(t, "Bengaluru", patched.City)

	rec = env.do(t, http.MethodGet, "/api/jobs?status=open", "")
	require.Equal(t, http.StatusOK, rec.Code)
	open := decode[[]types.Job](t, rec)
	require.Len(t, open, 1)
	assert.Equal(t, "job-1", open[0].ID)

	rec = env.do(t, http.MethodDelete, "/api/jobs/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/jobs/"+created.ID, "").Code)

	activities := env.store.Activities(2)
	assert.Equal(t, types.ActivityJobDeleted, activities[0].Type)
	assert.Equal(t, types.ActivityJobPosted, activities[1].Type)

	t.Run("rejects", func(t *testing.T) {
		tests := []struct {
			name   string
			method string
			path   string
			body   string
			want   int
		}{
			{"unknown status filter", http.MethodGet, "/api/jobs?status=archived", "", http.StatusBadRequest},
			{"missing title", http.MethodPost, "/api/jobs", `{"city":"Pune"}`, http.StatusBadRequest},
			{"bad location", http.MethodPost, "/api/jobs", `{"title":"SRE","location":"moon"}`, http.StatusBadRequest},
			{"duplicate id", http.MethodPost, "/api/jobs", `{"id":"job-1","title":"Copy"}`, http.StatusConflict},
			{"patch unknown job", http.MethodPatch, "/api/jobs/job-404", `{"title":"x"}`, http.StatusNotFound},
			{"delete unknown job", http.MethodDelete, "/api/jobs/job-404", "", http.StatusNotFound},
			{"candidates of unknown job", http.MethodGet, "/api/jobs/job-404/candidates", "", http.StatusNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, env.do(t, tt.method, tt.path, tt.body).Code)
			})
		}
	})
}

func TestCandidateEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/jobs/job-1/candidates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	forJob := decode[[]types.Candidate](t, rec)
	require.Len(t, forJob, 1)
	assert.Equal(t, "Aarav Sharma", forJob[0].Name)

	rec = env.do(t, http.MethodGet, "/api/candidates?jobId=job-2", "")
	assert.Equal(t, "Diya Patel", decode[[]types.Candidate](t, rec)[0].Name)

	assert.Len(t, decode[[]types.Candidate](t, env.do(t, http.MethodGet, "/api/candidates", "")), 2)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/candidates/99", "").Code)

	tests := []struct {
		name string
		path string
		body string
		want int
		code string
	}{
		{"display spelling", "/api/candidates/1/stages/job-1", `{"stage":"Phone Screen"}`, http.StatusOK, ""},
		{"new application", "/api/candidates/1/stages/job-2", `{"stage":"applied"}`, http.StatusOK, ""},
		{"unknown stage", "/api/candidates/1/stages/job-1", `{"stage":"ghosted"}`, http.StatusBadRequest, errors.ErrCodeInvalidAction},
		{"missing stage", "/api/candidates/1/stages/job-1", `{}`, http.StatusBadRequest, ""},
		{"unknown candidate", "/api/candidates/99/stages/job-1", `{"stage":"offer"}`, http.StatusNotFound, errors.ErrCodeNotFound},
		{"unknown job", "/api/candidates/1/stages/job-404", `{"stage":"offer"}`, http.StatusNotFound, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				return
			}
			got := decode[types.ErrorResponse](t, rec)
			assert.Equal(t, tt.code, got.Code)
			assert.NotEmpty(t, got.Error)
			assert.NotEqual(t, got.Code, got.Error, "error carries a title, not the code")
		})
	}

	c, _ := env.store.GetCandidateByID("1")
	assert.Equal(t, types.StagePhoneScreen, c.StageFor("job-1"))
	assert.True(t, c.AppliedTo("job-2"))
}

func TestInterviewAndCampusDriveEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/interviews", `{"candidateId":"1","jobId":"job-1","date":"2025-11-03"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	iv := decode[types.Interview](t, rec)
	assert.Equal(t, 60, iv.Duration)
	assert.Equal(t, types.InterviewVideo, iv.Type)
	assert.Equal(t, types.InterviewScheduled, iv.Status)
	assert.Equal(t, []string{}, iv.Interviewers)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/interviews", `{"candidateId":"1"}`).Code)
	assert.Len(t, decode[[]types.Interview](t, env.do(t, http.MethodGet, "/api/interviews", "")), 1)

	rec = env.do(t, http.MethodPost, "/api/campus-drives", `{"universityId":"uni-1","scheduledDate":"2025-12-01","jobIds":["job-1"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	drive := decode[types.CampusDrive](t, rec)
	assert.Equal(t, types.DriveScheduled, drive.Status)
	assert.Equal(t, "2025-12-01", drive.Deadline)

	assert.Len(t, decode[[]types.CampusDrive](t, env.do(t, http.MethodGet, "/api/campus-drives", "")), 1)
	assert.Equal(t, types.ActivityCampusDriveCreated, env.store.Activities(1)[0].Type)
}

func TestActivityEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, "[]\n", env.do(t, http.MethodGet, "/api/activities", "").Body.String())

	for _, d := range []string{"first", "second"} {
		rec := env.do(t, http.MethodPost, "/api/activities", `{"type":"note","description":"`+d+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/activities?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]types.ActivityLogEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Description)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/activities?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/activities", `{"type":"note"}`).Code)
}

func TestReferenceDataEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	unis := decode[[]types.University](t, env.do(t, http.MethodGet, "/api/universities", ""))
	assert.Equal(t, "IIT Bombay", unis[0].Name)

	templates := decode[[]types.MessageTemplate](t, env.do(t, http.MethodGet, "/api/templates", ""))
	assert.Equal(t, "template-1", templates[0].ID)

	env.srv.Backend.Templates = nil
	assert.Equal(t, "[]\n", env.do(t, http.MethodGet, "/api/templates", "").Body.String())
}

func TestContentTypeRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"title":"SRE"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "content-type")
}
