package ai

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"testing"

	"talentsparkle/internal/errors"
	"talentsparkle/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply *ChatReply
	usage *TokenUsage
	err   error
	got   ChatInput
	calls int
}

func (f *fakeProvider) Chat(_ context.Context, input ChatInput) (*ChatReply, *TokenUsage, error) {
	f.calls++
	f.got = input
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.reply, f.usage, nil
}

func (f *fakeProvider) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Name: "fake", Available: true}
}

func (f *fakeProvider) Close() error { return nil }

func userSays(text string) types.ChatRequest {
	return types.ChatRequest{Messages: []types.ChatMessage{{Role: "user", Content: text}}}
}

func TestRespondPlainText(t *testing.T) {
	p := &fakeProvider{reply: &ChatReply{Text: "Hello! How can I help?"}, usage: &TokenUsage{TotalTokens: 12}}
	svc := NewServiceWithProvider(p, "audio/webm", errors.Discard())

	resp, usage, err := svc.Respond(context.Background(), userSays("hi"))
	require.NoError(t, err)

	assert.Equal(t, "Hello! How can I help?", resp.Message)
	assert.Empty(t, resp.FunctionCalls)
	assert.Empty(t, resp.FunctionResults)
	assert.Equal(t, int64(12), usage.TotalTokens)
}

func TestRespondEmptyReply(t *testing.T) {
	svc := NewServiceWithProvider(&fakeProvider{reply: &ChatReply{}}, "", errors.Discard())

	resp, _, err := svc.Respond(context.Background(), userSays("hi"))
	require.NoError(t, err)
	assert.Equal(t, "No response from AI", resp.Message)
}

func TestRespondWithToolCalls(t *testing.T) {
	p := &fakeProvider{reply: &ChatReply{FunctionCalls: []types.FunctionCall{
		{ID: "call_0", Name: ToolAddCampusDrive, Arguments: map[string]any{"university": "IIT Delhi", "date": "2025-12-01", "positions": []any{"job-3"}}},
		{ID: "call_1", Name: "fly_to_moon", Arguments: map[string]any{}},
	}}}
	svc := NewServiceWithProvider(p, "", errors.Discard())

	resp, _, err := svc.Respond(context.Background(), userSays("plan a drive"))
	require.NoError(t, err)

	assert.Equal(t, "Function executed", resp.Message)
	require.Len(t, resp.FunctionCalls, 2)
	require.Len(t, resp.FunctionResults, 2)

	first := resp.FunctionResults[0]
	assert.Equal(t, "call_0", first.ToolCallID)
	assert.Equal(t, "tool", first.Role)
	assert.Equal(t, ToolAddCampusDrive, first.Name)
	assert.JSONEq(t, `{
		"success": true,
		"action": "add_campus_drive",
		"data": {"university": "IIT Delhi", "date": "2025-12-01", "positions": ["job-3"]},
		"message": "Campus drive scheduled at IIT Delhi on 2025-12-01"
	}`, first.Content)

	results, err := ActionResults(resp)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Function fly_to_moon not implemented", results[1].Message)
}

func TestRespondKeepsModelTextWithToolCalls(t *testing.T) {
	p := &fakeProvider{reply: &ChatReply{
		Text:          "Opening the jobs page.",
		FunctionCalls: []types.FunctionCall{{ID: "c", Name: ToolGetJobListings}},
	}}
	svc := NewServiceWithProvider(p, "", errors.Discard())

	resp, _, err := svc.Respond(context.Background(), userSays("show jobs"))
	require.NoError(t, err)
	assert.Equal(t, "Opening the jobs page.", resp.Message)
}

func TestRespondAudio(t *testing.T) {
	p := &fakeProvider{reply: &ChatReply{Text: "ok"}}
	svc := NewServiceWithProvider(p, "audio/ogg", errors.Discard())

	audio := []byte{0x1a, 0x45, 0xdf, 0xa3}
	_, _, err := svc.Respond(context.Background(), types.ChatRequest{
		AudioData: base64.StdEncoding.EncodeToString(audio),
	})
	require.NoError(t, err)
	assert.Equal(t, audio, p.got.Audio)
	assert.Equal(t, "audio/ogg", p.got.AudioMIMEType)
}

func TestRespondValidation(t *testing.T) {
	p := &fakeProvider{reply: &ChatReply{}}
	svc := NewServiceWithProvider(p, "", errors.Discard())

	_, _, err := svc.Respond(context.Background(), types.ChatRequest{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, _, err = svc.Respond(context.Background(), types.ChatRequest{AudioData: "%%%not-base64"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeAudioDecode))

	assert.Zero(t, p.calls, "invalid requests must not reach the model")
}

func TestRespondProviderError(t *testing.T) {
	upstream := errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate chat response", stderrors.New("503"))
	svc := NewServiceWithProvider(&fakeProvider{err: upstream}, "", errors.Discard())

	_, _, err := svc.Respond(context.Background(), userSays("hi"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAIServiceFailed))
}
