package server

import (
	"context"
	"net/http"

	"talentsparkle/internal/ai"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/observability"
	"talentsparkle/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createChatHandler proxies one chat round trip to the model. With
// server.autoDispatch the resulting actions are applied before responding.
func (s *Server) createChatHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("talentsparkle.api").Start(r.Context(), "api.chat")
		defer span.End()

		var req types.ChatRequest
		if err := parseJSONRequest(r, &req, chatRequestSchema); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if s.Backend.Chat == nil {
			writeErrorResponse(w, "AI service unavailable", "no AI provider is configured", http.StatusServiceUnavailable)
			return
		}

		span.SetAttributes(
			attribute.Int("request.messages", len(req.Messages)),
			attribute.Bool("request.audio", req.AudioData != ""),
		)

		metrics := om.GetMetrics()
		var resp types.ChatResponse
		err := metrics.TrackAIOperationWithTokens(ctx, "chat", func(ctx context.Context) *observability.AIOperationResult {
			out, usage, chatErr := s.Backend.Chat.Respond(ctx, req)
			resp = out
			result := &observability.AIOperationResult{
				Error:      chatErr,
				TokenUsage: (*observability.TokenUsage)(usage),
			}
			for _, call := range out.FunctionCalls {
				result.ToolCalls = append(result.ToolCalls, call.Name)
			}
			return result
		}, om)
		if err != nil {
			span.RecordError(err)
			if appErr, ok := errors.AsAppError(err); ok && appErr.Type == errors.ErrorTypeValidation {
				writeAppError(w, err)
				return
			}
			s.Logger.LogError(err, "Chat request failed")
			writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
			return
		}

		if s.AutoDispatch && s.Backend.Dispatcher != nil && len(resp.FunctionResults) > 0 {
			results, err := ai.ActionResults(resp)
			if err != nil {
				span.RecordError(err)
				writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
				return
			}
			resp.Outcomes = s.Backend.Dispatcher.DispatchAll(ctx, results)
		}

		span.SetAttributes(
			attribute.Int("response.function_calls", len(resp.FunctionCalls)),
			attribute.Int("response.outcomes", len(resp.Outcomes)),
		)
		writeJSON(w, http.StatusOK, resp)
	}
}

// createActionsHandler applies action results submitted by a client that
// ran the chat proxy itself
func (s *Server) createActionsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("talentsparkle.api").Start(r.Context(), "api.actions")
		defer span.End()

		var req ActionsRequest
		if err := parseJSONRequest(r, &req, actionsRequestSchema); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if s.Backend.Dispatcher == nil {
			writeErrorResponse(w, "Dispatcher unavailable", "no store is configured", http.StatusServiceUnavailable)
			return
		}

		span.SetAttributes(attribute.Int("request.actions", len(req.Actions)))
		writeJSON(w, http.StatusOK, ActionsResponse{
			Outcomes: s.Backend.Dispatcher.DispatchAll(ctx, req.Actions),
		})
	}
}
