package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Request body schemas. Handlers decode into Go types afterwards, so these
// only pin down required fields and the shape of what the types cannot.
var (
	chatRequestSchema = gojsonschema.NewGoLoader(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"messages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"role", "content"},
					"properties": map[string]any{
						"role":    map[string]any{"type": "string"},
						"content": map[string]any{"type": "string"},
					},
				},
			},
			"audioData":     map[string]any{"type": "string"},
			"audioMimeType": map[string]any{"type": "string"},
		},
		"anyOf": []any{
			map[string]any{"required": []any{"messages"}},
			map[string]any{"required": []any{"audioData"}},
		},
	})

	actionsRequestSchema = gojsonschema.NewGoLoader(map[string]any{
		"type":     "object",
		"required": []any{"actions"},
		"properties": map[string]any{
			"actions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"success"},
					"properties": map[string]any{
						"success": map[string]any{"type": "boolean"},
						"action":  map[string]any{"type": "string"},
						"data":    map[string]any{"type": "object"},
						"filters": map[string]any{"type": "object"},
					},
				},
			},
		},
	})

	jobSchema = gojsonschema.NewGoLoader(map[string]any{
		"type":     "object",
		"required": []any{"title"},
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "minLength": 1},
			"location": map[string]any{"enum": []any{"remote", "hybrid", "onsite"}},
			"status":   map[string]any{"enum": []any{"open", "paused", "closed"}},
		},
	})

	jobPatchSchema = gojsonschema.NewGoLoader(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "minLength": 1},
			"location": map[string]any{"enum": []any{"remote", "hybrid", "onsite"}},
			"status":   map[string]any{"enum": []any{"open", "paused", "closed"}},
		},
	})

	stageRequestSchema = gojsonschema.NewGoLoader(map[string]any{
		"type":       "object",
		"required":   []any{"stage"},
		"properties": map[string]any{"stage": map[string]any{"type": "string", "minLength": 1}},
	})

	interviewSchema = gojsonschema.NewGoLoader(map[string]any{
		"type":     "object",
		"required": []any{"candidateId", "jobId", "date"},
		"properties": map[string]any{
			"candidateId": map[string]any{"type": "string", "minLength": 1},
			"jobId":       map[string]any{"type": "string", "minLength": 1},
			"date":        map[string]any{"type": "string", "minLength": 1},
			"duration":    map[string]any{"type": "integer", "minimum": 1},
			"type":        map[string]any{"enum": []any{"phone", "video", "technical", "onsite"}},
		},
	})

	campusDriveSchema = gojsonschema.NewGoLoader(map[string]any{
		"type":     "object",
		"required": []any{"universityId", "scheduledDate"},
		"properties": map[string]any{
			"universityId":  map[string]any{"type": "string", "minLength": 1},
			"scheduledDate": map[string]any{"type": "string", "minLength": 1},
			"jobIds":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	})

	activitySchema = gojsonschema.NewGoLoader(map[string]any{
		"type":     "object",
		"required": []any{"type", "description"},
		"properties": map[string]any{
			"type":        map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
		},
	})
)

// validateBody checks a raw JSON body against schema
func validateBody(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("invalid request body: %s", strings.Join(problems, "; "))
}
