// Package dispatch applies the actions returned by the chat proxy to the
// recruiting store.
package dispatch

import (
	"fmt"
	"strings"

	"talentsparkle/internal/errors"
	"talentsparkle/internal/types"

	"github.com/go-viper/mapstructure/v2"
	"github.com/xeipuuv/gojsonschema"
)

// Action is one parsed chat action. The set of implementations is closed.
type Action interface {
	Name() string
	isAction()
}

// Navigate asks the client to open a page
type Navigate struct {
	Action  string
	Route   string
	Filters map[string]any
}

type AddInterview struct {
	CandidateName string `mapstructure:"candidateName"`
	JobTitle      string `mapstructure:"jobTitle"`
	Date          string `mapstructure:"date"`
	Time          string `mapstructure:"time"`
}

type AddJob struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Location    string `mapstructure:"location"`
	Department  string `mapstructure:"department"`
}

type UpdateStage struct {
	CandidateName string `mapstructure:"candidateName"`
	JobTitle      string `mapstructure:"jobTitle"`
	Stage         string `mapstructure:"stage"`
}

type AddCampusDrive struct {
	University string   `mapstructure:"university"`
	Date       string   `mapstructure:"date"`
	Positions  []string `mapstructure:"positions"`
}

type SendEmail struct {
	Recipient string `mapstructure:"recipient"`
	Subject   string `mapstructure:"subject"`
	Message   string `mapstructure:"message"`
}

type ViewCandidate struct {
	CandidateName string
}

func (n Navigate) Name() string { return n.Action }
func (AddInterview) Name() string { return types.ActionAddInterview }
func (AddJob) Name() string { return types.ActionAddJob }
func (UpdateStage) Name() string { return types.ActionUpdateStage }
func (AddCampusDrive) Name() string { return types.ActionAddCampusDrive }
func (SendEmail) Name() string { return types.ActionSendEmail }
func (ViewCandidate) Name() string { return types.ActionViewCandidate }
func (Navigate) isAction() {}
func (AddInterview) isAction() {}
func (AddJob) isAction() {}
func (UpdateStage) isAction() {}
func (AddCampusDrive) isAction() {}
func (SendEmail) isAction() {}
func (ViewCandidate) isAction() {}

var routes = map[string]string{
	types.ActionNavigateCandidates: "/candidates",
	types.ActionNavigateJobs:       "/jobs",
	types.ActionNavigateInterviews: "/interviews",
	types.ActionNavigateAnalytics:  "/analytics",
}

var stringOrNumber = map[string]any{"type": []string{"string", "number"}}

// payloadSchemas only constrain field types. Missing fields are defaulted
// by the dispatcher rather than rejected.
var payloadSchemas = map[string]map[string]any{
	types.ActionAddInterview: objectSchema(map[string]any{
		"candidateName": stringOrNumber,
		"jobTitle":      stringOrNumber,
		"date":          stringOrNumber,
		"time":          stringOrNumber,
	}),
	types.ActionAddJob: objectSchema(map[string]any{
		"title":       stringOrNumber,
		"description": stringOrNumber,
		"location":    stringOrNumber,
		"department":  stringOrNumber,
	}),
	types.ActionUpdateStage: objectSchema(map[string]any{
		"candidateName": stringOrNumber,
		"jobTitle":      stringOrNumber,
		"stage":         map[string]any{"type": "string"},
	}),
	types.ActionAddCampusDrive: objectSchema(map[string]any{
		"university": stringOrNumber,
		"date":       stringOrNumber,
		"positions": map[string]any{
			"type":  []string{"array", "string"},
			"items": stringOrNumber,
		},
	}),
	types.ActionSendEmail: objectSchema(map[string]any{
		"recipient": stringOrNumber,
		"subject":   stringOrNumber,
		"message":   stringOrNumber,
	}),
}

func objectSchema(properties map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

// Parse converts an action result into its typed Action. Unknown names
// yield UNKNOWN_ACTION; payloads of the wrong shape yield SCHEMA_VIOLATION.
func Parse(r types.ActionResult) (Action, error) {
	if route, ok := routes[r.Action]; ok {
		return Navigate{Action: r.Action, Route: route, Filters: r.Filters}, nil
	}

	switch r.Action {
	case types.ActionViewCandidate:
		name := r.CandidateName
		if name == "" {
			if v, ok := r.Data["candidateName"].(string); ok {
				name = v
			}
		}
		return ViewCandidate{CandidateName: name}, nil
	case types.ActionAddInterview:
		return decode[AddInterview](r)
	case types.ActionAddJob:
		return decode[AddJob](r)
	case types.ActionUpdateStage:
		return decode[UpdateStage](r)
	case types.ActionAddCampusDrive:
		return decode[AddCampusDrive](r)
	case types.ActionSendEmail:
		return decode[SendEmail](r)
	}

	return nil, errors.NewValidationError(errors.ErrCodeUnknownAction,
		fmt.Sprintf("unknown action %q", r.Action), nil)
}

func decode[T Action](r types.ActionResult) (Action, error) {
	var out T
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}

	if err := validatePayload(r.Action, data); err != nil {
		return nil, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, errors.NewInternalError("DECODER_INIT_FAILED", "failed to build payload decoder", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeSchemaViolation,
			fmt.Sprintf("invalid %s payload", r.Action), err)
	}
	return out, nil
}

func validatePayload(action string, data map[string]any) error {
	schema, ok := payloadSchemas[action]
	if !ok {
		return nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeSchemaViolation,
			fmt.Sprintf("cannot validate %s payload", action), err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return errors.NewValidationError(errors.ErrCodeSchemaViolation,
			fmt.Sprintf("invalid %s payload: %s", action, strings.Join(problems, "; ")), nil)
	}
	return nil
}
