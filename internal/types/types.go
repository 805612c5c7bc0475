package types

// ChatMessage is one turn of the transcript sent by the client
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Messages      []ChatMessage `json:"messages"`
	AudioData     string        `json:"audioData,omitempty"`     // base64
	AudioMIMEType string        `json:"audioMimeType,omitempty"` // overrides ai.audioMimeType
}

// FunctionCall is a tool invocation requested by the model
type FunctionCall struct {
	ID        string         `json:"-"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// FunctionResult carries an ActionResult serialized as a JSON string in Content
type FunctionResult struct {
	ToolCallID string `json:"tool_call_id"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	Content    string `json:"content"`
}

// Action names carried by ActionResult.Action
const (
	ActionNavigateCandidates = "navigate_to_candidates"
	ActionNavigateJobs       = "navigate_to_jobs"
	ActionNavigateInterviews = "navigate_to_interviews"
	ActionNavigateAnalytics  = "navigate_to_analytics"
	ActionAddInterview       = "add_interview"
	ActionAddJob             = "add_job"
	ActionUpdateStage        = "update_stage"
	ActionAddCampusDrive     = "add_campus_drive"
	ActionSendEmail          = "send_email"
	ActionViewCandidate      = "view_candidate"
)

// ActionResult is the payload the dispatcher consumes
type ActionResult struct {
	Success       bool           `json:"success"`
	Action        string         `json:"action,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Filters       map[string]any `json:"filters,omitempty"`
	CandidateName string         `json:"candidateName,omitempty"`
	Message       string         `json:"message"`
}

// ActionOutcome reports what dispatching one ActionResult did
type ActionOutcome struct {
	Action   string `json:"action"`
	Applied  bool   `json:"applied"`
	Navigate string `json:"navigate,omitempty"`
	EntityID string `json:"entityId,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ChatResponse is the body returned by POST /api/chat. Outcomes is only
// populated when the server applies actions itself.
type ChatResponse struct {
	Message         string           `json:"message"`
	FunctionCalls   []FunctionCall   `json:"functionCalls,omitempty"`
	FunctionResults []FunctionResult `json:"functionResults,omitempty"`
	Outcomes        []ActionOutcome  `json:"outcomes,omitempty"`
}

// ErrorResponse is written for failed requests. Error is a short human
// title; Code carries the machine-readable error code when there is one.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
