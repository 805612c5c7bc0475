package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"talentsparkle/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ChatResponse", &ChatTextFormatter{})
	registry.RegisterFormatter("markdown", "ChatResponse", &ChatMarkdownFormatter{})
	registry.RegisterFormatter("text", "Activities", &ActivityTextFormatter{})
	registry.RegisterFormatter("markdown", "Activities", &ActivityMarkdownFormatter{})
	registry.RegisterFormatter("text", "Jobs", &JobsTextFormatter{})
	registry.RegisterFormatter("markdown", "Jobs", &JobsMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in sorted order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ChatResponse:
		return "ChatResponse"
	case []types.ActivityLogEntry:
		return "Activities"
	case []types.Job:
		return "Jobs"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ChatTextFormatter prints the assistant reply and what each action did
type ChatTextFormatter struct{}

func (ctf *ChatTextFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.ChatResponse)
	if !ok {
		return "", fmt.Errorf("expected ChatResponse, got %T", data)
	}

	var output strings.Builder
	output.WriteString(resp.Message)
	output.WriteString("\n")

	if len(resp.FunctionCalls) > 0 {
		output.WriteString("\n=== TOOL CALLS ===\n")
		for i, call := range resp.FunctionCalls {
			args, _ := json.Marshal(call.Arguments)
			fmt.Fprintf(&output, "%d. %s %s\n", i+1, call.Name, args)
		}
	}

	if len(resp.Outcomes) > 0 {
		output.WriteString("\n=== ACTIONS ===\n")
		for _, o := range resp.Outcomes {
			fmt.Fprintf(&output, "- %s: %s\n", o.Action, outcomeSummary(o))
		}
	}

	return output.String(), nil
}

func (ctf *ChatTextFormatter) SupportedType() string {
	return "ChatResponse"
}

// ChatMarkdownFormatter renders a chat response as markdown
type ChatMarkdownFormatter struct{}

func (cmf *ChatMarkdownFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.ChatResponse)
	if !ok {
		return "", fmt.Errorf("expected ChatResponse, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Assistant\n\n")
	output.WriteString(resp.Message)
	output.WriteString("\n")

	if len(resp.FunctionCalls) > 0 {
		output.WriteString("\n## Tool Calls\n\n")
		output.WriteString("| Tool | Arguments |\n|---|---|\n")
		for _, call := range resp.FunctionCalls {
			args, _ := json.Marshal(call.Arguments)
			fmt.Fprintf(&output, "| `%s` | `%s` |\n", call.Name, args)
		}
	}

	if len(resp.Outcomes) > 0 {
		output.WriteString("\n## Actions\n\n")
		for _, o := range resp.Outcomes {
			fmt.Fprintf(&output, "- **%s**: %s\n", o.Action, outcomeSummary(o))
		}
	}

	return output.String(), nil
}

func (cmf *ChatMarkdownFormatter) SupportedType() string {
	return "ChatResponse"
}

func outcomeSummary(o types.ActionOutcome) string {
	switch {
	case o.Error != "":
		return "failed (" + o.Error + ")"
	case !o.Applied:
		return "skipped"
	}

	parts := []string{"applied"}
	if o.EntityID != "" {
		parts = append(parts, "id "+o.EntityID)
	}
	if o.Navigate != "" {
		parts = append(parts, "open "+o.Navigate)
	}
	return strings.Join(parts, ", ")
}

// ActivityTextFormatter prints the activity log newest first
type ActivityTextFormatter struct{}

func (atf *ActivityTextFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.ActivityLogEntry)
	if !ok {
		return "", fmt.Errorf("expected []ActivityLogEntry, got %T", data)
	}
	if len(entries) == 0 {
		return "No activity recorded.\n", nil
	}

	var output strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&output, "%s  %-22s %s\n", e.Timestamp.Format(time.DateTime), e.Type, e.Description)
	}
	return output.String(), nil
}

func (atf *ActivityTextFormatter) SupportedType() string {
	return "Activities"
}

// ActivityMarkdownFormatter renders the activity log as a table
type ActivityMarkdownFormatter struct{}

func (amf *ActivityMarkdownFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.ActivityLogEntry)
	if !ok {
		return "", fmt.Errorf("expected []ActivityLogEntry, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Recent Activity\n\n")
	output.WriteString("| When | Type | Description |\n|---|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&output, "| %s | %s | %s |\n", e.Timestamp.Format(time.DateTime), e.Type, e.Description)
	}
	return output.String(), nil
}

func (amf *ActivityMarkdownFormatter) SupportedType() string {
	return "Activities"
}

// JobsTextFormatter prints one line per job
type JobsTextFormatter struct{}

func (jtf *JobsTextFormatter) Format(data any) (string, error) {
	jobs, ok := data.([]types.Job)
	if !ok {
		return "", fmt.Errorf("expected []Job, got %T", data)
	}
	if len(jobs) == 0 {
		return "No jobs found.\n", nil
	}

	var output strings.Builder
	for _, j := range jobs {
		fmt.Fprintf(&output, "%-16s %-7s %-36s %s (%s)  %d applicants\n",
			j.ID, j.Status, j.Title, jobLocation(j), j.SalaryRange, j.ApplicantCount)
	}
	return output.String(), nil
}

func (jtf *JobsTextFormatter) SupportedType() string {
	return "Jobs"
}

// JobsMarkdownFormatter renders jobs as a table
type JobsMarkdownFormatter struct{}

func (jmf *JobsMarkdownFormatter) Format(data any) (string, error) {
	jobs, ok := data.([]types.Job)
	if !ok {
		return "", fmt.Errorf("expected []Job, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Jobs\n\n")
	output.WriteString("| ID | Title | Status | Location | Salary | Applicants |\n|---|---|---|---|---|---|\n")
	for _, j := range jobs {
		fmt.Fprintf(&output, "| %s | %s | %s | %s | %s | %d |\n",
			j.ID, j.Title, j.Status, jobLocation(j), j.SalaryRange, j.ApplicantCount)
	}
	return output.String(), nil
}

func (jmf *JobsMarkdownFormatter) SupportedType() string {
	return "Jobs"
}

func jobLocation(j types.Job) string {
	if j.City == "" {
		return string(j.Location)
	}
	return fmt.Sprintf("%s, %s", j.City, j.Location)
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
