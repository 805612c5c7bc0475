package ai

import (
	"fmt"
	"maps"

	"talentsparkle/internal/types"
)

// ExecuteFunction turns a model tool call into the action result handed to
// the dispatcher. Unknown names produce an unsuccessful result.
func ExecuteFunction(name string, args map[string]any) types.ActionResult {
	args = maps.Clone(args)
	if args == nil {
		args = map[string]any{}
	}

	switch name {
	case ToolSearchCandidates:
		return types.ActionResult{
			Success: true,
			Message: "Found candidates matching: " + argOr(args, "query", "all"),
			Action:  types.ActionNavigateCandidates,
			Filters: args,
		}

	case ToolScheduleInterview:
		return types.ActionResult{
			Success: true,
			Message: fmt.Sprintf("Interview scheduled for %s on %s at %s",
				argOr(args, "candidateName", ""), argOr(args, "date", ""), argOr(args, "time", "")),
			Action: types.ActionAddInterview,
			Data:   args,
		}

	case ToolGetJobListings:
		return types.ActionResult{
			Success: true,
			Message: "Retrieved job listings",
			Action:  types.ActionNavigateJobs,
			Filters: args,
		}

	case ToolCreateJob:
		return types.ActionResult{
			Success: true,
			Message: "Job created: " + argOr(args, "title", ""),
			Action:  types.ActionAddJob,
			Data:    args,
		}

	case ToolGetCandidateProfile:
		candidate := argOr(args, "candidateName", "")
		return types.ActionResult{
			Success:       true,
			Message:       "Retrieved profile for " + candidate,
			Action:        types.ActionViewCandidate,
			CandidateName: candidate,
		}

	case ToolUpdateCandidateStage:
		return types.ActionResult{
			Success: true,
			Message: fmt.Sprintf("Updated %s stage to %s", argOr(args, "candidateName", ""), argOr(args, "stage", "")),
			Action:  types.ActionUpdateStage,
			Data:    args,
		}

	case ToolSendEmail:
		return types.ActionResult{
			Success: true,
			Message: "Email sent to " + argOr(args, "recipient", ""),
			Action:  types.ActionSendEmail,
			Data:    args,
		}

	case ToolGetAnalytics:
		return types.ActionResult{
			Success: true,
			Message: fmt.Sprintf("Analytics for %s over %s", argOr(args, "metric", ""), argOr(args, "period", "month")),
			Action:  types.ActionNavigateAnalytics,
			Filters: args,
		}

	case ToolGetUpcomingInterviews:
		return types.ActionResult{
			Success: true,
			Message: fmt.Sprintf("Retrieved interviews for next %s days", argOr(args, "days", "7")),
			Action:  types.ActionNavigateInterviews,
		}

	case ToolAddCampusDrive:
		return types.ActionResult{
			Success: true,
			Message: fmt.Sprintf("Campus drive scheduled at %s on %s", argOr(args, "university", ""), argOr(args, "date", "")),
			Action:  types.ActionAddCampusDrive,
			Data:    args,
		}

	default:
		return types.ActionResult{
			Success: false,
			Message: fmt.Sprintf("Function %s not implemented", name),
		}
	}
}

// argOr renders args[key] for a message, or fallback when it is missing or empty
func argOr(args map[string]any, key, fallback string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return fallback
		}
		return t
	case float64:
		if t == 0 {
			return fallback
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}
