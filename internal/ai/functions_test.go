package ai

import (
	"testing"

	"talentsparkle/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestExecuteFunction(t *testing.T) {
	tests := []struct {
		name        string
		tool        string
		args        map[string]any
		wantAction  string
		wantMessage string
		wantData    bool
		wantFilters bool
	}{
		{
			name:        "search with query",
			tool:        ToolSearchCandidates,
			args:        map[string]any{"query": "react", "minExperience": 3.0},
			wantAction:  types.ActionNavigateCandidates,
			wantMessage: "Found candidates matching: react",
			wantFilters: true,
		},
		{
			name:        "search without query",
			tool:        ToolSearchCandidates,
			args:        map[string]any{},
			wantAction:  types.ActionNavigateCandidates,
			wantMessage: "Found candidates matching: all",
			wantFilters: true,
		},
		{
			name:        "schedule interview",
			tool:        ToolScheduleInterview,
			args:        map[string]any{"candidateName": "Diya Patel", "jobTitle": "Data Analyst", "date": "2025-11-03", "time": "10:00"},
			wantAction:  types.ActionAddInterview,
			wantMessage: "Interview scheduled for Diya Patel on 2025-11-03 at 10:00",
			wantData:    true,
		},
		{
			name:        "job listings",
			tool:        ToolGetJobListings,
			args:        map[string]any{"status": "active"},
			wantAction:  types.ActionNavigateJobs,
			wantMessage: "Retrieved job listings",
			wantFilters: true,
		},
		{
			name:        "create job",
			tool:        ToolCreateJob,
			args:        map[string]any{"title": "SRE", "department": "Platform", "location": "Pune"},
			wantAction:  types.ActionAddJob,
			wantMessage: "Job created: SRE",
			wantData:    true,
		},
		{
			name:        "update stage",
			tool:        ToolUpdateCandidateStage,
			args:        map[string]any{"candidateName": "Aarav Sharma", "stage": "Offer"},
			wantAction:  types.ActionUpdateStage,
			wantMessage: "Updated Aarav Sharma stage to Offer",
			wantData:    true,
		},
		{
			name:        "send email",
			tool:        ToolSendEmail,
			args:        map[string]any{"recipient": "Kavya", "subject": "Hi", "message": "Hello"},
			wantAction:  types.ActionSendEmail,
			wantMessage: "Email sent to Kavya",
			wantData:    true,
		},
		{
			name:        "analytics default period",
			tool:        ToolGetAnalytics,
			args:        map[string]any{"metric": "hires"},
			wantAction:  types.ActionNavigateAnalytics,
			wantMessage: "Analytics for hires over month",
			wantFilters: true,
		},
		{
			name:        "upcoming interviews default days",
			tool:        ToolGetUpcomingInterviews,
			args:        nil,
			wantAction:  types.ActionNavigateInterviews,
			wantMessage: "Retrieved interviews for next 7 days",
		},
		{
			name:        "upcoming interviews explicit days",
			tool:        ToolGetUpcomingInterviews,
			args:        map[string]any{"days": 14.0},
			wantAction:  types.ActionNavigateInterviews,
			wantMessage: "Retrieved interviews for next 14 days",
		},
		{
			name:        "campus drive",
			tool:        ToolAddCampusDrive,
			args:        map[string]any{"university": "IIT Bombay", "date": "2025-12-01"},
			wantAction:  types.ActionAddCampusDrive,
			wantMessage: "Campus drive scheduled at IIT Bombay on 2025-12-01",
			wantData:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExecuteFunction(tt.tool, tt.args)

			assert.True(t, got.Success)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, tt.wantData, got.Data != nil)
			assert.Equal(t, tt.wantFilters, got.Filters != nil)
		})
	}
}

func TestExecuteFunctionCandidateProfile(t *testing.T) {
	got := ExecuteFunction(ToolGetCandidateProfile, map[string]any{"candidateName": "Riya Kapoor"})

	assert.True(t, got.Success)
	assert.Equal(t, types.ActionViewCandidate, got.Action)
	assert.Equal(t, "Riya Kapoor", got.CandidateName)
	assert.Equal(t, "Retrieved profile for Riya Kapoor", got.Message)
}

func TestExecuteFunctionUnknown(t *testing.T) {
	got := ExecuteFunction("delete_everything", map[string]any{"confirm": true})

	assert.False(t, got.Success)
	assert.Empty(t, got.Action)
	assert.Equal(t, "Function delete_everything not implemented", got.Message)
}

func TestExecuteFunctionDoesNotAliasArgs(t *testing.T) {
	args := map[string]any{"title": "SRE"}
	got := ExecuteFunction(ToolCreateJob, args)

	got.Data["title"] = "changed"
	assert.Equal(t, "SRE", args["title"])
}

func TestFunctionDeclarations(t *testing.T) {
	decls := FunctionDeclarations()
	assert.Len(t, decls, 10)

	byName := map[string][]string{}
	for _, d := range decls {
		byName[d.Name] = d.Parameters.Required
	}
	assert.Equal(t, []string{"candidateName", "jobTitle", "date", "time"}, byName[ToolScheduleInterview])
	assert.Equal(t, []string{"university", "date"}, byName[ToolAddCampusDrive])
	assert.Empty(t, byName[ToolSearchCandidates])

	for _, d := range decls {
		assert.NotEqual(t, "delete_everything", d.Name)
		assert.True(t, ExecuteFunction(d.Name, nil).Success, "declared tool %s must be executable", d.Name)
	}
}
