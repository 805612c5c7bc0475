package ai

import "google.golang.org/genai"

// Tool names declared to the model
const (
	ToolSearchCandidates      = "search_candidates"
	ToolScheduleInterview     = "schedule_interview"
	ToolGetJobListings        = "get_job_listings"
	ToolCreateJob             = "create_job"
	ToolGetCandidateProfile   = "get_candidate_profile"
	ToolUpdateCandidateStage  = "update_candidate_stage"
	ToolSendEmail             = "send_email"
	ToolGetAnalytics          = "get_analytics"
	ToolGetUpcomingInterviews = "get_upcoming_interviews"
	ToolAddCampusDrive        = "add_campus_drive"
)

func str(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func enum(description string, values ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description, Enum: values}
}

func strList(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: description,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

func num(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: description}
}

func object(required []string, properties map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: properties, Required: required}
}

// FunctionDeclarations returns the recruiting tools offered to the model
func FunctionDeclarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        ToolSearchCandidates,
			Description: "Search for candidates by name, skills, or location",
			Parameters: object(nil, map[string]*genai.Schema{
				"query":         str("Search query for candidates"),
				"skills":        strList("Filter by skills"),
				"minExperience": num("Minimum years of experience"),
			}),
		},
		{
			Name:        ToolScheduleInterview,
			Description: "Schedule an interview for a candidate",
			Parameters: object([]string{"candidateName", "jobTitle", "date", "time"}, map[string]*genai.Schema{
				"candidateName": str("Name of the candidate"),
				"jobTitle":      str("Job position"),
				"date":          str("Interview date"),
				"time":          str("Interview time"),
			}),
		},
		{
			Name:        ToolGetJobListings,
			Description: "Get all current job listings or filter by criteria",
			Parameters: object(nil, map[string]*genai.Schema{
				"status":     enum("Job status", "active", "closed", "draft"),
				"department": str("Department name"),
			}),
		},
		{
			Name:        ToolCreateJob,
			Description: "Create a new job posting",
			Parameters: object([]string{"title", "department", "location"}, map[string]*genai.Schema{
				"title":       str("Job title"),
				"department":  str("Department"),
				"location":    str("Job location"),
				"description": str("Job description"),
			}),
		},
		{
			Name:        ToolGetCandidateProfile,
			Description: "Get detailed profile information for a specific candidate",
			Parameters: object([]string{"candidateName"}, map[string]*genai.Schema{
				"candidateName": str("Name of the candidate"),
			}),
		},
		{
			Name:        ToolUpdateCandidateStage,
			Description: "Update a candidate's application stage",
			Parameters: object([]string{"candidateName", "stage"}, map[string]*genai.Schema{
				"candidateName": str("Name of the candidate"),
				"stage":         enum("New stage", "Applied", "Screening", "Interview", "Offer", "Rejected"),
			}),
		},
		{
			Name:        ToolSendEmail,
			Description: "Send an email to a candidate or team member",
			Parameters: object([]string{"recipient", "subject", "message"}, map[string]*genai.Schema{
				"recipient": str("Email recipient name"),
				"subject":   str("Email subject"),
				"message":   str("Email message content"),
			}),
		},
		{
			Name:        ToolGetAnalytics,
			Description: "Get recruitment analytics and statistics",
			Parameters: object(nil, map[string]*genai.Schema{
				"metric": enum("Metric type", "applications", "interviews", "hires", "timeToHire"),
				"period": enum("Time period", "week", "month", "quarter", "year"),
			}),
		},
		{
			Name:        ToolGetUpcomingInterviews,
			Description: "Get list of upcoming scheduled interviews",
			Parameters: object(nil, map[string]*genai.Schema{
				"days": num("Number of days to look ahead (default: 7)"),
			}),
		},
		{
			Name:        ToolAddCampusDrive,
			Description: "Schedule a campus recruitment drive",
			Parameters: object([]string{"university", "date"}, map[string]*genai.Schema{
				"university": str("University name"),
				"date":       str("Drive date"),
				"positions":  strList("Positions to recruit for"),
			}),
		},
	}
}

// Tools wraps the declarations for a GenerateContentConfig
func Tools() []*genai.Tool {
	return []*genai.Tool{{FunctionDeclarations: FunctionDeclarations()}}
}
