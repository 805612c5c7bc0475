package types

import (
	"slices"
	"strings"
	"time"
)

// LocationMode is where the work happens
type LocationMode string

const (
	LocationRemote LocationMode = "remote"
	LocationHybrid LocationMode = "hybrid"
	LocationOnsite LocationMode = "onsite"
)

// JobStatus is the lifecycle state of a posting
type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobPaused JobStatus = "paused"
	JobClosed JobStatus = "closed"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobOpen, JobPaused, JobClosed:
		return true
	}
	return false
}

// Stage is a candidate's progress marker for one job application.
// Hired and rejected are terminal and reachable from any earlier stage.
type Stage string

const (
	StageApplied     Stage = "applied"
	StageScreening   Stage = "screening"
	StagePhoneScreen Stage = "phone_screen"
	StageInterview   Stage = "interview"
	StageAssessment  Stage = "assessment"
	StageOffer       Stage = "offer"
	StageHired       Stage = "hired"
	StageRejected    Stage = "rejected"
)

// Stages lists the pipeline in display order.
var Stages = []Stage{
	StageApplied, StageScreening, StagePhoneScreen, StageInterview,
	StageAssessment, StageOffer, StageHired, StageRejected,
}

func (s Stage) IsValid() bool {
	return slices.Contains(Stages, s)
}

// IsTerminal reports whether no further stage follows s.
func (s Stage) IsTerminal() bool {
	return s == StageHired || s == StageRejected
}

// ParseStage accepts loose spellings such as "Phone Screen" or "OFFER".
func ParseStage(raw string) (Stage, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	stage := Stage(normalized)
	return stage, stage.IsValid()
}

type InterviewType string

const (
	InterviewPhone     InterviewType = "phone"
	InterviewVideo     InterviewType = "video"
	InterviewTechnical InterviewType = "technical"
	InterviewOnsite    InterviewType = "onsite"
)

func (t InterviewType) IsValid() bool {
	switch t {
	case InterviewPhone, InterviewVideo, InterviewTechnical, InterviewOnsite:
		return true
	}
	return false
}

type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

type DriveStatus string

const (
	DriveDraft     DriveStatus = "draft"
	DriveScheduled DriveStatus = "scheduled"
	DriveActive    DriveStatus = "active"
	DriveClosed    DriveStatus = "closed"
)

// ScreeningQuestion is asked of every applicant to a job
type ScreeningQuestion struct {
	ID       string   `json:"id" yaml:"id"`
	Question string   `json:"question" yaml:"question"`
	Type     string   `json:"type" yaml:"type"` // text or multiselect
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
	Required bool     `json:"required" yaml:"required"`
}

// Job is a posting. Counters are maintained independently of candidate
// records and may drift.
type Job struct {
	ID                 string              `json:"id" yaml:"id"`
	Title              string              `json:"title" yaml:"title"`
	Location           LocationMode        `json:"location" yaml:"location"`
	City               string              `json:"city" yaml:"city"`
	SalaryRange        string              `json:"salaryRange" yaml:"salaryRange"`
	Seniority          string              `json:"seniority" yaml:"seniority"`
	Team               string              `json:"team,omitempty" yaml:"team"`
	Department         string              `json:"department,omitempty" yaml:"department,omitempty"`
	Tags               []string            `json:"tags" yaml:"tags"`
	Description        string              `json:"description" yaml:"description"`
	Requirements       []string            `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Benefits           []string            `json:"benefits,omitempty" yaml:"benefits,omitempty"`
	ScreeningQuestions []ScreeningQuestion `json:"screeningQuestions" yaml:"screeningQuestions"`
	Deadline           string              `json:"deadline" yaml:"deadline"`
	Campuses           []string            `json:"campuses" yaml:"campuses"`
	Status             JobStatus           `json:"status" yaml:"status"`
	PostedDate         string              `json:"postedDate" yaml:"postedDate"`
	ApplicantCount     int                 `json:"applicantCount" yaml:"applicantCount"`
	ViewCount          int                 `json:"viewCount" yaml:"viewCount"`
}

// JobPatch carries the fields of a partial job update; nil means unchanged.
type JobPatch struct {
	Title              *string              `json:"title,omitempty"`
	Location           *LocationMode        `json:"location,omitempty"`
	City               *string              `json:"city,omitempty"`
	SalaryRange        *string              `json:"salaryRange,omitempty"`
	Seniority          *string              `json:"seniority,omitempty"`
	Team               *string              `json:"team,omitempty"`
	Department         *string              `json:"department,omitempty"`
	Tags               *[]string            `json:"tags,omitempty"`
	Description        *string              `json:"description,omitempty"`
	Requirements       *[]string            `json:"requirements,omitempty"`
	Benefits           *[]string            `json:"benefits,omitempty"`
	ScreeningQuestions *[]ScreeningQuestion `json:"screeningQuestions,omitempty"`
	Deadline           *string              `json:"deadline,omitempty"`
	Campuses           *[]string            `json:"campuses,omitempty"`
	Status             *JobStatus           `json:"status,omitempty"`
	ApplicantCount     *int                 `json:"applicantCount,omitempty"`
	ViewCount          *int                 `json:"viewCount,omitempty"`
}

// Apply merges the set fields of p into j.
func (p JobPatch) Apply(j *Job) {
	setIf(&j.Title, p.Title)
	setIf(&j.Location, p.Location)
	setIf(&j.City, p.City)
	setIf(&j.SalaryRange, p.SalaryRange)
	setIf(&j.Seniority, p.Seniority)
	setIf(&j.Team, p.Team)
	setIf(&j.Department, p.Department)
	setIf(&j.Description, p.Description)
	setIf(&j.Deadline, p.Deadline)
	setIf(&j.Status, p.Status)
	setIf(&j.ApplicantCount, p.ApplicantCount)
	setIf(&j.ViewCount, p.ViewCount)
	if p.Tags != nil {
		j.Tags = slices.Clone(*p.Tags)
	}
	if p.Requirements != nil {
		j.Requirements = slices.Clone(*p.Requirements)
	}
	if p.Benefits != nil {
		j.Benefits = slices.Clone(*p.Benefits)
	}
	if p.ScreeningQuestions != nil {
		j.ScreeningQuestions = slices.Clone(*p.ScreeningQuestions)
	}
	if p.Campuses != nil {
		j.Campuses = slices.Clone(*p.Campuses)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// AssessmentScores are per-skill scores from 0 to 100
type AssessmentScores map[string]int

// Candidate is a person in the pipeline. Every key of CurrentStage and
// AppliedDate also appears in AppliedJobIDs.
type Candidate struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Email            string               `json:"email"`
	Headline         string               `json:"headline"`
	Location         string               `json:"location"`
	Skills           []string             `json:"skills"`
	YearsExperience  int                  `json:"yearsExperience"`
	Education        string               `json:"education"`
	ResumeText       string               `json:"resumeText"`
	CoverLetterText  string               `json:"coverLetterText"`
	GithubURL        string               `json:"githubUrl,omitempty"`
	PortfolioURL     string               `json:"portfolioUrl,omitempty"`
	VerifiedTalent   bool                 `json:"verifiedTalent"`
	CredibilityScore int                  `json:"credibilityScore"`
	AssessmentScores AssessmentScores     `json:"assessmentScores"`
	Availability     string               `json:"availability"`
	AppliedJobIDs    []string             `json:"appliedJobIds"`
	CurrentStage     map[string]Stage     `json:"currentStage"`
	AppliedDate      map[string]time.Time `json:"appliedDate"`
	Photo            string               `json:"photo,omitempty"`
	Bio              string               `json:"bio,omitempty"`
}

// StageFor returns the stage recorded for jobID, defaulting to applied.
func (c Candidate) StageFor(jobID string) Stage {
	if stage, ok := c.CurrentStage[jobID]; ok {
		return stage
	}
	return StageApplied
}

// AppliedTo reports whether jobID is among the candidate's applications.
func (c Candidate) AppliedTo(jobID string) bool {
	return slices.Contains(c.AppliedJobIDs, jobID)
}

type Interview struct {
	ID           string          `json:"id"`
	CandidateID  string          `json:"candidateId"`
	JobID        string          `json:"jobId"`
	Date         string          `json:"date"`
	ScheduledAt  string          `json:"scheduledAt"`
	Duration     int             `json:"duration"`
	Type         InterviewType   `json:"type"`
	Interviewers []string        `json:"interviewers"`
	Status       InterviewStatus `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	Rating       *int            `json:"rating,omitempty"`
}

type CampusDrive struct {
	ID             string      `json:"id"`
	UniversityID   string      `json:"universityId"`
	JobIDs         []string    `json:"jobIds"`
	Deadline       string      `json:"deadline"`
	ScheduledDate  string      `json:"scheduledDate"`
	SeatsAvailable int         `json:"seatsAvailable"`
	Slots          int         `json:"slots"`
	Applicants     int         `json:"applicants"`
	Interviewed    int         `json:"interviewed"`
	Offered        int         `json:"offered"`
	Status         DriveStatus `json:"status"`
}

// Activity types written by the store
const (
	ActivityJobPosted          = "job_posted"
	ActivityJobDeleted         = "job_deleted"
	ActivityStageChange        = "stage_change"
	ActivityInterviewScheduled = "interview_scheduled"
	ActivityCampusDriveCreated = "campus_drive_created"
)

// ActivityLogEntry is one line of the bounded, newest-first activity log
type ActivityLogEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"userId,omitempty"`
	CandidateID string    `json:"candidateId,omitempty"`
	JobID       string    `json:"jobId,omitempty"`
}

// ActivityInput is what callers supply; the store fills id and timestamp.
type ActivityInput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	UserID      string `json:"userId,omitempty"`
	CandidateID string `json:"candidateId,omitempty"`
	JobID       string `json:"jobId,omitempty"`
}

type University struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Domain     string `json:"domain" yaml:"domain"`
	CohortSize int    `json:"cohortSize" yaml:"cohortSize"`
	Location   string `json:"location" yaml:"location"`
}

type TemplateCategory string

const (
	TemplateOutreach  TemplateCategory = "outreach"
	TemplateInterview TemplateCategory = "interview"
	TemplateRejection TemplateCategory = "rejection"
	TemplateCampus    TemplateCategory = "campus"
)

// MessageTemplate holds an email body with {{placeholder}} fields
type MessageTemplate struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Subject  string           `json:"subject" yaml:"subject"`
	Body     string           `json:"body" yaml:"body"`
	Category TemplateCategory `json:"category" yaml:"category"`
}
