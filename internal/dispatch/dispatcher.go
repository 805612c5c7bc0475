package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/notify"
	"talentsparkle/internal/seed"
	"talentsparkle/internal/types"
)

// Store is the part of the recruiting store the dispatcher reads and mutates
type Store interface {
	AddJob(ctx context.Context, job types.Job) error
	UpdateCandidateStage(ctx context.Context, candidateID, jobID string, stage types.Stage) error
	AddInterview(ctx context.Context, iv types.Interview) error
	AddCampusDrive(ctx context.Context, d types.CampusDrive) error
	Jobs() []types.Job
	Candidates() []types.Candidate
	GetJobByID(id string) (types.Job, bool)
}

// Fixed values for records created from chat actions
const (
	interviewDuration  = 60
	defaultSalaryRange = "$80,000 - $120,000"
	defaultSeniority   = "mid"
	driveSeats         = 50
	driveSlots         = 10
	companyName        = "TalentSparkle"
)

// Outcome labels passed to Options.OnDispatch
const (
	ResultApplied  = "applied"
	ResultSkipped  = "skipped"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

type Options struct {
	Config       config.DispatchConfig
	Universities []types.University
	Templates    []types.MessageTemplate
	Mailer       notify.Mailer
	Clock        func() time.Time
	Logger       *errors.Logger
	// OnDispatch is called once per action with one of the Result labels
	OnDispatch func(action, result string)
}

// Dispatcher applies chat actions to a Store
type Dispatcher struct {
	store     Store
	resolver  *Resolver
	cfg       config.DispatchConfig
	templates []types.MessageTemplate
	mailer    notify.Mailer
	now       func() time.Time
	logger    *errors.Logger
	hook      func(action, result string)

	idMu   sync.Mutex
	lastID int64
}

func New(store Store, opts Options) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		resolver:  NewResolver(store, opts.Universities),
		cfg:       opts.Config,
		templates: opts.Templates,
		mailer:    opts.Mailer,
		now:       opts.Clock,
		logger:    opts.Logger,
		hook:      opts.OnDispatch,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.logger == nil {
		d.logger = errors.Discard()
	}
	if d.mailer == nil {
		d.mailer = notify.NewLogMailer(d.logger)
	}
	if d.cfg.PlaceholderID == "" {
		d.cfg.PlaceholderID = "1"
	}
	if d.cfg.DefaultInterviewer == "" {
		d.cfg.DefaultInterviewer = "Interviewer"
	}
	return d
}

// DispatchAll applies results in order and returns one outcome per result
func (d *Dispatcher) DispatchAll(ctx context.Context, results []types.ActionResult) []types.ActionOutcome {
	outcomes := make([]types.ActionOutcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, d.Dispatch(ctx, r))
	}
	return outcomes
}

// Dispatch applies a single action. Failed results, unknown actions and
// unresolvable names never touch the store.
func (d *Dispatcher) Dispatch(ctx context.Context, r types.ActionResult) types.ActionOutcome {
	out := types.ActionOutcome{Action: r.Action, Message: r.Message}

	if !r.Success {
		d.record(r.Action, ResultSkipped)
		return out
	}

	action, err := Parse(r)
	if err != nil {
		return d.fail(out, err, ResultRejected)
	}

	switch a := action.(type) {
	case Navigate:
		out.Navigate = a.Route
	case ViewCandidate:
		err = d.viewCandidate(a, &out)
	case AddInterview:
		err = d.addInterview(ctx, a, &out)
	case AddJob:
		err = d.addJob(ctx, a, &out)
	case UpdateStage:
		err = d.updateStage(ctx, a, &out)
	case AddCampusDrive:
		err = d.addCampusDrive(ctx, a, &out)
	case SendEmail:
		err = d.sendEmail(ctx, a, &out)
	}

	if err != nil {
		if out.Applied {
			return d.fail(out, err, ResultFailed)
		}
		return d.fail(out, err, ResultRejected)
	}

	out.Applied = true
	d.record(r.Action, ResultApplied)
	return out
}

func (d *Dispatcher) fail(out types.ActionOutcome, err error, result string) types.ActionOutcome {
	out.Error = err.Error()
	d.logger.LogError(err, "Chat action not applied", "action", out.Action)
	d.record(out.Action, result)
	return out
}

func (d *Dispatcher) record(action, result string) {
	if d.hook != nil {
		d.hook(action, result)
	}
}

// nextID returns a millisecond timestamp that is unique within this dispatcher
func (d *Dispatcher) nextID() int64 {
	d.idMu.Lock()
	defer d.idMu.Unlock()

	id := d.now().UnixMilli()
	if id <= d.lastID {
		id = d.lastID + 1
	}
	d.lastID = id
	return id
}

func (d *Dispatcher) viewCandidate(a ViewCandidate, out *types.ActionOutcome) error {
	out.Navigate = "/candidates"
	if !d.cfg.ResolveNames || a.CandidateName == "" {
		return nil
	}
	c, err := d.resolver.Candidate(a.CandidateName)
	if err != nil {
		return err
	}
	out.Navigate = "/candidates/" + c.ID
	out.EntityID = c.ID
	return nil
}

func (d *Dispatcher) addInterview(ctx context.Context, a AddInterview, out *types.ActionOutcome) error {
	candidateID, jobID := d.cfg.PlaceholderID, d.cfg.PlaceholderID

	if d.cfg.ResolveNames {
		if strings.TrimSpace(a.CandidateName) == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidAction, "add_interview needs a candidate name", nil)
		}
		c, err := d.resolver.Candidate(a.CandidateName)
		if err != nil {
			return err
		}
		if jobID, err = d.resolver.JobForCandidate(c, a.JobTitle); err != nil {
			return err
		}
		candidateID = c.ID
	}

	iv := types.Interview{
		ID:           fmt.Sprintf("int-%d", d.nextID()),
		CandidateID:  candidateID,
		JobID:        jobID,
		Date:         a.Date,
		ScheduledAt:  a.Date + "T" + a.Time,
		Duration:     interviewDuration,
		Type:         types.InterviewTechnical,
		Interviewers: []string{d.cfg.DefaultInterviewer},
		Status:       types.InterviewScheduled,
		Notes:        "Interview for " + a.JobTitle,
	}
	out.EntityID = iv.ID
	out.Navigate = "/interviews"
	out.Applied = true
	return d.store.AddInterview(ctx, iv)
}

func (d *Dispatcher) addJob(ctx context.Context, a AddJob, out *types.ActionOutcome) error {
	job := types.Job{
		ID:                 fmt.Sprintf("job-%d", d.nextID()),
		Title:              a.Title,
		Location:           types.LocationRemote,
		City:               a.Location,
		SalaryRange:        defaultSalaryRange,
		Seniority:          defaultSeniority,
		Department:         a.Department,
		Tags:               []string{},
		Description:        a.Description,
		Requirements:       []string{},
		Benefits:           []string{},
		ScreeningQuestions: []types.ScreeningQuestion{},
		Campuses:           []string{},
		Status:             types.JobOpen,
		PostedDate:         d.now().Format(time.DateOnly),
	}
	out.EntityID = job.ID
	out.Navigate = "/jobs"
	out.Applied = true
	return d.store.AddJob(ctx, job)
}

func (d *Dispatcher) updateStage(ctx context.Context, a UpdateStage, out *types.ActionOutcome) error {
	stage, ok := types.ParseStage(a.Stage)
	if !ok {
		return errors.NewValidationError(errors.ErrCodeInvalidAction,
			fmt.Sprintf("unknown stage %q", a.Stage), nil)
	}

	candidateID, jobID := d.cfg.PlaceholderID, d.cfg.PlaceholderID
	if d.cfg.ResolveNames {
		c, err := d.resolver.Candidate(a.CandidateName)
		if err != nil {
			return err
		}
		if jobID, err = d.resolver.JobForCandidate(c, a.JobTitle); err != nil {
			return err
		}
		candidateID = c.ID
	}

	out.EntityID = candidateID
	out.Applied = true
	return d.store.UpdateCandidateStage(ctx, candidateID, jobID, stage)
}

func (d *Dispatcher) addCampusDrive(ctx context.Context, a AddCampusDrive, out *types.ActionOutcome) error {
	universityID := d.cfg.PlaceholderID
	jobIDs := a.Positions
	if jobIDs == nil {
		jobIDs = []string{}
	}

	if d.cfg.ResolveNames {
		universityID = ""
		if strings.TrimSpace(a.University) != "" {
			u, err := d.resolver.University(a.University)
			if err != nil {
				return err
			}
			universityID = u.ID
		}
		jobIDs = d.resolver.Positions(jobIDs)
	}

	drive := types.CampusDrive{
		ID:             fmt.Sprintf("campus-%d", d.nextID()),
		UniversityID:   universityID,
		JobIDs:         jobIDs,
		Deadline:       a.Date,
		ScheduledDate:  a.Date,
		SeatsAvailable: driveSeats,
		Slots:          driveSlots,
		Status:         types.DriveScheduled,
	}
	out.EntityID = drive.ID
	out.Applied = true
	return d.store.AddCampusDrive(ctx, drive)
}

func (d *Dispatcher) sendEmail(ctx context.Context, a SendEmail, out *types.ActionOutcome) error {
	email := notify.Email{To: a.Recipient, Subject: a.Subject, Body: a.Message}

	var candidate *types.Candidate
	if d.cfg.ResolveNames && !strings.Contains(a.Recipient, "@") {
		c, err := d.resolver.Candidate(a.Recipient)
		if err != nil {
			return err
		}
		candidate = &c
		email.To = c.Email
		out.EntityID = c.ID
	}

	if t, ok := d.template(a.Subject); ok {
		email.Subject, email.Body = seed.RenderTemplate(t, d.templateVars(candidate))
	}

	if err := d.mailer.Send(ctx, email); err != nil {
		return err
	}
	out.Applied = true
	return nil
}

func (d *Dispatcher) template(name string) (types.MessageTemplate, bool) {
	n := fold(name)
	if n == "" {
		return types.MessageTemplate{}, false
	}
	for _, t := range d.templates {
		if fold(t.Name) == n || fold(t.ID) == n {
			return t, true
		}
	}
	return types.MessageTemplate{}, false
}

func (d *Dispatcher) templateVars(c *types.Candidate) map[string]string {
	vars := map[string]string{
		"company_name":   companyName,
		"recruiter_name": companyName + " Recruiting",
	}
	if c == nil {
		return vars
	}

	vars["name"] = c.Name
	vars["first_name"], _, _ = strings.Cut(c.Name, " ")
	if len(c.Skills) > 0 {
		vars["top_skill"] = c.Skills[0]
	}
	if len(c.AppliedJobIDs) > 0 {
		if job, ok := d.store.GetJobByID(c.AppliedJobIDs[0]); ok {
			vars["job_title"] = job.Title
		}
	}
	return vars
}
