package dispatch

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/notify"
	"talentsparkle/internal/store"
	"talentsparkle/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)

func testSnapshot() store.Snapshot {
	return store.Snapshot{
		Jobs: []types.Job{
			{ID: "job-1", Title: "Software Engineer Intern", Status: types.JobOpen},
			{ID: "job-2", Title: "Data Analyst", Status: types.JobOpen},
			{ID: "job-3", Title: "Backend Engineer", Status: types.JobOpen},
		},
		Candidates: []types.Candidate{
			{
				ID:            "1",
				Name:          "Aarav Sharma",
				Email:         "aarav.sharma@email.com",
				Skills:        []string{"Go"},
				AppliedJobIDs: []string{"job-1"},
				CurrentStage:  map[string]types.Stage{"job-1": types.StageApplied},
			},
			{
				ID:            "2",
				Name:          "Diya Patel",
				Email:         "diya.patel@email.com",
				AppliedJobIDs: []string{"job-1", "job-2"},
				CurrentStage:  map[string]types.Stage{"job-1": types.StageApplied, "job-2": types.StageScreening},
			},
			{
				ID:            "3",
				Name:          "Rohan Sharma",
				Email:         "rohan.sharma@email.com",
				AppliedJobIDs: []string{},
				CurrentStage:  map[string]types.Stage{},
			},
		},
	}
}

var testUniversities = []types.University{
	{ID: "uni-1", Name: "IIT Bombay", Domain: "iitb.ac.in"},
	{ID: "uni-2", Name: "IIT Delhi", Domain: "iitd.ac.in"},
	{ID: "uni-3", Name: "BITS Pilani", Domain: "bits-pilani.ac.in"},
}

type recordingMailer struct {
	sent []notify.Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, email notify.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type fixture struct {
	store     *store.Store
	persister *store.MemoryPersister
	mailer    *recordingMailer
	results   []string
	d         *Dispatcher
}

func newFixture(t *testing.T, resolveNames bool) *fixture {
	t.Helper()
	f := &fixture{persister: store.NewMemoryPersister(), mailer: &recordingMailer{}}

	s, err := store.New(context.Background(), f.persister, store.Options{
		Keys:   store.KeysWithPrefix("test_"),
		Seed:   testSnapshot,
		Clock:  func() time.Time { return fixedNow },
		Logger: errors.Discard(),
	})
	require.NoError(t, err)
	f.store = s

	f.d = New(s, Options{
		Config:       config.DispatchConfig{ResolveNames: resolveNames, PlaceholderID: "1", DefaultInterviewer: "Interviewer"},
		Universities: testUniversities,
		Templates: []types.MessageTemplate{{
			ID:      "template-2",
			Name:    "Interview Invitation",
			Subject: "Interview invitation for {{job_title}}",
			Body:    "Hi {{first_name}}, thanks for applying to {{company_name}}.",
		}},
		Mailer: f.mailer,
		Clock:  func() time.Time { return fixedNow },
		Logger: errors.Discard(),
		OnDispatch: func(_, result string) {
			f.results = append(f.results, result)
		},
	})
	return f
}

func ok(action string, data map[string]any) types.ActionResult {
	return types.ActionResult{Success: true, Action: action, Data: data, Message: "done"}
}

func TestDispatchCampusDrive(t *testing.T) {
	f := newFixture(t, true)

	out := f.d.Dispatch(context.Background(), ok(types.ActionAddCampusDrive, map[string]any{
		"date":      "2025-12-01",
		"positions": []any{"job-3"},
	}))
	require.Empty(t, out.Error)
	assert.True(t, out.Applied)

	drives := f.store.CampusDrives()
	require.Len(t, drives, 1)
	d := drives[0]
	assert.Equal(t, out.EntityID, d.ID)
	assert.Equal(t, types.DriveScheduled, d.Status)
	assert.Equal(t, 50, d.SeatsAvailable)
	assert.Equal(t, 10, d.Slots)
	assert.Equal(t, []string{"job-3"}, d.JobIDs)
	assert.Equal(t, "2025-12-01", d.Deadline)
	assert.Equal(t, "2025-12-01", d.ScheduledDate)
	assert.Zero(t, d.Applicants)
	assert.Empty(t, d.UniversityID)
	assert.Equal(t, "Created campus drive", f.store.Activities(1)[0].Description)
}

func TestDispatchCampusDriveResolvesNames(t *testing.T) {
	f := newFixture(t, true)

	out := f.d.Dispatch(context.Background(), ok(types.ActionAddCampusDrive, map[string]any{
		"university": "bits",
		"date":       "2025-12-01",
		"positions":  []any{"Data Analyst", "Product Designer"},
	}))
	require.Empty(t, out.Error)

	d := f.store.CampusDrives()[0]
	assert.Equal(t, "uni-3", d.UniversityID)
	assert.Equal(t, []string{"job-2", "Product Designer"}, d.JobIDs)

	out = f.d.Dispatch(context.Background(), ok(types.ActionAddCampusDrive, map[string]any{
		"university": "IIT",
		"date":       "2025-12-02",
	}))
	assert.False(t, out.Applied)
	assert.Contains(t, out.Error, errors.ErrCodeAmbiguousMatch)
	assert.Len(t, f.store.CampusDrives(), 1)
}

func TestDispatchSkipsFailedResults(t *testing.T) {
	f := newFixture(t, true)
	saves := f.persister.Saves()

	out := f.d.Dispatch(context.Background(), types.ActionResult{
		Success: false,
		Action:  types.ActionAddJob,
		Data:    map[string]any{"title": "Ghost", "location": "Pune", "department": "Eng"},
		Message: "model refused",
	})

	assert.False(t, out.Applied)
	assert.Empty(t, out.Navigate)
	assert.Equal(t, "model refused", out.Message)
	assert.Equal(t, saves, f.persister.Saves())
	assert.Len(t, f.store.Jobs(), 3)
	assert.Equal(t, []string{ResultSkipped}, f.results)
}

func TestDispatchUnknownAction(t *testing.T) {
	f := newFixture(t, true)
	saves := f.persister.Saves()

	out := f.d.Dispatch(context.Background(), ok("unknown_action_xyz", map[string]any{"x": 1}))

	assert.False(t, out.Applied)
	assert.Empty(t, out.Navigate)
	assert.Contains(t, out.Error, errors.ErrCodeUnknownAction)
	assert.Equal(t, saves, f.persister.Saves())
	assert.Equal(t, []string{ResultRejected}, f.results)
}

func TestDispatchNavigation(t *testing.T) {
	tests := []struct {
		action string
		route  string
	}{
		{types.ActionNavigateCandidates, "/candidates"},
		{types.ActionNavigateJobs, "/jobs"},
		{types.ActionNavigateInterviews, "/interviews"},
		{types.ActionNavigateAnalytics, "/analytics"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			f := newFixture(t, true)
			saves := f.persister.Saves()

			out := f.d.Dispatch(context.Background(), ok(tt.action, nil))
			assert.True(t, out.Applied)
			assert.Equal(t, tt.route, out.Navigate)
			assert.Equal(t, saves, f.persister.Saves())
		})
	}
}

func TestDispatchCampusDriveKeepsUnknownJobIDs(t *testing.T) {
	f := newFixture(t, true)

	added := f.d.Dispatch(context.Background(), ok(types.ActionAddJob, map[string]any{
		"title":      "Platform Engineer",
		"location":   "Pune",
		"department": "Engineering",
	}))
	require.Empty(t, added.Error)
	require.Equal(t, "job-1759311000000", added.EntityID)

	out := f.d.Dispatch(context.Background(), ok(types.ActionAddCampusDrive, map[string]any{
		"date":      "2025-12-01",
		"positions": []any{"job-17", "job-2"},
	}))
	require.Empty(t, out.Error)
	assert.Equal(t, []string{"job-17", "job-2"}, f.store.CampusDrives()[0].JobIDs)
}

func TestResolverMatchesIDsExactly(t *testing.T) {
	f := newFixture(t, true)
	r := NewResolver(f.store, testUniversities)

	_, err := r.Job("job-")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	job, err := r.Job("JOB-3")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)

	// titles still match by substring
	job, err = r.Job("analyst")
	require.NoError(t, err)
	assert.Equal(t, "job-2", job.ID)

	_, err = r.University("uni-")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	uni, err := r.University("iitd")
	require.NoError(t, err)
	assert.Equal(t, "uni-2", uni.ID)
}

func TestDispatchAddJob(t *testing.T) {
	f := newFixture(t, true)

	out := f.d.Dispatch(context.Background(), ok(types.ActionAddJob, map[string]any{
		"title":      "Platform Engineer",
		"location":   "Bengaluru",
		"department": "Engineering",
	}))
	require.Empty(t, out.Error)
	assert.Equal(t, "/jobs", out.Navigate)

	job := f.store.Jobs()[0]
	assert.Equal(t, out.EntityID, job.ID)
	assert.Equal(t, "job-1759311000000", job.ID)
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, types.LocationRemote, job.Location)
	assert.Equal(t, "Bengaluru", job.City)
	assert.Equal(t, "$80,000 - $120,000", job.SalaryRange)
	assert.Equal(t, "mid", job.Seniority)
	assert.Equal(t, "Engineering", job.Department)
	assert.Equal(t, "", job.Description)
	assert.Empty(t, job.Tags)
	assert.Equal(t, types.JobOpen, job.Status)
	assert.Equal(t, "2025-10-01", job.PostedDate)
	assert.Zero(t, job.ApplicantCount)
	assert.Zero(t, job.ViewCount)
}

func TestDispatchIDsAreUnique(t *testing.T) {
	f := newFixture(t, true)
	data := map[string]any{"title": "Repeat", "location": "Pune", "department": "Eng"}

	first := f.d.Dispatch(context.Background(), ok(types.ActionAddJob, data))
	second := f.d.Dispatch(context.Background(), ok(types.ActionAddJob, data))

	assert.NotEqual(t, first.EntityID, second.EntityID)
	assert.Len(t, f.store.Jobs(), 5)
}

func TestDispatchAddInterview(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]any
		wantCode  string
		wantCand  string
		wantJobID string
	}{
		{
			name:      "job from title",
			data:      map[string]any{"candidateName": "diya patel", "jobTitle": "Data Analyst", "date": "2025-11-03", "time": "14:00"},
			wantCand:  "2",
			wantJobID: "job-2",
		},
		{
			name:      "single application",
			data:      map[string]any{"candidateName": "Aarav", "jobTitle": "", "date": "2025-11-03", "time": "10:00"},
			wantCand:  "1",
			wantJobID: "job-1",
		},
		{
			name:     "several applications",
			data:     map[string]any{"candidateName": "Diya Patel", "date": "2025-11-03", "time": "10:00"},
			wantCode: errors.ErrCodeAmbiguousMatch,
		},
		{
			name:     "no applications",
			data:     map[string]any{"candidateName": "Rohan", "date": "2025-11-03", "time": "10:00"},
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:     "unknown candidate",
			data:     map[string]any{"candidateName": "Meera Iyer", "jobTitle": "Data Analyst", "date": "2025-11-03", "time": "10:00"},
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:     "ambiguous candidate",
			data:     map[string]any{"candidateName": "Sharma", "jobTitle": "Data Analyst", "date": "2025-11-03", "time": "10:00"},
			wantCode: errors.ErrCodeAmbiguousMatch,
		},
		{
			name:     "missing candidate",
			data:     map[string]any{"jobTitle": "Data Analyst", "date": "2025-11-03", "time": "10:00"},
			wantCode: errors.ErrCodeInvalidAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			out := f.d.Dispatch(context.Background(), ok(types.ActionAddInterview, tt.data))

			if tt.wantCode != "" {
				assert.False(t, out.Applied)
				assert.Contains(t, out.Error, tt.wantCode)
				assert.Empty(t, f.store.Interviews())
				return
			}

			require.Empty(t, out.Error)
			ivs := f.store.Interviews()
			require.Len(t, ivs, 1)
			iv := ivs[0]
			assert.Equal(t, tt.wantCand, iv.CandidateID)
			assert.Equal(t, tt.wantJobID, iv.JobID)
			assert.Equal(t, tt.data["date"], iv.Date)
			assert.Equal(t, tt.data["date"].(string)+"T"+tt.data["time"].(string), iv.ScheduledAt)
			assert.Equal(t, 60, iv.Duration)
			assert.Equal(t, types.InterviewTechnical, iv.Type)
			assert.Equal(t, []string{"Interviewer"}, iv.Interviewers)
			assert.Equal(t, types.InterviewScheduled, iv.Status)
		})
	}
}

func TestDispatchUpdateStage(t *testing.T) {
	f := newFixture(t, true)

	out := f.d.Dispatch(context.Background(), ok(types.ActionUpdateStage, map[string]any{
		"candidateName": "Aarav Sharma",
		"stage":         "Phone Screen",
	}))
	require.Empty(t, out.Error)
	assert.Equal(t, "1", out.EntityID)

	c, found := f.store.GetCandidateByID("1")
	require.True(t, found)
	assert.Equal(t, types.StagePhoneScreen, c.StageFor("job-1"))

	out = f.d.Dispatch(context.Background(), ok(types.ActionUpdateStage, map[string]any{
		"candidateName": "Diya Patel",
		"jobTitle":      "data analyst",
		"stage":         "Offer",
	}))
	require.Empty(t, out.Error)
	c, _ = f.store.GetCandidateByID("2")
	assert.Equal(t, types.StageOffer, c.StageFor("job-2"))
	assert.Equal(t, types.StageApplied, c.StageFor("job-1"))
}

func TestDispatchUpdateStageRejects(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		wantCode string
	}{
		{"unknown stage", map[string]any{"candidateName": "Aarav Sharma", "stage": "Promoted"}, errors.ErrCodeInvalidAction},
		{"ambiguous job", map[string]any{"candidateName": "Diya Patel", "stage": "Offer"}, errors.ErrCodeAmbiguousMatch},
		{"ambiguous candidate", map[string]any{"candidateName": "sharma", "stage": "Offer"}, errors.ErrCodeAmbiguousMatch},
		{"stage of wrong type", map[string]any{"candidateName": "Aarav Sharma", "stage": 3}, errors.ErrCodeSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			saves := f.persister.Saves()

			out := f.d.Dispatch(context.Background(), ok(types.ActionUpdateStage, tt.data))
			assert.False(t, out.Applied)
			assert.Contains(t, out.Error, tt.wantCode)
			assert.Equal(t, saves, f.persister.Saves())
		})
	}
}

func TestDispatchPlaceholderMode(t *testing.T) {
	f := newFixture(t, false)

	out := f.d.Dispatch(context.Background(), ok(types.ActionUpdateStage, map[string]any{
		"candidateName": "Diya Patel",
		"stage":         "Interview",
	}))
	require.Empty(t, out.Error)
	c, _ := f.store.GetCandidateByID("1")
	assert.Equal(t, types.StageInterview, c.StageFor("1"))
	assert.Contains(t, c.AppliedJobIDs, "1")

	out = f.d.Dispatch(context.Background(), ok(types.ActionAddInterview, map[string]any{
		"candidateName": "Nobody At All",
		"jobTitle":      "Data Analyst",
		"date":          "2025-11-03",
		"time":          "09:00",
	}))
	require.Empty(t, out.Error)
	iv := f.store.Interviews()[0]
	assert.Equal(t, "1", iv.CandidateID)
	assert.Equal(t, "1", iv.JobID)
	assert.Equal(t, "Interview for Data Analyst", iv.Notes)

	out = f.d.Dispatch(context.Background(), ok(types.ActionAddCampusDrive, map[string]any{
		"university": "Unknown University",
		"date":       "2025-12-01",
	}))
	require.Empty(t, out.Error)
	d := f.store.CampusDrives()[0]
	assert.Equal(t, "1", d.UniversityID)
	assert.Equal(t, []string{}, d.JobIDs)
}

func TestDispatchSendEmail(t *testing.T) {
	t.Run("renders a named template for a candidate", func(t *testing.T) {
		f := newFixture(t, true)
		saves := f.persister.Saves()

		out := f.d.Dispatch(context.Background(), ok(types.ActionSendEmail, map[string]any{
			"recipient": "Aarav Sharma",
			"subject":   "interview invitation",
			"message":   "ignored",
		}))
		require.Empty(t, out.Error)
		assert.Equal(t, "1", out.EntityID)
		assert.Equal(t, saves, f.persister.Saves())

		require.Len(t, f.mailer.sent, 1)
		sent := f.mailer.sent[0]
		assert.Equal(t, "aarav.sharma@email.com", sent.To)
		assert.Equal(t, "Interview invitation for Software Engineer Intern", sent.Subject)
		assert.Equal(t, "Hi Aarav, thanks for applying to TalentSparkle.", sent.Body)
	})

	t.Run("sends plain mail to an address", func(t *testing.T) {
		f := newFixture(t, true)

		out := f.d.Dispatch(context.Background(), ok(types.ActionSendEmail, map[string]any{
			"recipient": "hr@example.com",
			"subject":   "Hello",
			"message":   "Body text",
		}))
		require.Empty(t, out.Error)
		assert.Equal(t, []notify.Email{{To: "hr@example.com", Subject: "Hello", Body: "Body text"}}, f.mailer.sent)
	})

	t.Run("reports delivery failures", func(t *testing.T) {
		f := newFixture(t, true)
		f.mailer.err = errors.NewNetworkError(errors.ErrCodeMailSendFailed, "failed to send email", stderrors.New("throttled"))

		out := f.d.Dispatch(context.Background(), ok(types.ActionSendEmail, map[string]any{
			"recipient": "hr@example.com",
			"subject":   "Hello",
			"message":   "Body",
		}))
		assert.False(t, out.Applied)
		assert.Contains(t, out.Error, errors.ErrCodeMailSendFailed)
	})
}

func TestDispatchViewCandidate(t *testing.T) {
	f := newFixture(t, true)

	out := f.d.Dispatch(context.Background(), types.ActionResult{
		Success:       true,
		Action:        types.ActionViewCandidate,
		CandidateName: "Diya",
	})
	assert.True(t, out.Applied)
	assert.Equal(t, "/candidates/2", out.Navigate)

	out = f.d.Dispatch(context.Background(), types.ActionResult{
		Success:       true,
		Action:        types.ActionViewCandidate,
		CandidateName: "Sharma",
	})
	assert.False(t, out.Applied)
	assert.Equal(t, "/candidates", out.Navigate)
}

type failingStore struct {
	*store.Store
}

func (failingStore) AddJob(context.Context, types.Job) error {
	return errors.NewIOError(errors.ErrCodeStorePersist, "failed to persist store", stderrors.New("disk full"))
}

func TestDispatchReportsPersistFailure(t *testing.T) {
	f := newFixture(t, true)
	var results []string
	d := New(failingStore{f.store}, Options{
		Config:     config.DispatchConfig{ResolveNames: true},
		OnDispatch: func(_, result string) { results = append(results, result) },
	})

	out := d.Dispatch(context.Background(), ok(types.ActionAddJob, map[string]any{"title": "Ops", "location": "Pune", "department": "IT"}))
	assert.True(t, out.Applied)
	assert.Contains(t, out.Error, errors.ErrCodeStorePersist)
	assert.Equal(t, []string{ResultFailed}, results)
}

func TestDispatchAll(t *testing.T) {
	f := newFixture(t, true)

	outcomes := f.d.DispatchAll(context.Background(), []types.ActionResult{
		ok(types.ActionNavigateJobs, nil),
		{Success: false, Action: types.ActionAddJob},
		ok("unknown_action_xyz", nil),
	})
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Applied)
	assert.False(t, outcomes[1].Applied)
	assert.NotEmpty(t, outcomes[2].Error)
	assert.Equal(t, []string{ResultApplied, ResultSkipped, ResultRejected}, f.results)
}
