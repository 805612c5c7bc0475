// Package store is the single owner of the recruiting collections. Every
// mutation goes through a Store method and is written to the Persister
// before the method returns.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"talentsparkle/internal/errors"
	"talentsparkle/internal/types"

	"github.com/google/uuid"
)

// MaxActivities bounds the activity log
const MaxActivities = 100

// Keys names the persisted blob of each collection
type Keys struct {
	Jobs         string
	Candidates   string
	Interviews   string
	Activities   string
	CampusDrives string
}

// KeysWithPrefix returns the default key layout under prefix
func KeysWithPrefix(prefix string) Keys {
	return Keys{
		Jobs:         prefix + "jobs",
		Candidates:   prefix + "candidates",
		Interviews:   prefix + "interviews",
		Activities:   prefix + "activities",
		CampusDrives: prefix + "campus_drives",
	}
}

// Snapshot is a full copy of every collection
type Snapshot struct {
	Jobs         []types.Job              `json:"jobs"`
	Candidates   []types.Candidate        `json:"candidates"`
	Interviews   []types.Interview        `json:"interviews"`
	Activities   []types.ActivityLogEntry `json:"activities"`
	CampusDrives []types.CampusDrive      `json:"campusDrives"`
}

// Options configures a Store. Zero values fall back to defaults.
type Options struct {
	Keys Keys
	// Seed provides jobs and candidates for collections never persisted
	Seed       func() Snapshot
	Clock      func() time.Time
	NewID      func() string
	Logger     *errors.Logger
	OnMutation func(operation string)
}

type collection int

const (
	colJobs collection = iota
	colCandidates
	colInterviews
	colActivities
	colCampusDrives
)

// Store holds the recruiting collections in memory and mirrors them to a Persister
type Store struct {
	mu sync.RWMutex

	jobs         []types.Job
	candidates   []types.Candidate
	interviews   []types.Interview
	activities   []types.ActivityLogEntry
	campusDrives []types.CampusDrive

	persister  Persister
	keys       Keys
	now        func() time.Time
	newID      func() string
	logger     *errors.Logger
	onMutation func(string)
}

// New loads every collection from p. Jobs and candidates missing from p
// come from opts.Seed; the other collections start empty.
func New(ctx context.Context, p Persister, opts Options) (*Store, error) {
	s := &Store{
		persister:  p,
		keys:       opts.Keys,
		now:        opts.Clock,
		newID:      opts.NewID,
		logger:     opts.Logger,
		onMutation: opts.OnMutation,
	}
	if s.keys == (Keys{}) {
		s.keys = KeysWithPrefix("jobplexity_")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString()[:8] }
	}

	var seed Snapshot
	if opts.Seed != nil {
		seed = opts.Seed()
	}

	var missing []collection
	load := func(col collection, key string, dst any, fallback func()) error {
		raw, err := p.Load(ctx, key)
		if stderrors.Is(err, ErrNotFound) {
			fallback()
			missing = append(missing, col)
			return nil
		}
		if err != nil {
			return errors.NewIOError(errors.ErrCodeStoreLoad, "failed to load "+key, err)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return errors.NewIOError(errors.ErrCodeStoreLoad, "corrupt blob at "+key, err)
		}
		return nil
	}

	if err := load(colJobs, s.keys.Jobs, &s.jobs, func() { s.jobs = cloneSlice(seed.Jobs, cloneJob) }); err != nil {
		return nil, err
	}
	if err := load(colCandidates, s.keys.Candidates, &s.candidates, func() { s.candidates = cloneSlice(seed.Candidates, cloneCandidate) }); err != nil {
		return nil, err
	}
	if err := load(colInterviews, s.keys.Interviews, &s.interviews, func() {}); err != nil {
		return nil, err
	}
	if err := load(colActivities, s.keys.Activities, &s.activities, func() {}); err != nil {
		return nil, err
	}
	if err := load(colCampusDrives, s.keys.CampusDrives, &s.campusDrives, func() {}); err != nil {
		return nil, err
	}
	s.normalize()

	s.logger.Info("Store loaded",
		"jobs", len(s.jobs),
		"candidates", len(s.candidates),
		"interviews", len(s.interviews),
		"activities", len(s.activities),
		"campus_drives", len(s.campusDrives),
		"seeded_collections", len(missing))

	if len(missing) > 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.persistLocked(ctx, missing...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// normalize replaces nil collections so persisted blobs are always arrays
func (s *Store) normalize() {
	if s.jobs == nil {
		s.jobs = []types.Job{}
	}
	if s.candidates == nil {
		s.candidates = []types.Candidate{}
	}
	if s.interviews == nil {
		s.interviews = []types.Interview{}
	}
	if s.activities == nil {
		s.activities = []types.ActivityLogEntry{}
	}
	if s.campusDrives == nil {
		s.campusDrives = []types.CampusDrive{}
	}
}

// Close releases the persister
func (s *Store) Close() error {
	return s.persister.Close()
}

// AddJob puts job first and logs "job_posted". Duplicate ids are not checked.
func (s *Store) AddJob(ctx context.Context, job types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = slices.Insert(s.jobs, 0, cloneJob(job))
	s.addActivityLocked(types.ActivityInput{
		Type:        types.ActivityJobPosted,
		Description: "Posted new job: " + job.Title,
		JobID:       job.ID,
	})
	return s.commitLocked(ctx, "add_job", colJobs, colActivities)
}

// UpdateJob merges patch into the job with id. Unknown ids are ignored.
func (s *Store) UpdateJob(ctx context.Context, id string, patch types.JobPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.jobs, func(j types.Job) bool { return j.ID == id })
	if i < 0 {
		return nil
	}
	patch.Apply(&s.jobs[i])
	return s.commitLocked(ctx, "update_job", colJobs)
}

// DeleteJob removes the job with id and logs "job_deleted" if it existed
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.jobs, func(j types.Job) bool { return j.ID == id })
	if i < 0 {
		return nil
	}
	title := s.jobs[i].Title
	s.jobs = slices.Delete(s.jobs, i, i+1)
	s.addActivityLocked(types.ActivityInput{
		Type:        types.ActivityJobDeleted,
		Description: "Deleted job: " + title,
		JobID:       id,
	})
	return s.commitLocked(ctx, "delete_job", colJobs, colActivities)
}

// UpdateCandidateStage records stage for (candidateID, jobID). A jobID the
// candidate never applied to is added to their applications so stage keys
// stay a subset of AppliedJobIDs. Unknown candidates are ignored.
func (s *Store) UpdateCandidateStage(ctx context.Context, candidateID, jobID string, stage types.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.candidates, func(c types.Candidate) bool { return c.ID == candidateID })
	if i < 0 {
		return nil
	}
	c := &s.candidates[i]
	if c.CurrentStage == nil {
		c.CurrentStage = map[string]types.Stage{}
	}
	if !c.AppliedTo(jobID) {
		c.AppliedJobIDs = append(c.AppliedJobIDs, jobID)
	}
	c.CurrentStage[jobID] = stage

	s.addActivityLocked(types.ActivityInput{
		Type:        types.ActivityStageChange,
		Description: fmt.Sprintf("%s moved to %s stage", c.Name, stage),
		CandidateID: candidateID,
		JobID:       jobID,
	})
	return s.commitLocked(ctx, "update_candidate_stage", colCandidates, colActivities)
}

// AddInterview appends iv and logs "interview_scheduled" when its candidate exists
func (s *Store) AddInterview(ctx context.Context, iv types.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interviews = append(s.interviews, cloneInterview(iv))
	changed := []collection{colInterviews}

	if c, ok := s.candidateLocked(iv.CandidateID); ok {
		s.addActivityLocked(types.ActivityInput{
			Type:        types.ActivityInterviewScheduled,
			Description: "Interview scheduled with " + c.Name,
			CandidateID: iv.CandidateID,
			JobID:       iv.JobID,
		})
		changed = append(changed, colActivities)
	}
	return s.commitLocked(ctx, "add_interview", changed...)
}

// AddCampusDrive appends d and logs "campus_drive_created"
func (s *Store) AddCampusDrive(ctx context.Context, d types.CampusDrive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campusDrives = append(s.campusDrives, cloneDrive(d))
	s.addActivityLocked(types.ActivityInput{
		Type:        types.ActivityCampusDriveCreated,
		Description: "Created campus drive",
	})
	return s.commitLocked(ctx, "add_campus_drive", colCampusDrives, colActivities)
}

// AddActivity stamps in with a fresh id and the current time and puts it
// first, keeping at most MaxActivities entries.
func (s *Store) AddActivity(ctx context.Context, in types.ActivityInput) (types.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.addActivityLocked(in)
	return entry, s.commitLocked(ctx, "add_activity", colActivities)
}

func (s *Store) addActivityLocked(in types.ActivityInput) types.ActivityLogEntry {
	now := s.now().UTC().Truncate(time.Millisecond)
	entry := types.ActivityLogEntry{
		ID:          fmt.Sprintf("activity-%d-%s", now.UnixMilli(), s.newID()),
		Type:        in.Type,
		Description: in.Description,
		Timestamp:   now,
		UserID:      in.UserID,
		CandidateID: in.CandidateID,
		JobID:       in.JobID,
	}
	s.activities = slices.Insert(s.activities, 0, entry)
	if len(s.activities) > MaxActivities {
		s.activities = slices.Clip(s.activities[:MaxActivities])
	}
	return entry
}

// Replace swaps every collection for snap and persists all of them
func (s *Store) Replace(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = cloneSlice(snap.Jobs, cloneJob)
	s.candidates = cloneSlice(snap.Candidates, cloneCandidate)
	s.interviews = cloneSlice(snap.Interviews, cloneInterview)
	s.activities = slices.Clone(snap.Activities)
	if len(s.activities) > MaxActivities {
		s.activities = s.activities[:MaxActivities]
	}
	s.campusDrives = cloneSlice(snap.CampusDrives, cloneDrive)
	s.normalize()

	return s.commitLocked(ctx, "replace", colJobs, colCandidates, colInterviews, colActivities, colCampusDrives)
}

func (s *Store) commitLocked(ctx context.Context, operation string, cols ...collection) error {
	if s.onMutation != nil {
		s.onMutation(operation)
	}
	if err := s.persistLocked(ctx, cols...); err != nil {
		s.logger.LogError(err, "Failed to persist store mutation", "operation", operation)
		return err
	}
	return nil
}

// persistLocked writes the blobs of cols. Batch-capable persisters get all
// of them in one atomic write.
func (s *Store) persistLocked(ctx context.Context, cols ...collection) error {
	blobs := make([]Blob, 0, len(cols))
	for _, col := range cols {
		key, value := s.blobLocked(col)
		raw, err := json.Marshal(value)
		if err != nil {
			return errors.NewIOError(errors.ErrCodeStorePersist, "failed to persist store",
				fmt.Errorf("encode %s: %w", key, err))
		}
		blobs = append(blobs, Blob{Key: key, Value: raw})
	}

	if batch, ok := s.persister.(BatchSaver); ok && len(blobs) > 1 {
		if err := batch.SaveAll(ctx, blobs); err != nil {
			return errors.NewIOError(errors.ErrCodeStorePersist, "failed to persist store", err)
		}
		return nil
	}

	var errs []error
	for _, b := range blobs {
		if err := s.persister.Save(ctx, b.Key, b.Value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.NewIOError(errors.ErrCodeStorePersist, "failed to persist store", stderrors.Join(errs...))
	}
	return nil
}

func (s *Store) blobLocked(col collection) (string, any) {
	switch col {
	case colJobs:
		return s.keys.Jobs, s.jobs
	case colCandidates:
		return s.keys.Candidates, s.candidates
	case colInterviews:
		return s.keys.Interviews, s.interviews
	case colActivities:
		return s.keys.Activities, s.activities
	default:
		return s.keys.CampusDrives, s.campusDrives
	}
}

// Jobs returns a copy of the job collection, newest first
func (s *Store) Jobs() []types.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.jobs, cloneJob)
}

func (s *Store) Candidates() []types.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.candidates, cloneCandidate)
}

func (s *Store) Interviews() []types.Interview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.interviews, cloneInterview)
}

func (s *Store) CampusDrives() []types.CampusDrive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.campusDrives, cloneDrive)
}

// Activities returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) Activities(limit int) []types.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.activities) {
		limit = len(s.activities)
	}
	return slices.Clone(s.activities[:limit])
}

// Snapshot copies every collection
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Jobs:         cloneSlice(s.jobs, cloneJob),
		Candidates:   cloneSlice(s.candidates, cloneCandidate),
		Interviews:   cloneSlice(s.interviews, cloneInterview),
		Activities:   slices.Clone(s.activities),
		CampusDrives: cloneSlice(s.campusDrives, cloneDrive),
	}
}

// GetJobByID reports false when no job has id
func (s *Store) GetJobByID(id string) (types.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.ID == id {
			return cloneJob(j), true
		}
	}
	return types.Job{}, false
}

// GetCandidateByID reports false when no candidate has id
func (s *Store) GetCandidateByID(id string) (types.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidateLocked(id)
	if !ok {
		return types.Candidate{}, false
	}
	return cloneCandidate(c), true
}

func (s *Store) candidateLocked(id string) (types.Candidate, bool) {
	for _, c := range s.candidates {
		if c.ID == id {
			return c, true
		}
	}
	return types.Candidate{}, false
}

// GetCandidatesForJob lists candidates whose applications include jobID
func (s *Store) GetCandidatesForJob(jobID string) []types.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Candidate
	for _, c := range s.candidates {
		if c.AppliedTo(jobID) {
			out = append(out, cloneCandidate(c))
		}
	}
	return out
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

func cloneJob(j types.Job) types.Job {
	j.Tags = slices.Clone(j.Tags)
	j.Requirements = slices.Clone(j.Requirements)
	j.Benefits = slices.Clone(j.Benefits)
	j.Campuses = slices.Clone(j.Campuses)
	j.ScreeningQuestions = cloneSlice(j.ScreeningQuestions, func(q types.ScreeningQuestion) types.ScreeningQuestion {
		q.Options = slices.Clone(q.Options)
		return q
	})
	return j
}

func cloneCandidate(c types.Candidate) types.Candidate {
	c.Skills = slices.Clone(c.Skills)
	c.AppliedJobIDs = slices.Clone(c.AppliedJobIDs)
	c.AssessmentScores = maps.Clone(c.AssessmentScores)
	c.CurrentStage = maps.Clone(c.CurrentStage)
	c.AppliedDate = maps.Clone(c.AppliedDate)
	return c
}

func cloneInterview(iv types.Interview) types.Interview {
	iv.Interviewers = slices.Clone(iv.Interviewers)
	if iv.Rating != nil {
		r := *iv.Rating
		iv.Rating = &r
	}
	return iv
}

func cloneDrive(d types.CampusDrive) types.CampusDrive {
	d.JobIDs = slices.Clone(d.JobIDs)
	return d
}
