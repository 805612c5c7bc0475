package server

import (
	"net/http"
	"strconv"
	"time"

	"talentsparkle/internal/errors"
	"talentsparkle/internal/types"

	"github.com/google/uuid"
)

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.Backend.Store.Jobs()
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := types.JobStatus(raw)
		if !status.IsValid() {
			writeCodedError(w, "Invalid query", errors.ErrCodeInvalidRequest, "unknown job status "+raw, http.StatusBadRequest)
			return
		}
		filtered := jobs[:0]
		for _, j := range jobs {
			if j.Status == status {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var job types.Job
	if err := parseJSONRequest(r, &job, jobSchema); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if job.ID == "" {
		job.ID = "job-" + uuid.NewString()
	} else if _, exists := s.Backend.Store.GetJobByID(job.ID); exists {
		writeCodedError(w, "Job already exists", errors.ErrCodeInvalidRequest, "job "+job.ID+" already exists", http.StatusConflict)
		return
	}
	if job.Status == "" {
		job.Status = types.JobOpen
	}
	if job.Location == "" {
		job.Location = types.LocationRemote
	}
	if job.PostedDate == "" {
		job.PostedDate = time.Now().Format(time.DateOnly)
	}
	job.Tags = nonNil(job.Tags)
	job.Campuses = nonNil(job.Campuses)
	job.ScreeningQuestions = nonNil(job.ScreeningQuestions)

	if err := s.Backend.Store.AddJob(r.Context(), job); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.Backend.Store.GetJobByID(r.PathValue("id"))
	if !ok {
		writeNotFound(w, "job", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Backend.Store.GetJobByID(id); !ok {
		writeNotFound(w, "job", id)
		return
	}

	var patch types.JobPatch
	if err := parseJSONRequest(r, &patch, jobPatchSchema); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Backend.Store.UpdateJob(r.Context(), id, patch); err != nil {
		writeAppError(w, err)
		return
	}

	job, _ := s.Backend.Store.GetJobByID(id)
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Backend.Store.GetJobByID(id); !ok {
		writeNotFound(w, "job", id)
		return
	}
	if err := s.Backend.Store.DeleteJob(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listJobCandidates(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Backend.Store.GetJobByID(id); !ok {
		writeNotFound(w, "job", id)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.Backend.Store.GetCandidatesForJob(id)))
}

// listCandidates takes an optional jobId filter
func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request) {
	if jobID := r.URL.Query().Get("jobId"); jobID != "" {
		writeJSON(w, http.StatusOK, nonNil(s.Backend.Store.GetCandidatesForJob(jobID)))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.Backend.Store.Candidates()))
}

func (s *Server) getCandidate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.Backend.Store.GetCandidateByID(r.PathValue("id"))
	if !ok {
		writeNotFound(w, "candidate", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// updateStage accepts both the stored spelling ("phone_screen") and the
// display one ("Phone Screen")
func (s *Server) updateStage(w http.ResponseWriter, r *http.Request) {
	candidateID, jobID := r.PathValue("id"), r.PathValue("jobId")

	var req StageRequest
	if err := parseJSONRequest(r, &req, stageRequestSchema); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	stage, ok := types.ParseStage(req.Stage)
	if !ok {
		writeCodedError(w, "Invalid stage", errors.ErrCodeInvalidAction, "unknown stage "+req.Stage, http.StatusBadRequest)
		return
	}
	if _, ok := s.Backend.Store.GetCandidateByID(candidateID); !ok {
		writeNotFound(w, "candidate", candidateID)
		return
	}
	if _, ok := s.Backend.Store.GetJobByID(jobID); !ok {
		writeNotFound(w, "job", jobID)
		return
	}

	if err := s.Backend.Store.UpdateCandidateStage(r.Context(), candidateID, jobID, stage); err != nil {
		writeAppError(w, err)
		return
	}
	c, _ := s.Backend.Store.GetCandidateByID(candidateID)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listInterviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.Backend.Store.Interviews()))
}

func (s *Server) createInterview(w http.ResponseWriter, r *http.Request) {
	var iv types.Interview
	if err := parseJSONRequest(r, &iv, interviewSchema); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if iv.ID == "" {
		iv.ID = "int-" + uuid.NewString()
	}
	if iv.Duration == 0 {
		iv.Duration = 60
	}
	if iv.Type == "" {
		iv.Type = types.InterviewVideo
	}
	if iv.Status == "" {
		iv.Status = types.InterviewScheduled
	}
	if iv.ScheduledAt == "" {
		iv.ScheduledAt = iv.Date
	}
	iv.Interviewers = nonNil(iv.Interviewers)

	if err := s.Backend.Store.AddInterview(r.Context(), iv); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, iv)
}

func (s *Server) listCampusDrives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.Backend.Store.CampusDrives()))
}

func (s *Server) createCampusDrive(w http.ResponseWriter, r *http.Request) {
	var d types.CampusDrive
	if err := parseJSONRequest(r, &d, campusDriveSchema); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if d.ID == "" {
		d.ID = "drive-" + uuid.NewString()
	}
	if d.Status == "" {
		d.Status = types.DriveScheduled
	}
	if d.Deadline == "" {
		d.Deadline = d.ScheduledDate
	}
	d.JobIDs = nonNil(d.JobIDs)

	if err := s.Backend.Store.AddCampusDrive(r.Context(), d); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// listActivities returns the newest entries first, all of them unless
// ?limit= is given
func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeCodedError(w, "Invalid query", errors.ErrCodeInvalidRequest, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, nonNil(s.Backend.Store.Activities(limit)))
}

func (s *Server) createActivity(w http.ResponseWriter, r *http.Request) {
	var in types.ActivityInput
	if err := parseJSONRequest(r, &in, activitySchema); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := s.Backend.Store.AddActivity(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) listUniversities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.Backend.Universities))
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.Backend.Templates))
}

func writeNotFound(w http.ResponseWriter, kind, id string) {
	writeCodedError(w, "Not found", errors.ErrCodeNotFound, kind+" "+id+" not found", http.StatusNotFound)
}

// nonNil keeps empty collections encoding as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
