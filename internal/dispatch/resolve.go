package dispatch

import (
	"fmt"
	"strings"

	"talentsparkle/internal/errors"
	"talentsparkle/internal/types"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// matchKeys splits an item's keys into ids, which only match exactly, and
// names, which may also match by substring.
type matchKeys struct {
	ids   []string
	names []string
}

// match finds the single item with an id or name equal to query ignoring
// case, or failing that the single item whose name contains it.
func match[T any](kind, query string, items []T, keys func(T) matchKeys) (T, error) {
	var zero T
	q := fold(query)
	if q == "" {
		return zero, errors.NewNotFoundError(errors.ErrCodeNotFound,
			fmt.Sprintf("no %s given", kind), nil)
	}

	var exact, partial []T
	for _, item := range items {
		k := keys(item)
		isExact, isPartial := false, false
		for _, id := range k.ids {
			if fid := fold(id); fid != "" && fid == q {
				isExact = true
			}
		}
		for _, name := range k.names {
			fn := fold(name)
			if fn == "" {
				continue
			}
			if fn == q {
				isExact = true
			} else if strings.Contains(fn, q) {
				isPartial = true
			}
		}
		switch {
		case isExact:
			exact = append(exact, item)
		case isPartial:
			partial = append(partial, item)
		}
	}

	candidates := exact
	if len(candidates) == 0 {
		candidates = partial
	}

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return zero, errors.NewNotFoundError(errors.ErrCodeNotFound,
			fmt.Sprintf("no %s matches %q", kind, query), nil).WithContext("query", query)
	default:
		return zero, errors.NewValidationError(errors.ErrCodeAmbiguousMatch,
			fmt.Sprintf("%q matches %d %ss", query, len(candidates), kind), nil).
			WithContext("query", query).
			WithContext("matches", len(candidates))
	}
}

// Resolver maps the human readable names used by the model to record ids
type Resolver struct {
	store        Store
	universities []types.University
}

func NewResolver(store Store, universities []types.University) *Resolver {
	return &Resolver{store: store, universities: universities}
}

// Candidate resolves a candidate by name or id
func (r *Resolver) Candidate(name string) (types.Candidate, error) {
	return match("candidate", name, r.store.Candidates(), func(c types.Candidate) matchKeys {
		return matchKeys{ids: []string{c.ID}, names: []string{c.Name}}
	})
}

func jobKeys(j types.Job) matchKeys {
	return matchKeys{ids: []string{j.ID}, names: []string{j.Title}}
}

// Job resolves a job by id or title
func (r *Resolver) Job(title string) (types.Job, error) {
	return match("job", title, r.store.Jobs(), jobKeys)
}

// University resolves a university by id or name
func (r *Resolver) University(name string) (types.University, error) {
	return match("university", name, r.universities, func(u types.University) matchKeys {
		return matchKeys{ids: []string{u.ID}, names: []string{u.Name, u.Domain}}
	})
}

// JobForCandidate picks the job an action on c refers to: the named job
// when jobTitle is set, otherwise c's only application.
func (r *Resolver) JobForCandidate(c types.Candidate, jobTitle string) (string, error) {
	if strings.TrimSpace(jobTitle) != "" {
		job, err := r.Job(jobTitle)
		if err != nil {
			return "", err
		}
		return job.ID, nil
	}

	switch len(c.AppliedJobIDs) {
	case 1:
		return c.AppliedJobIDs[0], nil
	case 0:
		return "", errors.NewNotFoundError(errors.ErrCodeNotFound,
			fmt.Sprintf("%s has not applied to any job", c.Name), nil)
	default:
		return "", errors.NewValidationError(errors.ErrCodeAmbiguousMatch,
			fmt.Sprintf("%s applied to %d jobs; name the job", c.Name, len(c.AppliedJobIDs)), nil)
	}
}

// Positions maps campus drive positions to job ids. Entries that name a job
// id or exactly one job title are replaced by its id; others are kept as given.
func (r *Resolver) Positions(positions []string) []string {
	jobs := r.store.Jobs()
	out := make([]string, 0, len(positions))
	for _, p := range positions {
		job, err := match("job", p, jobs, jobKeys)
		if err != nil {
			out = append(out, p)
			continue
		}
		out = append(out, job.ID)
	}
	return out
}
