package services

import (
	"context"
	"sync"

	"github.com/hireloop/hireloop/internal/core/domain"
)

// fakeRepo is an in-memory ports.Repository for capability tests.
type fakeRepo struct {
	mu       sync.Mutex
	profiles map[domain.UserID]domain.UserProfile
	jobs     map[domain.JobID]domain.Job
	apps     map[domain.AppID]domain.Application
	matches  []domain.MatchResult
	settings map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: map[domain.UserID]domain.UserProfile{},
		jobs:     map[domain.JobID]domain.Job{},
		apps:     map[domain.AppID]domain.Application{},
		settings: map[string]string{},
	}
}

func (r *fakeRepo) SaveProfile(_ context.Context, p domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
	return nil
}

func (r *fakeRepo) GetProfile(_ context.Context, id domain.UserID) (domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeRepo) ListProfiles(_ context.Context) ([]domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.UserProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) DeleteProfile(_ context.Context, id domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
	return nil
}

func (r *fakeRepo) SaveJob(_ context.Context, j domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
	return nil
}

func (r *fakeRepo) GetJob(_ context.Context, id domain.JobID) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return j, nil
}

func (r *fakeRepo) ListJobs(_ context.Context, status domain.JobStatus) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Job
	for _, j := range r.jobs {
		if status == "" || j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateJobStatus(_ context.Context, id domain.JobID, status domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Status = status
	r.jobs[id] = j
	return nil
}

func (r *fakeRepo) SaveApplication(_ context.Context, a domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[a.ID] = a
	return nil
}

func (r *fakeRepo) GetApplication(_ context.Context, id domain.AppID) (domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return domain.Application{}, domain.ErrApplicationNotFound
	}
	return a, nil
}

func (r *fakeRepo) GetApplicationByJob(_ context.Context, userID domain.UserID, jobID domain.JobID) (domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.UserID == userID && a.JobID == jobID {
			return a, nil
		}
	}
	return domain.Application{}, domain.ErrApplicationNotFound
}

func (r *fakeRepo) ListApplications(_ context.Context, userID domain.UserID) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Application
	for _, a := range r.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveMatches(_ context.Context, matches []domain.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, matches...)
	return nil
}

func (r *fakeRepo) ListMatches(_ context.Context, userID domain.UserID, minScore int) ([]domain.MatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MatchResult
	for _, m := range r.matches {
		if m.UserID == userID && m.Score >= minScore {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetSetting(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings[key], nil
}

func (r *fakeRepo) SaveSetting(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
	return nil
}
