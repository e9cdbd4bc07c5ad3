package usecase

import (
	"context"
	"sync"

	"github.com/fadilmartias/resume-screener/internal/event"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
)

type fakeJobRepo struct {
	jobs map[uuid.UUID]*model.Job
}

func (r *fakeJobRepo) FindJobByID(_ context.Context, id uuid.UUID) (*model.Job, error) {
	if j, ok := r.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeJobRepo) FindPublishedByLink(_ context.Context, link string) (*model.Job, error) {
	for _, j := range r.jobs {
		if j.PublicLink == link && j.Status == model.JobStatusPublished {
			cp := *j
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeAppRepo struct {
	mu   sync.Mutex
	apps map[uuid.UUID]model.Application

	// skipExistsCheck makes ExistsByJobEmail lie so the unique index path runs.
	skipExistsCheck bool
	// beforeCAS runs once before the next CompareAndSetStatus.
	beforeCAS func()
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: map[uuid.UUID]model.Application{}}
}

func (r *fakeAppRepo) Create(_ context.Context, app *model.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.JobID == app.JobID && a.Candidate.Email == app.Candidate.Email {
			return repository.ErrDuplicate
		}
	}
	r.apps[app.ID] = *app
	return nil
}

func (r *fakeAppRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *fakeAppRepo) ExistsByJobEmail(_ context.Context, jobID uuid.UUID, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipExistsCheck {
		return false, nil
	}
	for _, a := range r.apps {
		if a.JobID == jobID && a.Candidate.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppRepo) ListByJob(_ context.Context, jobID uuid.UUID, status *workflow.Status) ([]model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Application
	for _, a := range r.apps {
		if a.JobID == jobID && (status == nil || a.Status == *status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) UpdateNotes(_ context.Context, id uuid.UUID, notes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Notes = notes
	r.apps[id] = a
	return nil
}

func (r *fakeAppRepo) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to workflow.Status) (bool, error) {
	r.mu.Lock()
	hook := r.beforeCAS
	r.beforeCAS = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	r.apps[id] = a
	return true, nil
}

func (r *fakeAppRepo) DeleteByJob(_ context.Context, jobID uuid.UUID) ([]model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []model.Application
	for id, a := range r.apps {
		if a.JobID == jobID {
			removed = append(removed, a)
			delete(r.apps, id)
		}
	}
	return removed, nil
}

func (r *fakeAppRepo) setStatus(id uuid.UUID, s workflow.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.apps[id]
	a.Status = s
	r.apps[id] = a
}

func (r *fakeAppRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

type extractFunc func(ctx context.Context, data []byte, mime string) (model.ParsedResume, error)

func (f extractFunc) Extract(ctx context.Context, data []byte, mime string) (model.ParsedResume, error) {
	return f(ctx, data, mime)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.TransitionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev event.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}
