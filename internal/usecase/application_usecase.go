package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fadilmartias/resume-screener/internal/event"
	"github.com/fadilmartias/resume-screener/internal/export"
	"github.com/fadilmartias/resume-screener/internal/extractor"
	"github.com/fadilmartias/resume-screener/internal/lock"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/ranking"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/scoring"
	"github.com/fadilmartias/resume-screener/internal/storage"
	"github.com/fadilmartias/resume-screener/internal/worker"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	maxNameRunes   = 255
	maxEmailRunes  = 255
	maxPhoneRunes  = 50
	maxNoteRunes   = 5000
	maxYears       = 50
	maxActAttempts = 3
)

type JobRepository interface {
	FindJobByID(ctx context.Context, id uuid.UUID) (*model.Job, error)
	FindPublishedByLink(ctx context.Context, link string) (*model.Job, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	ExistsByJobEmail(ctx context.Context, jobID uuid.UUID, email string) (bool, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, status *workflow.Status) ([]model.Application, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) error
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to workflow.Status) (bool, error)
	DeleteByJob(ctx context.Context, jobID uuid.UUID) ([]model.Application, error)
}

type ResumeStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ref string) (io.ReadSeekCloser, int64, error)
	Delete(ref string) error
}

type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, declaredMIME string) (model.ParsedResume, error)
}

type Scorer interface {
	Score(ctx context.Context, job *model.Job, rubric model.Rubric, parsed model.ParsedResume) scoring.Result
}

type Runner interface {
	Do(ctx context.Context, task worker.Task) error
}

type inlineRunner struct{}

func (inlineRunner) Do(ctx context.Context, task worker.Task) error { return task(ctx) }

type Option func(*ApplicationUsecase)

func WithLocker(l lock.Locker) Option {
	return func(uc *ApplicationUsecase) {
		if l != nil {
			uc.locker = l
		}
	}
}

// WithRunner moves submissions onto a worker pool.
func WithRunner(r Runner) Option {
	return func(uc *ApplicationUsecase) {
		if r != nil {
			uc.runner = r
		}
	}
}

func WithPublisher(p event.Publisher) Option {
	return func(uc *ApplicationUsecase) {
		if p != nil {
			uc.publisher = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(uc *ApplicationUsecase) {
		if l != nil {
			uc.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *ApplicationUsecase) {
		if now != nil {
			uc.now = now
		}
	}
}

// ApplicationUsecase is the application registry: it owns submission, HR
// review and the ranking view of a job's applications.
type ApplicationUsecase struct {
	jobs      JobRepository
	apps      ApplicationRepository
	extractor DocumentExtractor
	scorer    Scorer
	store     ResumeStore
	locker    lock.Locker
	runner    Runner
	publisher event.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewApplicationUsecase(jobs JobRepository, apps ApplicationRepository, ext DocumentExtractor, scorer Scorer, store ResumeStore, opts ...Option) *ApplicationUsecase {
	uc := &ApplicationUsecase{
		jobs:      jobs,
		apps:      apps,
		extractor: ext,
		scorer:    scorer,
		store:     store,
		locker:    lock.NewKeyed(),
		runner:    inlineRunner{},
		publisher: event.Multi{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SubmitInput addresses the job either by id or by its public link.
type SubmitInput struct {
	JobID             uuid.UUID
	PublicLink        string
	FullName          string
	Email             string
	Phone             *string
	YearsOfExperience *int
	Filename          string
	ContentType       string
	Data              []byte
}

// Submit extracts, scores and stores one application as a single unit. Nothing
// is persisted unless every step succeeds.
func (uc *ApplicationUsecase) Submit(ctx context.Context, in SubmitInput) (*model.Application, error) {
	candidate, err := normalizeCandidate(in)
	if err != nil {
		return nil, err
	}

	job, err := uc.resolveJob(ctx, in)
	if err != nil {
		return nil, err
	}

	contentType := in.ContentType
	if ct := strings.TrimSpace(contentType); ct == "" || ct == "application/octet-stream" {
		contentType = extractor.MIMEFromFilename(in.Filename)
	}
	format, err := extractor.FormatFromMIME(contentType)
	if err != nil {
		return nil, err
	}
	if len(in.Data) > extractor.MaxPayloadBytes {
		return nil, extractor.ErrPayloadTooLarge
	}

	key := job.ID.String() + "|" + candidate.Email
	release, err := uc.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, fmt.Errorf("%w: a submission is already being processed", ErrDuplicateApplication)
		}
		return nil, fmt.Errorf("acquire submission lock: %w", err)
	}
	defer release()

	var app *model.Application
	err = uc.runner.Do(ctx, func(ctx context.Context) error {
		var err error
		app, err = uc.process(ctx, job, candidate, in, contentType, format)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (uc *ApplicationUsecase) process(ctx context.Context, job *model.Job, candidate model.Candidate, in SubmitInput, contentType string, format extractor.Format) (*model.Application, error) {
	start := uc.now()
	log := uc.logger.With(zap.String("job_id", job.ID.String()))

	exists, err := uc.apps.ExistsByJobEmail(ctx, job.ID, candidate.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if exists {
		return nil, ErrDuplicateApplication
	}

	parsed, err := uc.extractor.Extract(ctx, in.Data, contentType)
	if err != nil {
		log.Info("resume rejected", zap.String("format", string(format)), zap.Error(err))
		return nil, err
	}

	// Declared years win over parsed ones for scoring; the stored parse keeps
	// what the document said.
	forScoring := parsed
	if candidate.YearsOfExperience != nil {
		forScoring.YearsOfExperience = candidate.YearsOfExperience
	}
	if candidate.Phone == nil && parsed.Phone != nil {
		candidate.Phone = parsed.Phone
	}

	rubric := job.Rubric()
	result := uc.scorer.Score(ctx, job, rubric, forScoring)

	now := uc.now().UTC()
	app := &model.Application{
		ID:             uuid.New(),
		JobID:          job.ID,
		Candidate:      candidate,
		ResumeFilename: filepath.Base(strings.TrimSpace(in.Filename)),
		ResumeMIME:     contentType,
		ResumeParsed:   datatypes.NewJSONType(parsed),
		Rubric:         datatypes.NewJSONType(rubric),
		AIScore:        result.Score,
		ScoreBreakdown: datatypes.NewJSONType(result.Breakdown),
		Explanation:    result.Explanation,
		Status:         workflow.StatusApplied,
		AppliedAt:      now,
		UpdatedAt:      now,
	}

	ref, err := uc.store.Save(ctx, app.ID.String()+"."+string(format), in.Data)
	if err != nil {
		return nil, fmt.Errorf("store resume: %w", err)
	}
	app.ResumePath = ref

	if err := uc.apps.Create(ctx, app); err != nil {
		if rmErr := uc.store.Delete(ref); rmErr != nil {
			log.Warn("failed to remove orphaned resume", zap.String("ref", ref), zap.Error(rmErr))
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	log.Info("application submitted",
		zap.String("application_id", app.ID.String()),
		zap.Int("ai_score", app.AIScore),
		zap.Bool("ai_powered", result.Breakdown.AIPowered),
		zap.Duration("took", uc.now().Sub(start)),
	)
	return app, nil
}

func (uc *ApplicationUsecase) resolveJob(ctx context.Context, in SubmitInput) (*model.Job, error) {
	var (
		job *model.Job
		err error
	)
	switch {
	case strings.TrimSpace(in.PublicLink) != "":
		job, err = uc.jobs.FindPublishedByLink(ctx, strings.TrimSpace(in.PublicLink))
	case in.JobID != uuid.Nil:
		job, err = uc.jobs.FindJobByID(ctx, in.JobID)
	default:
		return nil, &InputError{Fields: map[string]string{"job": "job id or public link is required"}}
	}
	return job, mapNotFound(err, ErrJobNotFound)
}

func normalizeCandidate(in SubmitInput) (model.Candidate, error) {
	fields := map[string]string{}

	name := strings.Join(strings.Fields(in.FullName), " ")
	switch {
	case name == "":
		fields["full_name"] = "is required"
	case utf8.RuneCountInString(name) > maxNameRunes:
		fields["full_name"] = fmt.Sprintf("must be at most %d characters", maxNameRunes)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		fields["email"] = "is required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email || utf8.RuneCountInString(email) > maxEmailRunes {
		fields["email"] = "is not a valid email address"
	}

	var phone *string
	if in.Phone != nil {
		if p := strings.TrimSpace(*in.Phone); p != "" {
			if utf8.RuneCountInString(p) > maxPhoneRunes {
				fields["phone"] = fmt.Sprintf("must be at most %d characters", maxPhoneRunes)
			}
			phone = &p
		}
	}

	if in.YearsOfExperience != nil && (*in.YearsOfExperience < 0 || *in.YearsOfExperience > maxYears) {
		fields["years_of_experience"] = fmt.Sprintf("must be between 0 and %d", maxYears)
	}

	if len(in.Data) == 0 {
		fields["resume"] = "is required"
	}

	if len(fields) > 0 {
		return model.Candidate{}, &InputError{Fields: fields}
	}
	return model.Candidate{
		ID:                uuid.New(),
		FullName:          name,
		Email:             email,
		Phone:             phone,
		YearsOfExperience: in.YearsOfExperience,
	}, nil
}

func (uc *ApplicationUsecase) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	app, err := uc.apps.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrApplicationNotFound)
	}
	return app, nil
}

// PublicJob returns a published job by its public link.
func (uc *ApplicationUsecase) PublicJob(ctx context.Context, link string) (*model.Job, error) {
	job, err := uc.jobs.FindPublishedByLink(ctx, strings.TrimSpace(link))
	if err != nil {
		return nil, mapNotFound(err, ErrJobNotFound)
	}
	return job, nil
}

// List is the ranking view of one job.
func (uc *ApplicationUsecase) List(ctx context.Context, jobID uuid.UUID, q ranking.Query) ([]model.Application, error) {
	_, apps, err := uc.ranked(ctx, jobID, q)
	return apps, err
}

func (uc *ApplicationUsecase) ranked(ctx context.Context, jobID uuid.UUID, q ranking.Query) (*model.Job, []model.Application, error) {
	job, err := uc.jobs.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, nil, mapNotFound(err, ErrJobNotFound)
	}
	apps, err := uc.apps.ListByJob(ctx, jobID, q.Status)
	if err != nil {
		return nil, nil, fmt.Errorf("list applications: %w", err)
	}
	return job, ranking.Rank(apps, q), nil
}

// Export writes the ranking view as an XLSX workbook.
func (uc *ApplicationUsecase) Export(ctx context.Context, w io.Writer, jobID uuid.UUID, q ranking.Query) error {
	job, apps, err := uc.ranked(ctx, jobID, q)
	if err != nil {
		return err
	}
	return export.WriteRanking(w, job, apps, uc.now())
}

// UpdateNotes replaces the HR note. A blank note clears it.
func (uc *ApplicationUsecase) UpdateNotes(ctx context.Context, id uuid.UUID, note string) (*model.Application, error) {
	var notes *string
	if n := strings.TrimSpace(note); n != "" {
		if utf8.RuneCountInString(n) > maxNoteRunes {
			return nil, &InputError{Fields: map[string]string{"note": fmt.Sprintf("must be at most %d characters", maxNoteRunes)}}
		}
		notes = &n
	}
	if err := uc.apps.UpdateNotes(ctx, id, notes); err != nil {
		return nil, mapNotFound(err, ErrApplicationNotFound)
	}
	return uc.Get(ctx, id)
}

// Act applies an HR action on behalf of actor. The status only moves if it is
// still the one the transition was checked against; a lost race is re-read
// and re-checked.
func (uc *ApplicationUsecase) Act(ctx context.Context, id uuid.UUID, action workflow.Action, actor string) (*model.Application, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = UnknownActor
	}
	for attempt := 0; attempt < maxActAttempts; attempt++ {
		app, err := uc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		from := app.Status
		to, err := workflow.Next(from, action)
		if err != nil {
			return nil, err
		}

		ok, err := uc.apps.CompareAndSetStatus(ctx, id, from, to)
		if err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
		if !ok {
			uc.logger.Debug("status changed concurrently, retrying",
				zap.String("application_id", id.String()),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		app.Status = to
		app.UpdatedAt = uc.now().UTC()
		uc.publish(ctx, app, from, action, actor)
		return app, nil
	}
	return nil, ErrConflict
}

// UnknownActor is recorded when the caller's identity was not passed on.
const UnknownActor = "unknown"

func (uc *ApplicationUsecase) publish(ctx context.Context, app *model.Application, from workflow.Status, action workflow.Action, actor string) {
	ev := event.TransitionEvent{
		ApplicationID:  app.ID,
		JobID:          app.JobID,
		CandidateName:  app.Candidate.FullName,
		CandidateEmail: app.Candidate.Email,
		From:           from,
		To:             app.Status,
		Action:         action,
		Actor:          actor,
		Notify:         workflow.Notifies(from, action),
		At:             app.UpdatedAt,
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.logger.Warn("transition event not delivered",
			zap.String("application_id", app.ID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// ResumeDownload is an open stored resume. The caller closes Body.
type ResumeDownload struct {
	Body        io.ReadSeekCloser
	Size        int64
	Filename    string
	ContentType string
}

func (uc *ApplicationUsecase) ResumeFile(ctx context.Context, id uuid.UUID) (*ResumeDownload, error) {
	app, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ResumePath == "" {
		return nil, ErrResumeNotFound
	}
	body, size, err := uc.store.Open(app.ResumePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, fmt.Errorf("open resume: %w", err)
	}
	contentType := app.ResumeMIME
	if contentType == "" {
		contentType = extractor.MIMEFromFilename(app.ResumePath)
	}
	return &ResumeDownload{
		Body:        body,
		Size:        size,
		Filename:    DownloadName(app.Candidate.FullName, filepath.Ext(app.ResumePath)),
		ContentType: contentType,
	}, nil
}

// DownloadName builds <Full_Name>_resume<ext> with anything but letters,
// digits, dashes and underscores replaced.
func DownloadName(fullName, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.Join(strings.Fields(fullName), " "))
	if name == "" {
		name = "candidate"
	}
	return name + "_resume" + ext
}

// PurgeJob removes every application of a deleted job together with the
// stored resumes. It returns how many applications were removed.
func (uc *ApplicationUsecase) PurgeJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	removed, err := uc.apps.DeleteByJob(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("delete applications: %w", err)
	}
	for _, app := range removed {
		if app.ResumePath == "" {
			continue
		}
		if err := uc.store.Delete(app.ResumePath); err != nil {
			uc.logger.Warn("failed to delete resume of purged application",
				zap.String("application_id", app.ID.String()),
				zap.Error(err),
			)
		}
	}
	uc.logger.Info("job applications purged", zap.String("job_id", jobID.String()), zap.Int("count", len(removed)))
	return len(removed), nil
}

func mapNotFound(err, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}
