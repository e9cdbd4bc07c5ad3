package event

import (
	"context"
	"errors"
	"time"

	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransitionEvent records one accepted workflow action. Notify is set only
// when the transition authorizes contacting the candidate.
type TransitionEvent struct {
	ApplicationID  uuid.UUID       `json:"application_id"`
	JobID          uuid.UUID       `json:"job_id"`
	CandidateName  string          `json:"candidate_name"`
	CandidateEmail string          `json:"candidate_email"`
	From           workflow.Status `json:"from"`
	To             workflow.Status `json:"to"`
	Action         workflow.Action `json:"action"`
	Actor          string          `json:"actor"`
	Notify         bool            `json:"notify"`
	At             time.Time       `json:"at"`
}

// Publisher delivers transition events. Delivery failures never undo a
// transition; callers log them and move on.
type Publisher interface {
	Publish(ctx context.Context, ev TransitionEvent) error
}

// LogPublisher writes every event to the audit log.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev TransitionEvent) error {
	p.logger.Info("application status changed",
		zap.String("application_id", ev.ApplicationID.String()),
		zap.String("job_id", ev.JobID.String()),
		zap.String("from", string(ev.From)),
		zap.String("to", string(ev.To)),
		zap.String("action", string(ev.Action)),
		zap.String("actor", ev.Actor),
		zap.Bool("notify", ev.Notify),
		zap.Time("at", ev.At),
	)
	return nil
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev TransitionEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
