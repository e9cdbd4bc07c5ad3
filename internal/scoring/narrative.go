package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"go.uber.org/zap"
)

// ErrEnrichmentUnavailable is returned by a generator that cannot run right
// now: no credentials, breaker open, quota exhausted. It never reaches callers
// of the engine.
var ErrEnrichmentUnavailable = errors.New("narrative enrichment unavailable")

const defaultEnrichTimeout = 15 * time.Second

// NarrativeInput is everything a generator may look at. The assessment is
// final; generators describe it, they do not change it.
type NarrativeInput struct {
	JobTitle        string
	JobDescription  string
	JobRequirements string
	Rubric          model.Rubric
	ResumeText      string
	Assessment      Assessment
}

type Narrative struct {
	Strengths   []string `json:"strengths"`
	Concerns    []string `json:"concerns"`
	Explanation string   `json:"explanation"`
}

// NarrativeGenerator turns an assessment into strengths, concerns and an
// explanation.
type NarrativeGenerator interface {
	Name() string
	Narrate(ctx context.Context, in NarrativeInput) (Narrative, error)
}

// TemplateNarrator is the deterministic fallback. It never fails.
type TemplateNarrator struct{}

func (TemplateNarrator) Name() string { return "template" }

func (TemplateNarrator) Narrate(_ context.Context, in NarrativeInput) (Narrative, error) {
	return templateNarrative(in.Assessment), nil
}

func templateNarrative(a Assessment) Narrative {
	strengths := make([]string, 0, 2)
	concerns := make([]string, 0, 2)

	if len(a.MatchedSkills) > 0 {
		strengths = append(strengths, "Has required skills: "+strings.Join(a.MatchedSkills, ", "))
	}
	if len(a.MissingSkills) > 0 {
		concerns = append(concerns, "Missing required skills: "+strings.Join(a.MissingSkills, ", "))
	}

	switch {
	case a.Years == nil:
		if a.MinExperience > 0 {
			concerns = append(concerns, ConcernExperienceUnspecified)
		}
	case *a.Years > a.MinExperience && a.MinExperience > 0:
		strengths = append(strengths, fmt.Sprintf("%s of experience, %s above the %s required",
			plural(*a.Years, "year"), plural(*a.Years-a.MinExperience, "year"), plural(a.MinExperience, "year")))
	case *a.Years >= a.MinExperience && a.MinExperience > 0:
		strengths = append(strengths, fmt.Sprintf("%s of experience meets the requirement", plural(*a.Years, "year")))
	case *a.Years < a.MinExperience:
		concerns = append(concerns, fmt.Sprintf("%s of experience, below the %s required",
			plural(*a.Years, "year"), plural(a.MinExperience, "year")))
	case *a.Years > 0:
		strengths = append(strengths, fmt.Sprintf("%s of experience", plural(*a.Years, "year")))
	}

	return Narrative{
		Strengths:   strengths,
		Concerns:    concerns,
		Explanation: templateExplanation(a),
	}
}

func templateExplanation(a Assessment) string {
	total := len(a.MatchedSkills) + len(a.MissingSkills)
	exp := "no minimum experience required"
	switch {
	case a.MinExperience == 0:
	case a.Years == nil:
		exp = fmt.Sprintf("experience unknown against %s required", plural(a.MinExperience, "year"))
	default:
		exp = fmt.Sprintf("%s against %s required", plural(*a.Years, "year"), plural(a.MinExperience, "year"))
	}
	return fmt.Sprintf("Skills %d/100 (%d of %d required skills matched); experience %d/100 (%s). Overall match %d/100.",
		a.Skills, len(a.MatchedSkills), total, a.Experience, exp, a.Score)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Narrator tries enriched generators in order under a shared timeout and
// falls back to the template narrative.
type Narrator struct {
	enriched []NarrativeGenerator
	fallback NarrativeGenerator
	timeout  time.Duration
	logger   *zap.Logger
}

func NewNarrator(enriched []NarrativeGenerator, timeout time.Duration, logger *zap.Logger) *Narrator {
	if timeout <= 0 {
		timeout = defaultEnrichTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	gens := make([]NarrativeGenerator, 0, len(enriched))
	for _, g := range enriched {
		if g != nil {
			gens = append(gens, g)
		}
	}
	return &Narrator{
		enriched: gens,
		fallback: TemplateNarrator{},
		timeout:  timeout,
		logger:   logger,
	}
}

// Narrate returns the first enriched narrative that succeeds, otherwise the
// template one. The bool reports whether an enriched generator produced it.
func (n *Narrator) Narrate(ctx context.Context, in NarrativeInput) (Narrative, bool) {
	base, _ := n.fallback.Narrate(ctx, in)
	if len(n.enriched) == 0 {
		return base, false
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	for _, gen := range n.enriched {
		out, err := n.try(ctx, gen, in)
		if err != nil {
			level := n.logger.Warn
			if errors.Is(err, ErrEnrichmentUnavailable) {
				level = n.logger.Debug
			}
			level("narrative enrichment failed, trying next",
				zap.String("generator", gen.Name()),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return mergeNarrative(out, base), true
	}
	return base, false
}

// try runs one generator and gives up when ctx ends even if the generator
// ignores cancellation.
func (n *Narrator) try(ctx context.Context, gen NarrativeGenerator, in NarrativeInput) (Narrative, error) {
	type result struct {
		out Narrative
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		out, err := gen.Narrate(ctx, in)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return Narrative{}, fmt.Errorf("%w: %v", ErrEnrichmentUnavailable, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return Narrative{}, r.err
		}
		if strings.TrimSpace(r.out.Explanation) == "" {
			return Narrative{}, errors.New("generator returned an empty explanation")
		}
		return r.out, nil
	}
}

// mergeNarrative keeps the enriched prose and fills lists the generator left
// empty from the template.
func mergeNarrative(enriched, base Narrative) Narrative {
	out := Narrative{
		Strengths:   cleanList(enriched.Strengths),
		Concerns:    cleanList(enriched.Concerns),
		Explanation: strings.TrimSpace(enriched.Explanation),
	}
	if len(out.Strengths) == 0 {
		out.Strengths = base.Strengths
	}
	if len(out.Concerns) == 0 {
		out.Concerns = base.Concerns
	}
	return out
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
