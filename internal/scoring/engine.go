package scoring

import (
	"context"
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"go.uber.org/zap"
)

// ConcernExperienceUnspecified is raised whenever the job asks for experience
// and none is known for the candidate.
const ConcernExperienceUnspecified = "experience not specified"

// Assessment is the deterministic part of a score: everything that feeds
// ai_score and nothing that depends on a narrative generator.
type Assessment struct {
	Skills        int
	Experience    int
	Score         int
	MatchedSkills []string
	MissingSkills []string

	// Years is nil when the candidate's experience is unknown.
	Years         *int
	MinExperience int
}

// ExperienceUnspecified reports whether the experience concern applies.
func (a Assessment) ExperienceUnspecified() bool {
	return a.Years == nil && a.MinExperience > 0
}

// Assess scores skills and years against a rubric. It is a pure function of
// its arguments and the policy.
func (p Policy) Assess(rubric model.Rubric, skills []string, years *int) Assessment {
	have := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if key := p.Normalize(s); key != "" {
			have[key] = struct{}{}
		}
	}

	matched := make([]string, 0, len(rubric.Skills))
	missing := make([]string, 0, len(rubric.Skills))
	for _, req := range rubric.Skills {
		if _, ok := have[p.Normalize(req)]; ok {
			matched = append(matched, req)
		} else {
			missing = append(missing, req)
		}
	}

	total := len(rubric.Skills)
	if total < 1 {
		total = 1
	}
	skillsScore := clamp(roundDiv(100*len(matched), total))

	minExp := rubric.MinExperience
	if minExp < 0 {
		minExp = 0
	}
	var yrs *int
	if years != nil {
		y := *years
		if y < 0 {
			y = 0
		}
		yrs = &y
	}

	expScore := experienceScore(yrs, minExp)
	return Assessment{
		Skills:        skillsScore,
		Experience:    expScore,
		Score:         p.Composite(skillsScore, expScore),
		MatchedSkills: matched,
		MissingSkills: missing,
		Years:         yrs,
		MinExperience: minExp,
	}
}

func experienceScore(years *int, minExp int) int {
	switch {
	case minExp == 0:
		return 100
	case years == nil:
		return 0
	case *years >= minExp:
		return 100
	}
	return clamp(roundDiv(100*(*years), minExp))
}

// Result is what the engine hands back for one resume.
type Result struct {
	Score       int
	Breakdown   model.ScoreBreakdown
	Explanation string
}

// Engine scores parsed resumes against job rubrics and attaches a narrative.
type Engine struct {
	policy   Policy
	narrator *Narrator
	logger   *zap.Logger
}

func NewEngine(policy Policy, narrator *Narrator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if narrator == nil {
		narrator = NewNarrator(nil, 0, logger)
	}
	return &Engine{policy: policy, narrator: narrator, logger: logger}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Score never fails: when no enriched narrative can be produced the template
// narrative is used and ai_powered is false.
func (e *Engine) Score(ctx context.Context, job *model.Job, rubric model.Rubric, parsed model.ParsedResume) Result {
	start := time.Now()
	a := e.policy.Assess(rubric, parsed.Skills, parsed.YearsOfExperience)

	narrative, aiPowered := e.narrator.Narrate(ctx, NarrativeInput{
		JobTitle:        job.Title,
		JobDescription:  job.Description,
		JobRequirements: job.Requirements,
		Rubric:          rubric,
		ResumeText:      parsed.RawText,
		Assessment:      a,
	})

	concerns := narrative.Concerns
	if a.ExperienceUnspecified() && !containsFold(concerns, ConcernExperienceUnspecified) {
		concerns = append(concerns, ConcernExperienceUnspecified)
	}

	e.logger.Debug("resume scored",
		zap.String("job_id", job.ID.String()),
		zap.Int("ai_score", a.Score),
		zap.Int("skills", a.Skills),
		zap.Int("experience", a.Experience),
		zap.Bool("ai_powered", aiPowered),
		zap.Duration("took", time.Since(start)),
	)

	return Result{
		Score: a.Score,
		Breakdown: model.ScoreBreakdown{
			Skills:        a.Skills,
			Experience:    a.Experience,
			MatchedSkills: a.MatchedSkills,
			MissingSkills: a.MissingSkills,
			Strengths:     narrative.Strengths,
			Concerns:      concerns,
			AIPowered:     aiPowered,
		},
		Explanation: narrative.Explanation,
	}
}
