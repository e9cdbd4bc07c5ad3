package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	name  string
	out   Narrative
	err   error
	delay time.Duration
	calls int
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Narrate(ctx context.Context, _ NarrativeInput) (Narrative, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Narrative{}, ctx.Err()
		}
	}
	return s.out, s.err
}

func sampleInput() NarrativeInput {
	rubric := model.Rubric{Skills: []string{"python", "sql"}, MinExperience: 3}
	return NarrativeInput{
		JobTitle:   "Data Engineer",
		Rubric:     rubric,
		ResumeText: "Python developer with 2 years of experience",
		Assessment: DefaultPolicy().Assess(rubric, []string{"python"}, intPtr(2)),
	}
}

func TestNarrator_NoGeneratorsUsesTemplate(t *testing.T) {
	n := NewNarrator(nil, time.Second, nil)
	out, ai := n.Narrate(context.Background(), sampleInput())
	if ai {
		t.Error("ai_powered should be false without generators")
	}
	if !strings.Contains(out.Explanation, "Skills 50/100") || !strings.Contains(out.Explanation, "experience 67/100") {
		t.Errorf("explanation should reference both sub-scores: %q", out.Explanation)
	}
}

func TestNarrator_FallsBackOnError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	failing := &stubGenerator{name: "gemini", err: errors.New("503 service unavailable")}
	n := NewNarrator([]NarrativeGenerator{failing}, time.Second, zap.New(core))

	out, ai := n.Narrate(context.Background(), sampleInput())
	if ai {
		t.Error("failed enrichment must not report ai_powered")
	}
	if out.Explanation == "" {
		t.Error("fallback explanation missing")
	}
	if logs.FilterMessage("narrative enrichment failed, trying next").Len() != 1 {
		t.Errorf("expected one failure log, got %d entries", logs.Len())
	}
}

func TestNarrator_FallsBackOnTimeout(t *testing.T) {
	slow := &stubGenerator{name: "slow", delay: time.Second, out: Narrative{Explanation: "late"}}
	n := NewNarrator([]NarrativeGenerator{slow}, 20*time.Millisecond, nil)

	start := time.Now()
	out, ai := n.Narrate(context.Background(), sampleInput())
	if ai || out.Explanation == "late" {
		t.Errorf("timed out generator must not be used: ai=%v out=%+v", ai, out)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("narrate blocked for %v", time.Since(start))
	}
}

func TestNarrator_TriesNextGenerator(t *testing.T) {
	unavailable := &stubGenerator{name: "gemini", err: ErrEnrichmentUnavailable}
	working := &stubGenerator{name: "openrouter", out: Narrative{
		Strengths:   []string{" Python in production "},
		Explanation: "Good Python depth but short on SQL and experience.",
	}}
	n := NewNarrator([]NarrativeGenerator{unavailable, working}, time.Second, nil)

	out, ai := n.Narrate(context.Background(), sampleInput())
	if !ai {
		t.Fatal("second generator succeeded, ai_powered should be true")
	}
	if unavailable.calls != 1 || working.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", unavailable.calls, working.calls)
	}
	if len(out.Strengths) != 1 || out.Strengths[0] != "Python in production" {
		t.Errorf("strengths = %v", out.Strengths)
	}
	if len(out.Concerns) == 0 {
		t.Error("empty enriched concerns should be filled from the template")
	}
}

func TestNarrator_EmptyExplanationIsFailure(t *testing.T) {
	blank := &stubGenerator{name: "blank", out: Narrative{Strengths: []string{"x"}}}
	n := NewNarrator([]NarrativeGenerator{blank}, time.Second, nil)
	if _, ai := n.Narrate(context.Background(), sampleInput()); ai {
		t.Error("a narrative without explanation must not count as enriched")
	}
}

func TestTemplateNarrative(t *testing.T) {
	tests := []struct {
		name          string
		years         *int
		minExp        int
		wantStrength  string
		wantConcern   string
		noExpConcerns bool
	}{
		{name: "surplus", years: intPtr(5), minExp: 3, wantStrength: "5 years of experience, 2 years above the 3 years required"},
		{name: "exact", years: intPtr(3), minExp: 3, wantStrength: "3 years of experience meets the requirement"},
		{name: "short", years: intPtr(1), minExp: 3, wantConcern: "1 year of experience, below the 3 years required"},
		{name: "unknown", minExp: 3, wantConcern: ConcernExperienceUnspecified},
		{name: "unknown no requirement", minExp: 0, noExpConcerns: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultPolicy().Assess(model.Rubric{MinExperience: tt.minExp}, nil, tt.years)
			out := templateNarrative(a)
			if tt.wantStrength != "" && !containsFold(out.Strengths, tt.wantStrength) {
				t.Errorf("strengths %v missing %q", out.Strengths, tt.wantStrength)
			}
			if tt.wantConcern != "" && !containsFold(out.Concerns, tt.wantConcern) {
				t.Errorf("concerns %v missing %q", out.Concerns, tt.wantConcern)
			}
			if tt.noExpConcerns && len(out.Concerns) != 0 {
				t.Errorf("concerns = %v, want none", out.Concerns)
			}
		})
	}
}

func TestParseNarrative(t *testing.T) {
	raw := "```json\n{\"strengths\": [\"Go\"], \"concerns\": [], \"explanation\": \"Fits well.\"}\n```"
	out, err := ParseNarrative(raw)
	if err != nil {
		t.Fatalf("ParseNarrative() error = %v", err)
	}
	if out.Explanation != "Fits well." || len(out.Strengths) != 1 || len(out.Concerns) != 0 {
		t.Errorf("unexpected narrative %+v", out)
	}

	if _, err := ParseNarrative("I cannot help with that"); err == nil {
		t.Error("non JSON reply should fail")
	}
	if _, err := ParseNarrative(`{"strengths": ["x"]}`); err == nil {
		t.Error("reply without explanation should fail")
	}
}

func TestBuildPrompt(t *testing.T) {
	in := sampleInput()
	in.ResumeText = strings.Repeat("a", maxPromptResumeRunes+10)
	prompt := BuildPrompt(in)

	for _, want := range []string{"Data Engineer", "Required skills: python, sql", "Skills score: 50/100", "Missing skills: sql", "[truncated]"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Error("prompt has unreplaced placeholders")
	}
}
