package scoring

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

//go:embed prompt.md
var promptTemplate string

const maxPromptResumeRunes = 4000

// BuildPrompt renders the narrative prompt shared by the LLM generators.
func BuildPrompt(in NarrativeInput) string {
	a := in.Assessment
	years := "not specified"
	if a.Years != nil {
		years = plural(*a.Years, "year")
	}
	resume := in.ResumeText
	if utf8.RuneCountInString(resume) > maxPromptResumeRunes {
		resume = string([]rune(resume)[:maxPromptResumeRunes]) + "... [truncated]"
	}

	r := strings.NewReplacer(
		"{{JOB_TITLE}}", orNone(in.JobTitle),
		"{{JOB_DESCRIPTION}}", orNone(in.JobDescription),
		"{{JOB_REQUIREMENTS}}", orNone(in.JobRequirements),
		"{{REQUIRED_SKILLS}}", orNone(strings.Join(in.Rubric.Skills, ", ")),
		"{{MIN_EXPERIENCE}}", strconv.Itoa(a.MinExperience),
		"{{SKILLS_SCORE}}", strconv.Itoa(a.Skills),
		"{{EXPERIENCE_SCORE}}", strconv.Itoa(a.Experience),
		"{{OVERALL_SCORE}}", strconv.Itoa(a.Score),
		"{{MATCHED_SKILLS}}", orNone(strings.Join(a.MatchedSkills, ", ")),
		"{{MISSING_SKILLS}}", orNone(strings.Join(a.MissingSkills, ", ")),
		"{{CANDIDATE_YEARS}}", years,
		"{{RESUME_TEXT}}", resume,
	)
	return r.Replace(promptTemplate)
}

// ParseNarrative reads a model reply, tolerating a markdown code fence around
// the JSON object.
func ParseNarrative(raw string) (Narrative, error) {
	cleaned := extractJSON(raw)
	if !gjson.Valid(cleaned) {
		return Narrative{}, fmt.Errorf("narrative is not valid JSON: %q", truncate(cleaned, 120))
	}
	doc := gjson.Parse(cleaned)
	if !doc.IsObject() {
		return Narrative{}, fmt.Errorf("narrative is not a JSON object")
	}

	out := Narrative{
		Explanation: strings.TrimSpace(doc.Get("explanation").String()),
	}
	doc.Get("strengths").ForEach(func(_, v gjson.Result) bool {
		out.Strengths = append(out.Strengths, v.String())
		return true
	})
	doc.Get("concerns").ForEach(func(_, v gjson.Result) bool {
		out.Concerns = append(out.Concerns, v.String())
		return true
	})
	if out.Explanation == "" {
		return Narrative{}, fmt.Errorf("narrative has no explanation")
	}
	return out, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start > 0 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
