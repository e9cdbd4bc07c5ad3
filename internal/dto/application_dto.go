package dto

import (
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
)

type CandidateDTO struct {
	ID                uuid.UUID `json:"id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Phone             *string   `json:"phone"`
	YearsOfExperience *int      `json:"years_of_experience"`
}

// ApplicationSummaryDTO is one row of the ranking view.
type ApplicationSummaryDTO struct {
	ID             uuid.UUID            `json:"id"`
	Candidate      CandidateDTO         `json:"candidate"`
	AIScore        int                  `json:"ai_score"`
	ScoreBreakdown model.ScoreBreakdown `json:"score_breakdown"`
	Explanation    string               `json:"explanation"`
	Status         workflow.Status      `json:"status"`
	Actions        []workflow.Action    `json:"actions"`
	Closed         bool                 `json:"closed"`
	AppliedAt      time.Time            `json:"applied_at"`
	ResumePath     string               `json:"resume_path"`
}

// ApplicationDetailDTO repeats the breakdown lists at the top level, where the
// review screen reads them.
type ApplicationDetailDTO struct {
	ApplicationSummaryDTO
	JobID          uuid.UUID          `json:"job_id"`
	ResumeFilename string             `json:"resume_filename"`
	ResumeParsed   model.ParsedResume `json:"resume_parsed"`
	Rubric         model.Rubric       `json:"rubric"`
	MatchedSkills  []string           `json:"matched_skills"`
	MissingSkills  []string           `json:"missing_skills"`
	Strengths      []string           `json:"strengths"`
	Concerns       []string           `json:"concerns"`
	Notes          *string            `json:"notes"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type ApplicationListDTO struct {
	Applications []ApplicationSummaryDTO `json:"applications"`
	Total        int                     `json:"total"`
}

// PublicJobDTO is what candidates see before applying.
type PublicJobDTO struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Requirements  string   `json:"requirements"`
	Skills        []string `json:"skills"`
	MinExperience int      `json:"min_experience"`
	PublicLink    string   `json:"public_link"`
}

func NewCandidateDTO(c model.Candidate) CandidateDTO {
	return CandidateDTO{
		ID:                c.ID,
		FullName:          c.FullName,
		Email:             c.Email,
		Phone:             c.Phone,
		YearsOfExperience: c.YearsOfExperience,
	}
}

func breakdown(a *model.Application) model.ScoreBreakdown {
	b := a.Breakdown()
	b.MatchedSkills = nonNil(b.MatchedSkills)
	b.MissingSkills = nonNil(b.MissingSkills)
	b.Strengths = nonNil(b.Strengths)
	b.Concerns = nonNil(b.Concerns)
	return b
}

func NewApplicationSummaryDTO(a *model.Application) ApplicationSummaryDTO {
	return ApplicationSummaryDTO{
		ID:             a.ID,
		Candidate:      NewCandidateDTO(a.Candidate),
		AIScore:        a.AIScore,
		ScoreBreakdown: breakdown(a),
		Explanation:    a.Explanation,
		Status:         a.Status,
		Actions:        workflow.Actions(a.Status),
		Closed:         a.Status.Terminal(),
		AppliedAt:      a.AppliedAt,
		ResumePath:     a.ResumePath,
	}
}

func NewApplicationDetailDTO(a *model.Application) ApplicationDetailDTO {
	summary := NewApplicationSummaryDTO(a)
	b := summary.ScoreBreakdown
	parsed := a.Parsed()
	parsed.Skills = nonNil(parsed.Skills)
	return ApplicationDetailDTO{
		ApplicationSummaryDTO: summary,
		JobID:                 a.JobID,
		ResumeFilename:        a.ResumeFilename,
		ResumeParsed:          parsed,
		Rubric:                a.Rubric.Data(),
		MatchedSkills:         b.MatchedSkills,
		MissingSkills:         b.MissingSkills,
		Strengths:             b.Strengths,
		Concerns:              b.Concerns,
		Notes:                 a.Notes,
		UpdatedAt:             a.UpdatedAt,
	}
}

func NewApplicationListDTO(apps []model.Application, total int) ApplicationListDTO {
	out := make([]ApplicationSummaryDTO, 0, len(apps))
	for i := range apps {
		out = append(out, NewApplicationSummaryDTO(&apps[i]))
	}
	return ApplicationListDTO{Applications: out, Total: total}
}

func NewPublicJobDTO(j *model.Job) PublicJobDTO {
	return PublicJobDTO{
		Title:         j.Title,
		Description:   j.Description,
		Requirements:  j.Requirements,
		Skills:        nonNil([]string(j.Skills)),
		MinExperience: j.MinExperience,
		PublicLink:    j.PublicLink,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
