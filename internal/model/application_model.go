package model

import (
	"time"

	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ParsedResume is what the extractor could find in a resume. Absent fields
// are nil, never guessed.
type ParsedResume struct {
	RawText           string   `json:"raw_text"`
	Email             *string  `json:"email"`
	Phone             *string  `json:"phone"`
	Name              *string  `json:"name"`
	Skills            []string `json:"skills"`
	YearsOfExperience *int     `json:"years_of_experience"`
}

type ScoreBreakdown struct {
	Skills        int      `json:"skills"`
	Experience    int      `json:"experience"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Strengths     []string `json:"strengths"`
	Concerns      []string `json:"concerns"`
	AIPowered     bool     `json:"ai_powered"`
}

type Candidate struct {
	ID                uuid.UUID `gorm:"type:uuid" json:"id"`
	FullName          string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email             string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_applications_job_email,priority:2" json:"email"`
	Phone             *string   `gorm:"type:varchar(50)" json:"phone"`
	YearsOfExperience *int      `json:"years_of_experience"`
}

type Application struct {
	ID             uuid.UUID                          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID          uuid.UUID                          `gorm:"type:uuid;not null;uniqueIndex:idx_applications_job_email,priority:1" json:"job_id"`
	Candidate      Candidate                          `gorm:"embedded;embeddedPrefix:candidate_" json:"candidate"`
	ResumePath     string                             `gorm:"type:varchar(500)" json:"resume_path"`
	ResumeFilename string                             `gorm:"type:varchar(255)" json:"resume_filename"`
	ResumeMIME     string                             `gorm:"type:varchar(100)" json:"resume_mime"`
	ResumeParsed   datatypes.JSONType[ParsedResume]   `gorm:"type:jsonb" json:"resume_parsed"`
	Rubric         datatypes.JSONType[Rubric]         `gorm:"type:jsonb" json:"rubric"`
	AIScore        int                                `gorm:"not null;index" json:"ai_score"`
	ScoreBreakdown datatypes.JSONType[ScoreBreakdown] `gorm:"type:jsonb" json:"score_breakdown"`
	Explanation    string                             `gorm:"type:text" json:"explanation"`
	Status         workflow.Status                    `gorm:"type:varchar(30);not null;default:applied;index" json:"status"`
	Notes          *string                            `gorm:"type:text" json:"notes"`
	AppliedAt      time.Time                          `gorm:"not null;index" json:"applied_at"`
	UpdatedAt      time.Time                          `json:"updated_at"`
}

func (a *Application) TableName() string {
	return "applications"
}

func (a *Application) Breakdown() ScoreBreakdown {
	return a.ScoreBreakdown.Data()
}

func (a *Application) Parsed() ParsedResume {
	return a.ResumeParsed.Data()
}
