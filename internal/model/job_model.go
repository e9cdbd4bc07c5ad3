package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusPublished JobStatus = "published"
)

type Job struct {
	ID            uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID       uuid.UUID                   `gorm:"type:uuid;index" json:"owner_id"`
	Title         string                      `gorm:"type:varchar(255)" json:"title"`
	Description   string                      `gorm:"type:text" json:"description"`
	Requirements  string                      `gorm:"type:text" json:"requirements"`
	Skills        datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"skills"`
	MinExperience int                         `gorm:"not null;default:0" json:"min_experience"`
	Status        JobStatus                   `gorm:"type:varchar(20);default:published" json:"status"`
	PublicLink    string                      `gorm:"type:varchar(20);uniqueIndex" json:"public_link"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}

// Rubric snapshots the scoring basis of the job as it is right now.
func (j *Job) Rubric() Rubric {
	skills := make([]string, len(j.Skills))
	copy(skills, j.Skills)
	minExp := j.MinExperience
	if minExp < 0 {
		minExp = 0
	}
	return Rubric{Skills: skills, MinExperience: minExp}
}

// Rubric is the fixed basis an application is scored against.
type Rubric struct {
	Skills        []string `json:"skills"`
	MinExperience int      `json:"min_experience"`
}
