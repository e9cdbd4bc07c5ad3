package repository

import (
	"context"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

func (r *JobRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var j model.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

// FindPublishedByLink only returns jobs that are open for applications.
func (r *JobRepository) FindPublishedByLink(ctx context.Context, link string) (*model.Job, error) {
	var j model.Job
	err := r.db.WithContext(ctx).
		Where("public_link = ? AND status = ?", link, model.JobStatusPublished).
		First(&j).Error
	if err != nil {
		return nil, translate(err)
	}
	return &j, nil
}
