package repository

import (
	"context"
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db}
}

// Create inserts a fully scored application. The (job_id, email) unique index
// turns a racing duplicate into ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	return translate(r.db.WithContext(ctx).Create(app).Error)
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *ApplicationRepository) ExistsByJobEmail(ctx context.Context, jobID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("job_id = ? AND candidate_email = ?", jobID, email).
		Count(&count).Error
	return count > 0, err
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID, status *workflow.Status) ([]model.Application, error) {
	q := r.db.WithContext(ctx).Where("job_id = ?", jobID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var apps []model.Application
	err := q.Order("applied_at ASC").Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Updates(map[string]any{"notes": notes, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSetStatus moves id from one status to another only if it is still
// in from. It reports false when another writer got there first.
func (r *ApplicationRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to workflow.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteByJob removes every application of a job and returns what was
// removed so stored resumes can be cleaned up.
func (r *ApplicationRepository) DeleteByJob(ctx context.Context, jobID uuid.UUID) ([]model.Application, error) {
	var removed []model.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		return tx.Where("job_id = ?", jobID).Delete(&model.Application{}).Error
	})
	return removed, err
}
