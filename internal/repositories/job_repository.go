package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smmpanel/internal/models"
)

// JobRepository persists background jobs. ClaimNext hands each runnable job
// to exactly one worker even with several workers polling concurrently.
type JobRepository interface {
	CreateJob(job *models.Job) error
	UpdateJob(job *models.Job) error
	// ClaimNext atomically picks the oldest runnable pending job, marks it
	// running and returns it. Returns ErrNoJobs when nothing is due.
	ClaimNext(now time.Time) (*models.Job, error)
	// ReclaimStale requeues running jobs not updated since cutoff. A job
	// stuck in running means its claiming worker died mid-execution; without
	// reclaiming, such jobs would be stranded invisibly forever.
	ReclaimStale(cutoff time.Time) (int64, error)
	ListDeadJobs(limit int) ([]models.Job, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) CreateJob(job *models.Job) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) UpdateJob(job *models.Job) error {
	if err := r.db.Save(job).Error; err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

func (r *jobRepository) ClaimNext(now time.Time) (*models.Job, error) {
	var job models.Job
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_run_at <= ?", models.JobStatusPending, now).
			Order("created_at ASC").
			First(&job).Error
		if err != nil {
			return err
		}
		job.Status = models.JobStatusRunning
		return tx.Save(&job).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoJobs
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) ReclaimStale(cutoff time.Time) (int64, error) {
	res := r.db.Model(&models.Job{}).
		Where("status = ? AND updated_at < ?", models.JobStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":      models.JobStatusPending,
			"next_run_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reclaim stale jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *jobRepository) ListDeadJobs(limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.Where("status = ?", models.JobStatusDead).
		Order("updated_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dead jobs: %w", err)
	}
	return jobs, nil
}
