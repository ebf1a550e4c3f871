package testutil

import (
	"sync"
	"time"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
)

// JobStore is an in-memory JobRepository.
type JobStore struct {
	mu     sync.Mutex
	jobs   map[uint]models.Job
	nextID uint

	FailCreateJob error
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uint]models.Job)}
}

func (s *JobStore) CreateJob(job *models.Job) error {
	if s.FailCreateJob != nil {
		return s.FailCreateJob
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	job.ID = s.nextID
	job.CreatedAt = time.Now()
	s.jobs[job.ID] = *job
	return nil
}

func (s *JobStore) UpdateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return repositories.ErrNoJobs
	}
	job.UpdatedAt = time.Now()
	s.jobs[job.ID] = *job
	return nil
}

func (s *JobStore) ClaimNext(now time.Time) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := uint(1); id <= s.nextID; id++ {
		j, ok := s.jobs[id]
		if !ok || j.Status != models.JobStatusPending || j.NextRunAt.After(now) {
			continue
		}
		j.Status = models.JobStatusRunning
		j.UpdatedAt = time.Now()
		s.jobs[id] = j
		out := j
		return &out, nil
	}
	return nil, repositories.ErrNoJobs
}

func (s *JobStore) ReclaimStale(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, j := range s.jobs {
		if j.Status == models.JobStatusRunning && j.UpdatedAt.Before(cutoff) {
			j.Status = models.JobStatusPending
			j.NextRunAt = time.Now()
			j.UpdatedAt = time.Now()
			s.jobs[id] = j
			n++
		}
	}
	return n, nil
}

func (s *JobStore) ListDeadJobs(limit int) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Job
	for id := uint(1); id <= s.nextID; id++ {
		if j, ok := s.jobs[id]; ok && j.Status == models.JobStatusDead {
			out = append(out, j)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Job returns a copy of the stored job by id.
func (s *JobStore) Job(id uint) (models.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// Count returns the number of stored jobs.
func (s *JobStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Age backdates a job's timestamps by d, for tests exercising staleness.
func (s *JobStore) Age(id uint, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.UpdatedAt = j.UpdatedAt.Add(-d)
		j.NextRunAt = j.NextRunAt.Add(-d)
		s.jobs[id] = j
	}
}

// JobsOfType returns copies of all stored jobs with the given type, in
// creation order.
func (s *JobStore) JobsOfType(jobType string) []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Job
	for id := uint(1); id <= s.nextID; id++ {
		if j, ok := s.jobs[id]; ok && j.Type == jobType {
			out = append(out, j)
		}
	}
	return out
}

var _ repositories.JobRepository = (*JobStore)(nil)
