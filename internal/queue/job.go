package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/courseflix/courseflix-api/internal/models"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeAnalyticsEvent is a job carrying one analytics event to record
	JobTypeAnalyticsEvent JobType = "analytics_event"
	// JobTypeConversationCleanup is a job for pruning stale conversations
	JobTypeConversationCleanup JobType = "conversation_cleanup"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID              `json:"id"`
	Type       JobType                `json:"type"`
	UserID     string                 `json:"user_id,omitempty"`
	Event      *models.AnalyticsEvent `json:"event,omitempty"` // Set for analytics event jobs
	NotBefore  *time.Time             `json:"not_before,omitempty"`
	NotAfter   *time.Time             `json:"not_after,omitempty"`
	Metadata   map[string]any         `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	RetryCount int                    `json:"retry_count"`
	MaxRetries int                    `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewAnalyticsEventJob creates a job carrying one analytics event
func NewAnalyticsEventJob(event *models.AnalyticsEvent) *Job {
	job := NewJob(JobTypeAnalyticsEvent, event.UserID)
	job.Event = event
	return job
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
