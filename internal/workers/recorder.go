package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/courseflix/courseflix-api/internal/logger"
	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/queue"
)

// JobProcessor handles one job type.
type JobProcessor func(ctx context.Context, job *queue.Job) error

type processorEntry struct {
	proc JobProcessor
}

// EventStore persists analytics events.
type EventStore interface {
	Insert(ctx context.Context, event *models.AnalyticsEvent) error
}

// ConversationPruner removes conversations not updated since a cutoff.
type ConversationPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultConversationRetention is how long idle conversations are kept.
const DefaultConversationRetention = 30 * 24 * time.Hour

// AnalyticsRecorder consumes queued analytics events and writes them to the
// database. It also handles periodic conversation cleanup jobs.
type AnalyticsRecorder struct {
	events                EventStore
	conversations         ConversationPruner
	conversationRetention time.Duration
	logger                *zap.Logger
	registry              map[queue.JobType]processorEntry
}

// NewAnalyticsRecorder creates a recorder and registers its job processors.
// The pruner may be nil; cleanup jobs are then acknowledged without effect.
func NewAnalyticsRecorder(events EventStore, conversations ConversationPruner, conversationRetention time.Duration, logger *zap.Logger) *AnalyticsRecorder {
	if conversationRetention <= 0 {
		conversationRetention = DefaultConversationRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &AnalyticsRecorder{
		events:                events,
		conversations:         conversations,
		conversationRetention: conversationRetention,
		logger:                logger,
		registry:              make(map[queue.JobType]processorEntry),
	}
	r.RegisterProcessor(queue.JobTypeAnalyticsEvent, r.ProcessAnalyticsEventJob)
	r.RegisterProcessor(queue.JobTypeConversationCleanup, r.ProcessConversationCleanupJob)
	return r
}

// RegisterProcessor registers a processor for a job type.
func (r *AnalyticsRecorder) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	r.registry[typ] = processorEntry{proc: proc}
}

// ProcessAnalyticsEventJob writes one analytics event to the store.
func (r *AnalyticsRecorder) ProcessAnalyticsEventJob(ctx context.Context, job *queue.Job) error {
	if job.Event == nil {
		return fmt.Errorf("event payload is required for analytics event job")
	}

	if err := r.events.Insert(ctx, job.Event); err != nil {
		return fmt.Errorf("failed to store analytics event: %w", err)
	}

	r.logger.Debug("analytics_event_recorded",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("event_type", string(job.Event.EventType)),
	)
	return nil
}

// ProcessConversationCleanupJob prunes conversations idle past retention.
func (r *AnalyticsRecorder) ProcessConversationCleanupJob(ctx context.Context, job *queue.Job) error {
	if r.conversations == nil {
		return nil
	}

	cutoff := time.Now().Add(-r.conversationRetention)
	deleted, err := r.conversations.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune conversations: %w", err)
	}

	r.logger.Info("conversations_pruned",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)
	return nil
}

// ProcessJob dispatches a message to the processor registered for its job
// type, acknowledging on success and dead-lettering on failure.
func (r *AnalyticsRecorder) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		r.logger.Debug("job_expired",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("job_type", string(job.Type)),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			r.logger.Warn("failed_to_ack_expired_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	ent, ok := r.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := ent.proc(ctx, job); err != nil {
		r.logger.Error("job_failed",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("job_type", string(job.Type)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("job processing failed: %w", err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}
