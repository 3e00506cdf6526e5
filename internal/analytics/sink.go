// Package analytics forwards analytics events to the job queue, where the
// worker records them. Every call is fire-and-forget: a broken queue costs
// telemetry, never a request.
package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/courseflix/courseflix-api/internal/conversation"
	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/queue"
)

// QueueSink publishes analytics events to the job queue.
type QueueSink struct {
	jobs   queue.JobQueue
	logger *zap.Logger
}

// NewQueueSink creates a queue-backed analytics sink.
func NewQueueSink(jobs queue.JobQueue, logger *zap.Logger) *QueueSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueSink{jobs: jobs, logger: logger}
}

// LogEvent enqueues one analytics event.
func (s *QueueSink) LogEvent(ctx context.Context, event models.AnalyticsEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	job := queue.NewAnalyticsEventJob(&event)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.logger.Warn("analytics_event_enqueue_failed",
			zap.String("event_type", string(event.EventType)),
			zap.Error(err),
		)
	}
}

// LogConversationStart records the start of a conversation.
func (s *QueueSink) LogConversationStart(ctx context.Context, userID, conversationID string) {
	s.LogEvent(ctx, models.AnalyticsEvent{
		UserID:    userID,
		EventType: models.EventConversationStart,
		Metadata:  models.AnalyticsMetadata{ConversationID: conversationID},
	})
}

// LogConversationMessage records one processed conversation turn.
func (s *QueueSink) LogConversationMessage(ctx context.Context, userID, conversationID, message, response string, state conversation.State) {
	s.LogEvent(ctx, models.AnalyticsEvent{
		UserID:    userID,
		EventType: models.EventConversationMessage,
		Metadata: models.AnalyticsMetadata{
			ConversationID:    conversationID,
			ConversationState: string(state),
			MessageCount:      1,
		},
	})
}

// LogConversationEnd records the completion of a conversation.
func (s *QueueSink) LogConversationEnd(ctx context.Context, userID, conversationID string) {
	s.LogEvent(ctx, models.AnalyticsEvent{
		UserID:    userID,
		EventType: models.EventConversationEnd,
		Metadata:  models.AnalyticsMetadata{ConversationID: conversationID},
	})
}

var _ conversation.AnalyticsSink = (*QueueSink)(nil)
