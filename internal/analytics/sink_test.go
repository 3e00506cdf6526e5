package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courseflix/courseflix-api/internal/conversation"
	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/queue"
)

type mockJobQueue struct {
	jobs       []*queue.Job
	enqueueErr error
}

func (q *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *mockJobQueue) Dequeue(ctx context.Context) (*queue.Message, error) {
	return nil, nil
}

func (q *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}

func (q *mockJobQueue) Close() error {
	return nil
}

func (q *mockJobQueue) HealthCheck(ctx context.Context) error {
	return nil
}

func TestLogEvent_EnqueuesAnalyticsJob(t *testing.T) {
	t.Parallel()

	jobs := &mockJobQueue{}
	sink := NewQueueSink(jobs, nil)

	sink.LogEvent(context.Background(), models.AnalyticsEvent{
		UserID:    "u1",
		EventType: models.EventRecommendationImpression,
	})

	if len(jobs.jobs) != 1 {
		t.Fatalf("Expected 1 enqueued job, got %d", len(jobs.jobs))
	}
	job := jobs.jobs[0]
	if job.Type != queue.JobTypeAnalyticsEvent {
		t.Errorf("Expected an analytics event job, got %s", job.Type)
	}
	if job.Event == nil || job.Event.UserID != "u1" {
		t.Errorf("Expected the event carried on the job, got %+v", job.Event)
	}
	if job.Event.Timestamp.IsZero() {
		t.Error("Expected a timestamp filled in")
	}
}

func TestLogEvent_KeepsExplicitTimestamp(t *testing.T) {
	t.Parallel()

	jobs := &mockJobQueue{}
	sink := NewQueueSink(jobs, nil)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sink.LogEvent(context.Background(), models.AnalyticsEvent{
		UserID:    "u1",
		EventType: models.EventRating,
		Timestamp: ts,
	})

	if !jobs.jobs[0].Event.Timestamp.Equal(ts) {
		t.Errorf("Expected timestamp %v preserved, got %v", ts, jobs.jobs[0].Event.Timestamp)
	}
}

func TestLogEvent_SwallowsQueueFailures(t *testing.T) {
	t.Parallel()

	jobs := &mockJobQueue{enqueueErr: errors.New("channel closed")}
	sink := NewQueueSink(jobs, nil)

	// Must not panic or propagate; telemetry loss is acceptable.
	sink.LogEvent(context.Background(), models.AnalyticsEvent{
		UserID:    "u1",
		EventType: models.EventRecommendationClick,
	})
}

func TestConversationLifecycleEvents(t *testing.T) {
	t.Parallel()

	jobs := &mockJobQueue{}
	sink := NewQueueSink(jobs, nil)
	ctx := context.Background()

	sink.LogConversationStart(ctx, "u1", "conv-1")
	sink.LogConversationMessage(ctx, "u1", "conv-1", "hi", "hello", conversation.StateOnboarding)
	sink.LogConversationEnd(ctx, "u1", "conv-1")

	if len(jobs.jobs) != 3 {
		t.Fatalf("Expected 3 enqueued jobs, got %d", len(jobs.jobs))
	}

	want := []models.AnalyticsEventType{
		models.EventConversationStart,
		models.EventConversationMessage,
		models.EventConversationEnd,
	}
	for i, typ := range want {
		if jobs.jobs[i].Event.EventType != typ {
			t.Errorf("Expected event %s at position %d, got %s", typ, i, jobs.jobs[i].Event.EventType)
		}
	}
	if jobs.jobs[1].Event.Metadata.ConversationState != string(conversation.StateOnboarding) {
		t.Errorf("Expected the conversation state recorded, got %s", jobs.jobs[1].Event.Metadata.ConversationState)
	}
}
