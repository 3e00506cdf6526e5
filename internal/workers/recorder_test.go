package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/queue"
)

type mockEventStore struct {
	events    []*models.AnalyticsEvent
	insertErr error
}

func (s *mockEventStore) Insert(ctx context.Context, event *models.AnalyticsEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.events = append(s.events, event)
	return nil
}

type mockPruner struct {
	deleted   int64
	cutoffs   []time.Time
	deleteErr error
}

func (p *mockPruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if p.deleteErr != nil {
		return 0, p.deleteErr
	}
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.deleted, nil
}

type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	ackErr  error
	nackErr error
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return m.ackErr
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	return m.nackErr
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

func analyticsJob() *queue.Job {
	return queue.NewAnalyticsEventJob(&models.AnalyticsEvent{
		UserID:    "u1",
		EventType: models.EventRecommendationImpression,
		Timestamp: time.Now().UTC(),
	})
}

func TestProcessJob_AcksOnSuccess(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{}
	recorder := NewAnalyticsRecorder(store, nil, 0, nil)
	msg := &mockMessage{job: analyticsJob()}

	if err := recorder.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	if !msg.acked {
		t.Error("Expected the message acknowledged")
	}
	if msg.nacked {
		t.Error("Expected no nack on success")
	}
	if len(store.events) != 1 {
		t.Errorf("Expected 1 event stored, got %d", len(store.events))
	}
}

func TestProcessJob_NacksOnProcessorFailure(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{insertErr: errors.New("connection refused")}
	recorder := NewAnalyticsRecorder(store, nil, 0, nil)
	msg := &mockMessage{job: analyticsJob()}

	err := recorder.ProcessJob(context.Background(), msg)
	if err == nil {
		t.Fatal("Expected an error when the store fails")
	}

	if !msg.nacked {
		t.Error("Expected the message dead-lettered")
	}
	if msg.acked {
		t.Error("Expected no ack on failure")
	}
}

func TestProcessJob_AcksExpiredJobs(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{}
	recorder := NewAnalyticsRecorder(store, nil, 0, nil)

	job := analyticsJob()
	expired := time.Now().Add(-time.Minute)
	job.NotAfter = &expired
	msg := &mockMessage{job: job}

	if err := recorder.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	if !msg.acked {
		t.Error("Expected expired jobs acknowledged and skipped")
	}
	if len(store.events) != 0 {
		t.Errorf("Expected no events stored for expired jobs, got %d", len(store.events))
	}
}

func TestProcessJob_UnknownJobType(t *testing.T) {
	t.Parallel()

	recorder := NewAnalyticsRecorder(&mockEventStore{}, nil, 0, nil)
	msg := &mockMessage{job: queue.NewJob(queue.JobType("mystery"), "u1")}

	err := recorder.ProcessJob(context.Background(), msg)
	if err == nil {
		t.Fatal("Expected an error for an unknown job type")
	}
	if !msg.nacked {
		t.Error("Expected the message dead-lettered")
	}
}

func TestProcessAnalyticsEventJob_RequiresEvent(t *testing.T) {
	t.Parallel()

	recorder := NewAnalyticsRecorder(&mockEventStore{}, nil, 0, nil)
	job := queue.NewJob(queue.JobTypeAnalyticsEvent, "u1")

	if err := recorder.ProcessAnalyticsEventJob(context.Background(), job); err == nil {
		t.Error("Expected an error for a job without an event payload")
	}
}

func TestProcessConversationCleanupJob(t *testing.T) {
	t.Parallel()

	t.Run("prunes past retention", func(t *testing.T) {
		t.Parallel()
		pruner := &mockPruner{deleted: 4}
		retention := 7 * 24 * time.Hour
		recorder := NewAnalyticsRecorder(&mockEventStore{}, pruner, retention, nil)

		job := queue.NewJob(queue.JobTypeConversationCleanup, "")
		before := time.Now().Add(-retention)
		if err := recorder.ProcessConversationCleanupJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessConversationCleanupJob failed: %v", err)
		}
		after := time.Now().Add(-retention)

		if len(pruner.cutoffs) != 1 {
			t.Fatalf("Expected 1 prune call, got %d", len(pruner.cutoffs))
		}
		cutoff := pruner.cutoffs[0]
		if cutoff.Before(before) || cutoff.After(after) {
			t.Errorf("Expected cutoff %v within [%v, %v]", cutoff, before, after)
		}
	})

	t.Run("nil pruner is a no-op", func(t *testing.T) {
		t.Parallel()
		recorder := NewAnalyticsRecorder(&mockEventStore{}, nil, 0, nil)

		job := queue.NewJob(queue.JobTypeConversationCleanup, "")
		if err := recorder.ProcessConversationCleanupJob(context.Background(), job); err != nil {
			t.Errorf("Expected nil error without a pruner, got %v", err)
		}
	})

	t.Run("propagates prune failures", func(t *testing.T) {
		t.Parallel()
		pruner := &mockPruner{deleteErr: errors.New("deadlock detected")}
		recorder := NewAnalyticsRecorder(&mockEventStore{}, pruner, time.Hour, nil)

		job := queue.NewJob(queue.JobTypeConversationCleanup, "")
		if err := recorder.ProcessConversationCleanupJob(context.Background(), job); err == nil {
			t.Error("Expected the prune error propagated")
		}
	})
}
