package conversation

import (
	"strings"
	"testing"
)

func TestHistoryTracker_AddMessage(t *testing.T) {
	t.Parallel()

	tracker := NewHistoryTracker(0)
	history := tracker.NewHistory("user-1", "conv-1")

	history = tracker.AddMessage(history, RoleUser, "I want to learn python", MessageMetadata{Sentiment: SentimentNeutral})
	history = tracker.AddMessage(history, RoleAssistant, "Great choice!", MessageMetadata{Topics: []string{"python"}})

	if len(history.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history.Messages))
	}
	if history.Metadata.TotalTurns != 2 {
		t.Errorf("Expected 2 total turns, got %d", history.Metadata.TotalTurns)
	}
	if history.Metadata.UserMessageCount != 1 {
		t.Errorf("Expected 1 user message, got %d", history.Metadata.UserMessageCount)
	}
	if history.Metadata.AssistantMessageCount != 1 {
		t.Errorf("Expected 1 assistant message, got %d", history.Metadata.AssistantMessageCount)
	}
	wantAvg := float64(len("I want to learn python"))
	if history.Metadata.AverageUserMessageLength != wantAvg {
		t.Errorf("Expected average user message length %f, got %f", wantAvg, history.Metadata.AverageUserMessageLength)
	}
	if len(history.Metadata.TopicsDiscussed) != 1 || history.Metadata.TopicsDiscussed[0] != "python" {
		t.Errorf("Expected topics [python], got %v", history.Metadata.TopicsDiscussed)
	}
}

func TestHistoryTracker_FIFOCap(t *testing.T) {
	t.Parallel()

	tracker := NewHistoryTracker(3)
	history := tracker.NewHistory("user-1", "conv-1")

	for _, content := range []string{"first", "second", "third", "fourth", "fifth"} {
		history = tracker.AddMessage(history, RoleUser, content, MessageMetadata{})
	}

	if len(history.Messages) != 3 {
		t.Fatalf("Expected 3 retained messages, got %d", len(history.Messages))
	}
	if history.Messages[0].Content != "third" {
		t.Errorf("Expected oldest retained message to be third, got %s", history.Messages[0].Content)
	}
	if history.Messages[2].Content != "fifth" {
		t.Errorf("Expected newest message to be fifth, got %s", history.Messages[2].Content)
	}
	// Counters track all messages ever added, not just the retained window.
	if history.Metadata.TotalTurns != 5 {
		t.Errorf("Expected 5 total turns, got %d", history.Metadata.TotalTurns)
	}
	if history.Metadata.UserMessageCount != 5 {
		t.Errorf("Expected 5 user messages, got %d", history.Metadata.UserMessageCount)
	}
}

func TestHistoryTracker_AddMessageDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	tracker := NewHistoryTracker(0)
	original := tracker.NewHistory("user-1", "conv-1")
	original = tracker.AddMessage(original, RoleUser, "hello", MessageMetadata{})

	_ = tracker.AddMessage(original, RoleAssistant, "hi", MessageMetadata{})

	if len(original.Messages) != 1 {
		t.Errorf("Input history mutated: %d messages", len(original.Messages))
	}
	if original.Metadata.TotalTurns != 1 {
		t.Errorf("Input history stats mutated: %d turns", original.Metadata.TotalTurns)
	}
}

func TestHistoryTracker_LastMessages(t *testing.T) {
	t.Parallel()

	tracker := NewHistoryTracker(0)
	history := tracker.NewHistory("user-1", "conv-1")
	for _, content := range []string{"one", "two", "three"} {
		history = tracker.AddMessage(history, RoleUser, content, MessageMetadata{})
	}

	last := tracker.LastMessages(history, 2)
	if len(last) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(last))
	}
	if last[0].Content != "two" || last[1].Content != "three" {
		t.Errorf("Expected [two three], got [%s %s]", last[0].Content, last[1].Content)
	}

	all := tracker.LastMessages(history, 10)
	if len(all) != 3 {
		t.Errorf("Expected all 3 messages when count exceeds length, got %d", len(all))
	}
}

func TestHistoryTracker_Search(t *testing.T) {
	t.Parallel()

	tracker := NewHistoryTracker(0)
	history := tracker.NewHistory("user-1", "conv-1")
	history = tracker.AddMessage(history, RoleUser, "I want to learn Python", MessageMetadata{})
	history = tracker.AddMessage(history, RoleAssistant, "Here are some courses", MessageMetadata{})
	history = tracker.AddMessage(history, RoleUser, "python for data science", MessageMetadata{})

	matched := tracker.Search(history, "PYTHON")
	if len(matched) != 2 {
		t.Errorf("Expected 2 case-insensitive matches, got %d", len(matched))
	}
}

func TestHistoryTracker_FormatForModel(t *testing.T) {
	t.Parallel()

	tracker := NewHistoryTracker(0)
	history := tracker.NewHistory("user-1", "conv-1")
	// Each message is 20 characters, 5 estimated tokens.
	for i := 0; i < 4; i++ {
		history = tracker.AddMessage(history, RoleUser, strings.Repeat("x", 20), MessageMetadata{})
	}

	tests := []struct {
		name      string
		maxTokens int
		wantCount int
	}{
		{name: "budget for two messages", maxTokens: 10, wantCount: 2},
		{name: "budget for all messages", maxTokens: 100, wantCount: 4},
		{name: "budget below one message", maxTokens: 4, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			formatted := tracker.FormatForModel(history, tt.maxTokens)
			if len(formatted) != tt.wantCount {
				t.Errorf("Expected %d messages within budget, got %d", tt.wantCount, len(formatted))
			}
		})
	}
}

func TestHistoryTracker_Summarize(t *testing.T) {
	t.Parallel()

	tracker := NewHistoryTracker(0)
	history := tracker.NewHistory("user-1", "conv-1")
	history = tracker.AddMessage(history, RoleUser, "short", MessageMetadata{Topics: []string{"python"}})
	history = tracker.AddMessage(history, RoleUser, "a much longer user message", MessageMetadata{Topics: []string{"go"}})
	history = tracker.AddMessage(history, RoleAssistant, "reply", MessageMetadata{})

	summary := tracker.Summarize(history)

	if summary.ConversationID != "conv-1" {
		t.Errorf("Expected conversation ID conv-1, got %s", summary.ConversationID)
	}
	if summary.TotalTurns != 3 {
		t.Errorf("Expected 3 turns, got %d", summary.TotalTurns)
	}
	if summary.UserMessageCount != 2 {
		t.Errorf("Expected 2 user messages, got %d", summary.UserMessageCount)
	}
	if summary.LongestUserMessageLength != len("a much longer user message") {
		t.Errorf("Expected longest user message length %d, got %d", len("a much longer user message"), summary.LongestUserMessageLength)
	}
	if len(summary.TopicsDiscussed) != 2 {
		t.Errorf("Expected 2 topics, got %v", summary.TopicsDiscussed)
	}
}
