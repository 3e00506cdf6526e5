package conversation

import (
	"context"
	"errors"
	"testing"
)

type stubClassifier struct {
	intent Intent
	err    error
}

func (s stubClassifier) ClassifyIntent(ctx context.Context, text string) (Intent, error) {
	return s.intent, s.err
}

type stubExtractor struct {
	entities EntitySet
	err      error
}

func (s stubExtractor) ExtractEntities(ctx context.Context, text string) (EntitySet, error) {
	return s.entities, s.err
}

type stubSentiment struct {
	sentiment Sentiment
	err       error
}

func (s stubSentiment) AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error) {
	return s.sentiment, s.err
}

func TestProcessMessage_HappyPath(t *testing.T) {
	t.Parallel()

	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{intent: IntentCourseSearch},
		stubExtractor{entities: EntitySet{Subjects: []string{"python"}}},
		stubSentiment{sentiment: SentimentPositive},
		nil,
	)
	c := cm.InitializeContext("user-1", "conv-1")

	result := cm.ProcessMessage(context.Background(), c, "I want to learn python")

	if result.State != StateOnboarding {
		t.Errorf("Expected onboarding after the first turn, got %s", result.State)
	}
	if result.Response == "" {
		t.Error("Expected a response")
	}
	if len(result.Context.History.Messages) != 2 {
		t.Errorf("Expected user and assistant messages recorded, got %d", len(result.Context.History.Messages))
	}
	if result.Context.History.Messages[0].Metadata.Sentiment != SentimentPositive {
		t.Errorf("Expected positive sentiment on the user message, got %s", result.Context.History.Messages[0].Metadata.Sentiment)
	}
	if _, ok := result.Context.Preferences.Subjects["python"]; !ok {
		t.Error("Expected python folded into preferences")
	}

	// The input context stays untouched.
	if c.Conversation.Turns != 0 {
		t.Errorf("Input context mutated: %d turns", c.Conversation.Turns)
	}
	if len(c.History.Messages) != 0 {
		t.Errorf("Input context history mutated: %d messages", len(c.History.Messages))
	}
}

func TestProcessMessage_ClassifierFailureKeepsIntent(t *testing.T) {
	t.Parallel()

	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{err: errors.New("model unavailable")},
		stubExtractor{entities: EntitySet{}},
		stubSentiment{sentiment: SentimentNeutral},
		nil,
	)
	c := cm.InitializeContext("user-1", "conv-1")
	c.Conversation.CurrentIntent = IntentCourseSearch

	result := cm.ProcessMessage(context.Background(), c, "anything")

	if result.Context.Conversation.CurrentIntent != IntentCourseSearch {
		t.Errorf("Expected intent preserved on classifier failure, got %s", result.Context.Conversation.CurrentIntent)
	}
	if result.Response == fallbackResponse {
		t.Error("Classifier failure alone should not trigger the fallback")
	}
}

func TestProcessMessage_ExtractorFailureFallsBack(t *testing.T) {
	t.Parallel()

	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{intent: IntentCourseSearch},
		stubExtractor{err: errors.New("model unavailable")},
		stubSentiment{sentiment: SentimentNeutral},
		nil,
	)
	c := cm.InitializeContext("user-1", "conv-1")

	result := cm.ProcessMessage(context.Background(), c, "I want to learn python")

	if result.Response != fallbackResponse {
		t.Errorf("Expected fallback response, got %q", result.Response)
	}
	if result.Context != c {
		t.Error("Expected the original context returned unchanged")
	}
	if result.State != StateGreeting {
		t.Errorf("Expected state unchanged on fallback, got %s", result.State)
	}
}

func TestProcessMessage_NilExtractorFallsBack(t *testing.T) {
	t.Parallel()

	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{intent: IntentCourseSearch},
		nil,
		stubSentiment{sentiment: SentimentNeutral},
		nil,
	)
	c := cm.InitializeContext("user-1", "conv-1")

	result := cm.ProcessMessage(context.Background(), c, "hello")

	if result.Response != fallbackResponse {
		t.Errorf("Expected fallback response, got %q", result.Response)
	}
}

type panickyExtractor struct{}

func (panickyExtractor) ExtractEntities(ctx context.Context, text string) (EntitySet, error) {
	panic("extractor blew up")
}

func TestProcessMessage_PanicRecoversWithFallback(t *testing.T) {
	t.Parallel()

	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{intent: IntentCourseSearch},
		panickyExtractor{},
		stubSentiment{sentiment: SentimentNeutral},
		nil,
	)
	c := cm.InitializeContext("user-1", "conv-1")

	result := cm.ProcessMessage(context.Background(), c, "I want to learn python")

	if result.Response != fallbackResponse {
		t.Errorf("Expected fallback response after a panic, got %q", result.Response)
	}
	if result.Context != c {
		t.Error("Expected the original context returned unchanged")
	}
	if result.State != StateGreeting {
		t.Errorf("Expected state unchanged after a panic, got %s", result.State)
	}
	if c.Conversation.Turns != 0 {
		t.Errorf("Expected turn count unchanged, got %d", c.Conversation.Turns)
	}
	if len(c.History.Messages) != 0 {
		t.Errorf("Expected history unchanged, got %d messages", len(c.History.Messages))
	}
}

func TestProcessMessage_SentimentFailureDefaultsNeutral(t *testing.T) {
	t.Parallel()

	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{intent: IntentGreeting},
		stubExtractor{entities: EntitySet{}},
		stubSentiment{err: errors.New("model unavailable")},
		nil,
	)
	c := cm.InitializeContext("user-1", "conv-1")

	result := cm.ProcessMessage(context.Background(), c, "hi there")

	if result.Context.History.Messages[0].Metadata.Sentiment != SentimentNeutral {
		t.Errorf("Expected neutral sentiment on analyzer failure, got %s", result.Context.History.Messages[0].Metadata.Sentiment)
	}
}

func TestProcessMessage_FullFlowReachesRecommendation(t *testing.T) {
	t.Parallel()

	// Scripted extractor: each message yields the next entity set.
	script := map[string]EntitySet{
		"hi":                {},
		"I want python":     {Subjects: []string{"python"}},
		"I'm a beginner":    {Levels: []string{"beginner"}},
		"video courses":     {Formats: []string{"video"}},
		"career change":     {Goals: []string{"career change"}},
		"5 hours per week":  {Times: []string{"5 hours per week"}},
		"the first one":     {},
		"thanks, goodbye!!": {},
	}
	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{intent: IntentPreferenceStatement},
		scriptedExtractor{script: script},
		stubSentiment{sentiment: SentimentNeutral},
		nil,
	)

	c := cm.InitializeContext("user-1", "conv-1")
	for _, msg := range []string{"hi", "I want python", "I'm a beginner"} {
		result := cm.ProcessMessage(context.Background(), c, msg)
		c = result.Context
	}

	if c.Conversation.State != StateRecommendation {
		t.Errorf("Expected recommendation state after covering two entity types, got %s", c.Conversation.State)
	}

	params := cm.GenerateRecommendationParams(c)
	if len(params.Subjects) != 1 || params.Subjects[0] != "python" {
		t.Errorf("Expected query subjects [python], got %v", params.Subjects)
	}
	if params.Level != "beginner" {
		t.Errorf("Expected query level beginner, got %s", params.Level)
	}
	if params.ConversationID != "conv-1" {
		t.Errorf("Expected conversation ID propagated, got %s", params.ConversationID)
	}
	if params.ConversationTurns != 3 {
		t.Errorf("Expected 3 turns, got %d", params.ConversationTurns)
	}
}

type scriptedExtractor struct {
	script map[string]EntitySet
}

func (s scriptedExtractor) ExtractEntities(ctx context.Context, text string) (EntitySet, error) {
	return s.script[text], nil
}

func TestContextManager_Summarize(t *testing.T) {
	t.Parallel()

	cm := NewContextManager(ContextManagerOptions{},
		stubClassifier{intent: IntentCourseSearch},
		stubExtractor{entities: EntitySet{Subjects: []string{"python"}}},
		stubSentiment{sentiment: SentimentNeutral},
		nil,
	)
	c := cm.InitializeContext("user-1", "conv-1")
	result := cm.ProcessMessage(context.Background(), c, "I want python")

	summary := cm.Summarize(result.Context)

	if summary.ConversationID != "conv-1" {
		t.Errorf("Expected conversation ID conv-1, got %s", summary.ConversationID)
	}
	if summary.UserID != "user-1" {
		t.Errorf("Expected user ID user-1, got %s", summary.UserID)
	}
	if summary.Turns != 1 {
		t.Errorf("Expected 1 turn, got %d", summary.Turns)
	}
	if len(summary.TopPreferences.Subjects) != 1 {
		t.Errorf("Expected one top subject, got %v", summary.TopPreferences.Subjects)
	}
}
