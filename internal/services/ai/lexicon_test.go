package ai

import (
	"context"
	"testing"

	"github.com/courseflix/courseflix-api/internal/conversation"
)

func TestLexiconAnalyzer_ClassifyIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want conversation.Intent
	}{
		{
			name: "greeting word",
			text: "Hey there!",
			want: conversation.IntentGreeting,
		},
		{
			name: "greeting phrase",
			text: "Good morning",
			want: conversation.IntentGreeting,
		},
		{
			name: "farewell",
			text: "ok goodbye",
			want: conversation.IntentFarewell,
		},
		{
			name: "farewell phrase",
			text: "that's all for today",
			want: conversation.IntentFarewell,
		},
		{
			name: "feedback on a shown course",
			text: "the first one looks good",
			want: conversation.IntentFeedback,
		},
		{
			name: "negative feedback",
			text: "I'm not interested in that one",
			want: conversation.IntentFeedback,
		},
		{
			name: "clarification question",
			text: "what's the difference between those two?",
			want: conversation.IntentClarification,
		},
		{
			name: "preference statement",
			text: "I prefer video lessons",
			want: conversation.IntentPreferenceStatement,
		},
		{
			name: "course search",
			text: "show me a python tutorial",
			want: conversation.IntentCourseSearch,
		},
		{
			name: "nothing recognizable",
			text: "the weather is nice",
			want: conversation.IntentUnknown,
		},
		{
			name: "empty message",
			text: "",
			want: conversation.IntentUnknown,
		},
	}

	analyzer := NewLexiconAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := analyzer.ClassifyIntent(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("ClassifyIntent returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassifyIntent(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestLexiconAnalyzer_ExtractEntities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		validate func(*testing.T, conversation.EntitySet)
	}{
		{
			name: "subject and level",
			text: "I want to learn Python, I'm a complete beginner",
			validate: func(t *testing.T, e conversation.EntitySet) {
				if !containsValue(e.Subjects, "python") {
					t.Errorf("expected python subject, got %v", e.Subjects)
				}
				if !containsValue(e.Levels, "beginner") {
					t.Errorf("expected beginner level, got %v", e.Levels)
				}
			},
		},
		{
			name: "multi-word subject",
			text: "something about machine learning please",
			validate: func(t *testing.T, e conversation.EntitySet) {
				if !containsValue(e.Subjects, "machine learning") {
					t.Errorf("expected machine learning subject, got %v", e.Subjects)
				}
			},
		},
		{
			name: "short token does not match inside longer words",
			text: "I maintain a garden",
			validate: func(t *testing.T, e conversation.EntitySet) {
				if containsValue(e.Subjects, "machine learning") {
					t.Error("expected no subject match from 'maintain'")
				}
			},
		},
		{
			name: "format and goal",
			text: "video courses would help with my career change",
			validate: func(t *testing.T, e conversation.EntitySet) {
				if !containsValue(e.Formats, "video") {
					t.Errorf("expected video format, got %v", e.Formats)
				}
				if !containsValue(e.Goals, "career change") {
					t.Errorf("expected career change goal, got %v", e.Goals)
				}
			},
		},
		{
			name: "hours per week time expression",
			text: "I can do about 5 hours a week",
			validate: func(t *testing.T, e conversation.EntitySet) {
				if !containsValue(e.Times, "5 hours a week") {
					t.Errorf("expected time commitment, got %v", e.Times)
				}
			},
		},
		{
			name: "weekend availability",
			text: "only on weekends really",
			validate: func(t *testing.T, e conversation.EntitySet) {
				if !containsValue(e.Times, "weekends") {
					t.Errorf("expected weekends, got %v", e.Times)
				}
			},
		},
		{
			name: "no entities",
			text: "hmm let me think",
			validate: func(t *testing.T, e conversation.EntitySet) {
				if !e.IsEmpty() {
					t.Errorf("expected empty entity set, got %+v", e)
				}
			},
		},
	}

	analyzer := NewLexiconAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entities, err := analyzer.ExtractEntities(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("ExtractEntities returned error: %v", err)
			}
			tt.validate(t, entities)
		})
	}
}

func TestLexiconAnalyzer_AnalyzeSentiment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want conversation.Sentiment
	}{
		{
			name: "positive",
			text: "that sounds great, thanks!",
			want: conversation.SentimentPositive,
		},
		{
			name: "negative",
			text: "no, that's a terrible fit",
			want: conversation.SentimentNegative,
		},
		{
			name: "neutral",
			text: "tell me more about it",
			want: conversation.SentimentNeutral,
		},
		{
			name: "mixed leans on majority",
			text: "I like it but the pace is bad and the examples are boring",
			want: conversation.SentimentNegative,
		},
	}

	analyzer := NewLexiconAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := analyzer.AnalyzeSentiment(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("AnalyzeSentiment returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("AnalyzeSentiment(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func containsValue(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
