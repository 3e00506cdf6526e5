package recommendation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/courseflix/courseflix-api/internal/conversation"
	"github.com/courseflix/courseflix-api/internal/models"
)

func newTestIntegrator(courses *mockCourseRepo, users *mockUserRepo) *Integrator {
	engine := NewEngine(courses, users, nil, EngineOptions{}, nil)
	svc := NewService(engine, nil, nil, users, time.Minute, nil)
	return NewIntegrator(svc, 5, nil)
}

func TestFromConversation_OutsideRecommendationState(t *testing.T) {
	t.Parallel()

	integrator := newTestIntegrator(&mockCourseRepo{}, &mockUserRepo{})

	result := integrator.FromConversation(context.Background(), conversation.RecommendationParams{
		ConversationState: conversation.StateDiscovery,
	})

	if len(result.Recommendations) != 0 {
		t.Errorf("Expected no recommendations outside the recommendation state, got %d", len(result.Recommendations))
	}
}

func TestFromConversation_FormatsNumberedList(t *testing.T) {
	t.Parallel()

	courses := &mockCourseRepo{
		findCourses: func(ctx context.Context, query CourseQuery) ([]models.Course, error) {
			a := testCourse("a", []string{"python"}, "Coursera", 4.5, 100)
			a.Title = "Python for Everybody"
			a.Difficulty = models.DifficultyBeginner
			b := testCourse("b", []string{"python"}, "Udemy", 4.0, 80)
			b.Title = "Complete Python Bootcamp"
			b.Difficulty = models.DifficultyIntermediate
			return []models.Course{a, b}, nil
		},
	}
	integrator := newTestIntegrator(courses, &mockUserRepo{})

	result := integrator.FromConversation(context.Background(), conversation.RecommendationParams{
		QueryParams:       conversation.QueryParams{Subjects: []string{"python"}},
		ConversationState: conversation.StateRecommendation,
	})

	if len(result.Recommendations) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(result.Recommendations))
	}
	if result.Recommendations[0].Provider != "Coursera" {
		t.Errorf("Expected provider name flattened, got %s", result.Recommendations[0].Provider)
	}
	if !strings.Contains(result.Message, "found 2 courses") {
		t.Errorf("Expected the course count in the message, got %q", result.Message)
	}
	if !strings.Contains(result.Message, "1. **Python for Everybody** (Coursera)") {
		t.Errorf("Expected a numbered entry, got %q", result.Message)
	}
}

func TestFromConversation_NoMatches(t *testing.T) {
	t.Parallel()

	integrator := newTestIntegrator(&mockCourseRepo{}, &mockUserRepo{})

	result := integrator.FromConversation(context.Background(), conversation.RecommendationParams{
		ConversationState: conversation.StateRecommendation,
	})

	if len(result.Recommendations) != 0 {
		t.Fatalf("Expected no recommendations, got %d", len(result.Recommendations))
	}
	if !strings.Contains(result.Message, "couldn't find any courses") {
		t.Errorf("Expected the no-matches message, got %q", result.Message)
	}
}

func TestProcessFeedback(t *testing.T) {
	t.Parallel()

	shown := []conversation.ShownRecommendation{
		{ID: "c1", Title: "Python for Everybody"},
		{ID: "c2", Title: "Complete Python Bootcamp"},
		{ID: "c3", Title: "Data Science with Python"},
	}

	tests := []struct {
		name          string
		message       string
		wantProcessed bool
		wantType      FeedbackType
		wantIndex     int
	}{
		{
			name:          "word ordinal",
			message:       "tell me more about the second one",
			wantProcessed: true,
			wantType:      FeedbackSpecificCourse,
			wantIndex:     1,
		},
		{
			name:          "numeric ordinal",
			message:       "the 3rd looks promising",
			wantProcessed: true,
			wantType:      FeedbackSpecificCourse,
			wantIndex:     2,
		},
		{
			name:          "ordinal wins over sentiment",
			message:       "yes, the first one sounds good",
			wantProcessed: true,
			wantType:      FeedbackSpecificCourse,
			wantIndex:     0,
		},
		{
			name:          "positive sentiment",
			message:       "these look great, thanks",
			wantProcessed: true,
			wantType:      FeedbackTypePositive,
		},
		{
			name:          "negative sentiment",
			message:       "show me something else please",
			wantProcessed: true,
			wantType:      FeedbackTypeNegative,
		},
		{
			name:          "no signal",
			message:       "hmm",
			wantProcessed: false,
		},
		{
			name:          "ordinal out of range",
			message:       "what about the fifth one",
			wantProcessed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := &mockUserRepo{}
			integrator := newTestIntegrator(&mockCourseRepo{}, users)

			result := integrator.ProcessFeedback(context.Background(), "u1", "conv-1", tt.message, shown)

			if result.Processed != tt.wantProcessed {
				t.Fatalf("Expected processed=%v, got %v", tt.wantProcessed, result.Processed)
			}
			if !tt.wantProcessed {
				return
			}
			if result.FeedbackType != tt.wantType {
				t.Errorf("Expected feedback type %s, got %s", tt.wantType, result.FeedbackType)
			}
			if tt.wantType == FeedbackSpecificCourse {
				if result.CourseIndex != tt.wantIndex {
					t.Errorf("Expected course index %d, got %d", tt.wantIndex, result.CourseIndex)
				}
				if result.Course == nil || result.Course.ID != shown[tt.wantIndex].ID {
					t.Errorf("Expected course %s selected, got %v", shown[tt.wantIndex].ID, result.Course)
				}
				if len(users.interactions) != 1 {
					t.Errorf("Expected the selection tracked, got %v", users.interactions)
				}
			}
		})
	}
}

func TestProcessFeedback_NothingShown(t *testing.T) {
	t.Parallel()

	integrator := newTestIntegrator(&mockCourseRepo{}, &mockUserRepo{})

	result := integrator.ProcessFeedback(context.Background(), "u1", "conv-1", "I like the first one", nil)

	if result.Processed {
		t.Error("Expected feedback unprocessed without shown recommendations")
	}
	if result.Message == "" {
		t.Error("Expected an explanatory message")
	}
}

func TestParseCourseOrdinal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		want    int
	}{
		{"the first one", 0},
		{"maybe the third", 2},
		{"number 2 please", 1},
		{"the 4th course", 3},
		{"tell me more", -1},
	}

	for _, tt := range tests {
		if got := parseCourseOrdinal(tt.message); got != tt.want {
			t.Errorf("parseCourseOrdinal(%q) = %d, want %d", tt.message, got, tt.want)
		}
	}
}
