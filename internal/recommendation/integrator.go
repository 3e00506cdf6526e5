package recommendation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/courseflix/courseflix-api/internal/conversation"
	"github.com/courseflix/courseflix-api/internal/models"
)

// DefaultMaxConversationRecommendations caps how many courses a single
// conversational answer lists.
const DefaultMaxConversationRecommendations = 5

const noMatchesMessage = "I couldn't find any courses matching your preferences. Could you tell me more about what you're looking for?"

var positiveFeedbackPatterns = []string{
	"like", "good", "great", "excellent", "perfect", "yes", "interested",
	"sounds good", "looks good", "thank you", "thanks",
}

var negativeFeedbackPatterns = []string{
	"don't like", "not interested", "no", "different", "something else",
	"not what i'm looking for", "not helpful", "not good",
}

var ordinalPattern = regexp.MustCompile(`\b(first|second|third|fourth|fifth|\d+(?:st|nd|rd|th)?)\b`)

// FeedbackType classifies parsed recommendation feedback
type FeedbackType string

const (
	FeedbackSpecificCourse FeedbackType = "specific_course"
	FeedbackTypePositive   FeedbackType = "positive"
	FeedbackTypeNegative   FeedbackType = "negative"
)

// FeedbackResult is the outcome of parsing user feedback on recommendations.
// Processed is false when no feedback signal was recognized.
type FeedbackResult struct {
	Processed    bool                              `json:"processed"`
	FeedbackType FeedbackType                      `json:"feedback_type,omitempty"`
	CourseIndex  int                               `json:"course_index,omitempty"`
	Course       *conversation.ShownRecommendation `json:"course,omitempty"`
	Message      string                            `json:"message,omitempty"`
}

// ConversationResult pairs listed recommendations with the assistant message
// presenting them.
type ConversationResult struct {
	Recommendations []conversation.ShownRecommendation `json:"recommendations"`
	Message         string                             `json:"message"`
}

// Integrator connects the recommendation service to the conversation flow.
// It satisfies conversation.Recommender.
type Integrator struct {
	service            *Service
	maxRecommendations int
	logger             *zap.Logger
}

// NewIntegrator creates a conversation recommendation integrator.
func NewIntegrator(service *Service, maxRecommendations int, logger *zap.Logger) *Integrator {
	if maxRecommendations <= 0 {
		maxRecommendations = DefaultMaxConversationRecommendations
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Integrator{service: service, maxRecommendations: maxRecommendations, logger: logger}
}

// RecommendationsFor returns courses for a conversation turn. Outside the
// recommendation and refinement states it returns nothing.
func (i *Integrator) RecommendationsFor(ctx context.Context, params conversation.RecommendationParams) ([]conversation.ShownRecommendation, error) {
	result := i.FromConversation(ctx, params)
	return result.Recommendations, nil
}

// FromConversation generates recommendations and the conversational message
// presenting them.
func (i *Integrator) FromConversation(ctx context.Context, params conversation.RecommendationParams) ConversationResult {
	if params.ConversationState != conversation.StateRecommendation &&
		params.ConversationState != conversation.StateRefinement {
		return ConversationResult{
			Recommendations: []conversation.ShownRecommendation{},
			Message:         "Not in recommendation state",
		}
	}

	section := i.service.Personalized(ctx, PersonalizedParams{
		UserID:           params.UserID,
		ConversationID:   params.ConversationID,
		Subjects:         params.Subjects,
		Skills:           params.Skills,
		Level:            params.Level,
		Format:           params.Format,
		Goal:             params.Goal,
		TimeCommitment:   params.TimeCommitment,
		ExcludeSubjects:  params.ExcludeSubjects,
		ExcludeProviders: params.ExcludeProviders,
		Limit:            i.maxRecommendations,
	})
	return formatForConversation(section)
}

// formatForConversation renders a section as a numbered conversational list.
func formatForConversation(section Section) ConversationResult {
	if len(section.Recommendations) == 0 {
		return ConversationResult{
			Recommendations: []conversation.ShownRecommendation{},
			Message:         noMatchesMessage,
		}
	}

	shown := make([]conversation.ShownRecommendation, len(section.Recommendations))
	for i, rec := range section.Recommendations {
		shown[i] = conversation.ShownRecommendation{
			ID:       rec.ID,
			Title:    rec.Title,
			Provider: rec.Provider.Name,
			Level:    string(rec.Level),
			Reason:   rec.Reason,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on our conversation, I've found %d courses that might interest you:\n\n", len(shown))
	for i, rec := range shown {
		fmt.Fprintf(&b, "%d. **%s** (%s) - %s level\n", i+1, rec.Title, rec.Provider, rec.Level)
		fmt.Fprintf(&b, "   %s\n\n", rec.Reason)
	}
	b.WriteString("Would you like more information about any of these courses, or would you prefer different recommendations?")

	return ConversationResult{Recommendations: shown, Message: b.String()}
}

// ProcessFeedback interprets a user message as feedback on the most recently
// shown recommendations. A specific course mention wins over general
// sentiment.
func (i *Integrator) ProcessFeedback(ctx context.Context, userID, conversationID, message string, shown []conversation.ShownRecommendation) FeedbackResult {
	if len(shown) == 0 {
		return FeedbackResult{
			Processed: false,
			Message:   "I don't have any recent recommendations to get feedback on.",
		}
	}

	lower := strings.ToLower(message)
	index := parseCourseOrdinal(lower)

	if index >= 0 && index < len(shown) {
		selected := shown[index]
		if userID != "" {
			if err := i.service.TrackInteraction(ctx, InteractionParams{
				UserID:             userID,
				CourseID:           selected.ID,
				RecommendationType: "conversation",
				InteractionType:    "selected",
				ReferenceID:        conversationID,
			}); err != nil {
				i.logger.Warn("recommendation_selection_track_failed", zap.Error(err))
			}
		}
		return FeedbackResult{
			Processed:    true,
			FeedbackType: FeedbackSpecificCourse,
			CourseIndex:  index,
			Course:       &selected,
			Message:      fmt.Sprintf("Great choice! %q is an excellent course. Would you like to enroll in this course or see more details about it?", selected.Title),
		}
	}

	if containsAny(lower, positiveFeedbackPatterns) {
		i.recordFeedback(ctx, userID, models.FeedbackPositive, message)
		return FeedbackResult{
			Processed:    true,
			FeedbackType: FeedbackTypePositive,
			Message:      "I'm glad you like these recommendations! Would you like to explore any of these courses in more detail?",
		}
	}

	if containsAny(lower, negativeFeedbackPatterns) {
		i.recordFeedback(ctx, userID, models.FeedbackNegative, message)
		return FeedbackResult{
			Processed:    true,
			FeedbackType: FeedbackTypeNegative,
			Message:      "I'm sorry these recommendations weren't helpful. Could you tell me more about what you're looking for so I can find better courses for you?",
		}
	}

	return FeedbackResult{Processed: false}
}

func (i *Integrator) recordFeedback(ctx context.Context, userID string, rating models.FeedbackRating, comments string) {
	if userID == "" {
		return
	}
	if err := i.service.ProvideFeedback(ctx, FeedbackParams{
		UserID:             userID,
		RecommendationType: "conversation",
		FeedbackType:       rating,
		Comments:           comments,
	}); err != nil {
		i.logger.Warn("recommendation_feedback_record_failed", zap.Error(err))
	}
}

// parseCourseOrdinal extracts a zero-based course index from a message, or -1
// when no ordinal is present. Word ordinals cover the five listed positions;
// numeric ordinals are open-ended.
func parseCourseOrdinal(lower string) int {
	match := ordinalPattern.FindStringSubmatch(lower)
	if match == nil {
		return -1
	}
	switch match[1] {
	case "first":
		return 0
	case "second":
		return 1
	case "third":
		return 2
	case "fourth":
		return 3
	case "fifth":
		return 4
	}
	digits := strings.TrimFunc(match[1], func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return n - 1
}

func containsAny(text string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}
