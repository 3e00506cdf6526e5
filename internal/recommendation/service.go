package recommendation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/courseflix/courseflix-api/internal/cache"
	"github.com/courseflix/courseflix-api/internal/conversation"
	"github.com/courseflix/courseflix-api/internal/models"
)

// DefaultCacheTTL is how long recommendation sections stay cached.
const DefaultCacheTTL = time.Hour

// EventLogger records analytics events. Implementations are fire-and-forget.
type EventLogger interface {
	LogEvent(ctx context.Context, event models.AnalyticsEvent)
}

// Service fronts the engine with caching and analytics. Cache failures are
// swallowed; a broken cache degrades to engine calls.
type Service struct {
	engine   *Engine
	cache    cache.Cache
	events   EventLogger
	users    UserRepository
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewService creates a recommendation service. Cache and event logger may be
// nil.
func NewService(engine *Engine, valueCache cache.Cache, events EventLogger, users UserRepository, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:   engine,
		cache:    valueCache,
		events:   events,
		users:    users,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Personalized returns personalized recommendations, cached per user and
// preference shape.
func (s *Service) Personalized(ctx context.Context, params PersonalizedParams) Section {
	var key string
	if s.cache != nil && params.UserID != "" {
		key = cacheKey("personalized",
			params.UserID,
			strings.Join(params.Subjects, "_"),
			strings.Join(params.Skills, "_"),
			params.Level,
			params.Format,
			strings.Join(params.ExcludeSubjects, "_"),
			strings.Join(params.ExcludeProviders, "_"),
		)
		var cached Section
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.logEvent(ctx, models.AnalyticsEvent{
				UserID:    params.UserID,
				EventType: models.EventRecommendationImpression,
				Metadata: models.AnalyticsMetadata{
					RecommendationType: string(TypePersonalized),
					ConversationID:     params.ConversationID,
					Results:            len(cached.Recommendations),
				},
				Timestamp: time.Now().UTC(),
			})
			return cached
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("recommendation_cache_read_failed", zap.Error(err))
		}
	}

	section := s.engine.Personalized(ctx, params)

	if key != "" && section.Error == "" {
		if err := s.cache.Set(ctx, key, section, s.cacheTTL); err != nil {
			s.logger.Warn("recommendation_cache_write_failed", zap.Error(err))
		}
	}

	s.logEvent(ctx, models.AnalyticsEvent{
		UserID:    params.UserID,
		EventType: models.EventRecommendationImpression,
		Metadata: models.AnalyticsMetadata{
			RecommendationType: string(TypePersonalized),
			ConversationID:     params.ConversationID,
			Results:            len(section.Recommendations),
		},
		Timestamp: time.Now().UTC(),
	})
	return section
}

// Trending returns trending recommendations, cached per timeframe and
// category for all users.
func (s *Service) Trending(ctx context.Context, params TrendingParams) Section {
	timeframe := params.Timeframe
	if timeframe == "" {
		timeframe = TimeframeWeek
	}
	category := params.Category
	if category == "" {
		category = "all"
	}

	var key string
	if s.cache != nil {
		key = cacheKey("trending", string(timeframe), category)
		var cached Section
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("recommendation_cache_read_failed", zap.Error(err))
		}
	}

	section := s.engine.Trending(ctx, params)

	if key != "" && section.Error == "" {
		if err := s.cache.Set(ctx, key, section, s.cacheTTL); err != nil {
			s.logger.Warn("recommendation_cache_write_failed", zap.Error(err))
		}
	}
	return section
}

// BecauseYouWatched returns courses similar to a reference course, cached per
// course.
func (s *Service) BecauseYouWatched(ctx context.Context, params BecauseYouWatchedParams) (Section, error) {
	if params.CourseID == "" {
		return Section{Type: TypeBecauseYouWatched, Title: "Because You Watched", Strategy: StrategyContentBased, Recommendations: []Recommendation{}}, ErrCourseIDRequired
	}

	var key string
	if s.cache != nil {
		key = cacheKey("because_you_watched", params.CourseID)
		var cached Section
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("recommendation_cache_read_failed", zap.Error(err))
		}
	}

	section, err := s.engine.BecauseYouWatched(ctx, params)
	if err != nil {
		return section, err
	}

	if key != "" && section.Error == "" {
		if err := s.cache.Set(ctx, key, section, s.cacheTTL); err != nil {
			s.logger.Warn("recommendation_cache_write_failed", zap.Error(err))
		}
	}
	return section, nil
}

// ContinueLearning returns a user's in-progress courses. Never cached since
// progress changes with every learning session.
func (s *Service) ContinueLearning(ctx context.Context, params ContinueLearningParams) (Section, error) {
	return s.engine.ContinueLearning(ctx, params)
}

// SimilarUsers returns courses popular with similar learners.
func (s *Service) SimilarUsers(ctx context.Context, params SimilarUsersParams) (Section, error) {
	return s.engine.SimilarUsers(ctx, params)
}

// All returns the combined recommendation set. Only the anonymous variant is
// cached; per-user results depend on live enrollment data.
func (s *Service) All(ctx context.Context, params AllParams) AllResult {
	var key string
	if s.cache != nil && params.UserID == "" {
		key = cacheKey("all", "anonymous")
		var cached AllResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("recommendation_cache_read_failed", zap.Error(err))
		}
	}

	result := s.engine.All(ctx, params)

	if key != "" && result.Error == "" {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("recommendation_cache_write_failed", zap.Error(err))
		}
	}

	if params.UserID != "" {
		total := 0
		for _, section := range result.Sections {
			total += len(section.Recommendations)
		}
		s.logEvent(ctx, models.AnalyticsEvent{
			UserID:    params.UserID,
			EventType: models.EventRecommendationImpression,
			Metadata: models.AnalyticsMetadata{
				RecommendationType: "all",
				ConversationID:     params.ConversationID,
				Results:            total,
			},
			Timestamp: time.Now().UTC(),
		})
	}
	return result
}

// FromConversation maps conversation-derived preferences onto a personalized
// request.
func (s *Service) FromConversation(ctx context.Context, params conversation.RecommendationParams) Section {
	return s.Personalized(ctx, PersonalizedParams{
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
	})
}

// InteractionParams describes a user acting on a recommendation.
type InteractionParams struct {
	UserID             string `json:"user_id"`
	CourseID           string `json:"course_id"`
	RecommendationType string `json:"recommendation_type"`
	InteractionType    string `json:"interaction_type"`
	ReferenceID        string `json:"reference_id,omitempty"`
}

// TrackInteraction records a click, selection, or enrollment on a served
// recommendation.
func (s *Service) TrackInteraction(ctx context.Context, params InteractionParams) error {
	if params.UserID == "" || params.CourseID == "" || params.RecommendationType == "" || params.InteractionType == "" {
		return fmt.Errorf("user ID, course ID, recommendation type, and interaction type are required")
	}

	s.logEvent(ctx, models.AnalyticsEvent{
		UserID:    params.UserID,
		CourseID:  params.CourseID,
		EventType: models.EventRecommendationClick,
		Metadata: models.AnalyticsMetadata{
			RecommendationType: params.RecommendationType,
		},
		Timestamp: time.Now().UTC(),
	})

	if s.users != nil {
		if err := s.users.AddCourseInteraction(ctx, params.UserID, params.CourseID, params.InteractionType); err != nil {
			return fmt.Errorf("failed to record course interaction: %w", err)
		}
	}
	return nil
}

// FeedbackParams describes explicit feedback on recommendations.
type FeedbackParams struct {
	UserID             string                `json:"user_id"`
	CourseID           string                `json:"course_id,omitempty"`
	RecommendationType string                `json:"recommendation_type"`
	FeedbackType       models.FeedbackRating `json:"feedback_type"`
	Comments           string                `json:"comments,omitempty"`
}

// ProvideFeedback records a user's reaction to served recommendations.
func (s *Service) ProvideFeedback(ctx context.Context, params FeedbackParams) error {
	if params.UserID == "" || params.RecommendationType == "" || params.FeedbackType == "" {
		return fmt.Errorf("user ID, recommendation type, and feedback type are required")
	}

	s.logEvent(ctx, models.AnalyticsEvent{
		UserID:    params.UserID,
		CourseID:  params.CourseID,
		EventType: models.EventRating,
		Metadata: models.AnalyticsMetadata{
			RecommendationType: params.RecommendationType,
		},
		Timestamp: time.Now().UTC(),
	})

	if s.users != nil && params.CourseID != "" {
		feedback := models.RecommendationFeedback{
			CourseID:  params.CourseID,
			Rating:    params.FeedbackType,
			Timestamp: time.Now().UTC(),
			Context:   params.Comments,
		}
		if err := s.users.AddRecommendationFeedback(ctx, params.UserID, feedback); err != nil {
			return fmt.Errorf("failed to record recommendation feedback: %w", err)
		}
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, event models.AnalyticsEvent) {
	if s.events == nil {
		return
	}
	s.events.LogEvent(ctx, event)
}

// cacheKey builds a stable key from the structural parts of a request.
func cacheKey(kind string, parts ...string) string {
	h := fnv.New64a()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("recommendations:%s:%x", kind, h.Sum64())
}
