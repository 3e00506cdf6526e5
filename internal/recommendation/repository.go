package recommendation

import (
	"context"
	"time"

	"github.com/courseflix/courseflix-api/internal/models"
)

// CourseQuery filters and orders a course catalog search.
type CourseQuery struct {
	Topics           []string
	Skills           []string
	Difficulty       string
	Format           string
	ExcludeTopics    []string
	ExcludeProviders []string
	MaxHoursPerWeek  float64
	Limit            int
}

// CourseRepository provides catalog access for the engine.
type CourseRepository interface {
	FindCourses(ctx context.Context, query CourseQuery) ([]models.Course, error)
	GetCourseByID(ctx context.Context, courseID string) (*models.Course, error)
	GetCoursesByIDs(ctx context.Context, courseIDs []string) ([]models.Course, error)
	FindSimilarCourses(ctx context.Context, courseID string, topics []string, limit int) ([]models.Course, error)
	FindTrendingCourses(ctx context.Context, since time.Time, category string, limit int) ([]models.Course, error)
}

// UserRepository provides learner profiles and collaborative signals.
type UserRepository interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	FindSimilarUsers(ctx context.Context, userID string, interests []string, skills []string, limit int) ([]models.User, error)
	FrequentCoursesAmong(ctx context.Context, userIDs []string, excludeUserID string, limit int) ([]models.Course, error)
	AddCourseInteraction(ctx context.Context, userID, courseID, interactionType string) error
	AddRecommendationFeedback(ctx context.Context, userID string, feedback models.RecommendationFeedback) error
}

// AnalyticsRepository records which recommendations were served.
type AnalyticsRepository interface {
	LogRecommendations(ctx context.Context, userID string, recommendationType Type, courseIDs []string, referenceID string) error
}
