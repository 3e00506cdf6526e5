package recommendation

import (
	"time"

	"github.com/courseflix/courseflix-api/internal/models"
)

// Type classifies a recommendation section
type Type string

const (
	TypePersonalized      Type = "personalized"
	TypeTrending          Type = "trending"
	TypeContinueLearning  Type = "continue_learning"
	TypeBecauseYouWatched Type = "because_you_watched"
	TypeSimilarUsers      Type = "similar_users"
)

// Strategy names the algorithm family behind a section. Continue-learning
// carries none: it replays the user's own enrollments.
type Strategy string

const (
	StrategyContentBased  Strategy = "content_based"
	StrategyCollaborative Strategy = "collaborative"
	StrategyPopularity    Strategy = "popularity"
	StrategyHybrid        Strategy = "hybrid"
)

// Timeframe bounds a trending window
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// Window returns the start of the timeframe relative to now. Unknown values
// fall back to a week.
func (t Timeframe) Window(now time.Time) time.Time {
	switch t {
	case TimeframeDay:
		return now.AddDate(0, 0, -1)
	case TimeframeMonth:
		return now.AddDate(0, -1, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// ValidTimeframe reports whether the value is a known timeframe.
func ValidTimeframe(v string) bool {
	switch Timeframe(v) {
	case TimeframeDay, TimeframeWeek, TimeframeMonth:
		return true
	}
	return false
}

// Recommendation is one recommended course with its presentation fields.
type Recommendation struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Thumbnail    string             `json:"thumbnail,omitempty"`
	Provider     models.Provider    `json:"provider"`
	Level        models.Difficulty  `json:"level"`
	Ratings      models.Ratings     `json:"ratings"`
	Popularity   *models.Popularity `json:"popularity,omitempty"`
	Topics       []string           `json:"topics,omitempty"`
	Reason       string             `json:"reason"`
	Score        float64            `json:"score"`
	ReferenceID  string             `json:"reference_id,omitempty"`
	Progress     float64            `json:"progress,omitempty"`
	LastAccessed *time.Time         `json:"last_accessed,omitempty"`
}

// Section is one titled group of recommendations. A failed generator yields
// an empty section with Error set instead of propagating the failure.
type Section struct {
	Type            Type             `json:"type"`
	Title           string           `json:"title"`
	Strategy        Strategy         `json:"strategy,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	ReferenceID     string           `json:"reference_id,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// AllResult groups every applicable section for a user.
type AllResult struct {
	UserID   string    `json:"user_id,omitempty"`
	Sections []Section `json:"recommendations"`
	Error    string    `json:"error,omitempty"`
}

// PersonalizedParams selects personalized recommendations.
type PersonalizedParams struct {
	UserID           string   `json:"user_id,omitempty"`
	ConversationID   string   `json:"conversation_id,omitempty"`
	Subjects         []string `json:"subjects,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	Level            string   `json:"level,omitempty"`
	Format           string   `json:"format,omitempty"`
	Goal             string   `json:"goal,omitempty"`
	TimeCommitment   string   `json:"time_commitment,omitempty"`
	ExcludeSubjects  []string `json:"exclude_subjects,omitempty"`
	ExcludeProviders []string `json:"exclude_providers,omitempty"`
	Limit            int      `json:"limit,omitempty"`
}

// TrendingParams selects trending recommendations.
type TrendingParams struct {
	UserID    string    `json:"user_id,omitempty"`
	Timeframe Timeframe `json:"timeframe,omitempty"`
	Category  string    `json:"category,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// BecauseYouWatchedParams selects recommendations similar to a watched course.
type BecauseYouWatchedParams struct {
	UserID   string `json:"user_id,omitempty"`
	CourseID string `json:"course_id"`
	Limit    int    `json:"limit,omitempty"`
}

// ContinueLearningParams selects a user's in-progress courses.
type ContinueLearningParams struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// SimilarUsersParams selects courses popular with similar learners.
type SimilarUsersParams struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// AllParams selects the combined recommendation set.
type AllParams struct {
	UserID         string   `json:"user_id,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Level          string   `json:"level,omitempty"`
	Format         string   `json:"format,omitempty"`
	Limit          int      `json:"limit,omitempty"`
}
