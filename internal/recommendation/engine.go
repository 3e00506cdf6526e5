package recommendation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/courseflix/courseflix-api/internal/models"
)

var (
	// ErrUserIDRequired is returned by generators that cannot run anonymously.
	ErrUserIDRequired = errors.New("user ID is required")
	// ErrCourseIDRequired is returned when a reference course is missing.
	ErrCourseIDRequired = errors.New("course ID is required")
)

const failedMessage = "Failed to generate recommendations"

// EngineOptions tunes the recommendation engine. Zero values take defaults.
type EngineOptions struct {
	DefaultLimit     int
	MaxPerTopic      int
	MaxPerProvider   int
	PopularityWeight float64
	RatingWeight     float64
	RelevanceWeight  float64
	SimilarUserLimit int
}

// Engine generates course recommendations from catalog and learner data.
type Engine struct {
	courses          CourseRepository
	users            UserRepository
	analytics        AnalyticsRepository
	defaultLimit     int
	maxPerTopic      int
	maxPerProvider   int
	popularityWeight float64
	ratingWeight     float64
	relevanceWeight  float64
	similarUserLimit int
	logger           *zap.Logger
	now              func() time.Time
}

// NewEngine creates a recommendation engine. The analytics repository may be
// nil; course and user repositories are required.
func NewEngine(courses CourseRepository, users UserRepository, analytics AnalyticsRepository, opts EngineOptions, logger *zap.Logger) *Engine {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxPerTopic <= 0 {
		opts.MaxPerTopic = 3
	}
	if opts.MaxPerProvider <= 0 {
		opts.MaxPerProvider = 4
	}
	if opts.PopularityWeight == 0 {
		opts.PopularityWeight = 0.3
	}
	if opts.RatingWeight == 0 {
		opts.RatingWeight = 0.4
	}
	if opts.RelevanceWeight == 0 {
		opts.RelevanceWeight = 0.7
	}
	if opts.SimilarUserLimit <= 0 {
		opts.SimilarUserLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		courses:          courses,
		users:            users,
		analytics:        analytics,
		defaultLimit:     opts.DefaultLimit,
		maxPerTopic:      opts.MaxPerTopic,
		maxPerProvider:   opts.MaxPerProvider,
		popularityWeight: opts.PopularityWeight,
		ratingWeight:     opts.RatingWeight,
		relevanceWeight:  opts.RelevanceWeight,
		similarUserLimit: opts.SimilarUserLimit,
		logger:           logger,
		now:              time.Now,
	}
}

// Personalized blends content-based matching with collaborative filtering for
// known users. Anonymous requests get content-based results only. Internal
// failures yield an empty section with Error set.
func (e *Engine) Personalized(ctx context.Context, params PersonalizedParams) Section {
	section := Section{Type: TypePersonalized, Title: "Recommended for You", Strategy: StrategyContentBased, Recommendations: []Recommendation{}}
	limit := params.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	// Goals are free text ("web development") and have no catalog column of
	// their own; they join the topic overlap filter instead.
	topics := params.Subjects
	if params.Goal != "" {
		topics = append(append([]string{}, params.Subjects...), params.Goal)
	}

	contentCourses, err := e.courses.FindCourses(ctx, CourseQuery{
		Topics:           topics,
		Skills:           params.Skills,
		Difficulty:       params.Level,
		Format:           params.Format,
		ExcludeTopics:    params.ExcludeSubjects,
		ExcludeProviders: params.ExcludeProviders,
		MaxHoursPerWeek:  hoursPerWeek(params.TimeCommitment),
		Limit:            limit * 3,
	})
	if err != nil {
		e.logger.Error("personalized_content_query_failed", zap.Error(err))
		section.Error = failedMessage
		return section
	}

	candidates := e.scoreContentCourses(contentCourses, params)

	if params.UserID != "" {
		collaborative, err := e.collaborativeCandidates(ctx, params.UserID, params.Subjects, params.Skills, limit)
		if err != nil {
			e.logger.Warn("personalized_collaborative_failed",
				zap.String("user_id", params.UserID),
				zap.Error(err),
			)
		} else {
			if len(collaborative) > 0 {
				section.Strategy = StrategyHybrid
			}
			candidates = mergeCandidates(candidates, collaborative)
		}
	}

	diverse := e.applyDiversity(candidates)
	sort.SliceStable(diverse, func(i, j int) bool { return diverse[i].Score > diverse[j].Score })
	if len(diverse) > limit {
		diverse = diverse[:limit]
	}
	section.Recommendations = diverse

	if e.analytics != nil && params.UserID != "" && len(diverse) > 0 {
		ids := make([]string, len(diverse))
		for i, rec := range diverse {
			ids[i] = rec.ID
		}
		if err := e.analytics.LogRecommendations(ctx, params.UserID, TypePersonalized, ids, ""); err != nil {
			e.logger.Debug("recommendation_log_failed", zap.Error(err))
		}
	}
	return section
}

// Trending ranks recently updated courses by views, enrollments, and rating.
func (e *Engine) Trending(ctx context.Context, params TrendingParams) Section {
	timeframe := params.Timeframe
	if timeframe == "" {
		timeframe = TimeframeWeek
	}
	title := "Trending This " + capitalize(string(timeframe))
	section := Section{Type: TypeTrending, Title: title, Strategy: StrategyPopularity, Recommendations: []Recommendation{}}

	limit := params.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	courses, err := e.courses.FindTrendingCourses(ctx, timeframe.Window(e.now()), params.Category, limit)
	if err != nil {
		e.logger.Error("trending_query_failed", zap.Error(err))
		section.Title = "Trending Now"
		section.Error = "Failed to generate trending recommendations"
		return section
	}

	for i, course := range courses {
		pop := course.Popularity
		section.Recommendations = append(section.Recommendations, Recommendation{
			ID:          course.ID,
			Title:       course.Title,
			Description: course.Description,
			Thumbnail:   course.Thumbnail,
			Provider:    course.Provider,
			Level:       course.Difficulty,
			Ratings:     course.Ratings,
			Popularity:  &pop,
			Topics:      course.Topics,
			Reason:      "Popular this " + string(timeframe),
			Score:       1 - float64(i)*0.05,
		})
	}
	return section
}

// BecauseYouWatched recommends courses sharing topics with a reference course.
func (e *Engine) BecauseYouWatched(ctx context.Context, params BecauseYouWatchedParams) (Section, error) {
	section := Section{Type: TypeBecauseYouWatched, Title: "Because You Watched", Strategy: StrategyContentBased, Recommendations: []Recommendation{}}
	if params.CourseID == "" {
		return section, ErrCourseIDRequired
	}

	limit := params.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	reference, err := e.courses.GetCourseByID(ctx, params.CourseID)
	if err != nil {
		e.logger.Error("because_you_watched_reference_failed",
			zap.String("course_id", params.CourseID),
			zap.Error(err),
		)
		section.Error = failedMessage
		return section, nil
	}
	if reference == nil {
		return section, fmt.Errorf("reference course %q not found", params.CourseID)
	}

	section.Title = "Because You Watched: " + reference.Title
	section.ReferenceID = params.CourseID

	similar, err := e.courses.FindSimilarCourses(ctx, params.CourseID, reference.Topics, limit)
	if err != nil {
		e.logger.Error("because_you_watched_query_failed", zap.Error(err))
		section.Error = failedMessage
		return section, nil
	}

	for i, course := range similar {
		section.Recommendations = append(section.Recommendations, Recommendation{
			ID:          course.ID,
			Title:       course.Title,
			Description: course.Description,
			Thumbnail:   course.Thumbnail,
			Provider:    course.Provider,
			Level:       course.Difficulty,
			Ratings:     course.Ratings,
			Topics:      course.Topics,
			Reason:      fmt.Sprintf("Similar to %q", reference.Title),
			Score:       1 - float64(i)*0.1,
			ReferenceID: params.CourseID,
		})
	}

	if e.analytics != nil && params.UserID != "" && len(section.Recommendations) > 0 {
		ids := make([]string, len(section.Recommendations))
		for i, rec := range section.Recommendations {
			ids[i] = rec.ID
		}
		if err := e.analytics.LogRecommendations(ctx, params.UserID, TypeBecauseYouWatched, ids, params.CourseID); err != nil {
			e.logger.Debug("recommendation_log_failed", zap.Error(err))
		}
	}
	return section, nil
}

// ContinueLearning surfaces the user's incomplete enrollments by recency.
// Every entry carries full score since resuming always outranks discovery.
func (e *Engine) ContinueLearning(ctx context.Context, params ContinueLearningParams) (Section, error) {
	section := Section{Type: TypeContinueLearning, Title: "Continue Learning", Recommendations: []Recommendation{}}
	if params.UserID == "" {
		return section, ErrUserIDRequired
	}

	limit := params.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	user, err := e.users.GetUserByID(ctx, params.UserID)
	if err != nil {
		e.logger.Error("continue_learning_user_failed",
			zap.String("user_id", params.UserID),
			zap.Error(err),
		)
		section.Error = failedMessage
		return section, nil
	}
	if user == nil {
		return section, nil
	}

	incomplete := user.IncompleteEnrollments()
	if len(incomplete) == 0 {
		return section, nil
	}
	if len(incomplete) > limit {
		incomplete = incomplete[:limit]
	}

	byID := make(map[string]models.Enrollment, len(incomplete))
	ids := make([]string, len(incomplete))
	for i, enrollment := range incomplete {
		ids[i] = enrollment.CourseID
		byID[enrollment.CourseID] = enrollment
	}

	courses, err := e.courses.GetCoursesByIDs(ctx, ids)
	if err != nil {
		e.logger.Error("continue_learning_courses_failed", zap.Error(err))
		section.Error = failedMessage
		return section, nil
	}

	// The catalog lookup does not preserve request order; walk the
	// recency-sorted enrollment IDs instead.
	byCourseID := make(map[string]models.Course, len(courses))
	for _, course := range courses {
		byCourseID[course.ID] = course
	}

	for _, id := range ids {
		course, ok := byCourseID[id]
		if !ok {
			continue
		}
		enrollment := byID[id]
		lastAccessed := enrollment.LastAccessed
		section.Recommendations = append(section.Recommendations, Recommendation{
			ID:           course.ID,
			Title:        course.Title,
			Description:  course.Description,
			Thumbnail:    course.Thumbnail,
			Provider:     course.Provider,
			Level:        course.Difficulty,
			Ratings:      course.Ratings,
			Topics:       course.Topics,
			Progress:     enrollment.Progress,
			LastAccessed: &lastAccessed,
			Reason:       "Continue where you left off",
			Score:        1,
		})
	}
	return section, nil
}

// SimilarUsers recommends courses popular with learners whose interests
// overlap the user's.
func (e *Engine) SimilarUsers(ctx context.Context, params SimilarUsersParams) (Section, error) {
	section := Section{Type: TypeSimilarUsers, Title: "Popular with Similar Learners", Strategy: StrategyCollaborative, Recommendations: []Recommendation{}}
	if params.UserID == "" {
		return section, ErrUserIDRequired
	}

	limit := params.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	user, err := e.users.GetUserByID(ctx, params.UserID)
	if err != nil {
		e.logger.Error("similar_users_user_failed",
			zap.String("user_id", params.UserID),
			zap.Error(err),
		)
		section.Error = failedMessage
		return section, nil
	}
	if user == nil {
		return section, fmt.Errorf("user %q not found", params.UserID)
	}

	similar, err := e.users.FindSimilarUsers(ctx, params.UserID, user.LearningPreferences.Interests, nil, e.similarUserLimit)
	if err != nil {
		e.logger.Error("similar_users_query_failed", zap.Error(err))
		section.Error = failedMessage
		return section, nil
	}
	if len(similar) == 0 {
		return section, nil
	}

	ids := make([]string, len(similar))
	for i, u := range similar {
		ids[i] = u.ID
	}
	courses, err := e.users.FrequentCoursesAmong(ctx, ids, params.UserID, limit)
	if err != nil {
		e.logger.Error("similar_users_courses_failed", zap.Error(err))
		section.Error = failedMessage
		return section, nil
	}

	for i, course := range courses {
		section.Recommendations = append(section.Recommendations, Recommendation{
			ID:          course.ID,
			Title:       course.Title,
			Description: course.Description,
			Thumbnail:   course.Thumbnail,
			Provider:    course.Provider,
			Level:       course.Difficulty,
			Ratings:     course.Ratings,
			Topics:      course.Topics,
			Reason:      "Popular with learners similar to you",
			Score:       1 - float64(i)*0.05,
		})
	}
	return section, nil
}

// All runs every applicable generator concurrently and drops empty sections.
// Sections keep a fixed order: continue learning, personalized, trending,
// similar users.
func (e *Engine) All(ctx context.Context, params AllParams) AllResult {
	limit := params.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	var (
		wg                                             sync.WaitGroup
		continueSection, personalized, trending, peers Section
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		personalized = e.Personalized(ctx, PersonalizedParams{
			UserID:   params.UserID,
			Subjects: params.Subjects,
			Skills:   params.Skills,
			Level:    params.Level,
			Format:   params.Format,
			Limit:    limit,
		})
	}()
	go func() {
		defer wg.Done()
		trending = e.Trending(ctx, TrendingParams{Limit: limit})
	}()

	if params.UserID != "" {
		wg.Add(2)
		go func() {
			defer wg.Done()
			continueSection, _ = e.ContinueLearning(ctx, ContinueLearningParams{UserID: params.UserID, Limit: limit})
		}()
		go func() {
			defer wg.Done()
			peers, _ = e.SimilarUsers(ctx, SimilarUsersParams{UserID: params.UserID, Limit: limit})
		}()
	}
	wg.Wait()

	result := AllResult{UserID: params.UserID, Sections: []Section{}}
	for _, section := range []Section{continueSection, personalized, trending, peers} {
		if len(section.Recommendations) > 0 {
			result.Sections = append(result.Sections, section)
		}
	}
	return result
}

// scoreContentCourses converts catalog matches into scored recommendations
// with match-derived reasons.
func (e *Engine) scoreContentCourses(courses []models.Course, params PersonalizedParams) []Recommendation {
	wanted := make([]string, 0, len(params.Subjects)+len(params.Skills))
	wanted = append(wanted, params.Subjects...)
	wanted = append(wanted, params.Skills...)

	maxViews := 1
	for _, course := range courses {
		if course.Popularity.Views > maxViews {
			maxViews = course.Popularity.Views
		}
	}

	recs := make([]Recommendation, 0, len(courses))
	for _, course := range courses {
		matched := matchedTerms(course, wanted)
		relevance := 0.0
		if len(wanted) > 0 {
			relevance = float64(len(matched)) / float64(len(wanted))
		}
		score := relevance*e.relevanceWeight +
			(course.Ratings.Average/5)*e.ratingWeight +
			(float64(course.Popularity.Views)/float64(maxViews))*e.popularityWeight

		recs = append(recs, Recommendation{
			ID:          course.ID,
			Title:       course.Title,
			Description: course.Description,
			Thumbnail:   course.Thumbnail,
			Provider:    course.Provider,
			Level:       course.Difficulty,
			Ratings:     course.Ratings,
			Topics:      course.Topics,
			Reason:      contentReason(matched, params.Level, course.Difficulty),
			Score:       score,
		})
	}
	return recs
}

// collaborativeCandidates scores courses popular among users similar to the
// given user, positional like the trending generator.
func (e *Engine) collaborativeCandidates(ctx context.Context, userID string, subjects, skills []string, limit int) ([]Recommendation, error) {
	interests := append(append([]string{}, subjects...), skills...)
	similar, err := e.users.FindSimilarUsers(ctx, userID, interests, skills, e.similarUserLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar users: %w", err)
	}
	if len(similar) == 0 {
		return nil, nil
	}

	ids := make([]string, len(similar))
	for i, u := range similar {
		ids[i] = u.ID
	}
	courses, err := e.users.FrequentCoursesAmong(ctx, ids, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load collaborative courses: %w", err)
	}

	recs := make([]Recommendation, 0, len(courses))
	for i, course := range courses {
		recs = append(recs, Recommendation{
			ID:          course.ID,
			Title:       course.Title,
			Description: course.Description,
			Thumbnail:   course.Thumbnail,
			Provider:    course.Provider,
			Level:       course.Difficulty,
			Ratings:     course.Ratings,
			Topics:      course.Topics,
			Reason:      "Popular with learners similar to you",
			Score:       1 - float64(i)*0.05,
		})
	}
	return recs, nil
}

// mergeCandidates unions two candidate lists, keeping the higher score when
// both contain the same course.
func mergeCandidates(content, collaborative []Recommendation) []Recommendation {
	merged := make([]Recommendation, 0, len(content)+len(collaborative))
	index := make(map[string]int, len(content))
	for _, rec := range content {
		index[rec.ID] = len(merged)
		merged = append(merged, rec)
	}
	for _, rec := range collaborative {
		if i, ok := index[rec.ID]; ok {
			if rec.Score > merged[i].Score {
				merged[i] = rec
			}
			continue
		}
		index[rec.ID] = len(merged)
		merged = append(merged, rec)
	}
	return merged
}

// applyDiversity caps how many recommendations share a primary topic or a
// provider, walking candidates best-first.
func (e *Engine) applyDiversity(recs []Recommendation) []Recommendation {
	ordered := make([]Recommendation, len(recs))
	copy(ordered, recs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Score > ordered[j].Score })

	topicCount := make(map[string]int)
	providerCount := make(map[string]int)
	diverse := make([]Recommendation, 0, len(ordered))
	for _, rec := range ordered {
		topic := ""
		if len(rec.Topics) > 0 {
			topic = strings.ToLower(rec.Topics[0])
		}
		provider := strings.ToLower(rec.Provider.Name)
		if topic != "" && topicCount[topic] >= e.maxPerTopic {
			continue
		}
		if provider != "" && providerCount[provider] >= e.maxPerProvider {
			continue
		}
		if topic != "" {
			topicCount[topic]++
		}
		if provider != "" {
			providerCount[provider]++
		}
		diverse = append(diverse, rec)
	}
	return diverse
}

func matchedTerms(course models.Course, wanted []string) []string {
	have := make(map[string]bool, len(course.Topics)+len(course.Skills))
	for _, t := range course.Topics {
		have[strings.ToLower(t)] = true
	}
	for _, s := range course.Skills {
		have[strings.ToLower(s)] = true
	}
	matched := make([]string, 0, len(wanted))
	for _, w := range wanted {
		if have[strings.ToLower(w)] {
			matched = append(matched, w)
		}
	}
	return matched
}

var hoursPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// hoursPerWeek extracts a weekly hour bound from a free-text time commitment
// ("5 hours a week", "about 10h"). Returns 0 when no number is present, which
// disables the duration filter.
func hoursPerWeek(commitment string) float64 {
	match := hoursPattern.FindString(commitment)
	if match == "" {
		return 0
	}
	hours, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return hours
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func contentReason(matched []string, wantedLevel string, difficulty models.Difficulty) string {
	if len(matched) > 0 {
		return "Matches your interest in " + matched[0]
	}
	if wantedLevel != "" && strings.EqualFold(wantedLevel, string(difficulty)) {
		return "Suited to " + string(difficulty) + " learners"
	}
	return "Recommended for you"
}
