package models

import (
	"sort"
	"time"
)

// LearningGoal represents why a user is learning
type LearningGoal string

const (
	GoalCareerAdvancement LearningGoal = "career_advancement"
	GoalSkillAcquisition  LearningGoal = "skill_acquisition"
	GoalPersonalInterest  LearningGoal = "personal_interest"
	GoalAcademic          LearningGoal = "academic"
	GoalCertification     LearningGoal = "certification"
)

// ExperienceLevel represents self-reported experience in a domain
type ExperienceLevel string

const (
	ExperienceNone         ExperienceLevel = "none"
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// TimeCommitment captures how much time a user plans to spend learning
type TimeCommitment struct {
	HoursPerWeek           float64 `json:"hours_per_week"`
	PreferredSessionLength string  `json:"preferred_session_length"`
}

// LearningPreferences is a user's standing learning profile
type LearningPreferences struct {
	Goals            []LearningGoal             `json:"goals,omitempty"`
	ExperienceLevels map[string]ExperienceLevel `json:"experience_levels,omitempty"`
	TimeCommitment   TimeCommitment             `json:"time_commitment"`
	LearningStyles   []string                   `json:"learning_styles,omitempty"`
	Interests        []string                   `json:"interests,omitempty"`
}

// CourseView records a user viewing a course page
type CourseView struct {
	CourseID   string    `json:"course_id"`
	LastViewed time.Time `json:"last_viewed"`
	ViewCount  int       `json:"view_count"`
}

// Enrollment records a user's enrollment in a course
type Enrollment struct {
	CourseID      string     `json:"course_id"`
	EnrolledDate  time.Time  `json:"enrolled_date"`
	Progress      float64    `json:"progress"`
	LastAccessed  time.Time  `json:"last_accessed"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// CourseRating records a user rating a course
type CourseRating struct {
	CourseID string    `json:"course_id"`
	Rating   int       `json:"rating"`
	Review   string    `json:"review,omitempty"`
	Date     time.Time `json:"date"`
}

// CourseInteractions aggregates a user's catalog activity
type CourseInteractions struct {
	Viewed     []CourseView   `json:"viewed,omitempty"`
	Bookmarked []string       `json:"bookmarked,omitempty"`
	Enrolled   []Enrollment   `json:"enrolled,omitempty"`
	Rated      []CourseRating `json:"rated,omitempty"`
}

// FeedbackRating is the polarity of recommendation feedback
type FeedbackRating string

const (
	FeedbackPositive FeedbackRating = "positive"
	FeedbackNegative FeedbackRating = "negative"
	FeedbackNeutral  FeedbackRating = "neutral"
)

// RecommendationFeedback records a user's reaction to a recommendation
type RecommendationFeedback struct {
	RecommendationID string         `json:"recommendation_id,omitempty"`
	CourseID         string         `json:"course_id"`
	Rating           FeedbackRating `json:"rating"`
	Timestamp        time.Time      `json:"timestamp"`
	Context          string         `json:"context,omitempty"`
}

// User represents a learner
type User struct {
	ID                     string                   `json:"id"`
	Name                   string                   `json:"name"`
	Email                  string                   `json:"email"`
	Avatar                 string                   `json:"avatar,omitempty"`
	LearningPreferences    LearningPreferences      `json:"learning_preferences"`
	CourseInteractions     CourseInteractions       `json:"course_interactions"`
	RecommendationFeedback []RecommendationFeedback `json:"recommendation_feedback,omitempty"`
	CreatedAt              time.Time                `json:"created_at"`
}

// IncompleteEnrollments returns enrollments not yet completed, including
// ones never started, most recently accessed first.
func (u *User) IncompleteEnrollments() []Enrollment {
	incomplete := make([]Enrollment, 0, len(u.CourseInteractions.Enrolled))
	for _, e := range u.CourseInteractions.Enrolled {
		if !e.Completed {
			incomplete = append(incomplete, e)
		}
	}
	sortEnrollmentsByRecency(incomplete)
	return incomplete
}

func sortEnrollmentsByRecency(enrollments []Enrollment) {
	sort.SliceStable(enrollments, func(i, j int) bool {
		return enrollments[i].LastAccessed.After(enrollments[j].LastAccessed)
	})
}
