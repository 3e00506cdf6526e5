package models

import "time"

// AnalyticsEventType classifies an analytics event
type AnalyticsEventType string

const (
	EventPageView                   AnalyticsEventType = "page_view"
	EventCourseView                 AnalyticsEventType = "course_view"
	EventSearch                     AnalyticsEventType = "search"
	EventRecommendationImpression   AnalyticsEventType = "recommendation_impression"
	EventRecommendationClick        AnalyticsEventType = "recommendation_click"
	EventEnrollment                 AnalyticsEventType = "enrollment"
	EventCompletion                 AnalyticsEventType = "completion"
	EventRating                     AnalyticsEventType = "rating"
	EventConversationStart          AnalyticsEventType = "conversation_start"
	EventConversationMessage        AnalyticsEventType = "conversation_message"
	EventConversationEnd            AnalyticsEventType = "conversation_end"
	EventConversationRecommendation AnalyticsEventType = "conversation_recommendation"
)

// AnalyticsMetadata carries event-specific details
type AnalyticsMetadata struct {
	Query                  string         `json:"query,omitempty"`
	Results                int            `json:"results,omitempty"`
	Filters                map[string]any `json:"filters,omitempty"`
	RecommendationType     string         `json:"recommendation_type,omitempty"`
	RecommendationPosition int            `json:"recommendation_position,omitempty"`
	RecommendationScore    float64        `json:"recommendation_score,omitempty"`
	ReferenceID            string         `json:"reference_id,omitempty"`
	ConversationID         string         `json:"conversation_id,omitempty"`
	ConversationState      string         `json:"conversation_state,omitempty"`
	MessageCount           int            `json:"message_count,omitempty"`
	Duration               float64        `json:"duration,omitempty"`
	Referrer               string         `json:"referrer,omitempty"`
	Device                 string         `json:"device,omitempty"`
	Browser                string         `json:"browser,omitempty"`
}

// AnalyticsEvent is one recorded analytics event
type AnalyticsEvent struct {
	ID        string             `json:"id,omitempty"`
	UserID    string             `json:"user_id,omitempty"`
	CourseID  string             `json:"course_id,omitempty"`
	EventType AnalyticsEventType `json:"event_type"`
	Metadata  AnalyticsMetadata  `json:"metadata"`
	Timestamp time.Time          `json:"timestamp"`
	SessionID string             `json:"session_id,omitempty"`
	IPAddress string             `json:"ip_address,omitempty"`
}
