package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/recommendation"
)

// AnalyticsRepository persists analytics events
type AnalyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Insert stores one analytics event
func (r *AnalyticsRepository) Insert(ctx context.Context, event *models.AnalyticsEvent) error {
	query := `
		INSERT INTO analytics_events (id, user_id, course_id, event_type, metadata, session_id, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query,
		event.ID,
		nullable(event.UserID),
		nullable(event.CourseID),
		event.EventType,
		metadataJSON,
		nullable(event.SessionID),
		nullable(event.IPAddress),
		event.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	return nil
}

// LogRecommendations stores one impression event per served course
func (r *AnalyticsRepository) LogRecommendations(ctx context.Context, userID string, recommendationType recommendation.Type, courseIDs []string, referenceID string) error {
	for i, courseID := range courseIDs {
		event := &models.AnalyticsEvent{
			UserID:    userID,
			CourseID:  courseID,
			EventType: models.EventRecommendationImpression,
			Metadata: models.AnalyticsMetadata{
				RecommendationType:     string(recommendationType),
				RecommendationPosition: i + 1,
			},
		}
		if referenceID != "" {
			event.Metadata.ReferenceID = referenceID
		}
		if err := r.Insert(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// CountEventsSince returns event counts per type since the cutoff
func (r *AnalyticsRepository) CountEventsSince(ctx context.Context, since time.Time) (map[models.AnalyticsEventType]int, error) {
	query := `
		SELECT event_type, count(*)
		FROM analytics_events
		WHERE created_at >= $1
		GROUP BY event_type
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count analytics events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AnalyticsEventType]int)
	for rows.Next() {
		var eventType models.AnalyticsEventType
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}
	return counts, nil
}

// nullable maps empty strings to SQL NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
