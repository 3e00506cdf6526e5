package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/courseflix/courseflix-api/internal/models"
)

// UserRepository handles learner database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, avatar, learning_preferences, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	prefsJSON, err := json.Marshal(user.LearningPreferences)
	if err != nil {
		return fmt.Errorf("failed to marshal learning preferences: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Avatar,
		prefsJSON,
		time.Now(),
	).Scan(&user.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user with enrollments and feedback. Returns
// (nil, nil) when the user does not exist.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	var prefsJSON []byte

	query := `
		SELECT id, name, email, avatar, learning_preferences, created_at
		FROM users
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Avatar,
		&prefsJSON,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := json.Unmarshal(prefsJSON, &user.LearningPreferences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal learning preferences: %w", err)
	}

	if user.CourseInteractions.Enrolled, err = r.enrollmentsFor(ctx, userID); err != nil {
		return nil, err
	}
	if user.RecommendationFeedback, err = r.feedbackFor(ctx, userID); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) enrollmentsFor(ctx context.Context, userID string) ([]models.Enrollment, error) {
	query := `
		SELECT course_id, enrolled_date, progress, last_accessed, completed, completed_date
		FROM enrollments
		WHERE user_id = $1
		ORDER BY last_accessed DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		var completedDate sql.NullTime
		if err := rows.Scan(&e.CourseID, &e.EnrolledDate, &e.Progress, &e.LastAccessed, &e.Completed, &completedDate); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		if completedDate.Valid {
			e.CompletedDate = &completedDate.Time
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *UserRepository) feedbackFor(ctx context.Context, userID string) ([]models.RecommendationFeedback, error) {
	query := `
		SELECT recommendation_id, course_id, rating, context, created_at
		FROM recommendation_feedback
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation feedback: %w", err)
	}
	defer rows.Close()

	var feedback []models.RecommendationFeedback
	for rows.Next() {
		var f models.RecommendationFeedback
		var recommendationID, context sql.NullString
		if err := rows.Scan(&recommendationID, &f.CourseID, &f.Rating, &context, &f.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation feedback: %w", err)
		}
		f.RecommendationID = recommendationID.String
		f.Context = context.String
		feedback = append(feedback, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendation feedback: %w", err)
	}
	return feedback, nil
}

// FindSimilarUsers finds other users whose declared interests overlap the
// given terms. Enrollments are not loaded; callers only need identities.
func (r *UserRepository) FindSimilarUsers(ctx context.Context, userID string, interests []string, skills []string, limit int) ([]models.User, error) {
	terms := append(append([]string{}, interests...), skills...)
	if len(terms) == 0 {
		return []models.User{}, nil
	}

	query := `
		SELECT id, name, email, avatar, learning_preferences, created_at
		FROM users
		WHERE id <> $1 AND learning_preferences->'interests' ?| $2
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(terms), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		var prefsJSON []byte
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &prefsJSON, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if err := json.Unmarshal(prefsJSON, &user.LearningPreferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal learning preferences: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// FrequentCoursesAmong returns the courses most enrolled by the given users,
// excluding courses the excluded user is already enrolled in.
func (r *UserRepository) FrequentCoursesAmong(ctx context.Context, userIDs []string, excludeUserID string, limit int) ([]models.Course, error) {
	if len(userIDs) == 0 {
		return []models.Course{}, nil
	}

	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		JOIN (
			SELECT course_id, count(*) AS enrollment_count
			FROM enrollments
			WHERE user_id = ANY($1)
			GROUP BY course_id
		) pop ON pop.course_id = c.id
		WHERE c.id NOT IN (
			SELECT course_id FROM enrollments WHERE user_id = $2
		)
		ORDER BY pop.enrollment_count DESC, (c.ratings->>'average')::float DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs), excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frequent courses: %w", err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

// AddCourseInteraction records one catalog interaction for a user
func (r *UserRepository) AddCourseInteraction(ctx context.Context, userID, courseID, interactionType string) error {
	query := `
		INSERT INTO course_interactions (user_id, course_id, interaction_type, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, userID, courseID, interactionType, time.Now()); err != nil {
		return fmt.Errorf("failed to record course interaction: %w", err)
	}
	return nil
}

// AddRecommendationFeedback records explicit recommendation feedback
func (r *UserRepository) AddRecommendationFeedback(ctx context.Context, userID string, feedback models.RecommendationFeedback) error {
	query := `
		INSERT INTO recommendation_feedback (user_id, recommendation_id, course_id, rating, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := feedback.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := r.db.ExecContext(ctx, query,
		userID,
		feedback.RecommendationID,
		feedback.CourseID,
		feedback.Rating,
		feedback.Context,
		createdAt,
	); err != nil {
		return fmt.Errorf("failed to record recommendation feedback: %w", err)
	}
	return nil
}

// UpsertEnrollment creates or updates a user's enrollment in a course
func (r *UserRepository) UpsertEnrollment(ctx context.Context, userID string, enrollment models.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, enrolled_date, progress, last_accessed, completed, completed_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, course_id) DO UPDATE
		SET progress = EXCLUDED.progress,
			last_accessed = EXCLUDED.last_accessed,
			completed = EXCLUDED.completed,
			completed_date = EXCLUDED.completed_date
	`

	var completedDate sql.NullTime
	if enrollment.CompletedDate != nil {
		completedDate = sql.NullTime{Time: *enrollment.CompletedDate, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		userID,
		enrollment.CourseID,
		enrollment.EnrolledDate,
		enrollment.Progress,
		enrollment.LastAccessed,
		enrollment.Completed,
		completedDate,
	); err != nil {
		return fmt.Errorf("failed to upsert enrollment: %w", err)
	}
	return nil
}
