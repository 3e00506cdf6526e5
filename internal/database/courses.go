package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/recommendation"
)

// CourseRepository handles course catalog database operations
type CourseRepository struct {
	db *DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `
	id, title, slug, description, short_description, thumbnail,
	provider, instructors, duration, difficulty, format,
	topics, skills, prerequisites, pricing, url,
	ratings, popularity, created_at, updated_at
`

// Create inserts a course into the catalog
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (
			id, title, slug, description, short_description, thumbnail,
			provider, instructors, duration, difficulty, format,
			topics, skills, prerequisites, pricing, url,
			ratings, popularity, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at
	`

	if course.Slug == "" {
		course.Slug = models.Slugify(course.Title)
	}

	providerJSON, err := json.Marshal(course.Provider)
	if err != nil {
		return fmt.Errorf("failed to marshal provider: %w", err)
	}
	instructorsJSON, err := json.Marshal(course.Instructors)
	if err != nil {
		return fmt.Errorf("failed to marshal instructors: %w", err)
	}
	durationJSON, err := json.Marshal(course.Duration)
	if err != nil {
		return fmt.Errorf("failed to marshal duration: %w", err)
	}
	pricingJSON, err := json.Marshal(course.Pricing)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing: %w", err)
	}
	ratingsJSON, err := json.Marshal(course.Ratings)
	if err != nil {
		return fmt.Errorf("failed to marshal ratings: %w", err)
	}
	popularityJSON, err := json.Marshal(course.Popularity)
	if err != nil {
		return fmt.Errorf("failed to marshal popularity: %w", err)
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		course.ID,
		course.Title,
		course.Slug,
		course.Description,
		course.ShortDescription,
		course.Thumbnail,
		providerJSON,
		instructorsJSON,
		durationJSON,
		course.Difficulty,
		course.Format,
		pq.Array(course.Topics),
		pq.Array(course.Skills),
		pq.Array(course.Prerequisites),
		pricingJSON,
		course.URL,
		ratingsJSON,
		popularityJSON,
		now,
		now,
	).Scan(&course.CreatedAt, &course.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

// GetCourseByID retrieves a course by ID. Returns (nil, nil) when absent.
func (r *CourseRepository) GetCourseByID(ctx context.Context, courseID string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	course, err := scanCourse(r.db.QueryRowContext(ctx, query, courseID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// GetCoursesByIDs retrieves courses matching the given IDs. Missing IDs are
// silently skipped.
func (r *CourseRepository) GetCoursesByIDs(ctx context.Context, courseIDs []string) ([]models.Course, error) {
	if len(courseIDs) == 0 {
		return []models.Course{}, nil
	}

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

// FindCourses searches the catalog with content-based filters
func (r *CourseRepository) FindCourses(ctx context.Context, q recommendation.CourseQuery) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE 1=1`
	args := []any{}
	argIndex := 1

	if len(q.Topics) > 0 || len(q.Skills) > 0 {
		terms := append(append([]string{}, q.Topics...), q.Skills...)
		query += fmt.Sprintf(" AND (topics && $%d OR skills && $%d)", argIndex, argIndex)
		args = append(args, pq.Array(terms))
		argIndex++
	}

	if q.Difficulty != "" {
		query += fmt.Sprintf(" AND difficulty = $%d", argIndex)
		args = append(args, q.Difficulty)
		argIndex++
	}

	if q.Format != "" {
		query += fmt.Sprintf(" AND format = $%d", argIndex)
		args = append(args, q.Format)
		argIndex++
	}

	if len(q.ExcludeTopics) > 0 {
		query += fmt.Sprintf(" AND NOT (topics && $%d)", argIndex)
		args = append(args, pq.Array(q.ExcludeTopics))
		argIndex++
	}

	if len(q.ExcludeProviders) > 0 {
		query += fmt.Sprintf(" AND provider->>'name' <> ALL($%d)", argIndex)
		args = append(args, pq.Array(q.ExcludeProviders))
		argIndex++
	}

	if q.MaxHoursPerWeek > 0 {
		query += fmt.Sprintf(" AND (duration->>'hours')::float / GREATEST((duration->>'weeks')::float, 1) <= $%d", argIndex)
		args = append(args, q.MaxHoursPerWeek)
		argIndex++
	}

	query += " ORDER BY (ratings->>'average')::float DESC, (popularity->>'enrollments')::int DESC"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

// FindSimilarCourses finds courses sharing topics with a reference course,
// excluding the reference itself, ordered by topic overlap then rating.
func (r *CourseRepository) FindSimilarCourses(ctx context.Context, courseID string, topics []string, limit int) ([]models.Course, error) {
	if len(topics) == 0 {
		return []models.Course{}, nil
	}

	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE id <> $1 AND topics && $2
		ORDER BY
			(SELECT count(*) FROM unnest(topics) t WHERE t = ANY($2)) DESC,
			(ratings->>'average')::float DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, courseID, pq.Array(topics), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar courses: %w", err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

// FindTrendingCourses ranks recently updated courses by engagement
func (r *CourseRepository) FindTrendingCourses(ctx context.Context, since time.Time, category string, limit int) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE updated_at >= $1`
	args := []any{since}
	argIndex := 2

	if category != "" {
		query += fmt.Sprintf(" AND $%d = ANY(topics)", argIndex)
		args = append(args, category)
		argIndex++
	}

	query += ` ORDER BY
		(popularity->>'views')::int DESC,
		(popularity->>'enrollments')::int DESC,
		(ratings->>'average')::float DESC`
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending courses: %w", err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	course := &models.Course{}
	var providerJSON, instructorsJSON, durationJSON, pricingJSON, ratingsJSON, popularityJSON []byte

	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Slug,
		&course.Description,
		&course.ShortDescription,
		&course.Thumbnail,
		&providerJSON,
		&instructorsJSON,
		&durationJSON,
		&course.Difficulty,
		&course.Format,
		pq.Array(&course.Topics),
		pq.Array(&course.Skills),
		pq.Array(&course.Prerequisites),
		&pricingJSON,
		&course.URL,
		&ratingsJSON,
		&popularityJSON,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(providerJSON, &course.Provider); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provider: %w", err)
	}
	if len(instructorsJSON) > 0 {
		if err := json.Unmarshal(instructorsJSON, &course.Instructors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal instructors: %w", err)
		}
	}
	if err := json.Unmarshal(durationJSON, &course.Duration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal duration: %w", err)
	}
	if err := json.Unmarshal(pricingJSON, &course.Pricing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing: %w", err)
	}
	if err := json.Unmarshal(ratingsJSON, &course.Ratings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ratings: %w", err)
	}
	if err := json.Unmarshal(popularityJSON, &course.Popularity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal popularity: %w", err)
	}

	return course, nil
}

func collectCourses(rows *sql.Rows) ([]models.Course, error) {
	courses := []models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}
	return courses, nil
}
