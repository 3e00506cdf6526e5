package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/courseflix/courseflix-api/internal/database"
	logpkg "github.com/courseflix/courseflix-api/internal/logger"
	"github.com/courseflix/courseflix-api/internal/recommendation"
	"github.com/courseflix/courseflix-api/internal/validation"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	repo   *database.CourseRepository
	logger *zap.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(repo *database.CourseRepository, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterRoutes registers course routes on the given router
// The router should already have the /courses prefix (e.g., from apiRouter.PathPrefix("/courses"))
func (h *CourseHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.SearchCourses).Methods("GET")
	r.HandleFunc("/{id}", h.GetCourse).Methods("GET")
	r.HandleFunc("/{id}/similar", h.GetSimilarCourses).Methods("GET")
}

// SearchCourses handles GET /api/v1/courses
func (h *CourseHandler) SearchCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 20
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			respondJSONError(w, http.StatusBadRequest, "validation_error", "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}
	if difficulty := q.Get("difficulty"); difficulty != "" {
		if err := validation.ValidateDifficulty(difficulty); err != nil {
			respondJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}
	if format := q.Get("format"); format != "" {
		if err := validation.ValidateCourseFormat(format); err != nil {
			respondJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	courses, err := h.repo.FindCourses(r.Context(), recommendation.CourseQuery{
		Topics:     splitCSV(q.Get("topics")),
		Skills:     splitCSV(q.Get("skills")),
		Difficulty: q.Get("difficulty"),
		Format:     q.Get("format"),
		Limit:      limit,
	})
	if err != nil {
		h.logger.Error("course_search_failed",
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to search courses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"courses": courses,
		"count":   len(courses),
	})
}

// GetCourse handles GET /api/v1/courses/{id}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := mux.Vars(r)["id"]

	course, err := h.repo.GetCourseByID(r.Context(), courseID)
	if err != nil {
		h.logger.Error("course_lookup_failed",
			zap.String("course_id", courseID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load course")
		return
	}
	if course == nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "Course not found")
		return
	}

	respondJSON(w, http.StatusOK, course)
}

// GetSimilarCourses handles GET /api/v1/courses/{id}/similar
func (h *CourseHandler) GetSimilarCourses(w http.ResponseWriter, r *http.Request) {
	courseID := mux.Vars(r)["id"]

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 50 {
			respondJSONError(w, http.StatusBadRequest, "validation_error", "limit must be an integer between 1 and 50")
			return
		}
		limit = parsed
	}

	course, err := h.repo.GetCourseByID(r.Context(), courseID)
	if err != nil {
		h.logger.Error("course_lookup_failed",
			zap.String("course_id", courseID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load course")
		return
	}
	if course == nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "Course not found")
		return
	}

	similar, err := h.repo.FindSimilarCourses(r.Context(), courseID, course.Topics, limit)
	if err != nil {
		h.logger.Error("similar_courses_failed",
			zap.String("course_id", courseID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to find similar courses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"course_id": courseID,
		"courses":   similar,
		"count":     len(similar),
	})
}
