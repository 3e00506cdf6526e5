package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/courseflix/courseflix-api/internal/logger"
	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/recommendation"
	"github.com/courseflix/courseflix-api/internal/validation"
)

// RecommendationHandler handles recommendation requests
type RecommendationHandler struct {
	service *recommendation.Service
	logger  *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(service *recommendation.Service, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers recommendation routes on the given router
// The router should already have the /recommendations prefix (e.g., from apiRouter.PathPrefix("/recommendations"))
func (h *RecommendationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetAll).Methods("GET")
	r.HandleFunc("/personalized", h.GetPersonalized).Methods("GET")
	r.HandleFunc("/trending", h.GetTrending).Methods("GET")
	r.HandleFunc("/because-you-watched/{courseId}", h.GetBecauseYouWatched).Methods("GET")
	r.HandleFunc("/continue-learning", h.GetContinueLearning).Methods("GET")
	r.HandleFunc("/similar-users", h.GetSimilarUsers).Methods("GET")
	r.HandleFunc("/interaction", h.TrackInteraction).Methods("POST")
	r.HandleFunc("/feedback", h.ProvideFeedback).Methods("POST")
}

// GetAll handles GET /api/v1/recommendations
func (h *RecommendationHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}

	result := h.service.All(r.Context(), recommendation.AllParams{
		UserID:   q.Get("user_id"),
		Subjects: splitCSV(q.Get("subjects")),
		Skills:   splitCSV(q.Get("skills")),
		Level:    q.Get("level"),
		Format:   q.Get("format"),
		Limit:    limit,
	})

	respondJSON(w, http.StatusOK, result)
}

// GetPersonalized handles GET /api/v1/recommendations/personalized
func (h *RecommendationHandler) GetPersonalized(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}
	if level := q.Get("level"); level != "" {
		if err := validation.ValidateDifficulty(level); err != nil {
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

	section := h.service.Personalized(r.Context(), recommendation.PersonalizedParams{
		UserID:           q.Get("user_id"),
		Subjects:         splitCSV(q.Get("subjects")),
		Skills:           splitCSV(q.Get("skills")),
		Level:            q.Get("level"),
		Format:           q.Get("format"),
		Goal:             q.Get("goal"),
		TimeCommitment:   q.Get("time_commitment"),
		ExcludeSubjects:  splitCSV(q.Get("exclude_subjects")),
		ExcludeProviders: splitCSV(q.Get("exclude_providers")),
		Limit:            limit,
	})

	respondJSON(w, http.StatusOK, section)
}

// GetTrending handles GET /api/v1/recommendations/trending
func (h *RecommendationHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}

	timeframe := q.Get("timeframe")
	if timeframe != "" {
		if err := validation.ValidateTimeframe(timeframe); err != nil {
			respondJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	section := h.service.Trending(r.Context(), recommendation.TrendingParams{
		UserID:    q.Get("user_id"),
		Timeframe: recommendation.Timeframe(timeframe),
		Category:  q.Get("category"),
		Limit:     limit,
	})

	respondJSON(w, http.StatusOK, section)
}

// GetBecauseYouWatched handles GET /api/v1/recommendations/because-you-watched/{courseId}
func (h *RecommendationHandler) GetBecauseYouWatched(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}

	section, err := h.service.BecauseYouWatched(r.Context(), recommendation.BecauseYouWatchedParams{
		UserID:   q.Get("user_id"),
		CourseID: mux.Vars(r)["courseId"],
		Limit:    limit,
	})
	if err != nil {
		h.respondGeneratorError(w, err, "because_you_watched_failed")
		return
	}

	respondJSON(w, http.StatusOK, section)
}

// GetContinueLearning handles GET /api/v1/recommendations/continue-learning
func (h *RecommendationHandler) GetContinueLearning(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}

	section, err := h.service.ContinueLearning(r.Context(), recommendation.ContinueLearningParams{
		UserID: q.Get("user_id"),
		Limit:  limit,
	})
	if err != nil {
		h.respondGeneratorError(w, err, "continue_learning_failed")
		return
	}

	respondJSON(w, http.StatusOK, section)
}

// GetSimilarUsers handles GET /api/v1/recommendations/similar-users
func (h *RecommendationHandler) GetSimilarUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}

	section, err := h.service.SimilarUsers(r.Context(), recommendation.SimilarUsersParams{
		UserID: q.Get("user_id"),
		Limit:  limit,
	})
	if err != nil {
		h.respondGeneratorError(w, err, "similar_users_failed")
		return
	}

	respondJSON(w, http.StatusOK, section)
}

type interactionRequest struct {
	UserID             string `json:"user_id" validate:"required"`
	CourseID           string `json:"course_id" validate:"required"`
	RecommendationType string `json:"recommendation_type" validate:"required"`
	InteractionType    string `json:"interaction_type" validate:"required"`
	ReferenceID        string `json:"reference_id,omitempty"`
}

// TrackInteraction handles POST /api/v1/recommendations/interaction
func (h *RecommendationHandler) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_error", "user_id, course_id, recommendation_type, and interaction_type are required")
		return
	}

	err := h.service.TrackInteraction(r.Context(), recommendation.InteractionParams{
		UserID:             req.UserID,
		CourseID:           req.CourseID,
		RecommendationType: req.RecommendationType,
		InteractionType:    req.InteractionType,
		ReferenceID:        req.ReferenceID,
	})
	if err != nil {
		h.logger.Error("interaction_tracking_failed",
			zap.String("user_id", logpkg.SanitizeUserID(req.UserID)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to track interaction")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type feedbackRequest struct {
	UserID             string `json:"user_id" validate:"required"`
	CourseID           string `json:"course_id,omitempty"`
	RecommendationType string `json:"recommendation_type" validate:"required"`
	FeedbackType       string `json:"feedback_type" validate:"required,feedback_rating"`
	Comments           string `json:"comments,omitempty"`
}

// ProvideFeedback handles POST /api/v1/recommendations/feedback
func (h *RecommendationHandler) ProvideFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_error", "user_id, recommendation_type, and a valid feedback_type are required")
		return
	}

	err := h.service.ProvideFeedback(r.Context(), recommendation.FeedbackParams{
		UserID:             req.UserID,
		CourseID:           req.CourseID,
		RecommendationType: req.RecommendationType,
		FeedbackType:       models.FeedbackRating(req.FeedbackType),
		Comments:           req.Comments,
	})
	if err != nil {
		h.logger.Error("feedback_recording_failed",
			zap.String("user_id", logpkg.SanitizeUserID(req.UserID)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to record feedback")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *RecommendationHandler) respondGeneratorError(w http.ResponseWriter, err error, event string) {
	if errors.Is(err, recommendation.ErrUserIDRequired) || errors.Is(err, recommendation.ErrCourseIDRequired) {
		respondJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	h.logger.Error(event, zap.String("error", logpkg.SanitizeError(err)))
	respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to generate recommendations")
}

// parseLimit parses an optional limit query parameter, writing a validation
// error and returning false when it is invalid.
func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 50 {
		respondJSONError(w, http.StatusBadRequest, "validation_error", "limit must be an integer between 1 and 50")
		return 0, false
	}
	return limit, true
}

// splitCSV splits a comma-separated query value into trimmed parts
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
