package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/courseflix/courseflix-api/internal/conversation"
	logpkg "github.com/courseflix/courseflix-api/internal/logger"
	"github.com/courseflix/courseflix-api/internal/recommendation"
	"github.com/courseflix/courseflix-api/internal/validation"
)

// ConversationHandler handles conversational assistant requests
type ConversationHandler struct {
	service    *conversation.Service
	integrator *recommendation.Integrator
	logger     *zap.Logger
}

// NewConversationHandler creates a new conversation handler. The integrator
// may be nil; feedback messages then flow through the state machine only.
func NewConversationHandler(service *conversation.Service, integrator *recommendation.Integrator, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		service:    service,
		integrator: integrator,
		logger:     logger,
	}
}

// RegisterRoutes registers conversation routes on the given router
// The router should already have the /conversations prefix (e.g., from apiRouter.PathPrefix("/conversations"))
func (h *ConversationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/start", h.StartConversation).Methods("POST")
	r.HandleFunc("/{id}/messages", h.SendMessage).Methods("POST")
	r.HandleFunc("/{id}/end", h.EndConversation).Methods("POST")
	r.HandleFunc("/{id}/summary", h.GetSummary).Methods("GET")
}

// RegisterUserRoutes registers per-user conversation routes on the given router
// The router should already have the /users prefix
func (h *ConversationHandler) RegisterUserRoutes(r *mux.Router) {
	r.HandleFunc("/{userId}/conversations", h.GetUserHistory).Methods("GET")
}

type startConversationRequest struct {
	UserID    string `json:"user_id"`
	Platform  string `json:"platform,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// StartConversation handles POST /api/v1/conversations/start
func (h *ConversationHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := h.service.StartConversation(r.Context(), req.UserID, conversation.SessionMetadata{
		Platform:  req.Platform,
		UserAgent: r.UserAgent(),
		SessionID: req.SessionID,
		Referrer:  req.Referrer,
	})
	if err != nil {
		h.logger.Error("conversation_start_failed",
			zap.String("user_id", logpkg.SanitizeUserID(req.UserID)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to start conversation")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

type sendMessageRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message" validate:"required,max=2000"`
}

// SendMessage handles POST /api/v1/conversations/{id}/messages
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	req.Message = validation.SanitizeText(req.Message)
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_error", "message is required and must be at most 2000 characters")
		return
	}

	// Feedback on shown recommendations short-circuits the turn: record the
	// reaction and answer with the feedback response instead.
	if h.integrator != nil {
		if result, handled := h.handleFeedback(w, r, conversationID, req); handled {
			respondJSON(w, http.StatusOK, result)
			return
		}
	}

	result, err := h.service.SendMessage(r.Context(), conversationID, req.UserID, req.Message)
	if err != nil {
		h.logger.Error("conversation_message_failed",
			zap.String("conversation_id", conversationID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleFeedback routes a message through the recommendation integrator when
// the conversation has shown recommendations and is collecting reactions.
func (h *ConversationHandler) handleFeedback(_ http.ResponseWriter, r *http.Request, conversationID string, req sendMessageRequest) (*conversation.MessageResult, bool) {
	c, err := h.service.GetContext(r.Context(), conversationID)
	if err != nil || c == nil {
		return nil, false
	}
	if c.Conversation.State != conversation.StateRecommendation || len(c.Conversation.Recommendations) == 0 {
		return nil, false
	}

	fb := h.integrator.ProcessFeedback(r.Context(), req.UserID, conversationID, req.Message, c.Conversation.Recommendations)
	if !fb.Processed {
		return nil, false
	}

	// Advance the state machine so the turn is still recorded.
	result, err := h.service.SendMessage(r.Context(), conversationID, req.UserID, req.Message)
	if err != nil {
		return nil, false
	}
	result.Message = fb.Message
	return result, true
}

type endConversationRequest struct {
	UserID string `json:"user_id"`
}

// EndConversation handles POST /api/v1/conversations/{id}/end
func (h *ConversationHandler) EndConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	var req endConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := h.service.EndConversation(r.Context(), conversationID, req.UserID)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			respondJSONError(w, http.StatusNotFound, "not_found", "Conversation not found")
			return
		}
		h.logger.Error("conversation_end_failed",
			zap.String("conversation_id", conversationID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to end conversation")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetSummary handles GET /api/v1/conversations/{id}/summary
func (h *ConversationHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	summary, err := h.service.GetConversationSummary(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			respondJSONError(w, http.StatusNotFound, "not_found", "Conversation not found")
			return
		}
		h.logger.Error("conversation_summary_failed",
			zap.String("conversation_id", conversationID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load conversation summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetUserHistory handles GET /api/v1/users/{userId}/conversations
func (h *ConversationHandler) GetUserHistory(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			respondJSONError(w, http.StatusBadRequest, "validation_error", "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	summaries, err := h.service.GetUserConversationHistory(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("conversation_history_failed",
			zap.String("user_id", logpkg.SanitizeUserID(userID)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load conversation history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":       userID,
		"conversations": summaries,
	})
}
