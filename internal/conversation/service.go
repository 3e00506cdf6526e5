package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrConversationNotFound is returned when an operation references a
// conversation the store does not know.
var ErrConversationNotFound = errors.New("conversation not found")

const farewellResponse = "I hope you found these recommendations helpful! Feel free to start a new conversation anytime you want to discover more courses. Happy learning!"

// Recommender produces course recommendations for a conversation. The
// recommendation engine satisfies this through its conversation integrator.
type Recommender interface {
	RecommendationsFor(ctx context.Context, params RecommendationParams) ([]ShownRecommendation, error)
}

// AnalyticsSink records conversation lifecycle events. Implementations are
// fire-and-forget; the service never fails a request on sink errors.
type AnalyticsSink interface {
	LogConversationStart(ctx context.Context, userID, conversationID string)
	LogConversationMessage(ctx context.Context, userID, conversationID, message, response string, state State)
	LogConversationEnd(ctx context.Context, userID, conversationID string)
}

// StartResult is the outcome of starting a conversation.
type StartResult struct {
	ConversationID string   `json:"conversation_id"`
	Message        string   `json:"message"`
	Context        *Context `json:"context,omitempty"`
}

// MessageResult is the outcome of sending a message.
type MessageResult struct {
	ConversationID  string                `json:"conversation_id"`
	Message         string                `json:"message"`
	Recommendations []ShownRecommendation `json:"recommendations"`
	State           State                 `json:"state"`
	Context         *Context              `json:"context,omitempty"`
}

// EndResult is the outcome of ending a conversation.
type EndResult struct {
	ConversationID string         `json:"conversation_id"`
	Message        string         `json:"message"`
	Summary        ContextSummary `json:"summary"`
}

// Service is the main entry point for the conversational assistant. It wires
// the context manager to persistence, recommendations, and analytics.
type Service struct {
	contexts    *ContextManager
	store       ContextStore
	recommender Recommender
	analytics   AnalyticsSink
	logger      *zap.Logger
}

// NewService creates a conversation service. The store is required; the
// recommender and analytics sink may be nil.
func NewService(contexts *ContextManager, store ContextStore, recommender Recommender, analytics AnalyticsSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		contexts:    contexts,
		store:       store,
		recommender: recommender,
		analytics:   analytics,
		logger:      logger,
	}
}

// StartConversation creates a new conversation for the user and returns the
// welcome message.
func (s *Service) StartConversation(ctx context.Context, userID string, metadata SessionMetadata) (*StartResult, error) {
	conversationID := newConversationID()
	c := s.contexts.InitializeContext(userID, conversationID)

	if metadata.Platform != "" {
		c.Metadata.Platform = metadata.Platform
	}
	c.Metadata.UserAgent = metadata.UserAgent
	c.Metadata.SessionID = metadata.SessionID
	c.Metadata.Referrer = metadata.Referrer

	c.History = s.contexts.HistoryTracker().AddMessage(c.History, RoleAssistant, greetingResponse, MessageMetadata{
		ConversationState: c.Conversation.State,
	})

	if err := s.contexts.SaveContext(ctx, s.store, c); err != nil {
		return nil, err
	}

	if s.analytics != nil {
		s.analytics.LogConversationStart(ctx, userID, conversationID)
	}

	s.logger.Info("conversation_started",
		zap.String("user_id", userID),
		zap.String("conversation_id", conversationID),
	)

	return &StartResult{
		ConversationID: conversationID,
		Message:        greetingResponse,
		Context:        c,
	}, nil
}

// SendMessage processes one user message. An unknown conversation ID starts a
// fresh context under that ID rather than failing.
func (s *Service) SendMessage(ctx context.Context, conversationID, userID, message string) (*MessageResult, error) {
	c, err := s.contexts.LoadContext(ctx, s.store, conversationID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = s.contexts.InitializeContext(userID, conversationID)
	}

	result := s.contexts.ProcessMessage(ctx, c, message)

	recommendations := []ShownRecommendation{}
	if result.State == StateRecommendation && s.recommender != nil {
		params := s.contexts.GenerateRecommendationParams(result.Context)
		recs, err := s.recommender.RecommendationsFor(ctx, params)
		if err != nil {
			s.logger.Warn("conversation_recommendations_failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		} else {
			recommendations = recs
			result.Context.Conversation.Recommendations = append(result.Context.Conversation.Recommendations, recs...)
		}
	}

	if err := s.contexts.SaveContext(ctx, s.store, result.Context); err != nil {
		return nil, err
	}

	if s.analytics != nil {
		s.analytics.LogConversationMessage(ctx, userID, conversationID, message, result.Response, result.State)
	}

	return &MessageResult{
		ConversationID:  conversationID,
		Message:         result.Response,
		Recommendations: recommendations,
		State:           result.State,
		Context:         result.Context,
	}, nil
}

// EndConversation moves the conversation to completion and returns a farewell
// plus the final summary.
func (s *Service) EndConversation(ctx context.Context, conversationID, userID string) (*EndResult, error) {
	c, err := s.contexts.LoadContext(ctx, s.store, conversationID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConversationNotFound
	}

	next := c.Clone()
	next.Conversation.State = StateCompletion
	next.History = s.contexts.HistoryTracker().AddMessage(next.History, RoleAssistant, farewellResponse, MessageMetadata{
		ConversationState: next.Conversation.State,
	})

	if err := s.contexts.SaveContext(ctx, s.store, next); err != nil {
		return nil, err
	}

	if s.analytics != nil {
		s.analytics.LogConversationEnd(ctx, userID, conversationID)
	}

	s.logger.Info("conversation_ended",
		zap.String("user_id", userID),
		zap.String("conversation_id", conversationID),
		zap.Int("turns", next.Conversation.Turns),
	)

	return &EndResult{
		ConversationID: conversationID,
		Message:        farewellResponse,
		Summary:        s.contexts.Summarize(next),
	}, nil
}

// GetContext returns the stored context for a conversation.
func (s *Service) GetContext(ctx context.Context, conversationID string) (*Context, error) {
	c, err := s.contexts.LoadContext(ctx, s.store, conversationID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConversationNotFound
	}
	return c, nil
}

// GetConversationSummary returns the summary of a stored conversation.
func (s *Service) GetConversationSummary(ctx context.Context, conversationID string) (*ContextSummary, error) {
	c, err := s.contexts.LoadContext(ctx, s.store, conversationID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConversationNotFound
	}
	summary := s.contexts.Summarize(c)
	return &summary, nil
}

// ConversationLister extends storage with per-user listing. The Postgres
// store implements this alongside ContextStore.
type ConversationLister interface {
	ListUserContexts(ctx context.Context, userID string, limit int) ([]*Context, error)
}

// GetUserConversationHistory returns summaries of the user's most recent
// conversations.
func (s *Service) GetUserConversationHistory(ctx context.Context, userID string, limit int) ([]ContextSummary, error) {
	lister, ok := s.store.(ConversationLister)
	if !ok {
		return nil, fmt.Errorf("conversation store does not support listing")
	}
	if limit <= 0 {
		limit = 10
	}

	contexts, err := lister.ListUserContexts(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user conversations: %w", err)
	}

	summaries := make([]ContextSummary, 0, len(contexts))
	for _, c := range contexts {
		summaries = append(summaries, s.contexts.Summarize(c))
	}
	return summaries, nil
}

func newConversationID() string {
	return "conv_" + uuid.NewString()
}
