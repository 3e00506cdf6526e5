package conversation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// fallbackResponse is returned when per-turn processing fails; the context is
// handed back unmodified and the state does not advance.
const fallbackResponse = "I'm sorry, I encountered an error processing your message. Could you try rephrasing or asking something else?"

// IntentClassifier classifies the purpose of free text. Failures are treated
// as "no intent change" by the context manager.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (Intent, error)
}

// EntityExtractor extracts entity values from free text. The returned set
// always carries all six entity types, each possibly empty.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) (EntitySet, error)
}

// SentimentAnalyzer derives a coarse polarity signal from free text.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error)
}

// ContextStore persists conversation contexts. Load returns (nil, nil) when
// the conversation is unknown.
type ContextStore interface {
	SaveContext(ctx context.Context, conversationID string, c *Context) error
	LoadContext(ctx context.Context, conversationID string) (*Context, error)
}

// SessionMetadata is free-form session information attached to a context.
type SessionMetadata struct {
	StartedAt     time.Time `json:"started_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	Platform      string    `json:"platform"`
	UserAgent     string    `json:"user_agent"`
	SessionID     string    `json:"session_id"`
	Referrer      string    `json:"referrer"`
}

// Context is the complete state of one conversation: state machine,
// preference profile, transcript, and session metadata.
type Context struct {
	Conversation   Conversation    `json:"conversation"`
	Preferences    Preferences     `json:"preferences"`
	History        History         `json:"history"`
	UserID         string          `json:"user_id"`
	ConversationID string          `json:"conversation_id"`
	Metadata       SessionMetadata `json:"metadata"`
}

// Clone returns a deep copy of the context.
func (c *Context) Clone() *Context {
	return &Context{
		Conversation:   c.Conversation.Clone(),
		Preferences:    c.Preferences.Clone(),
		History:        c.History.Clone(),
		UserID:         c.UserID,
		ConversationID: c.ConversationID,
		Metadata:       c.Metadata,
	}
}

// TurnResult is the outcome of processing one user message.
type TurnResult struct {
	Context  *Context `json:"context"`
	Response string   `json:"response"`
	State    State    `json:"state"`
}

// ContextSummary combines conversation, history, and preference summaries.
type ContextSummary struct {
	ConversationID  string         `json:"conversation_id"`
	UserID          string         `json:"user_id"`
	State           State          `json:"state"`
	Turns           int            `json:"turns"`
	DurationMinutes int            `json:"duration_minutes"`
	TopPreferences  TopPreferences `json:"top_preferences"`
	TopicsDiscussed []string       `json:"topics_discussed"`
	StartedAt       time.Time      `json:"started_at"`
	LastUpdatedAt   time.Time      `json:"last_updated_at"`
}

// RecommendationParams is the contract handed to the recommendation engine
// for conversation-driven requests.
type RecommendationParams struct {
	QueryParams
	ConversationID    string    `json:"conversation_id"`
	UserID            string    `json:"user_id"`
	ConversationState State     `json:"conversation_state"`
	ConversationTurns int       `json:"conversation_turns"`
	Timestamp         time.Time `json:"timestamp"`
}

// ContextManagerOptions configures the composed trackers.
type ContextManagerOptions struct {
	Manager          ManagerOptions
	Preferences      PreferenceTrackerOptions
	MaxHistoryLength int
}

// ContextManager composes the state machine, preference tracker, and history
// tracker, and orchestrates per-turn processing.
type ContextManager struct {
	manager   *Manager
	prefs     *PreferenceTracker
	history   *HistoryTracker
	intents   IntentClassifier
	extractor EntityExtractor
	sentiment SentimentAnalyzer
	logger    *zap.Logger
}

// NewContextManager creates a context manager. The extractor is required; the
// intent classifier and sentiment analyzer may be nil, in which case intents
// stay unchanged and sentiment defaults to neutral.
func NewContextManager(opts ContextManagerOptions, intents IntentClassifier, extractor EntityExtractor, sentiment SentimentAnalyzer, logger *zap.Logger) *ContextManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextManager{
		manager:   NewManager(opts.Manager),
		prefs:     NewPreferenceTracker(opts.Preferences),
		history:   NewHistoryTracker(opts.MaxHistoryLength),
		intents:   intents,
		extractor: extractor,
		sentiment: sentiment,
		logger:    logger,
	}
}

// Manager exposes the underlying state machine for summaries.
func (cm *ContextManager) Manager() *Manager { return cm.manager }

// PreferenceTracker exposes the underlying preference tracker.
func (cm *ContextManager) PreferenceTracker() *PreferenceTracker { return cm.prefs }

// HistoryTracker exposes the underlying history tracker.
func (cm *ContextManager) HistoryTracker() *HistoryTracker { return cm.history }

// InitializeContext creates a fresh context for a conversation.
func (cm *ContextManager) InitializeContext(userID, conversationID string) *Context {
	now := time.Now().UTC()
	return &Context{
		Conversation:   cm.manager.NewConversation(),
		Preferences:    NewPreferences(),
		History:        cm.history.NewHistory(userID, conversationID),
		UserID:         userID,
		ConversationID: conversationID,
		Metadata: SessionMetadata{
			StartedAt:     now,
			LastUpdatedAt: now,
			Platform:      "web",
		},
	}
}

// ProcessMessage runs the per-turn pipeline: record the user message, classify
// intent, extract entities, update preferences, advance conversation state,
// and record the assistant response. Pure with respect to the input context.
//
// Any failure inside the pipeline degrades to a generic fallback response
// with the context and state unchanged; errors never propagate to the caller.
func (cm *ContextManager) ProcessMessage(ctx context.Context, c *Context, message string) (result TurnResult) {
	defer func() {
		if r := recover(); r != nil {
			cm.logger.Error("conversation_turn_panic",
				zap.String("conversation_id", c.ConversationID),
				zap.Any("panic", r),
			)
			result = cm.fallbackResult(c)
		}
	}()

	next := c.Clone()
	next.Metadata.LastUpdatedAt = time.Now().UTC()

	sentiment := SentimentNeutral
	if cm.sentiment != nil {
		if s, err := cm.sentiment.AnalyzeSentiment(ctx, message); err == nil {
			sentiment = s
		} else {
			cm.logger.Debug("sentiment_analysis_failed", zap.Error(err))
		}
	}
	next.History = cm.history.AddMessage(next.History, RoleUser, message, MessageMetadata{Sentiment: sentiment})

	// A classifier failure means no intent change, not a failed turn.
	intent := next.Conversation.CurrentIntent
	if cm.intents != nil {
		if label, err := cm.intents.ClassifyIntent(ctx, message); err == nil {
			intent = label
		} else {
			cm.logger.Warn("intent_classification_failed",
				zap.String("conversation_id", c.ConversationID),
				zap.Error(err),
			)
		}
	}

	if cm.extractor == nil {
		cm.logger.Error("entity_extractor_not_configured",
			zap.String("conversation_id", c.ConversationID),
		)
		return cm.fallbackResult(c)
	}
	entities, err := cm.extractor.ExtractEntities(ctx, message)
	if err != nil {
		cm.logger.Error("entity_extraction_failed",
			zap.String("conversation_id", c.ConversationID),
			zap.Error(err),
		)
		return cm.fallbackResult(c)
	}

	next.Preferences = cm.prefs.UpdatePreferences(next.Preferences, entities, message)
	next.Conversation = cm.manager.ProcessTurn(next.Conversation, intent, entities)

	response := next.Conversation.LastResponse
	next.History = cm.history.AddMessage(next.History, RoleAssistant, response, MessageMetadata{
		ConversationState: next.Conversation.State,
		Intent:            intent,
		Topics:            topicsFromEntities(entities),
	})

	return TurnResult{
		Context:  next,
		Response: response,
		State:    next.Conversation.State,
	}
}

func (cm *ContextManager) fallbackResult(c *Context) TurnResult {
	state := c.Conversation.State
	if state == "" {
		state = StateDiscovery
	}
	return TurnResult{
		Context:  c,
		Response: fallbackResponse,
		State:    state,
	}
}

// topicsFromEntities lifts subjects and skills into history topics.
func topicsFromEntities(entities EntitySet) []string {
	topics := make([]string, 0, len(entities.Subjects)+len(entities.Skills))
	topics = append(topics, entities.Subjects...)
	topics = append(topics, entities.Skills...)
	return topics
}

// Summarize returns the combined summary of a context.
func (cm *ContextManager) Summarize(c *Context) ContextSummary {
	convSummary := cm.manager.Summarize(&c.Conversation)
	histSummary := cm.history.Summarize(c.History)
	return ContextSummary{
		ConversationID:  c.ConversationID,
		UserID:          c.UserID,
		State:           convSummary.State,
		Turns:           convSummary.Turns,
		DurationMinutes: histSummary.DurationMinutes,
		TopPreferences:  cm.prefs.GetTopPreferences(c.Preferences, 3),
		TopicsDiscussed: histSummary.TopicsDiscussed,
		StartedAt:       c.Metadata.StartedAt,
		LastUpdatedAt:   c.Metadata.LastUpdatedAt,
	}
}

// GenerateRecommendationParams merges preference-derived query parameters
// with conversation identifiers and counters.
func (cm *ContextManager) GenerateRecommendationParams(c *Context) RecommendationParams {
	return RecommendationParams{
		QueryParams:       cm.prefs.ToQueryParams(c.Preferences),
		ConversationID:    c.ConversationID,
		UserID:            c.UserID,
		ConversationState: c.Conversation.State,
		ConversationTurns: c.Conversation.Turns,
		Timestamp:         time.Now().UTC(),
	}
}

// SaveContext persists a context through the store.
func (cm *ContextManager) SaveContext(ctx context.Context, store ContextStore, c *Context) error {
	if err := store.SaveContext(ctx, c.ConversationID, c); err != nil {
		return fmt.Errorf("failed to save conversation context: %w", err)
	}
	return nil
}

// LoadContext loads a context; (nil, nil) when the conversation is unknown.
func (cm *ContextManager) LoadContext(ctx context.Context, store ContextStore, conversationID string) (*Context, error) {
	c, err := store.LoadContext(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation context: %w", err)
	}
	return c, nil
}
