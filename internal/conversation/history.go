package conversation

import (
	"strings"
	"time"
)

// Role is the author of a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultMaxHistoryLength caps retained messages per conversation (FIFO).
const DefaultMaxHistoryLength = 50

// DefaultModelTokenBudget bounds the history window handed to an AI model.
const DefaultModelTokenBudget = 2000

// MessageMetadata annotates a history entry.
type MessageMetadata struct {
	Sentiment         Sentiment `json:"sentiment,omitempty"`
	ConversationState State     `json:"conversation_state,omitempty"`
	Intent            Intent    `json:"intent,omitempty"`
	Topics            []string  `json:"topics,omitempty"`
}

// HistoryMessage is one entry in a conversation transcript.
type HistoryMessage struct {
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  MessageMetadata `json:"metadata"`
}

// HistoryStats are running statistics over a conversation transcript.
//
// AverageUserMessageLength is recomputed from the retained window divided by
// the cumulative user message count, so once FIFO truncation kicks in the
// average skews low. That matches the original behavior and is kept as-is.
type HistoryStats struct {
	TotalTurns               int      `json:"total_turns"`
	UserMessageCount         int      `json:"user_message_count"`
	AssistantMessageCount    int      `json:"assistant_message_count"`
	AverageUserMessageLength float64  `json:"average_user_message_length"`
	TopicsDiscussed          []string `json:"topics_discussed"`
}

// History is a capped, append-only conversation transcript with derived stats.
type History struct {
	UserID         string           `json:"user_id"`
	ConversationID string           `json:"conversation_id"`
	Messages       []HistoryMessage `json:"messages"`
	StartedAt      time.Time        `json:"started_at"`
	LastUpdatedAt  time.Time        `json:"last_updated_at"`
	Metadata       HistoryStats     `json:"metadata"`
}

// Clone returns a deep copy of the history.
func (h History) Clone() History {
	clone := h
	clone.Messages = make([]HistoryMessage, len(h.Messages))
	for i, msg := range h.Messages {
		copied := msg
		if msg.Metadata.Topics != nil {
			copied.Metadata.Topics = append([]string{}, msg.Metadata.Topics...)
		}
		clone.Messages[i] = copied
	}
	clone.Metadata.TopicsDiscussed = append([]string{}, h.Metadata.TopicsDiscussed...)
	return clone
}

// ModelMessage is the role/content pair handed to an AI model.
type ModelMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistorySummary is a derived view of a conversation transcript.
type HistorySummary struct {
	ConversationID           string    `json:"conversation_id"`
	DurationMinutes          int       `json:"duration_minutes"`
	TotalTurns               int       `json:"total_turns"`
	UserMessageCount         int       `json:"user_message_count"`
	AssistantMessageCount    int       `json:"assistant_message_count"`
	AverageUserMessageLength int       `json:"average_user_message_length"`
	TopicsDiscussed          []string  `json:"topics_discussed"`
	LongestUserMessageLength int       `json:"longest_user_message_length"`
	StartedAt                time.Time `json:"started_at"`
	LastUpdatedAt            time.Time `json:"last_updated_at"`
}

// HistoryTracker manages conversation transcripts. Configuration only; the
// History value carries all mutable state.
type HistoryTracker struct {
	maxHistoryLength int
}

// NewHistoryTracker creates a history tracker. A non-positive max length uses
// the default cap.
func NewHistoryTracker(maxHistoryLength int) *HistoryTracker {
	if maxHistoryLength <= 0 {
		maxHistoryLength = DefaultMaxHistoryLength
	}
	return &HistoryTracker{maxHistoryLength: maxHistoryLength}
}

// NewHistory returns an empty transcript for a conversation.
func (t *HistoryTracker) NewHistory(userID, conversationID string) History {
	now := time.Now().UTC()
	return History{
		UserID:         userID,
		ConversationID: conversationID,
		Messages:       []HistoryMessage{},
		StartedAt:      now,
		LastUpdatedAt:  now,
		Metadata: HistoryStats{
			TopicsDiscussed: []string{},
		},
	}
}

// AddMessage appends a timestamped entry and updates running statistics.
// Pure: the input history is not mutated. When the cap is exceeded the oldest
// messages are evicted first.
func (t *HistoryTracker) AddMessage(history History, role Role, content string, metadata MessageMetadata) History {
	next := history.Clone()

	entry := HistoryMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	next.Messages = append(next.Messages, entry)
	if len(next.Messages) > t.maxHistoryLength {
		next.Messages = next.Messages[len(next.Messages)-t.maxHistoryLength:]
	}

	next.LastUpdatedAt = entry.Timestamp
	next.Metadata.TotalTurns++

	switch role {
	case RoleUser:
		next.Metadata.UserMessageCount++
		totalChars := 0
		for _, msg := range next.Messages {
			if msg.Role == RoleUser {
				totalChars += len(msg.Content)
			}
		}
		next.Metadata.AverageUserMessageLength = float64(totalChars) / float64(next.Metadata.UserMessageCount)
	case RoleAssistant:
		next.Metadata.AssistantMessageCount++
	}

	for _, topic := range metadata.Topics {
		found := false
		for _, existing := range next.Metadata.TopicsDiscussed {
			if existing == topic {
				found = true
				break
			}
		}
		if !found {
			next.Metadata.TopicsDiscussed = append(next.Metadata.TopicsDiscussed, topic)
		}
	}

	return next
}

// LastMessages returns the most recent count messages.
func (t *HistoryTracker) LastMessages(history History, count int) []HistoryMessage {
	if count <= 0 || count > len(history.Messages) {
		count = len(history.Messages)
	}
	return history.Messages[len(history.Messages)-count:]
}

// MessagesBetween returns messages whose timestamps fall inside [start, end].
func (t *HistoryTracker) MessagesBetween(history History, start, end time.Time) []HistoryMessage {
	var matched []HistoryMessage
	for _, msg := range history.Messages {
		if !msg.Timestamp.Before(start) && !msg.Timestamp.After(end) {
			matched = append(matched, msg)
		}
	}
	return matched
}

// Search returns messages containing the given text, case-insensitively.
func (t *HistoryTracker) Search(history History, text string) []HistoryMessage {
	lower := strings.ToLower(text)
	var matched []HistoryMessage
	for _, msg := range history.Messages {
		if strings.Contains(strings.ToLower(msg.Content), lower) {
			matched = append(matched, msg)
		}
	}
	return matched
}

// estimateTokens approximates token cost as ceil(len/4), the rough heuristic
// for English text.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// FormatForModel returns the most recent contiguous suffix of the transcript
// that fits within maxTokens, in chronological order. The returned token sum
// never exceeds the budget.
func (t *HistoryTracker) FormatForModel(history History, maxTokens int) []ModelMessage {
	if maxTokens <= 0 {
		maxTokens = DefaultModelTokenBudget
	}

	formatted := []ModelMessage{}
	totalTokens := 0
	for i := len(history.Messages) - 1; i >= 0; i-- {
		msg := history.Messages[i]
		cost := estimateTokens(msg.Content)
		if totalTokens+cost > maxTokens {
			break
		}
		formatted = append([]ModelMessage{{Role: msg.Role, Content: msg.Content}}, formatted...)
		totalTokens += cost
	}
	return formatted
}

// Summarize returns a derived view of the transcript. Pure read.
func (t *HistoryTracker) Summarize(history History) HistorySummary {
	topTopics := history.Metadata.TopicsDiscussed
	if len(topTopics) > 5 {
		topTopics = topTopics[:5]
	}

	duration := history.LastUpdatedAt.Sub(history.StartedAt)
	durationMinutes := int(duration.Round(time.Minute) / time.Minute)

	longest := 0
	for _, msg := range history.Messages {
		if msg.Role == RoleUser && len(msg.Content) > longest {
			longest = len(msg.Content)
		}
	}

	return HistorySummary{
		ConversationID:           history.ConversationID,
		DurationMinutes:          durationMinutes,
		TotalTurns:               history.Metadata.TotalTurns,
		UserMessageCount:         history.Metadata.UserMessageCount,
		AssistantMessageCount:    history.Metadata.AssistantMessageCount,
		AverageUserMessageLength: int(history.Metadata.AverageUserMessageLength + 0.5),
		TopicsDiscussed:          topTopics,
		LongestUserMessageLength: longest,
		StartedAt:                history.StartedAt,
		LastUpdatedAt:            history.LastUpdatedAt,
	}
}
