package conversation

import (
	"fmt"
	"strings"
)

// State is the phase of the conversation state machine.
type State string

const (
	StateGreeting       State = "greeting"
	StateOnboarding     State = "onboarding"
	StateDiscovery      State = "discovery"
	StateRecommendation State = "recommendation"
	StateFeedback       State = "feedback"
	StateRefinement     State = "refinement"
	StateCompletion     State = "completion"
)

const (
	// DefaultMaxTurns forces completion once a conversation has run this long.
	DefaultMaxTurns = 20
	// DefaultMinEntitiesForRecommendation is how many entity types must be
	// covered before recommendations are offered.
	DefaultMinEntitiesForRecommendation = 2
)

const greetingResponse = "Hi there! I'm Flex, your personal learning assistant. What would you like to learn today?"

// MissingInfo is a prompt for an entity type not yet collected.
type MissingInfo struct {
	Type     EntityType `json:"type"`
	Question string     `json:"question"`
}

// ShownRecommendation is a recommendation surfaced into the conversation,
// retained so follow-up feedback ("the second one") can be resolved.
type ShownRecommendation struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Provider string `json:"provider"`
	Level    string `json:"level"`
	Reason   string `json:"reason"`
}

// Conversation is the state-machine portion of a conversation context.
type Conversation struct {
	State              State                 `json:"state"`
	Turns              int                   `json:"turns"`
	Entities           EntitySet             `json:"entities"`
	CurrentIntent      Intent                `json:"current_intent"`
	LastIntent         Intent                `json:"last_intent"`
	LastResponse       string                `json:"last_response"`
	Recommendations    []ShownRecommendation `json:"recommendations"`
	MissingInformation []MissingInfo         `json:"missing_information"`
	ConfidenceScore    float64               `json:"confidence_score"`
}

// Clone returns a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	clone := c
	clone.Entities = c.Entities.Clone()
	if c.Recommendations != nil {
		clone.Recommendations = make([]ShownRecommendation, len(c.Recommendations))
		copy(clone.Recommendations, c.Recommendations)
	}
	if c.MissingInformation != nil {
		clone.MissingInformation = make([]MissingInfo, len(c.MissingInformation))
		copy(clone.MissingInformation, c.MissingInformation)
	}
	return clone
}

// ManagerOptions are tunables for the conversation state machine.
type ManagerOptions struct {
	MaxTurns                     int
	MinEntitiesForRecommendation int
}

// Manager drives conversation state transitions and response templating.
// It holds configuration only; all mutable state lives in the Conversation
// value passed into each call.
type Manager struct {
	maxTurns                     int
	minEntitiesForRecommendation int
}

// NewManager creates a conversation manager, applying defaults for zero options.
func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		maxTurns:                     opts.MaxTurns,
		minEntitiesForRecommendation: opts.MinEntitiesForRecommendation,
	}
	if m.maxTurns <= 0 {
		m.maxTurns = DefaultMaxTurns
	}
	if m.minEntitiesForRecommendation <= 0 {
		m.minEntitiesForRecommendation = DefaultMinEntitiesForRecommendation
	}
	return m
}

// NewConversation returns a conversation in its initial state.
func (m *Manager) NewConversation() Conversation {
	return Conversation{
		State:              StateGreeting,
		Turns:              0,
		Entities:           EntitySet{},
		LastResponse:       greetingResponse,
		Recommendations:    []ShownRecommendation{},
		MissingInformation: []MissingInfo{},
		ConfidenceScore:    1.0,
	}
}

// ProcessTurn advances the conversation by one user turn. It is pure: the
// input conversation is not mutated. Exactly one state transition may occur
// per turn.
func (m *Manager) ProcessTurn(conv Conversation, intent Intent, extracted EntitySet) Conversation {
	next := conv.Clone()
	next.Turns++
	next.LastIntent = next.CurrentIntent
	next.CurrentIntent = intent
	next.Entities.Merge(extracted)

	m.advanceState(&next)
	m.identifyMissingInformation(&next)
	next.LastResponse = m.responseForState(&next)

	return next
}

func (m *Manager) advanceState(conv *Conversation) {
	entities := &conv.Entities
	covered := entities.TypesCovered()
	hasTopic := len(entities.Subjects) > 0 || len(entities.Skills) > 0

	switch conv.State {
	case StateGreeting:
		if conv.Turns >= 1 {
			conv.State = StateOnboarding
		}
	case StateOnboarding:
		if hasTopic {
			conv.State = StateDiscovery
		}
	case StateDiscovery:
		if covered >= m.minEntitiesForRecommendation && hasTopic {
			conv.State = StateRecommendation
		}
	case StateRecommendation:
		if conv.CurrentIntent == IntentFeedback {
			conv.State = StateFeedback
		} else if conv.CurrentIntent == IntentClarification || conv.CurrentIntent == IntentPreferenceStatement {
			conv.State = StateRefinement
		}
	case StateFeedback:
		if conv.CurrentIntent == IntentFarewell {
			conv.State = StateCompletion
		} else {
			conv.State = StateRefinement
		}
	case StateRefinement:
		if covered >= m.minEntitiesForRecommendation {
			conv.State = StateRecommendation
		}
	case StateCompletion:
		// Terminal.
	default:
		conv.State = StateDiscovery
	}

	if conv.Turns >= m.maxTurns {
		conv.State = StateCompletion
	}
}

func (m *Manager) identifyMissingInformation(conv *Conversation) {
	missing := []MissingInfo{}
	if conv.State != StateDiscovery && conv.State != StateRefinement {
		conv.MissingInformation = missing
		return
	}

	entities := &conv.Entities
	if len(entities.Subjects) == 0 && len(entities.Skills) == 0 {
		missing = append(missing, MissingInfo{
			Type:     EntitySubject,
			Question: "What specific subject or topic are you interested in learning?",
		})
	}
	if len(entities.Levels) == 0 {
		missing = append(missing, MissingInfo{
			Type:     EntityLevel,
			Question: "What's your experience level with this subject? Are you a beginner, intermediate, or advanced learner?",
		})
	}
	if len(entities.Formats) == 0 {
		missing = append(missing, MissingInfo{
			Type:     EntityFormat,
			Question: "Do you prefer video lectures, interactive exercises, reading materials, or a mix of formats?",
		})
	}
	if len(entities.Times) == 0 {
		missing = append(missing, MissingInfo{
			Type:     EntityTime,
			Question: "How much time can you commit to learning? Are you looking for a quick course or a more comprehensive program?",
		})
	}
	if len(entities.Goals) == 0 {
		missing = append(missing, MissingInfo{
			Type:     EntityGoal,
			Question: "What's your main goal for taking this course? Is it for career advancement, a specific skill, or personal interest?",
		})
	}

	conv.MissingInformation = missing
}

func (m *Manager) responseForState(conv *Conversation) string {
	switch conv.State {
	case StateGreeting:
		return greetingResponse

	case StateOnboarding:
		if conv.Turns == 1 {
			return "Great! To help you find the perfect courses, could you tell me what subjects or skills you're interested in learning?"
		}
		return "I'd love to help you find the right course. What specific topic are you interested in?"

	case StateDiscovery:
		if len(conv.MissingInformation) > 0 {
			return conv.MissingInformation[0].Question
		}
		return "Thanks for sharing your preferences. I think I have enough information to recommend some courses for you now."

	case StateRecommendation:
		return m.recommendationResponse(conv)

	case StateFeedback:
		return "Thank you for your feedback! Would you like to explore more courses or refine your preferences for better recommendations?"

	case StateRefinement:
		return "I'll help you find more relevant courses. Could you tell me more about what you're looking for?"

	case StateCompletion:
		return "I hope you found these recommendations helpful! Feel free to start a new conversation anytime you want to discover more courses. Happy learning!"

	default:
		return "I'm here to help you find the perfect course. What specific topics are you interested in?"
	}
}

// recommendationResponse summarizes the collected entities. The actual course
// list is appended by the recommendation integrator; this template covers the
// case where no engine is wired in.
func (m *Manager) recommendationResponse(conv *Conversation) string {
	var b strings.Builder
	b.WriteString("Based on your interest in ")
	if len(conv.Entities.Subjects) > 0 {
		b.WriteString(strings.Join(conv.Entities.Subjects, ", "))
	} else {
		b.WriteString("this topic")
	}
	if len(conv.Entities.Levels) > 0 {
		fmt.Fprintf(&b, " at a %s level", strings.Join(conv.Entities.Levels, ", "))
	}
	if len(conv.Entities.Formats) > 0 {
		fmt.Fprintf(&b, " with a preference for %s content", strings.Join(conv.Entities.Formats, ", "))
	}
	b.WriteString(", I'm putting together some course recommendations for you. ")
	b.WriteString("Would you like more information about any of these courses, or would you prefer different recommendations?")
	return b.String()
}

// ConversationSummary is a compact view of conversation progress.
type ConversationSummary struct {
	State                State                   `json:"state"`
	Turns                int                     `json:"turns"`
	EntitiesCollected    map[EntityType][]string `json:"entities_collected"`
	CurrentIntent        Intent                  `json:"current_intent"`
	RecommendationsCount int                     `json:"recommendations_count"`
}

// Summarize returns a summary of the conversation for analytics and debugging.
func (m *Manager) Summarize(conv *Conversation) ConversationSummary {
	collected := make(map[EntityType][]string)
	for _, t := range AllEntityTypes() {
		if values := conv.Entities.Get(t); len(values) > 0 {
			collected[t] = values
		}
	}
	return ConversationSummary{
		State:                conv.State,
		Turns:                conv.Turns,
		EntitiesCollected:    collected,
		CurrentIntent:        conv.CurrentIntent,
		RecommendationsCount: len(conv.Recommendations),
	}
}
