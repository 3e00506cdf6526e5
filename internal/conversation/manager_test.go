package conversation

import (
	"strings"
	"testing"
)

func TestNewConversation_InitialState(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerOptions{})
	conv := m.NewConversation()

	if conv.State != StateGreeting {
		t.Errorf("Expected initial state %s, got %s", StateGreeting, conv.State)
	}
	if conv.Turns != 0 {
		t.Errorf("Expected 0 turns, got %d", conv.Turns)
	}
	if conv.LastResponse == "" {
		t.Error("Expected a greeting response")
	}
	if conv.ConfidenceScore != 1.0 {
		t.Errorf("Expected confidence score 1.0, got %f", conv.ConfidenceScore)
	}
}

func TestProcessTurn_StateTransitions(t *testing.T) {
	t.Parallel()

	subjectAndLevel := EntitySet{Subjects: []string{"python"}, Levels: []string{"beginner"}}

	tests := []struct {
		name      string
		start     Conversation
		intent    Intent
		entities  EntitySet
		wantState State
	}{
		{
			name:      "greeting advances to onboarding",
			start:     Conversation{State: StateGreeting, Entities: EntitySet{}},
			intent:    IntentGreeting,
			entities:  EntitySet{},
			wantState: StateOnboarding,
		},
		{
			name:      "onboarding stays without a topic",
			start:     Conversation{State: StateOnboarding, Entities: EntitySet{}},
			intent:    IntentUnknown,
			entities:  EntitySet{Levels: []string{"beginner"}},
			wantState: StateOnboarding,
		},
		{
			name:      "onboarding advances to discovery on topic",
			start:     Conversation{State: StateOnboarding, Entities: EntitySet{}},
			intent:    IntentCourseSearch,
			entities:  EntitySet{Subjects: []string{"python"}},
			wantState: StateDiscovery,
		},
		{
			name:      "discovery advances to recommendation with enough coverage",
			start:     Conversation{State: StateDiscovery, Entities: EntitySet{Subjects: []string{"python"}}},
			intent:    IntentPreferenceStatement,
			entities:  EntitySet{Levels: []string{"beginner"}},
			wantState: StateRecommendation,
		},
		{
			name:      "discovery waits when only one entity type is covered",
			start:     Conversation{State: StateDiscovery, Entities: EntitySet{}},
			intent:    IntentCourseSearch,
			entities:  EntitySet{Subjects: []string{"python"}},
			wantState: StateDiscovery,
		},
		{
			name:      "recommendation moves to feedback on feedback intent",
			start:     Conversation{State: StateRecommendation, Entities: subjectAndLevel.Clone()},
			intent:    IntentFeedback,
			entities:  EntitySet{},
			wantState: StateFeedback,
		},
		{
			name:      "recommendation moves to refinement on clarification",
			start:     Conversation{State: StateRecommendation, Entities: subjectAndLevel.Clone()},
			intent:    IntentClarification,
			entities:  EntitySet{},
			wantState: StateRefinement,
		},
		{
			name:      "recommendation moves to refinement on preference statement",
			start:     Conversation{State: StateRecommendation, Entities: subjectAndLevel.Clone()},
			intent:    IntentPreferenceStatement,
			entities:  EntitySet{},
			wantState: StateRefinement,
		},
		{
			name:      "feedback moves to completion on farewell",
			start:     Conversation{State: StateFeedback, Entities: EntitySet{}},
			intent:    IntentFarewell,
			entities:  EntitySet{},
			wantState: StateCompletion,
		},
		{
			name:      "feedback otherwise moves to refinement",
			start:     Conversation{State: StateFeedback, Entities: EntitySet{}},
			intent:    IntentUnknown,
			entities:  EntitySet{},
			wantState: StateRefinement,
		},
		{
			name:      "refinement returns to recommendation with coverage",
			start:     Conversation{State: StateRefinement, Entities: subjectAndLevel.Clone()},
			intent:    IntentPreferenceStatement,
			entities:  EntitySet{},
			wantState: StateRecommendation,
		},
		{
			name:      "completion is terminal",
			start:     Conversation{State: StateCompletion, Entities: EntitySet{}},
			intent:    IntentCourseSearch,
			entities:  EntitySet{Subjects: []string{"python"}},
			wantState: StateCompletion,
		},
		{
			name:      "unrecognized state normalizes to discovery",
			start:     Conversation{State: State("garbled"), Entities: EntitySet{}},
			intent:    IntentUnknown,
			entities:  EntitySet{},
			wantState: StateDiscovery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewManager(ManagerOptions{})
			next := m.ProcessTurn(tt.start, tt.intent, tt.entities)

			if next.State != tt.wantState {
				t.Errorf("Expected state %s, got %s", tt.wantState, next.State)
			}
			if next.Turns != tt.start.Turns+1 {
				t.Errorf("Expected turn count %d, got %d", tt.start.Turns+1, next.Turns)
			}
			if next.CurrentIntent != tt.intent {
				t.Errorf("Expected current intent %s, got %s", tt.intent, next.CurrentIntent)
			}
		})
	}
}

func TestProcessTurn_MaxTurnsForcesCompletion(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerOptions{MaxTurns: 2})
	conv := m.NewConversation()

	conv = m.ProcessTurn(conv, IntentGreeting, EntitySet{})
	if conv.State == StateCompletion {
		t.Fatal("Completion reached one turn early")
	}

	conv = m.ProcessTurn(conv, IntentCourseSearch, EntitySet{})
	if conv.State != StateCompletion {
		t.Errorf("Expected completion after max turns, got %s", conv.State)
	}
}

func TestProcessTurn_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerOptions{})
	original := Conversation{
		State:    StateOnboarding,
		Turns:    1,
		Entities: EntitySet{Subjects: []string{"python"}},
	}

	_ = m.ProcessTurn(original, IntentCourseSearch, EntitySet{Subjects: []string{"go"}})

	if original.Turns != 1 {
		t.Errorf("Input conversation turns mutated: %d", original.Turns)
	}
	if original.State != StateOnboarding {
		t.Errorf("Input conversation state mutated: %s", original.State)
	}
	if len(original.Entities.Subjects) != 1 {
		t.Errorf("Input conversation entities mutated: %v", original.Entities.Subjects)
	}
}

func TestProcessTurn_MissingInformationOrder(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerOptions{})
	conv := Conversation{State: StateOnboarding, Entities: EntitySet{}}

	// Entering discovery with only a subject leaves level as the first gap.
	next := m.ProcessTurn(conv, IntentCourseSearch, EntitySet{Subjects: []string{"python"}})

	if next.State != StateDiscovery {
		t.Fatalf("Expected discovery state, got %s", next.State)
	}
	if len(next.MissingInformation) == 0 {
		t.Fatal("Expected missing information prompts")
	}
	if next.MissingInformation[0].Type != EntityLevel {
		t.Errorf("Expected first gap to be level, got %s", next.MissingInformation[0].Type)
	}
	if next.LastResponse != next.MissingInformation[0].Question {
		t.Errorf("Expected response to ask the first missing question, got %q", next.LastResponse)
	}
}

func TestProcessTurn_RecommendationResponseMentionsEntities(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerOptions{})
	conv := Conversation{
		State:    StateDiscovery,
		Entities: EntitySet{Subjects: []string{"python"}},
	}

	next := m.ProcessTurn(conv, IntentPreferenceStatement, EntitySet{Levels: []string{"beginner"}})

	if next.State != StateRecommendation {
		t.Fatalf("Expected recommendation state, got %s", next.State)
	}
	if !strings.Contains(next.LastResponse, "python") {
		t.Errorf("Expected response to mention the subject, got %q", next.LastResponse)
	}
	if !strings.Contains(next.LastResponse, "beginner") {
		t.Errorf("Expected response to mention the level, got %q", next.LastResponse)
	}
}

func TestManager_Summarize(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerOptions{})
	conv := Conversation{
		State:         StateRecommendation,
		Turns:         4,
		CurrentIntent: IntentFeedback,
		Entities: EntitySet{
			Subjects: []string{"python", "data science"},
			Levels:   []string{"beginner"},
		},
		Recommendations: []ShownRecommendation{{ID: "c1"}, {ID: "c2"}},
	}

	summary := m.Summarize(&conv)

	if summary.State != StateRecommendation {
		t.Errorf("Expected state %s, got %s", StateRecommendation, summary.State)
	}
	if summary.Turns != 4 {
		t.Errorf("Expected 4 turns, got %d", summary.Turns)
	}
	if summary.RecommendationsCount != 2 {
		t.Errorf("Expected 2 recommendations, got %d", summary.RecommendationsCount)
	}
	if len(summary.EntitiesCollected[EntitySubject]) != 2 {
		t.Errorf("Expected 2 subjects collected, got %v", summary.EntitiesCollected[EntitySubject])
	}
	if _, ok := summary.EntitiesCollected[EntityFormat]; ok {
		t.Error("Expected empty entity types to be omitted from the summary")
	}
}
