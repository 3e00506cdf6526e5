package ai

import (
	"strings"
	"testing"
)

func TestParseJSONObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantErr    bool
		wantIntent string
	}{
		{
			name:       "clean JSON",
			content:    `{"intent": "course_search"}`,
			wantIntent: "course_search",
		},
		{
			name:       "JSON wrapped in prose",
			content:    "Sure, here is the result:\n{\"intent\": \"greeting\"}\nLet me know if you need anything else.",
			wantIntent: "greeting",
		},
		{
			name:       "JSON in a code fence",
			content:    "```json\n{\"intent\": \"feedback\"}\n```",
			wantIntent: "feedback",
		},
		{
			name:    "no JSON at all",
			content: "I could not classify that message.",
			wantErr: true,
		},
		{
			name:    "empty content",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var result struct {
				Intent string `json:"intent"`
			}
			err := parseJSONObject(tt.content, &result)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseJSONObject returned error: %v", err)
			}
			if result.Intent != tt.wantIntent {
				t.Errorf("intent = %q, want %q", result.Intent, tt.wantIntent)
			}
		})
	}
}

func TestBuildIntentPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildIntentPrompt("I want to learn python")

	if !strings.Contains(prompt, "I want to learn python") {
		t.Error("expected prompt to include the user message")
	}
	for _, label := range []string{"greeting", "course_search", "preference_statement", "clarification", "feedback", "farewell", "unknown"} {
		if !strings.Contains(prompt, `"`+label+`"`) {
			t.Errorf("expected prompt to list intent label %q", label)
		}
	}
	if !strings.Contains(prompt, "Return only valid JSON") {
		t.Error("expected prompt to demand JSON-only output")
	}
}

func TestBuildEntityPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildEntityPrompt("5 hours a week of video courses")

	if !strings.Contains(prompt, "5 hours a week of video courses") {
		t.Error("expected prompt to include the user message")
	}
	for _, key := range []string{"subjects", "skills", "levels", "formats", "goals", "times"} {
		if !strings.Contains(prompt, `"`+key+`"`) {
			t.Errorf("expected prompt to describe entity key %q", key)
		}
	}
	if !strings.Contains(prompt, "every key present") {
		t.Error("expected prompt to require all keys in the response")
	}
}

func TestNewOpenAIAnalyzer_Defaults(t *testing.T) {
	t.Parallel()

	analyzer := NewOpenAIAnalyzer("test-key", "")
	if analyzer.model != DefaultOpenAIModel {
		t.Errorf("model = %q, want default %q", analyzer.model, DefaultOpenAIModel)
	}

	custom := NewOpenAIAnalyzer("test-key", "gpt-4o")
	if custom.model != "gpt-4o" {
		t.Errorf("model = %q, want %q", custom.model, "gpt-4o")
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry)
	RegisterLexicon(registry)

	tests := []struct {
		name     string
		provider string
		config   map[string]string
		wantErr  bool
	}{
		{
			name:     "openai with api key",
			provider: "openai",
			config:   map[string]string{"api_key": "test-key"},
		},
		{
			name:     "openai without api key",
			provider: "openai",
			config:   map[string]string{},
			wantErr:  true,
		},
		{
			name:     "lexicon needs no config",
			provider: "lexicon",
			config:   nil,
		},
		{
			name:     "unknown provider",
			provider: "acme",
			config:   nil,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			analyzer, err := registry.GetProvider(tt.provider, tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetProvider returned error: %v", err)
			}
			if analyzer == nil {
				t.Fatal("expected analyzer, got nil")
			}
		})
	}
}
