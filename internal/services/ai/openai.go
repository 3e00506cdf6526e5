package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/courseflix/courseflix-api/internal/conversation"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIAnalyzer implements the Analyzer interface using OpenAI's API.
// Each operation issues a JSON-mode chat completion and parses the result
// into the conversation package's closed vocabularies.
type OpenAIAnalyzer struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIAnalyzer creates a new OpenAI analyzer
func NewOpenAIAnalyzer(apiKey string, model string) *OpenAIAnalyzer {
	return NewOpenAIAnalyzerWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIAnalyzerWithLogger creates a new OpenAI analyzer with logger support
func NewOpenAIAnalyzerWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIAnalyzer {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIAnalyzer{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// ClassifyIntent classifies a user message into one of the conversation intents
func (p *OpenAIAnalyzer) ClassifyIntent(ctx context.Context, text string) (conversation.Intent, error) {
	content, err := p.completeJSON(ctx, "classify_intent",
		"You are a classifier for a course discovery assistant. Respond with valid JSON only.",
		buildIntentPrompt(text))
	if err != nil {
		return conversation.IntentUnknown, err
	}

	var result struct {
		Intent string `json:"intent"`
	}
	if err := parseJSONObject(content, &result); err != nil {
		return conversation.IntentUnknown, fmt.Errorf("failed to parse intent response: %w", err)
	}

	intent := conversation.Intent(strings.ToLower(strings.TrimSpace(result.Intent)))
	switch intent {
	case conversation.IntentGreeting, conversation.IntentCourseSearch, conversation.IntentPreferenceStatement,
		conversation.IntentClarification, conversation.IntentFeedback, conversation.IntentFarewell:
		return intent, nil
	default:
		return conversation.IntentUnknown, nil
	}
}

// ExtractEntities extracts course-discovery entities from a user message.
// The returned set always carries all six entity types, each possibly empty.
func (p *OpenAIAnalyzer) ExtractEntities(ctx context.Context, text string) (conversation.EntitySet, error) {
	content, err := p.completeJSON(ctx, "extract_entities",
		"You are an entity extractor for a course discovery assistant. Respond with valid JSON only.",
		buildEntityPrompt(text))
	if err != nil {
		return conversation.EntitySet{}, err
	}

	var result struct {
		Subjects []string `json:"subjects"`
		Skills   []string `json:"skills"`
		Levels   []string `json:"levels"`
		Formats  []string `json:"formats"`
		Goals    []string `json:"goals"`
		Times    []string `json:"times"`
	}
	if err := parseJSONObject(content, &result); err != nil {
		return conversation.EntitySet{}, fmt.Errorf("failed to parse entity response: %w", err)
	}

	var entities conversation.EntitySet
	addAll := func(t conversation.EntityType, values []string) {
		for _, v := range values {
			entities.Add(t, strings.ToLower(strings.TrimSpace(v)))
		}
	}
	addAll(conversation.EntitySubject, result.Subjects)
	addAll(conversation.EntitySkill, result.Skills)
	addAll(conversation.EntityLevel, result.Levels)
	addAll(conversation.EntityFormat, result.Formats)
	addAll(conversation.EntityGoal, result.Goals)
	addAll(conversation.EntityTime, result.Times)
	return entities, nil
}

// AnalyzeSentiment derives a coarse polarity signal from a user message
func (p *OpenAIAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (conversation.Sentiment, error) {
	content, err := p.completeJSON(ctx, "analyze_sentiment",
		"You are a sentiment classifier. Respond with valid JSON only.",
		fmt.Sprintf(`Classify the sentiment of the following message as "positive", "negative", or "neutral".

Message: %q

Respond with a JSON object in this format:
{"sentiment": "positive" | "negative" | "neutral"}

Return only valid JSON.`, text))
	if err != nil {
		return conversation.SentimentNeutral, err
	}

	var result struct {
		Sentiment string `json:"sentiment"`
	}
	if err := parseJSONObject(content, &result); err != nil {
		return conversation.SentimentNeutral, fmt.Errorf("failed to parse sentiment response: %w", err)
	}

	switch conversation.Sentiment(strings.ToLower(strings.TrimSpace(result.Sentiment))) {
	case conversation.SentimentPositive:
		return conversation.SentimentPositive, nil
	case conversation.SentimentNegative:
		return conversation.SentimentNegative, nil
	default:
		return conversation.SentimentNeutral, nil
	}
}

// completeJSON sends a JSON-mode chat completion and returns the response content or an error.
func (p *OpenAIAnalyzer) completeJSON(ctx context.Context, operation string, system string, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := ExtractRequestID(ctx)
	userID := ExtractUserID(ctx)
	conversationID := ExtractConversationID(ctx)

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.Int("message_count", len(messages)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("user_id", userID),
			zap.String("conversation_id", conversationID),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("conversation_id", conversationID),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to %s: %w", operation, apiErr)
		}
		return "", fmt.Errorf("failed to %s: %w", operation, err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("user_id", userID),
			zap.String("conversation_id", conversationID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// parseJSONObject unmarshals content into v, salvaging the outermost JSON
// object when the model wraps it in prose or code fences.
func parseJSONObject(content string, v any) error {
	raw := content
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		if len(raw) > 0 && raw[0] != '{' {
			start := strings.Index(raw, "{")
			end := strings.LastIndex(raw, "}")
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			return err
		}
	}
	return nil
}

func buildIntentPrompt(text string) string {
	return fmt.Sprintf(`Classify the intent of the following message from a user talking to a course discovery assistant.

Message: %q

Possible intents:
- "greeting": the user is opening the conversation (hello, hi, good morning)
- "course_search": the user is asking to find or learn about courses or topics
- "preference_statement": the user is stating what they want, like, or prefer
- "clarification": the user is asking a question about something already said
- "feedback": the user is reacting to recommendations they were shown
- "farewell": the user is ending the conversation
- "unknown": none of the above

Respond with a JSON object in this format:
{"intent": "<one of the labels above>"}

Return only valid JSON.`, text)
}

func buildEntityPrompt(text string) string {
	return fmt.Sprintf(`Extract learning-related entities from the following message from a user talking to a course discovery assistant.

Message: %q

Entity types:
- "subjects": topics or fields the user wants to learn (e.g. "python", "data science", "web development")
- "skills": concrete abilities mentioned (e.g. "programming", "design", "analysis")
- "levels": experience level, one of "beginner", "intermediate", "advanced"
- "formats": preferred course format, one of "video", "interactive", "reading", "mixed"
- "goals": why the user is learning (e.g. "career change", "certification", "hobby")
- "times": time availability mentioned (e.g. "5 hours a week", "weekends", "evenings")

Respond with a JSON object in this format, with every key present and empty arrays where nothing was mentioned:
{
  "subjects": [],
  "skills": [],
  "levels": [],
  "formats": [],
  "goals": [],
  "times": []
}

Use lowercase values. Return only valid JSON.`, text)
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (Analyzer, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		model := config["model"]
		baseURL := config["base_url"]

		return NewOpenAIAnalyzerWithLogger(apiKey, baseURL, model, nil, false), nil
	})
}
