package ai

import (
	"context"
	"regexp"
	"strings"

	"github.com/courseflix/courseflix-api/internal/conversation"
)

// LexiconAnalyzer is a keyword-based Analyzer used when no API key is
// configured. It never fails: unknown input classifies as unknown intent,
// an empty entity set, and neutral sentiment.
type LexiconAnalyzer struct{}

// NewLexiconAnalyzer creates a new lexicon analyzer
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

var wordPattern = regexp.MustCompile(`[a-z0-9']+`)

var greetingWords = []string{"hi", "hello", "hey", "howdy"}

var farewellPhrases = []string{
	"bye", "goodbye", "see you", "that's all", "i'm done", "gotta go", "talk later",
}

var feedbackPhrases = []string{
	"i like", "i love", "don't like", "not interested", "not for me",
	"looks good", "sounds good", "the first", "the second", "the third",
	"not helpful", "not what i", "something else", "perfect", "exactly what",
}

var clarificationPhrases = []string{
	"what do you mean", "what is", "what's the difference", "how long",
	"how much", "can you explain", "could you explain", "why",
}

var preferencePhrases = []string{
	"i want", "i'd like", "i prefer", "i'm interested", "i am interested",
	"looking for", "i need", "i enjoy",
}

var searchPhrases = []string{
	"learn", "course", "courses", "class", "classes", "teach", "study",
	"tutorial", "training", "recommend",
}

// entityPhrases maps surface phrases to canonical entity values per type.
// Multi-word phrases are matched by substring, single words by token.
var entityPhrases = map[conversation.EntityType]map[string]string{
	conversation.EntitySubject: {
		"python":           "python",
		"javascript":       "javascript",
		"react":            "react",
		"html":             "web development",
		"css":              "web development",
		"web development":  "web development",
		"web":              "web development",
		"data science":     "data science",
		"data analysis":    "data science",
		"data":             "data science",
		"machine learning": "machine learning",
		"ai":               "machine learning",
		"sql":              "databases",
		"databases":        "databases",
		"cloud":            "cloud computing",
		"security":         "security",
		"java":             "java",
	},
	conversation.EntitySkill: {
		"coding":      "programming",
		"programming": "programming",
		"design":      "design",
		"analysis":    "analysis",
		"statistics":  "analysis",
	},
	conversation.EntityLevel: {
		"beginner":        "beginner",
		"new to":          "beginner",
		"never done":      "beginner",
		"intermediate":    "intermediate",
		"some experience": "intermediate",
		"advanced":        "advanced",
		"expert":          "advanced",
	},
	conversation.EntityFormat: {
		"video":       "video",
		"videos":      "video",
		"watch":       "video",
		"interactive": "interactive",
		"hands-on":    "interactive",
		"hands on":    "interactive",
		"exercises":   "interactive",
		"reading":     "reading",
		"read":        "reading",
		"book":        "reading",
	},
	conversation.EntityGoal: {
		"career":        "career change",
		"new job":       "career change",
		"job":           "career change",
		"certification": "certification",
		"certificate":   "certification",
		"interview":     "interview prep",
		"hobby":         "hobby",
		"fun":           "hobby",
	},
	conversation.EntityTime: {
		"weekend":   "weekends",
		"weekends":  "weekends",
		"evening":   "evenings",
		"evenings":  "evenings",
		"part-time": "part-time",
		"full-time": "full-time",
	},
}

var hoursPerWeekPattern = regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?)(?:\s+(?:a|per)\s+week)?`)

var positiveWords = []string{
	"great", "good", "love", "like", "awesome", "excellent", "perfect",
	"amazing", "helpful", "thanks", "thank", "yes", "interested",
}

var negativeWords = []string{
	"bad", "hate", "boring", "terrible", "awful", "useless", "wrong",
	"no", "not", "don't", "dislike", "confusing",
}

// ClassifyIntent matches the message against intent phrase lists,
// most specific first.
func (a *LexiconAnalyzer) ClassifyIntent(_ context.Context, text string) (conversation.Intent, error) {
	lower := strings.ToLower(text)
	tokens := tokenSet(lower)

	for _, w := range greetingWords {
		if tokens[w] {
			return conversation.IntentGreeting, nil
		}
	}
	if strings.Contains(lower, "good morning") || strings.Contains(lower, "good afternoon") || strings.Contains(lower, "good evening") {
		return conversation.IntentGreeting, nil
	}
	if containsPhrase(lower, tokens, farewellPhrases) {
		return conversation.IntentFarewell, nil
	}
	if containsPhrase(lower, tokens, feedbackPhrases) {
		return conversation.IntentFeedback, nil
	}
	if containsPhrase(lower, tokens, clarificationPhrases) {
		return conversation.IntentClarification, nil
	}
	if containsPhrase(lower, tokens, preferencePhrases) {
		return conversation.IntentPreferenceStatement, nil
	}
	if containsPhrase(lower, tokens, searchPhrases) {
		return conversation.IntentCourseSearch, nil
	}
	return conversation.IntentUnknown, nil
}

// ExtractEntities matches the message against the entity keyword lexicon
func (a *LexiconAnalyzer) ExtractEntities(_ context.Context, text string) (conversation.EntitySet, error) {
	lower := strings.ToLower(text)
	tokens := tokenSet(lower)

	var entities conversation.EntitySet
	for _, t := range conversation.AllEntityTypes() {
		for phrase, value := range entityPhrases[t] {
			if matchPhrase(lower, tokens, phrase) {
				entities.Add(t, value)
			}
		}
	}

	if m := hoursPerWeekPattern.FindString(lower); m != "" {
		entities.Add(conversation.EntityTime, m)
	}

	return entities, nil
}

// AnalyzeSentiment counts positive and negative lexicon hits
func (a *LexiconAnalyzer) AnalyzeSentiment(_ context.Context, text string) (conversation.Sentiment, error) {
	tokens := tokenSet(strings.ToLower(text))

	positives := 0
	for _, w := range positiveWords {
		if tokens[w] {
			positives++
		}
	}
	negatives := 0
	for _, w := range negativeWords {
		if tokens[w] {
			negatives++
		}
	}

	switch {
	case positives > negatives:
		return conversation.SentimentPositive, nil
	case negatives > positives:
		return conversation.SentimentNegative, nil
	default:
		return conversation.SentimentNeutral, nil
	}
}

func tokenSet(lower string) map[string]bool {
	tokens := wordPattern.FindAllString(lower, -1)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// matchPhrase matches single words by token to avoid substring noise
// ("ai" inside "maintain"), and multi-word phrases by substring.
func matchPhrase(lower string, tokens map[string]bool, phrase string) bool {
	if strings.ContainsAny(phrase, " -'") {
		return strings.Contains(lower, phrase)
	}
	return tokens[phrase]
}

func containsPhrase(lower string, tokens map[string]bool, phrases []string) bool {
	for _, p := range phrases {
		if matchPhrase(lower, tokens, p) {
			return true
		}
	}
	return false
}

// RegisterLexicon registers the lexicon fallback provider with the registry
func RegisterLexicon(registry *ProviderRegistry) {
	registry.Register("lexicon", func(_ map[string]string) (Analyzer, error) {
		return NewLexiconAnalyzer(), nil
	})
}
