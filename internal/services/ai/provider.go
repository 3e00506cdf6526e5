package ai

import (
	"github.com/courseflix/courseflix-api/internal/conversation"
)

// Analyzer produces the language signals the conversation pipeline consumes:
// an intent label, extracted entity values, and a message sentiment.
type Analyzer interface {
	conversation.IntentClassifier
	conversation.EntityExtractor
	conversation.SentimentAnalyzer
}

// ProviderFactory creates an analyzer from provider configuration
type ProviderFactory func(config map[string]string) (Analyzer, error)

// ProviderRegistry stores available analyzer providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Analyzer, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
