package conversation

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentGreeting            Intent = "greeting"
	IntentCourseSearch        Intent = "course_search"
	IntentPreferenceStatement Intent = "preference_statement"
	IntentClarification       Intent = "clarification"
	IntentFeedback            Intent = "feedback"
	IntentFarewell            Intent = "farewell"
	IntentUnknown             Intent = "unknown"
)

// Sentiment is a coarse polarity signal attached to user messages in history.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)
