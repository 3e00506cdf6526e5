package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/courseflix/courseflix-api/internal/recommendation"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("difficulty", validateDifficulty); err != nil {
		panic(fmt.Sprintf("failed to register difficulty validator: %v", err))
	}
	if err := Validate.RegisterValidation("course_format", validateCourseFormat); err != nil {
		panic(fmt.Sprintf("failed to register course_format validator: %v", err))
	}
	if err := Validate.RegisterValidation("timeframe", validateTimeframe); err != nil {
		panic(fmt.Sprintf("failed to register timeframe validator: %v", err))
	}
	if err := Validate.RegisterValidation("feedback_rating", validateFeedbackRating); err != nil {
		panic(fmt.Sprintf("failed to register feedback_rating validator: %v", err))
	}
}

// validateDifficulty validates that a string is a valid Difficulty enum value
func validateDifficulty(fl validator.FieldLevel) bool {
	return models.ValidDifficulty(fl.Field().String())
}

// validateCourseFormat validates that a string is a valid CourseFormat enum value
func validateCourseFormat(fl validator.FieldLevel) bool {
	return models.ValidCourseFormat(fl.Field().String())
}

// validateTimeframe validates that a string is a valid trending Timeframe
func validateTimeframe(fl validator.FieldLevel) bool {
	return recommendation.ValidTimeframe(fl.Field().String())
}

// validateFeedbackRating validates that a string is a valid FeedbackRating
func validateFeedbackRating(fl validator.FieldLevel) bool {
	switch models.FeedbackRating(fl.Field().String()) {
	case models.FeedbackPositive, models.FeedbackNegative, models.FeedbackNeutral:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateDifficulty validates a Difficulty string value
func ValidateDifficulty(value string) error {
	if models.ValidDifficulty(value) {
		return nil
	}
	return fmt.Errorf("invalid difficulty: %s (must be 'beginner', 'intermediate', or 'advanced')", value)
}

// ValidateCourseFormat validates a CourseFormat string value
func ValidateCourseFormat(value string) error {
	if models.ValidCourseFormat(value) {
		return nil
	}
	return fmt.Errorf("invalid format: %s (must be 'video', 'interactive', 'reading', or 'mixed')", value)
}

// ValidateTimeframe validates a trending Timeframe string value
func ValidateTimeframe(value string) error {
	if recommendation.ValidTimeframe(value) {
		return nil
	}
	return fmt.Errorf("invalid timeframe: %s (must be 'day', 'week', or 'month')", value)
}
