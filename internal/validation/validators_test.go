package validation

import (
	"strings"
	"testing"
)

func TestValidateDifficulty(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"beginner", "intermediate", "advanced"} {
		if err := ValidateDifficulty(valid); err != nil {
			t.Errorf("ValidateDifficulty(%q) = %v, want nil", valid, err)
		}
	}

	for _, invalid := range []string{"", "expert", "Beginner"} {
		if err := ValidateDifficulty(invalid); err == nil {
			t.Errorf("ValidateDifficulty(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateCourseFormat(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"video", "interactive", "reading", "mixed"} {
		if err := ValidateCourseFormat(valid); err != nil {
			t.Errorf("ValidateCourseFormat(%q) = %v, want nil", valid, err)
		}
	}

	if err := ValidateCourseFormat("podcast"); err == nil {
		t.Error("ValidateCourseFormat(\"podcast\") = nil, want error")
	}
}

func TestValidateTimeframe(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"day", "week", "month"} {
		if err := ValidateTimeframe(valid); err != nil {
			t.Errorf("ValidateTimeframe(%q) = %v, want nil", valid, err)
		}
	}

	if err := ValidateTimeframe("year"); err == nil {
		t.Error("ValidateTimeframe(\"year\") = nil, want error")
	}
	if err := ValidateTimeframe("year"); err != nil && !strings.Contains(err.Error(), "invalid timeframe") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trims whitespace",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "strips control characters",
			input: "hello\x00world\x07",
			want:  "helloworld",
		},
		{
			name:  "keeps newlines and tabs",
			input: "line one\n\tline two",
			want:  "line one\n\tline two",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateStructTags(t *testing.T) {
	t.Parallel()

	type request struct {
		Difficulty string `validate:"omitempty,difficulty"`
		Format     string `validate:"omitempty,course_format"`
		Rating     string `validate:"omitempty,feedback_rating"`
	}

	if err := Validate.Struct(request{Difficulty: "beginner", Format: "video", Rating: "positive"}); err != nil {
		t.Errorf("Expected valid struct, got %v", err)
	}
	if err := Validate.Struct(request{}); err != nil {
		t.Errorf("Expected empty fields skipped, got %v", err)
	}
	if err := Validate.Struct(request{Difficulty: "impossible"}); err == nil {
		t.Error("Expected an error for an unknown difficulty")
	}
	if err := Validate.Struct(request{Rating: "meh"}); err == nil {
		t.Error("Expected an error for an unknown feedback rating")
	}
}
