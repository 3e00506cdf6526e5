package models

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Python for Everybody", "python-for-everybody"},
		{"Machine Learning A-Z: Hands-On!", "machine-learning-az-handson"},
		{"  Spaced   Out  ", "spaced-out"},
		{"C++ Fundamentals", "c-fundamentals"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestValidDifficulty(t *testing.T) {
	t.Parallel()

	if !ValidDifficulty("beginner") || !ValidDifficulty("advanced") {
		t.Error("Expected known difficulty values accepted")
	}
	if ValidDifficulty("ninja") || ValidDifficulty("") {
		t.Error("Expected unknown difficulty values rejected")
	}
}
