package models

import (
	"regexp"
	"strings"
	"time"
)

// Difficulty represents how advanced a course is
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// CourseFormat represents the primary delivery format of a course
type CourseFormat string

const (
	FormatVideo       CourseFormat = "video"
	FormatInteractive CourseFormat = "interactive"
	FormatReading     CourseFormat = "reading"
	FormatMixed       CourseFormat = "mixed"
)

// Provider is the organization offering a course
type Provider struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Instructor teaches one or more courses
type Instructor struct {
	Name  string `json:"name"`
	Bio   string `json:"bio,omitempty"`
	Photo string `json:"photo,omitempty"`
}

// Duration describes the time investment of a course
type Duration struct {
	Hours float64 `json:"hours"`
	Weeks float64 `json:"weeks"`
}

// Pricing describes the commercial terms of a course
type Pricing struct {
	IsFree           bool    `json:"is_free"`
	Price            float64 `json:"price,omitempty"`
	Currency         string  `json:"currency"`
	HasCertificate   bool    `json:"has_certificate"`
	CertificatePrice float64 `json:"certificate_price,omitempty"`
}

// Ratings aggregates learner ratings of a course
type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Popularity aggregates engagement counters for a course
type Popularity struct {
	Views       int `json:"views"`
	Enrollments int `json:"enrollments"`
	Completions int `json:"completions"`
	Bookmarks   int `json:"bookmarks"`
}

// SyllabusSection is one section of a course syllabus
type SyllabusSection struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Duration    string           `json:"duration,omitempty"`
	Modules     []SyllabusModule `json:"modules,omitempty"`
}

// SyllabusModule is one module within a syllabus section
type SyllabusModule struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// RelatedCourse links a course to a similar one
type RelatedCourse struct {
	CourseID        string  `json:"course_id"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Course represents a course in the catalog
type Course struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description,omitempty"`
	Thumbnail        string            `json:"thumbnail,omitempty"`
	PreviewVideo     string            `json:"preview_video,omitempty"`
	Provider         Provider          `json:"provider"`
	Instructors      []Instructor      `json:"instructors,omitempty"`
	Duration         Duration          `json:"duration"`
	Difficulty       Difficulty        `json:"difficulty"`
	Format           CourseFormat      `json:"format"`
	Topics           []string          `json:"topics"`
	Skills           []string          `json:"skills,omitempty"`
	Prerequisites    []string          `json:"prerequisites,omitempty"`
	Syllabus         []SyllabusSection `json:"syllabus,omitempty"`
	Pricing          Pricing           `json:"pricing"`
	URL              string            `json:"url"`
	Ratings          Ratings           `json:"ratings"`
	Popularity       Popularity        `json:"popularity"`
	RelatedCourses   []RelatedCourse   `json:"related_courses,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

var nonSlugChars = regexp.MustCompile(`[^\w ]+`)

// Slugify derives a URL slug from a course title.
func Slugify(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "")
	return strings.Join(strings.Fields(slug), "-")
}

// ValidDifficulty reports whether the value is a known difficulty level.
func ValidDifficulty(v string) bool {
	switch Difficulty(v) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ValidCourseFormat reports whether the value is a known course format.
func ValidCourseFormat(v string) bool {
	switch CourseFormat(v) {
	case FormatVideo, FormatInteractive, FormatReading, FormatMixed:
		return true
	}
	return false
}
