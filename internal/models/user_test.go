package models

import (
	"testing"
	"time"
)

func TestIncompleteEnrollments(t *testing.T) {
	t.Parallel()

	now := time.Now()
	user := &User{
		ID: "u1",
		CourseInteractions: CourseInteractions{
			Enrolled: []Enrollment{
				{CourseID: "finished", Progress: 100, Completed: true, LastAccessed: now},
				{CourseID: "untouched", Progress: 0, LastAccessed: now.Add(-24 * time.Hour)},
				{CourseID: "stale", Progress: 40, LastAccessed: now.Add(-72 * time.Hour)},
				{CourseID: "active", Progress: 75, LastAccessed: now.Add(-time.Hour)},
			},
		},
	}

	incomplete := user.IncompleteEnrollments()

	if len(incomplete) != 3 {
		t.Fatalf("Expected 3 incomplete enrollments, got %d", len(incomplete))
	}
	want := []string{"active", "untouched", "stale"}
	for i, courseID := range want {
		if incomplete[i].CourseID != courseID {
			t.Errorf("Expected %s at position %d, got %s", courseID, i, incomplete[i].CourseID)
		}
	}
}

func TestIncompleteEnrollments_Empty(t *testing.T) {
	t.Parallel()

	user := &User{ID: "u1"}
	if got := user.IncompleteEnrollments(); len(got) != 0 {
		t.Errorf("Expected no enrollments, got %d", len(got))
	}
}
