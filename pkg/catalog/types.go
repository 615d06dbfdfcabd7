// Package catalog serves the public course listing and per-course detail.
package catalog

import (
	"errors"
	"time"
)

// ErrCourseNotFound is returned for unknown or unpublished courses.
var ErrCourseNotFound = errors.New("course not found")

// CourseSummary is one row of the public course listing.
type CourseSummary struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	ThumbnailURL   *string `json:"thumbnailUrl"`
	InstructorName string  `json:"instructorName"`
	LessonCount    int     `json:"lessonCount"`
	IsPurchased    bool    `json:"isPurchased"`
}

// Lesson is one lesson inside a course detail.
type Lesson struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	OrderIndex int     `json:"orderIndex"`
	VideoURL   *string `json:"videoUrl"`
	HasQuiz    bool    `json:"hasQuiz"`
}

// CourseDetail is the full view of one course.
type CourseDetail struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	ThumbnailURL   *string   `json:"thumbnailUrl"`
	InstructorName string    `json:"instructorName"`
	CreatedAt      time.Time `json:"createdAt"`
	Lessons        []Lesson  `json:"lessons"`
	HasAccess      bool      `json:"hasAccess"`
}

// PurchasedCourse is one course in the my-courses listing.
type PurchasedCourse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	PurchasedAt  time.Time `json:"purchasedAt"`
	LessonCount  int       `json:"lessonCount"`
	Progress     int       `json:"progress"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// CourseListing is the paginated listing envelope.
type CourseListing struct {
	Courses    []CourseSummary `json:"courses"`
	Pagination Pagination      `json:"pagination"`
}
