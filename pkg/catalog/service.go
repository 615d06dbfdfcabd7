package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
)

// Service reads published courses and their lessons.
type Service struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewService creates a catalog Service.
func NewService(db *sql.DB, logger *observability.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// List returns one page of published courses. userID 0 means anonymous
// and leaves every isPurchased flag false.
func (s *Service) List(ctx context.Context, userID int64, page, limit int) (*CourseListing, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM courses WHERE is_published = TRUE").Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.description, c.price, c.thumbnail_url,
		        COALESCE(u.first_name || ' ' || u.last_name, ''),
		        (SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id),
		        EXISTS(SELECT 1 FROM purchases p
		               WHERE p.course_id = c.id AND p.user_id = $1
		                 AND p.payment_status = 'completed')
		 FROM courses c
		 LEFT JOIN users u ON u.id = c.instructor_id
		 WHERE c.is_published = TRUE
		 ORDER BY c.created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	courses := []CourseSummary{}
	for rows.Next() {
		var c CourseSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.ThumbnailURL,
			&c.InstructorName, &c.LessonCount, &c.IsPurchased); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return &CourseListing{
		Courses: courses,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

// Detail returns one published course with its ordered lessons.
// hasAccess reflects whether the user completed a purchase.
func (s *Service) Detail(ctx context.Context, userID, courseID int64) (*CourseDetail, error) {
	var d CourseDetail
	err := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.title, c.description, c.price, c.thumbnail_url,
		        COALESCE(u.first_name || ' ' || u.last_name, ''), c.created_at,
		        EXISTS(SELECT 1 FROM purchases p
		               WHERE p.course_id = c.id AND p.user_id = $1
		                 AND p.payment_status = 'completed')
		 FROM courses c
		 LEFT JOIN users u ON u.id = c.instructor_id
		 WHERE c.id = $2 AND c.is_published = TRUE`,
		userID, courseID).Scan(&d.ID, &d.Title, &d.Description, &d.Price,
		&d.ThumbnailURL, &d.InstructorName, &d.CreatedAt, &d.HasAccess)
	if err == sql.ErrNoRows {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.title, l.order_index, l.video_url,
		        EXISTS(SELECT 1 FROM quizzes q WHERE q.lesson_id = l.id)
		 FROM lessons l
		 WHERE l.course_id = $1
		 ORDER BY l.order_index ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lessons: %w", err)
	}
	defer rows.Close()

	d.Lessons = []Lesson{}
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.OrderIndex, &l.VideoURL, &l.HasQuiz); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		d.Lessons = append(d.Lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lessons: %w", err)
	}

	return &d, nil
}

// MyCourses returns the user's completed purchases with a progress
// percentage: lessons whose quiz the user has passed over total lessons.
func (s *Service) MyCourses(ctx context.Context, userID int64) ([]PurchasedCourse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.thumbnail_url, p.purchased_at,
		        (SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id),
		        (SELECT COUNT(DISTINCT q.lesson_id)
		         FROM quiz_attempts qa
		         JOIN quizzes q ON q.id = qa.quiz_id
		         JOIN lessons l ON l.id = q.lesson_id
		         WHERE qa.user_id = p.user_id AND qa.passed = TRUE
		           AND l.course_id = c.id)
		 FROM purchases p
		 JOIN courses c ON c.id = p.course_id
		 WHERE p.user_id = $1 AND p.payment_status = 'completed'
		 ORDER BY p.purchased_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchased courses: %w", err)
	}
	defer rows.Close()

	courses := []PurchasedCourse{}
	for rows.Next() {
		var (
			c      PurchasedCourse
			passed int
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.ThumbnailURL, &c.PurchasedAt,
			&c.LessonCount, &passed); err != nil {
			return nil, fmt.Errorf("failed to scan purchased course: %w", err)
		}
		if c.LessonCount > 0 {
			c.Progress = int(math.Round(float64(passed) / float64(c.LessonCount) * 100))
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchased courses: %w", err)
	}

	return courses, nil
}
