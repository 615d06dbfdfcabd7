// Package progress aggregates a student's learning progress.
package progress

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// ActiveCourse is one purchased course with its completion percentage.
type ActiveCourse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Progress int    `json:"progress"`
}

// Summary is the aggregate progress view.
type Summary struct {
	CoursesPurchased int            `json:"coursesPurchased"`
	LessonsAvailable int            `json:"lessonsAvailable"`
	QuizzesPassed    int            `json:"quizzesPassed"`
	Courses          []ActiveCourse `json:"courses"`
}

// Service aggregates progress from purchases and quiz attempts.
type Service struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewService creates a progress Service.
func NewService(db *sql.DB, logger *observability.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Summary returns the user's aggregate progress and per-course breakdown.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	var summary Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM purchases
		    WHERE user_id = $1 AND payment_status = 'completed'),
		   (SELECT COUNT(*) FROM lessons l
		    JOIN purchases p ON p.course_id = l.course_id
		    WHERE p.user_id = $1 AND p.payment_status = 'completed'),
		   (SELECT COUNT(DISTINCT quiz_id) FROM quiz_attempts
		    WHERE user_id = $1 AND passed = TRUE)`,
		userID).Scan(&summary.CoursesPurchased, &summary.LessonsAvailable, &summary.QuizzesPassed)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate progress: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title,
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
		return nil, fmt.Errorf("failed to list active courses: %w", err)
	}
	defer rows.Close()

	summary.Courses = []ActiveCourse{}
	for rows.Next() {
		var (
			course  ActiveCourse
			lessons int
			passed  int
		)
		if err := rows.Scan(&course.ID, &course.Title, &lessons, &passed); err != nil {
			return nil, fmt.Errorf("failed to scan active course: %w", err)
		}
		if lessons > 0 {
			course.Progress = int(math.Round(float64(passed) / float64(lessons) * 100))
		}
		summary.Courses = append(summary.Courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active courses: %w", err)
	}

	return &summary, nil
}
