package quiz

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Service loads quizzes and scores submissions.
type Service struct {
	db      *sql.DB
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates a quiz Service.
func NewService(db *sql.DB, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{db: db, logger: logger, metrics: metrics}
}

// checkAccess verifies the user purchased the course the lesson belongs to.
func (s *Service) checkAccess(ctx context.Context, userID, lessonID int64) error {
	var hasAccess bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases p
		 JOIN lessons l ON l.course_id = p.course_id
		 WHERE l.id = $1 AND p.user_id = $2 AND p.payment_status = 'completed')`,
		lessonID, userID).Scan(&hasAccess)
	if err != nil {
		return fmt.Errorf("failed to check access: %w", err)
	}
	if !hasAccess {
		return ErrNoAccess
	}
	return nil
}

// Get returns the lesson's quiz with questions and answers. Correct
// answers are not marked.
func (s *Service) Get(ctx context.Context, userID, lessonID int64) (*Quiz, error) {
	if err := s.checkAccess(ctx, userID, lessonID); err != nil {
		return nil, err
	}

	var q Quiz
	err := s.db.QueryRowContext(ctx,
		"SELECT id, lesson_id, title, pass_score FROM quizzes WHERE lesson_id = $1",
		lessonID).Scan(&q.ID, &q.LessonID, &q.Title, &q.PassScore)
	if err == sql.ErrNoRows {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.question_text, q.order_index, a.id, a.answer_text
		 FROM questions q
		 JOIN answers a ON a.question_id = q.id
		 WHERE q.quiz_id = $1
		 ORDER BY q.order_index ASC, a.id ASC`, q.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	defer rows.Close()

	q.Questions = []Question{}
	byID := map[int64]int{}
	for rows.Next() {
		var (
			questionID   int64
			questionText string
			orderIndex   int
			answer       Answer
		)
		if err := rows.Scan(&questionID, &questionText, &orderIndex, &answer.ID, &answer.Text); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		idx, ok := byID[questionID]
		if !ok {
			q.Questions = append(q.Questions, Question{
				ID:         questionID,
				Text:       questionText,
				OrderIndex: orderIndex,
			})
			idx = len(q.Questions) - 1
			byID[questionID] = idx
		}
		q.Questions[idx].Answers = append(q.Questions[idx].Answers, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	return &q, nil
}

// Submit scores the submission against the correct-answer map, records
// the attempt and returns the per-question breakdown. The score is the
// rounded percentage of correct answers; passing means reaching the
// quiz's pass score.
func (s *Service) Submit(ctx context.Context, userID, lessonID int64, submission Submission) (*Result, error) {
	if err := s.checkAccess(ctx, userID, lessonID); err != nil {
		return nil, err
	}

	var (
		quizID    int64
		passScore int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, pass_score FROM quizzes WHERE lesson_id = $1",
		lessonID).Scan(&quizID, &passScore)
	if err == sql.ErrNoRows {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, a.id
		 FROM questions q
		 JOIN answers a ON a.question_id = q.id AND a.is_correct = TRUE
		 WHERE q.quiz_id = $1
		 ORDER BY q.order_index ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load correct answers: %w", err)
	}
	defer rows.Close()

	type correctAnswer struct {
		questionID int64
		answerID   int64
	}
	correct := []correctAnswer{}
	for rows.Next() {
		var ca correctAnswer
		if err := rows.Scan(&ca.questionID, &ca.answerID); err != nil {
			return nil, fmt.Errorf("failed to scan correct answer: %w", err)
		}
		correct = append(correct, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate correct answers: %w", err)
	}
	if len(correct) == 0 {
		return nil, ErrQuizNotFound
	}

	result := &Result{
		TotalQuestions: len(correct),
		Results:        make([]QuestionResult, 0, len(correct)),
	}
	for _, ca := range correct {
		ok := submission.Answers[ca.questionID] == ca.answerID
		if ok {
			result.CorrectCount++
		}
		result.Results = append(result.Results, QuestionResult{
			QuestionID:      ca.questionID,
			Correct:         ok,
			CorrectAnswerID: ca.answerID,
		})
	}
	result.Score = int(math.Round(float64(result.CorrectCount) / float64(result.TotalQuestions) * 100))
	result.Passed = result.Score >= passScore

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (user_id, quiz_id, score, passed)
		 VALUES ($1, $2, $3, $4)`,
		userID, quizID, result.Score, result.Passed); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	outcome := "failed"
	if result.Passed {
		outcome = "passed"
	}
	s.metrics.QuizAttemptsTotal.WithLabelValues(outcome).Inc()
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"quiz_id": quizID,
		"score":   result.Score,
	}).Info("quiz attempt recorded")

	return result, nil
}
