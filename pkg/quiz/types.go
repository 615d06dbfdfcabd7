// Package quiz serves lesson quizzes and scores submissions.
package quiz

import "errors"

var (
	// ErrQuizNotFound is returned when the lesson has no quiz.
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrNoAccess is returned when the user has not purchased the course.
	ErrNoAccess = errors.New("course not purchased")
)

// Answer is one selectable answer. Correctness is never exposed here.
type Answer struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Question is one quiz question with its answers.
type Question struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	OrderIndex int      `json:"orderIndex"`
	Answers    []Answer `json:"answers"`
}

// Quiz is a lesson's quiz as shown to the student.
type Quiz struct {
	ID        int64      `json:"id"`
	LessonID  int64      `json:"lessonId"`
	Title     string     `json:"title"`
	PassScore int        `json:"passScore"`
	Questions []Question `json:"questions"`
}

// Submission maps question IDs to the chosen answer IDs.
type Submission struct {
	Answers map[int64]int64 `json:"answers"`
}

// QuestionResult is the per-question verdict of a submission.
type QuestionResult struct {
	QuestionID      int64 `json:"questionId"`
	Correct         bool  `json:"correct"`
	CorrectAnswerID int64 `json:"correctAnswerId"`
}

// Result is the outcome of a scored submission.
type Result struct {
	Score          int              `json:"score"`
	Passed         bool             `json:"passed"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	Results        []QuestionResult `json:"results"`
}
