package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

var (
	// ErrCourseNotFound is returned when the course does not exist or
	// is not published.
	ErrCourseNotFound = errors.New("course not found")

	// ErrAlreadyPurchased is returned on a repeat purchase.
	ErrAlreadyPurchased = errors.New("course already purchased")

	// ErrPaymentFailed is returned when the processor declines.
	ErrPaymentFailed = errors.New("payment failed")
)

// Purchase is one completed or attempted payment.
type Purchase struct {
	ID            int64     `json:"id"`
	CourseID      int64     `json:"courseId"`
	CourseTitle   string    `json:"courseTitle"`
	Amount        float64   `json:"amount"`
	PaymentStatus string    `json:"paymentStatus"`
	PaymentID     *string   `json:"paymentId"`
	PurchasedAt   time.Time `json:"purchasedAt"`
}

// Service runs the purchase flow over the purchases table.
type Service struct {
	db        *sql.DB
	processor Processor
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewService creates a payments Service.
func NewService(db *sql.DB, processor Processor, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{db: db, processor: processor, logger: logger, metrics: metrics}
}

// Pay purchases the course for the user: a pending purchase row is
// written first, then the processor runs, then the row is marked
// completed and the course leaves the cart. A declined charge leaves a
// failed row behind.
func (s *Service) Pay(ctx context.Context, userID, courseID int64) (*Purchase, error) {
	var (
		price     float64
		title     string
		published bool
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT price, title, is_published FROM courses WHERE id = $1",
		courseID).Scan(&price, &title, &published)
	if err == sql.ErrNoRows {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if !published {
		return nil, ErrCourseNotFound
	}

	var purchased bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases
		 WHERE user_id = $1 AND course_id = $2 AND payment_status = 'completed')`,
		userID, courseID).Scan(&purchased)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase: %w", err)
	}
	if purchased {
		return nil, ErrAlreadyPurchased
	}

	var purchaseID int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO purchases (user_id, course_id, amount, payment_status)
		 VALUES ($1, $2, $3, 'pending') RETURNING id`,
		userID, courseID, price).Scan(&purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	paymentID, err := s.processor.Charge(ctx, price)
	if err != nil {
		if _, markErr := s.db.ExecContext(ctx,
			"UPDATE purchases SET payment_status = 'failed' WHERE id = $1",
			purchaseID); markErr != nil {
			s.logger.WithError(markErr).Error("failed to mark purchase failed")
		}
		s.logger.WithError(err).WithField("purchase_id", purchaseID).Warn("payment declined")
		return nil, ErrPaymentFailed
	}

	var purchase Purchase
	err = s.db.QueryRowContext(ctx,
		`UPDATE purchases SET payment_status = 'completed', payment_id = $1
		 WHERE id = $2
		 RETURNING id, course_id, amount, payment_status, payment_id, purchased_at`,
		paymentID, purchaseID).Scan(&purchase.ID, &purchase.CourseID,
		&purchase.Amount, &purchase.PaymentStatus, &purchase.PaymentID, &purchase.PurchasedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to complete purchase: %w", err)
	}
	purchase.CourseTitle = title

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2",
		userID, courseID); err != nil {
		s.logger.WithError(err).Warn("failed to remove purchased course from cart")
	}

	s.metrics.PurchasesTotal.Inc()
	s.logger.WithFields(map[string]interface{}{
		"user_id":     userID,
		"course_id":   courseID,
		"purchase_id": purchase.ID,
	}).Info("purchase completed")

	return &purchase, nil
}

// History returns the user's purchases, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]Purchase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.course_id, c.title, p.amount, p.payment_status,
		        p.payment_id, p.purchased_at
		 FROM purchases p
		 JOIN courses c ON c.id = p.course_id
		 WHERE p.user_id = $1
		 ORDER BY p.purchased_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	defer rows.Close()

	history := []Purchase{}
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.CourseID, &p.CourseTitle, &p.Amount,
			&p.PaymentStatus, &p.PaymentID, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	return history, nil
}
