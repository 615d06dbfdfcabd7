// Package cart implements the per-user shopping cart.
package cart

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

	// ErrAlreadyPurchased is returned when the user already owns the course.
	ErrAlreadyPurchased = errors.New("course already purchased")
)

// Item is one course in the cart.
type Item struct {
	CourseID     int64     `json:"courseId"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	AddedAt      time.Time `json:"addedAt"`
}

// Cart is the full cart with its total.
type Cart struct {
	Items []Item  `json:"items"`
	Total float64 `json:"total"`
}

// Service reads and mutates cart_items.
type Service struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewService creates a cart Service.
func NewService(db *sql.DB, logger *observability.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Get returns the user's cart.
func (s *Service) Get(ctx context.Context, userID int64) (*Cart, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.price, c.thumbnail_url, ci.added_at
		 FROM cart_items ci
		 JOIN courses c ON c.id = ci.course_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	defer rows.Close()

	cart := &Cart{Items: []Item{}}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.CourseID, &item.Title, &item.Price,
			&item.ThumbnailURL, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
		cart.Total += item.Price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return cart, nil
}

// Add puts a course in the cart. Adding a course that is already there
// is a no-op.
func (s *Service) Add(ctx context.Context, userID, courseID int64) error {
	var published bool
	err := s.db.QueryRowContext(ctx,
		"SELECT is_published FROM courses WHERE id = $1", courseID).Scan(&published)
	if err == sql.ErrNoRows || (err == nil && !published) {
		return ErrCourseNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check course: %w", err)
	}

	var purchased bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases
		 WHERE user_id = $1 AND course_id = $2 AND payment_status = 'completed')`,
		userID, courseID).Scan(&purchased)
	if err != nil {
		return fmt.Errorf("failed to check purchase: %w", err)
	}
	if purchased {
		return ErrAlreadyPurchased
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, course_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

// Remove drops a course from the cart.
func (s *Service) Remove(ctx context.Context, userID, courseID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2",
		userID, courseID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
