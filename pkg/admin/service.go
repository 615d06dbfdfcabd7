// Package admin serves the administrative listings.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oncoursesbros-sketch/oncourse/pkg/auth"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// PurchaseRecord is one purchase in the admin listing, joined with the
// buyer and the course.
type PurchaseRecord struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	UserLogin     string    `json:"userLogin"`
	CourseID      int64     `json:"courseId"`
	CourseTitle   string    `json:"courseTitle"`
	Amount        float64   `json:"amount"`
	PaymentStatus string    `json:"paymentStatus"`
	PurchasedAt   time.Time `json:"purchasedAt"`
}

// Service reads the admin listings.
type Service struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewService creates an admin Service.
func NewService(db *sql.DB, logger *observability.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]auth.SecurityContext, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phone, email, login, first_name, last_name, avatar_url, role, created_at
		 FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []auth.SecurityContext{}
	for rows.Next() {
		var u auth.SecurityContext
		if err := rows.Scan(&u.ID, &u.Phone, &u.Email, &u.Login, &u.FirstName,
			&u.LastName, &u.AvatarURL, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// ListPurchases returns every purchase, newest first.
func (s *Service) ListPurchases(ctx context.Context) ([]PurchaseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, u.login, p.course_id, c.title, p.amount,
		        p.payment_status, p.purchased_at
		 FROM purchases p
		 JOIN users u ON u.id = p.user_id
		 JOIN courses c ON c.id = p.course_id
		 ORDER BY p.purchased_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []PurchaseRecord{}
	for rows.Next() {
		var p PurchaseRecord
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserLogin, &p.CourseID,
			&p.CourseTitle, &p.Amount, &p.PaymentStatus, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	return purchases, nil
}
