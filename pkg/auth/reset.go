package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(to, link string) error
}

// ResetService implements the password reset lifecycle. Tokens are
// random 32-byte values handed to the user once; only their bcrypt
// hashes are stored.
type ResetService struct {
	db        *sql.DB
	hasher    *Hasher
	mailer    ResetMailer
	logger    *observability.Logger
	clientURL string
	lifetime  time.Duration
}

// NewResetService creates a ResetService.
func NewResetService(db *sql.DB, hasher *Hasher, mailer ResetMailer, logger *observability.Logger, clientURL string, lifetime time.Duration) *ResetService {
	return &ResetService{
		db:        db,
		hasher:    hasher,
		mailer:    mailer,
		logger:    logger,
		clientURL: clientURL,
		lifetime:  lifetime,
	}
}

// generateResetToken returns a URL-safe random token.
func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RequestReset issues a reset token for the account behind the email and
// mails a reset link. Whether the email exists is never revealed; an
// unknown email is a silent no-op. Replacing any previous token and
// inserting the new one happen in one transaction.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	var userID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	if err == sql.ErrNoRows {
		s.logger.WithField("email", email).Debug("reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}
	tokenHash, err := s.hasher.HashSecret(token)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM password_resets WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear previous tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO password_resets (user_id, token_hash, expires_at) VALUES ($1, $2, $3)",
		userID, tokenHash, time.Now().Add(s.lifetime)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password/%s", s.clientURL, token)
	if err := s.mailer.SendPasswordReset(email, link); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.WithField("user_id", userID).Info("password reset requested")
	return nil
}

// findByToken scans unexpired tokens for one whose hash matches. Token
// hashes are salted so a direct lookup is impossible; the table only
// ever holds one live row per user.
func findByToken(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}, hasher *Hasher, token string, forUpdate bool) (id, userID int64, err error) {
	query := "SELECT id, user_id, token_hash FROM password_resets WHERE expires_at > $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	rows, err := q.QueryContext(ctx, query, time.Now())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query reset tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&id, &userID, &hash); err != nil {
			return 0, 0, fmt.Errorf("failed to scan reset token: %w", err)
		}
		if hasher.VerifySecret(hash, token) {
			return id, userID, nil
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to iterate reset tokens: %w", err)
	}
	return 0, 0, ErrResetTokenInvalid
}

// ConsumeReset sets a new password for the token's user and burns the
// token. Locating the row, updating the password and deleting the token
// happen in one transaction so a token can only be spent once.
func (s *ResetService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return NewValidationError("password must be at least 6 characters")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	resetID, userID, err := findByToken(ctx, tx, s.hasher, token, true)
	if err != nil {
		return err
	}

	passwordHash, err := s.hasher.HashSecret(newPassword)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM password_resets WHERE id = $1", resetID); err != nil {
		return fmt.Errorf("failed to burn reset token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit password reset: %w", err)
	}

	s.logger.WithField("user_id", userID).Info("password reset completed")
	return nil
}

// VerifyResetToken reports whether the token is live without consuming it.
func (s *ResetService) VerifyResetToken(ctx context.Context, token string) error {
	_, _, err := findByToken(ctx, s.db, s.hasher, token, false)
	return err
}

// SweepExpired deletes expired reset tokens and returns how many were removed.
func (s *ResetService) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM password_resets WHERE expires_at <= $1", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept tokens: %w", err)
	}
	return n, nil
}
