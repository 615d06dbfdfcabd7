// Package users is the user directory: lookups by ID and identifier,
// plus profile maintenance.
package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/oncoursesbros-sketch/oncourse/pkg/auth"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

const userColumns = "id, phone, email, login, first_name, last_name, avatar_url, role, created_at"

// Service reads and updates accounts in the users table.
type Service struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewService creates a user directory Service.
func NewService(db *sql.DB, logger *observability.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func scanUser(row *sql.Row) (*auth.SecurityContext, error) {
	var sc auth.SecurityContext
	err := row.Scan(&sc.ID, &sc.Phone, &sc.Email, &sc.Login, &sc.FirstName,
		&sc.LastName, &sc.AvatarURL, &sc.Role, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &sc, nil
}

// FindByID loads the public projection of a user. The password hash
// never leaves this package.
func (s *Service) FindByID(ctx context.Context, id int64) (*auth.SecurityContext, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// FindByIdentifier looks a user up by phone, email or login.
func (s *Service) FindByIdentifier(ctx context.Context, identifier string) (*auth.SecurityContext, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone = $1 OR email = $1 OR login = $1",
		identifier)
	return scanUser(row)
}

// ProfileUpdate holds the editable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// UpdateProfile applies the non-nil fields and returns the refreshed user.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*auth.SecurityContext, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("first_name", update.FirstName)
	add("last_name", update.LastName)
	add("email", update.Email)
	add("phone", update.Phone)

	if len(sets) == 0 {
		return s.FindByID(ctx, userID)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", userID).Info("profile updated")
	return user, nil
}

// UpdateAvatar stores the avatar URL for the user.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) (*auth.SecurityContext, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2 RETURNING "+userColumns,
		avatarURL, userID)
	return scanUser(row)
}
