package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
	"github.com/oncoursesbros-sketch/oncourse/pkg/storage"
)

// RegisterInput holds the fields required to create an account.
type RegisterInput struct {
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Login     string `json:"login"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Validate checks required fields and basic shape.
func (in *RegisterInput) Validate() error {
	if in.Phone == "" || in.Email == "" || in.Login == "" || in.Password == "" {
		return NewValidationError("phone, email, login and password are required")
	}
	if len(in.Password) < 6 {
		return NewValidationError("password must be at least 6 characters")
	}
	if !strings.Contains(in.Email, "@") {
		return NewValidationError("email is invalid")
	}
	return nil
}

// Service implements registration and login against the users table.
type Service struct {
	db     *sql.DB
	hasher *Hasher
	tokens *TokenIssuer
	logger *observability.Logger
}

// NewService creates an auth Service.
func NewService(db *sql.DB, hasher *Hasher, tokens *TokenIssuer, logger *observability.Logger) *Service {
	return &Service{db: db, hasher: hasher, tokens: tokens, logger: logger}
}

const userColumns = "id, phone, email, login, first_name, last_name, avatar_url, role, created_at"

func scanUser(row *sql.Row) (*SecurityContext, error) {
	var sc SecurityContext
	err := row.Scan(&sc.ID, &sc.Phone, &sc.Email, &sc.Login, &sc.FirstName,
		&sc.LastName, &sc.AvatarURL, &sc.Role, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &sc, nil
}

// Register creates a new account and returns it with a fresh bearer token.
// Phone, email and login must each be unused.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*SecurityContext, string, error) {
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1 OR email = $2 OR login = $3)",
		in.Phone, in.Email, in.Login).Scan(&exists)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, "", ErrDuplicateUser
	}

	hash, err := s.hasher.HashSecret(in.Password)
	if err != nil {
		return nil, "", err
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (phone, email, login, password_hash, first_name, last_name, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		in.Phone, in.Email, in.Login, hash, in.FirstName, in.LastName, RoleStudent)

	user, err := scanUser(row)
	if err != nil {
		// A concurrent registration can win the race between the
		// existence check and the insert.
		if storage.IsUniqueViolation(err) {
			return nil, "", ErrDuplicateUser
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, token, nil
}

// Login authenticates by phone, email or login and returns the account
// with a fresh bearer token. Unknown identifiers and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, identifier, password string) (*SecurityContext, string, error) {
	if identifier == "" || password == "" {
		return nil, "", NewValidationError("identifier and password are required")
	}

	var (
		sc   SecurityContext
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users
		 WHERE phone = $1 OR email = $1 OR login = $1`,
		identifier).Scan(&sc.ID, &sc.Phone, &sc.Email, &sc.Login, &sc.FirstName,
		&sc.LastName, &sc.AvatarURL, &sc.Role, &sc.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.VerifySecret(hash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(sc.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithField("user_id", sc.ID).Info("user logged in")
	return &sc, token, nil
}
