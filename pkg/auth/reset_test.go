package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to   string
	link string
	sent int
}

func (m *fakeMailer) SendPasswordReset(to, link string) error {
	m.to = to
	m.link = link
	m.sent++
	return nil
}

func testResetService(t *testing.T) (*ResetService, sqlmock.Sqlmock, *fakeMailer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mailer := &fakeMailer{}
	svc := NewResetService(db, NewHasher(), mailer, testLogger(), "https://oncourse.example.com", time.Hour)
	return svc, mock, mailer
}

func TestRequestReset(t *testing.T) {
	svc, mock, mailer := testResetService(t)

	mock.ExpectQuery("SELECT id FROM users WHERE email").
		WithArgs("amira@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM password_resets WHERE user_id").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO password_resets").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := svc.RequestReset(context.Background(), "amira@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, "amira@example.com", mailer.to)
	assert.Contains(t, mailer.link, "https://oncourse.example.com/reset-password/")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestResetUnknownEmail(t *testing.T) {
	svc, mock, mailer := testResetService(t)

	mock.ExpectQuery("SELECT id FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := svc.RequestReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)

	assert.Equal(t, 0, mailer.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeReset(t *testing.T) {
	svc, mock, _ := testResetService(t)

	token := "known-reset-token"
	tokenHash, err := NewHasher().HashSecret(token)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, token_hash FROM password_resets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash"}).
			AddRow(int64(5), int64(1), tokenHash))
	mock.ExpectExec("UPDATE users SET password_hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM password_resets WHERE id").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = svc.ConsumeReset(context.Background(), token, "new-password")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetUnknownToken(t *testing.T) {
	svc, mock, _ := testResetService(t)

	otherHash, err := NewHasher().HashSecret("some-other-token")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, token_hash FROM password_resets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash"}).
			AddRow(int64(5), int64(1), otherHash))
	mock.ExpectRollback()

	err = svc.ConsumeReset(context.Background(), "wrong-token", "new-password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetShortPassword(t *testing.T) {
	svc, _, _ := testResetService(t)

	err := svc.ConsumeReset(context.Background(), "token", "short")
	require.Error(t, err)
	assert.True(t, isValidationError(err))
}

func TestVerifyResetToken(t *testing.T) {
	svc, mock, _ := testResetService(t)

	token := "known-reset-token"
	tokenHash, err := NewHasher().HashSecret(token)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, user_id, token_hash FROM password_resets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash"}).
			AddRow(int64(5), int64(1), tokenHash))

	assert.NoError(t, svc.VerifyResetToken(context.Background(), token))
}

func TestVerifyResetTokenExpired(t *testing.T) {
	svc, mock, _ := testResetService(t)

	// Expired rows are filtered by the query, so the scan sees nothing.
	mock.ExpectQuery("SELECT id, user_id, token_hash FROM password_resets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash"}))

	err := svc.VerifyResetToken(context.Background(), "stale-token")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestSweepExpired(t *testing.T) {
	svc, mock, _ := testResetService(t)

	mock.ExpectExec("DELETE FROM password_resets WHERE expires_at").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
