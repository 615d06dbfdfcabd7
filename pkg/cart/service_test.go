package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

func testService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewService(db, logger), mock
}

func TestGet(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT c.id, c.title, c.price").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "thumbnail_url", "added_at"}).
			AddRow(int64(10), "Go Fundamentals", 49.99, nil, time.Now()).
			AddRow(int64(11), "SQL Basics", 29.99, nil, time.Now()))

	cart, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.InDelta(t, 79.98, cart.Total, 0.001)
}

func TestGetEmpty(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT c.id, c.title, c.price").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "thumbnail_url", "added_at"}))

	cart, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)
}

func TestAdd(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT is_published FROM courses").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"is_published"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(int64(1), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Add(context.Background(), 1, 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUnknownCourse(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT is_published FROM courses").
		WillReturnRows(sqlmock.NewRows([]string{"is_published"}))

	assert.ErrorIs(t, svc.Add(context.Background(), 1, 999), ErrCourseNotFound)
}

func TestAddUnpublishedCourse(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT is_published FROM courses").
		WillReturnRows(sqlmock.NewRows([]string{"is_published"}).AddRow(false))

	assert.ErrorIs(t, svc.Add(context.Background(), 1, 10), ErrCourseNotFound)
}

func TestAddAlreadyPurchased(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT is_published FROM courses").
		WillReturnRows(sqlmock.NewRows([]string{"is_published"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.ErrorIs(t, svc.Add(context.Background(), 1, 10), ErrAlreadyPurchased)
}

func TestRemoveAndClear(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE user_id = \\$1 AND course_id").
		WithArgs(int64(1), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items WHERE user_id").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, svc.Remove(context.Background(), 1, 10))
	require.NoError(t, svc.Clear(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
