package catalog

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

func TestList(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery("SELECT c.id, c.title").
		WithArgs(int64(1), 12, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "price", "thumbnail_url", "instructor", "lessons", "purchased"}).
			AddRow(int64(10), "Go Fundamentals", "Learn Go", 49.99, nil, "Amira Hassan", 8, true).
			AddRow(int64(11), "SQL Basics", "Learn SQL", 29.99, nil, "Noah Lee", 5, false))

	listing, err := svc.List(context.Background(), 1, 1, 12)
	require.NoError(t, err)

	require.Len(t, listing.Courses, 2)
	assert.Equal(t, "Go Fundamentals", listing.Courses[0].Title)
	assert.True(t, listing.Courses[0].IsPurchased)
	assert.False(t, listing.Courses[1].IsPurchased)
	assert.Equal(t, 25, listing.Pagination.Total)
	assert.Equal(t, 3, listing.Pagination.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClampsPaging(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT c.id, c.title").
		WithArgs(int64(0), maxPageSize, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "price", "thumbnail_url", "instructor", "lessons", "purchased"}))

	listing, err := svc.List(context.Background(), 0, -3, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Pagination.Page)
	assert.Equal(t, maxPageSize, listing.Pagination.Limit)
	assert.Empty(t, listing.Courses)
}

func TestDetail(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT c.id, c.title").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "price", "thumbnail_url", "instructor", "created_at", "access"}).
			AddRow(int64(10), "Go Fundamentals", "Learn Go", 49.99, nil, "Amira Hassan", time.Now(), true))
	mock.ExpectQuery("SELECT l.id, l.title").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "order_index", "video_url", "has_quiz"}).
			AddRow(int64(100), "Introduction", 0, nil, false).
			AddRow(int64(101), "Types", 1, nil, true))

	detail, err := svc.Detail(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.True(t, detail.HasAccess)
	require.Len(t, detail.Lessons, 2)
	assert.True(t, detail.Lessons[1].HasQuiz)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetailNotFound(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT c.id, c.title").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Detail(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestMyCourses(t *testing.T) {
	svc, mock := testService(t)

	mock.ExpectQuery("SELECT c.id, c.title").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "thumbnail_url", "purchased_at", "lessons", "passed"}).
			AddRow(int64(10), "Go Fundamentals", nil, time.Now(), 8, 4).
			AddRow(int64(11), "SQL Basics", nil, time.Now(), 0, 0))

	courses, err := svc.MyCourses(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, courses, 2)
	assert.Equal(t, 50, courses[0].Progress)
	assert.Equal(t, 0, courses[1].Progress)
}
