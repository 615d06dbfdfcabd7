package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoursesbros-sketch/oncourse/pkg/auth"
	"github.com/oncoursesbros-sketch/oncourse/pkg/config"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

type nopMailer struct{}

func (nopMailer) SendPasswordReset(to, link string) error { return nil }

func testServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "5000"},
		Auth: config.AuthConfig{
			TokenSecret:        "test-secret",
			TokenLifetime:      time.Hour,
			ResetTokenLifetime: time.Hour,
		},
		ClientURL:      "http://localhost:3000",
		UploadsDir:     t.TempDir(),
		MetricsEnabled: true,
	}

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewServer(cfg, db, nopMailer{}, logger, metrics), mock
}

func TestHealth(t *testing.T) {
	server, mock := testServer(t)

	mock.ExpectPing()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := testServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	server, _ := testServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/profile"},
		{http.MethodGet, "/api/cart"},
		{http.MethodGet, "/api/payment/history"},
		{http.MethodGet, "/api/profile/progress"},
		{http.MethodGet, "/api/courses/my-courses"},
		{http.MethodGet, "/api/admin/users"},
	}

	for _, p := range paths {
		t.Run(p.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCatalogIsAnonymous(t *testing.T) {
	server, mock := testServer(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT c.id, c.title").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "price", "thumbnail_url", "instructor", "lessons", "purchased"}))

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterLoginGateRoundTrip(t *testing.T) {
	server, mock := testServer(t)

	userCols := []string{"id", "phone", "email", "login", "first_name", "last_name", "avatar_url", "role", "created_at"}

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "+15550001111", "amira@example.com", "amira", "Amira", "Hassan", nil, "student", time.Now()))

	body, err := json.Marshal(map[string]string{
		"phone":     "+15550001111",
		"email":     "amira@example.com",
		"login":     "amira",
		"password":  "password123",
		"firstName": "Amira",
		"lastName":  "Hassan",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// The issued token passes the gate and resolves the same user.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "+15550001111", "amira@example.com", "amira", "Amira", "Hassan", nil, "student", time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "+15550001111", "amira@example.com", "amira", "Amira", "Hassan", nil, "student", time.Now()))

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":1`)
}

func TestAdminGate(t *testing.T) {
	server, mock := testServer(t)

	// Issue a token for a student and hit an admin route.
	userCols := []string{"id", "phone", "email", "login", "first_name", "last_name", "avatar_url", "role", "created_at"}

	hashRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).
			AddRow(int64(1), "+15550001111", "amira@example.com", "amira", "Amira", "Hassan", nil, "student", time.Now())
	}

	// Gate lookup, then RequireAdmin role re-check.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").WillReturnRows(hashRow())
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").WillReturnRows(hashRow())

	token, err := auth.NewTokenIssuer("test-secret", time.Hour).Issue(1)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminListingReachable(t *testing.T) {
	server, mock := testServer(t)

	userCols := []string{"id", "phone", "email", "login", "first_name", "last_name", "avatar_url", "role", "created_at"}
	adminRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).
			AddRow(int64(7), "+15550002222", "root@example.com", "root", "Root", "Admin", nil, "admin", time.Now())
	}

	// Gate lookup, RequireAdmin re-check, then the listing itself.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").WillReturnRows(adminRow())
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").WillReturnRows(adminRow())
	mock.ExpectQuery("SELECT id, phone, email").WillReturnRows(adminRow())

	token, err := auth.NewTokenIssuer("test-secret", time.Hour).Issue(7)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"login":"root"`)
}
