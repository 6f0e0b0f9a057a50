package handlers_test

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farellandr/donatrack/internal/handlers"
	"github.com/farellandr/donatrack/internal/middleware"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/validation"
)

const jwtSecret = "jwt_test_secret"

func (s *HandlersTestSuite) authRouter() *gin.Engine {
	logger := discardLogger()
	auth := handlers.NewAuthHandler(s.db, jwtSecret, time.Hour, validation.New(), logger)

	r := gin.New()
	r.POST("/auth/login", auth.Login)
	r.GET("/auth/me", middleware.JWTAuthMiddleware(jwtSecret, logger), auth.Me)
	return r
}

func (s *HandlersTestSuite) seedUser(email, password string, role models.Role, status string) *models.User {
	hash, err := handlers.HashPassword(password)
	require.NoError(s.T(), err)

	user := &models.User{Name: "Finance", Email: email, PasswordHash: hash, Role: role, Status: status}
	require.NoError(s.T(), s.db.Create(user).Error)
	return user
}

func (s *HandlersTestSuite) TestLogin() {
	t := s.T()
	router := s.authRouter()

	s.seedUser("finance@example.org", "s3cret-pass", models.RoleFinanceAdmin, models.UserStatusActive)
	s.seedUser("gone@example.org", "s3cret-pass", models.RoleSuperAdmin, models.UserStatusInactive)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"email":"finance@example.org","password":"s3cret-pass"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"email":"finance@example.org","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", body: `{"email":"who@example.org","password":"s3cret-pass"}`, wantStatus: http.StatusUnauthorized},
		{name: "inactive user", body: `{"email":"gone@example.org","password":"s3cret-pass"}`, wantStatus: http.StatusUnauthorized},
		{name: "invalid email", body: `{"email":"finance","password":"s3cret-pass"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		w := s.do(router, http.MethodPost, "/auth/login", []byte(tt.body), nil)
		assert.Equal(t, tt.wantStatus, w.Code, tt.name)
	}
}

func (s *HandlersTestSuite) TestLoginThenMe() {
	t := s.T()
	router := s.authRouter()

	user := s.seedUser("finance@example.org", "s3cret-pass", models.RoleFinanceAdmin, models.UserStatusActive)

	w := s.do(router, http.MethodPost, "/auth/login", []byte(`{"email":"finance@example.org","password":"s3cret-pass"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeJSON(t, w)
	token := login["token"].(string)

	claims, err := middleware.ParseToken(token, jwtSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleFinanceAdmin, claims.Role)

	w = s.do(router, http.MethodGet, "/auth/me", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeJSON(t, w)
	assert.Equal(t, "finance@example.org", me["email"])
	assert.Equal(t, "finance_admin", me["role"])
	assert.NotContains(t, me, "passwordHash")

	require.NoError(t, s.db.Delete(&models.User{}, "id = ?", user.ID).Error)
	w = s.do(router, http.MethodGet, "/auth/me", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestLogin_StoreErrorIsNotUnauthorized() {
	t := s.T()
	router := s.authRouter()

	require.NoError(t, s.db.Migrator().DropTable(&models.User{}))

	w := s.do(router, http.MethodPost, "/auth/login", []byte(`{"email":"finance@example.org","password":"s3cret-pass"}`), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error retrieving user.", decodeJSON(t, w)["message"])
}
