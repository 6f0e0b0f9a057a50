package handlers_test

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/farellandr/donatrack/internal/handlers"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/validation"
)

func (s *HandlersTestSuite) userRouter(actor uuid.UUID) *gin.Engine {
	users := handlers.NewUserHandler(s.db, validation.New(), discardLogger())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", actor)
		c.Next()
	})
	r.GET("/users", users.ListUsers)
	r.POST("/users", users.CreateUser)
	r.PUT("/users/:id", users.UpdateUser)
	r.DELETE("/users/:id", users.DeleteUser)
	return r
}

func (s *HandlersTestSuite) loadUser(email string) models.User {
	var user models.User
	require.NoError(s.T(), s.db.Where("email = ?", email).First(&user).Error)
	return user
}

func (s *HandlersTestSuite) TestCreateUser() {
	t := s.T()
	router := s.userRouter(uuid.New())

	w := s.do(router, http.MethodPost, "/users", []byte(`{"name":"Meera","email":"meera@example.org","password":"long-enough"}`), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "User created", decodeJSON(t, w)["message"])

	user := s.loadUser("meera@example.org")
	assert.Equal(t, models.RoleContentManager, user.Role)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long-enough")))

	w = s.do(router, http.MethodPost, "/users", []byte(`{"name":"Other","email":"meera@example.org","password":"long-enough","role":"finance_admin"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already exists", decodeJSON(t, w)["message"])
	assert.Equal(t, models.RoleContentManager, s.loadUser("meera@example.org").Role)
}

func (s *HandlersTestSuite) TestCreateUser_Invalid() {
	t := s.T()
	router := s.userRouter(uuid.New())

	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"email":"a@example.org","password":"long-enough"}`},
		{name: "short password", body: `{"name":"A","email":"a@example.org","password":"short"}`},
		{name: "unknown role", body: `{"name":"A","email":"a@example.org","password":"long-enough","role":"owner"}`},
	}

	for _, tt := range tests {
		w := s.do(router, http.MethodPost, "/users", []byte(tt.body), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.name)
	}

	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func (s *HandlersTestSuite) TestListUsers() {
	t := s.T()

	s.seedUser("finance@example.org", "s3cret-pass", models.RoleFinanceAdmin, models.UserStatusActive)
	s.seedUser("content@example.org", "s3cret-pass", models.RoleContentManager, models.UserStatusInactive)

	w := s.do(s.userRouter(uuid.New()), http.MethodGet, "/users", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	for _, u := range users {
		for _, key := range []string{"id", "name", "email", "role", "status", "createdAt"} {
			assert.Contains(t, u, key)
		}
		assert.NotContains(t, u, "passwordHash")
	}
}

func (s *HandlersTestSuite) TestUpdateUser() {
	t := s.T()
	router := s.userRouter(uuid.New())

	user := s.seedUser("finance@example.org", "s3cret-pass", models.RoleFinanceAdmin, models.UserStatusActive)

	w := s.do(router, http.MethodPut, "/users/"+user.ID.String(), []byte(`{"role":"content_manager","status":"inactive"}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := s.loadUser("finance@example.org")
	assert.Equal(t, models.RoleContentManager, stored.Role)
	assert.Equal(t, models.UserStatusInactive, stored.Status)

	w = s.do(router, http.MethodPut, "/users/"+user.ID.String(), []byte(`{"role":"content_manager","status":"banned"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(router, http.MethodPut, "/users/"+uuid.NewString(), []byte(`{"role":"content_manager","status":"active"}`), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(router, http.MethodPut, "/users/not-a-uuid", []byte(`{"role":"content_manager","status":"active"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestDeleteUser() {
	t := s.T()

	admin := s.seedUser("root@example.org", "s3cret-pass", models.RoleSuperAdmin, models.UserStatusActive)
	user := s.seedUser("finance@example.org", "s3cret-pass", models.RoleFinanceAdmin, models.UserStatusActive)
	router := s.userRouter(admin.ID)

	w := s.do(router, http.MethodDelete, "/users/"+admin.ID.String(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(router, http.MethodDelete, "/users/"+user.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User deleted", decodeJSON(t, w)["message"])

	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	w = s.do(router, http.MethodDelete, "/users/"+user.ID.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
