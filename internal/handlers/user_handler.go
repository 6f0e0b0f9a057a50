package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farellandr/donatrack/internal/helpers"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/validation"
)

type userRow struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UserHandler manages admin accounts. Every route is super_admin only.
type UserHandler struct {
	db       *gorm.DB
	validate *validatorv10.Validate
	logger   *slog.Logger
}

func NewUserHandler(db *gorm.DB, validate *validatorv10.Validate, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		db:       db,
		validate: validate,
		logger:   logger,
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&users).Error; err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Error listing users", "error", err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving users.")
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			Status:    u.Status,
			CreatedAt: u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, rows)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req validation.CreateUserRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	ctx := c.Request.Context()

	hash, err := HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error hashing password", "error", err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.Role(orDefault(req.Role, string(models.RoleContentManager))),
		Status:       models.UserStatusActive,
	}

	result := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(user)
	if result.Error != nil {
		h.logger.ErrorContext(ctx, "Error creating user", "error", result.Error, "email", req.Email)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create user.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Email already exists")
		return
	}

	actor, _ := c.Get("user_id")
	h.logger.InfoContext(ctx, "Created user", "userId", user.ID, "role", user.Role, "createdBy", actor)
	c.JSON(http.StatusCreated, gin.H{
		"id":      user.ID,
		"message": "User created",
	})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	var req validation.UpdateUserRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	ctx := c.Request.Context()
	result := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"role":   req.Role,
		"status": req.Status,
	})
	if result.Error != nil {
		h.logger.ErrorContext(ctx, "Error updating user", "error", result.Error, "userId", id)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update user.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	h.logger.InfoContext(ctx, "Updated user", "userId", id, "role", req.Role, "status", req.Status)
	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	if actor, ok := c.Get("user_id"); ok {
		if actorID, ok := actor.(uuid.UUID); ok && actorID == id {
			helpers.RespondWithError(c, http.StatusBadRequest, "You cannot delete your own account.")
			return
		}
	}

	ctx := c.Request.Context()
	result := h.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		h.logger.ErrorContext(ctx, "Error deleting user", "error", result.Error, "userId", id)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete user.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	h.logger.InfoContext(ctx, "Deleted user", "userId", id)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
