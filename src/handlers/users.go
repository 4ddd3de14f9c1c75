package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/carebridge/carebridge-server/src/middleware"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/carebridge/carebridge-server/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user directory requests
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UserUpdateRequest is the partial-update payload. Role and password are
// intentionally not bindable here.
type UserUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// HandleListUsers handles GET /user/fetchallusers (Admin only)
func (h *UserHandler) HandleListUsers(c *gin.Context) {
	page := middleware.GetPagination(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := h.users.List(ctx, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Users,
		"pagination": gin.H{
			"total": result.Total,
			"page":  result.Page,
			"limit": result.Limit,
		},
	})
}

// HandleUpdateUser handles PATCH /user/:id
func (h *UserHandler) HandleUpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid user ID format.")
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.Update(ctx, id, repositories.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
		"message": "User data updated successfully.",
	})
}

// HandleDeleteUser handles PATCH /user/:id/delete (owner or admin)
func (h *UserHandler) HandleDeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid user ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.SoftDelete(ctx, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
		"message": "User deleted successfully.",
	})
}
