package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kediacrm/internal/authz"
	"kediacrm/internal/middleware"
	"kediacrm/internal/models"
	"kediacrm/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary  List users
// @Tags     Users
// @Produce  json
// @Security BearerAuth
// @Param    type  query  string  false  "admin or staff"
// @Success  200  {array}  models.User
// @Router   /api/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var role *models.Role
	if raw := c.Query("type"); raw != "" {
		r, err := authz.ParseRole(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, middleware.ErrorBody("type must be admin or staff"))
			return
		}
		role = &r
	}
	users, err := h.service.List(c.Request.Context(), role)
	if err != nil {
		respondError(c, "[user][list]", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary  Staff roster
// @Tags     Users
// @Produce  json
// @Security BearerAuth
// @Success  200  {array}  models.User
// @Router   /api/users/staff [get]
func (h *UserHandler) Staff(c *gin.Context) {
	users, err := h.service.ListStaff(c.Request.Context())
	if err != nil {
		respondError(c, "[user][staff]", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary  Create user
// @Tags     Users
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    user  body  models.CreateUserRequest  true  "New user"
// @Success  201  {object}  models.User
// @Failure  400  {object}  map[string]string
// @Failure  409  {object}  map[string]string
// @Router   /api/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[user][create]", err)
		return
	}
	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, "[user][create]", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// @Summary  Update user
// @Tags     Users
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id    path  string            true  "User ID"
// @Param    user  body  models.UserPatch  true  "Fields to change"
// @Success  200  {object}  models.User
// @Failure  404  {object}  map[string]string
// @Router   /api/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "[user][update]", err)
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, "[user][update]", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary  Delete user
// @Tags     Users
// @Security BearerAuth
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  map[string]string
// @Failure  404  {object}  map[string]string
// @Router   /api/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == getActor(c).ID {
		c.JSON(http.StatusBadRequest, middleware.ErrorBody("cannot delete your own account"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "[user][delete]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
