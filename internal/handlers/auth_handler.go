package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kediacrm/internal/logger"
	"kediacrm/internal/middleware"
	"kediacrm/internal/models"
	"kediacrm/internal/services"
)

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
}

func NewAuthHandler(userService services.UserService, authService services.AuthService) *AuthHandler {
	return &AuthHandler{userService: userService, authService: authService}
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// @Summary      Sign in
// @Description  Checks email and password and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  LoginResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[auth][login]", err)
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "[auth][login]", err)
		return
	}
	token, exp, err := h.authService.IssueToken(user)
	if err != nil {
		respondError(c, "[auth][login][token]", err)
		return
	}
	logger.Info("[auth][login] ok", zap.String("user_id", user.ID), zap.String("type", string(user.Role)))
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp, User: *user})
}

// @Summary      Verify token
// @Description  Returns the user the bearer token belongs to
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	actor := getActor(c)
	user, err := h.userService.Get(c.Request.Context(), actor.ID)
	if err != nil {
		// a token for a deleted account is no longer valid
		logger.Warn("[auth][verify] user gone", zap.String("user_id", actor.ID), zap.Error(err))
		c.JSON(http.StatusUnauthorized, middleware.ErrorBody("Invalid or expired token"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}
