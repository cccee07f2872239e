package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kediacrm/internal/authz"
	"kediacrm/internal/logger"
)

// Pinger is a store that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemHandler struct {
	stores []Pinger
}

func NewSystemHandler(stores ...Pinger) *SystemHandler {
	return &SystemHandler{stores: stores}
}

// @Summary  Health check
// @Tags     System
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	for _, s := range h.stores {
		if err := s.Ping(ctx); err != nil {
			logger.Error("[health] store unreachable", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "database": "disconnected"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "connected"})
}

type CapabilitiesResponse struct {
	Type        string   `json:"type"`
	AdminFields bool     `json:"adminFields"`
	TaskActions []string `json:"taskActions"`
}

// @Summary      Capabilities of the current user
// @Description  Which dashboard sections and task actions the caller's role allows
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  CapabilitiesResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/me/capabilities [get]
func (h *SystemHandler) Capabilities(c *gin.Context) {
	role := getActor(c).Role
	adminFields, err := authz.CanSeeAdminFields(role)
	if err != nil {
		respondError(c, "[me][capabilities]", err)
		return
	}
	actions, err := authz.AllowedTaskActions(role)
	if err != nil {
		respondError(c, "[me][capabilities]", err)
		return
	}
	out := CapabilitiesResponse{Type: string(role), AdminFields: adminFields, TaskActions: []string{}}
	for _, a := range actions.Slice() {
		out.TaskActions = append(out.TaskActions, string(a))
	}
	c.JSON(http.StatusOK, out)
}
