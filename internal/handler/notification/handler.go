package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/httputil"
)

// Handler exposes read-only inspection of the notification table; rows
// are written by the dispatcher and drained by the delivery worker.
type Handler struct {
	repo repository.NotificationRepository
}

func NewHandler(repo repository.NotificationRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) ListByAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Query("appointment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	notifications, err := h.repo.ListByAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.ListByAppointment)
}
