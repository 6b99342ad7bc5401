package appointment

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/service/notifier"
	"github.com/clinicore/clinic-api/internal/service/scheduling"
	"github.com/clinicore/clinic-api/pkg/httputil"
	"github.com/clinicore/clinic-api/pkg/logger"
)

type Handler struct {
	scheduling *scheduling.Service
	notifier   *notifier.Service
	logger     *logger.Logger
}

func NewHandler(schedulingSvc *scheduling.Service, notifierSvc *notifier.Service, log *logger.Logger) *Handler {
	return &Handler{
		scheduling: schedulingSvc,
		notifier:   notifierSvc,
		logger:     log,
	}
}

type scheduleRequest struct {
	PatientID         uuid.UUID      `json:"patient_id" binding:"required"`
	DoctorID          uuid.UUID      `json:"doctor_id" binding:"required"`
	AppointmentTypeID uuid.UUID      `json:"appointment_type_id" binding:"required"`
	DateHour          string         `json:"date_hour" binding:"required"`
	Duration          int            `json:"duration" binding:"required,gt=0"`
	Modality          model.Modality `json:"modality" binding:"required,modality"`
	Place             string         `json:"place"`
	AppointmentID     *uuid.UUID     `json:"appointment_id,omitempty"`
}

type rescheduleRequest struct {
	DateHour string `json:"date_hour" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) Schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	appointment, err := h.scheduling.Schedule(c.Request.Context(), &scheduling.ScheduleRequest{
		PatientID:         req.PatientID,
		DoctorID:          req.DoctorID,
		AppointmentTypeID: req.AppointmentTypeID,
		DateHour:          req.DateHour,
		DurationMinutes:   req.Duration,
		Modality:          req.Modality,
		Place:             req.Place,
		AppointmentID:     req.AppointmentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httputil.RespondWithCreated(c, appointment)
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	appointment, err := h.scheduling.Reschedule(c.Request.Context(), id, req.DateHour, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	appointment, err := h.scheduling.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	appointment, err := h.scheduling.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if id := c.Query("doctor_id"); id != "" {
		doctorID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid doctor ID"})
			return
		}
		filters.DoctorID = doctorID
	}

	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid patient ID"})
			return
		}
		filters.PatientID = patientID
	}

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}

	appointments, err := h.scheduling.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

// LifecycleEvent re-runs the notification pipeline for an appointment,
// deriving the event from stored status. Fire-and-forget: the response
// does not wait for dispatch.
func (h *Handler) LifecycleEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	appointment, err := h.scheduling.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	event := notifier.EventForStatus(appointment.Status)
	go func() {
		if err := h.notifier.AppointmentChanged(context.Background(), appointment, event); err != nil {
			h.logger.Error(err, "notification pipeline failed",
				"appointment_id", appointment.ID.String(),
				"event", string(event))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Schedule)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id/reschedule", h.Reschedule)
		appointments.PUT("/:id/cancel", h.Cancel)
		appointments.POST("/:id/events", h.LifecycleEvent)
	}
}

// respondError maps scheduling validation reasons onto HTTP statuses:
// bad input is 400, conflicts with current state are 409.
func respondError(c *gin.Context, err error) {
	var verr *scheduling.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		if verr.Reason == scheduling.ReasonSlotConflict || verr.Reason == scheduling.ReasonInvalidState {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"status":  "error",
			"reason":  string(verr.Reason),
			"message": verr.Message,
		})
		return
	}

	httputil.RespondWithError(c, err)
}
