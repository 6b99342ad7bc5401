package doctor

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/service/doctor"
	"github.com/clinicore/clinic-api/internal/service/scheduling"
	"github.com/clinicore/clinic-api/pkg/httputil"
)

type Handler struct {
	service           *doctor.Service
	scheduling        *scheduling.Service
	availabilityCache gin.HandlerFunc
}

// NewHandler wires the doctor vertical. availabilityCache may be nil;
// when set it fronts the availability endpoint only.
func NewHandler(service *doctor.Service, schedulingSvc *scheduling.Service, availabilityCache gin.HandlerFunc) *Handler {
	return &Handler{
		service:           service,
		scheduling:        schedulingSvc,
		availabilityCache: availabilityCache,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid doctor ID"})
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) List(c *gin.Context) {
	doctors, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}

// Availability returns the open "HH:MM" slots of a doctor on one day.
func (h *Handler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid doctor ID"})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid date format, want YYYY-MM-DD"})
		return
	}

	slots, err := h.scheduling.AvailableSlots(c.Request.Context(), id, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) CreateAppointmentType(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid doctor ID"})
		return
	}

	var req struct {
		Name               string `json:"name" binding:"required"`
		GeneralCostCents   int64  `json:"general_cost_cents" binding:"required,gt=0"`
		CommunityCostCents int64  `json:"community_cost_cents" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	created, err := h.service.CreateAppointmentType(c.Request.Context(), &model.AppointmentType{
		DoctorID:           id,
		Name:               req.Name,
		GeneralCostCents:   req.GeneralCostCents,
		CommunityCostCents: req.CommunityCostCents,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListAppointmentTypes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid doctor ID"})
		return
	}

	appointmentTypes, err := h.service.ListAppointmentTypes(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointmentTypes)
}

func (h *Handler) DeactivateAppointmentType(c *gin.Context) {
	typeID, err := uuid.Parse(c.Param("typeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment type ID"})
		return
	}

	if err := h.service.DeactivateAppointmentType(c.Request.Context(), typeID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deactivated": true})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.Create)
		doctors.GET("", h.List)
		doctors.GET("/:id", h.Get)
		doctors.POST("/:id/appointment-types", h.CreateAppointmentType)
		doctors.GET("/:id/appointment-types", h.ListAppointmentTypes)
		doctors.DELETE("/:id/appointment-types/:typeID", h.DeactivateAppointmentType)

		if h.availabilityCache != nil {
			doctors.GET("/:id/availability", h.availabilityCache, h.Availability)
		} else {
			doctors.GET("/:id/availability", h.Availability)
		}
	}
}
