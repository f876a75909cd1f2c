package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"appointly/apperror"
	"appointly/models"
	"appointly/utils"

	"github.com/gin-gonic/gin"
)

// ScheduleService is the part of schedule.Service exposed over HTTP.
type ScheduleService interface {
	Create(ctx context.Context, req models.CreateScheduleRequest) (*models.Schedule, error)
	Update(ctx context.Context, id string, req models.UpdateScheduleRequest) (*models.Schedule, error)
	RemoveSlot(ctx context.Context, id, label string) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context) ([]models.Schedule, error)
	GetByDate(ctx context.Context, date time.Time) (*models.Schedule, error)
	AvailableStartTimes(ctx context.Context, id string, durationMinutes float64) ([]string, error)
}

type ScheduleHandler struct {
	Svc ScheduleService
}

func NewScheduleHandler(svc ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{Svc: svc}
}

func (h *ScheduleHandler) CreateScheduleHandler(c *gin.Context) {
	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("invalid request body: %v", err))
		return
	}
	sc, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusCreated, sc)
}

func (h *ScheduleHandler) UpdateScheduleHandler(c *gin.Context) {
	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("invalid request body: %v", err))
		return
	}
	sc, err := h.Svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, sc)
}

func (h *ScheduleHandler) RemoveSlotHandler(c *gin.Context) {
	sc, err := h.Svc.RemoveSlot(c.Request.Context(), c.Param("id"), c.Param("slot"))
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, sc)
}

func (h *ScheduleHandler) DeleteScheduleHandler(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (h *ScheduleHandler) GetScheduleHandler(c *gin.Context) {
	sc, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, sc)
}

func (h *ScheduleHandler) ListSchedulesHandler(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, list)
}

// GetScheduleByDateHandler serves GET /api/schedules/date/:date with :date as YYYY-MM-DD.
func (h *ScheduleHandler) GetScheduleByDateHandler(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("date must be YYYY-MM-DD"))
		return
	}
	sc, err := h.Svc.GetByDate(c.Request.Context(), date)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, sc)
}

func (h *ScheduleHandler) StartTimesHandler(c *gin.Context) {
	duration, err := strconv.ParseFloat(c.Query("duration"), 64)
	if err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("duration must be a number of minutes"))
		return
	}
	starts, err := h.Svc.AvailableStartTimes(c.Request.Context(), c.Param("id"), duration)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, gin.H{"scheduleId": c.Param("id"), "startTimes": starts})
}
