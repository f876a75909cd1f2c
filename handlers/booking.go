package handlers

import (
	"net/http"

	"appointly/apperror"
	"appointly/models"
	"appointly/services/booking"
	"appointly/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	Svc booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Svc: svc}
}

func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("invalid request body: %v", err))
		return
	}
	b, err := h.Svc.CreateBooking(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, b)
}

// ListBookingsHandler accepts status, createdFrom, createdTo, appointmentFrom,
// appointmentTo, page and pageSize query parameters.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	var (
		f   models.BookingFilter
		err error
	)
	if raw := c.Query("status"); raw != "" {
		if f.Status, err = models.ParseBookingStatus(raw); err != nil {
			utils.RespondError(c, getLogger(c), apperror.Validation("%v", err))
			return
		}
	}
	if f.CreatedFrom, err = parseTimeParam(c, "createdFrom", false); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	if f.CreatedTo, err = parseTimeParam(c, "createdTo", true); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	if f.AppointmentFrom, err = parseTimeParam(c, "appointmentFrom", false); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	if f.AppointmentTo, err = parseTimeParam(c, "appointmentTo", false); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	if f.Page, err = parseIntParam(c, "page"); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	if f.PageSize, err = parseIntParam(c, "pageSize"); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}

	page, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, page)
}

func (h *BookingHandler) FindByCustomerHandler(c *gin.Context) {
	var q models.CustomerLookup
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("invalid query: %v", err))
		return
	}
	list, err := h.Svc.FindByCustomer(c.Request.Context(), q)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, list)
}

func (h *BookingHandler) UpdateBookingHandler(c *gin.Context) {
	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("invalid request body: %v", err))
		return
	}
	b, err := h.Svc.UpdateStatusOrPrice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, b)
}

func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	b, err := h.Svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, b)
}

func (h *BookingHandler) SummaryHandler(c *gin.Context) {
	sum, err := h.Svc.SummaryCounts(c.Request.Context())
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, sum)
}

// IncomeHandler reports completed-booking income between the from and to
// query parameters.
func (h *BookingHandler) IncomeHandler(c *gin.Context) {
	from, err := parseTimeParam(c, "from", false)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	to, err := parseTimeParam(c, "to", true)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	report, err := h.Svc.IncomeReport(c.Request.Context(), from, to)
	if err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, report)
}

func (h *BookingHandler) UnblockCustomerHandler(c *gin.Context) {
	var req models.UnblockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, getLogger(c), apperror.Validation("invalid request body: %v", err))
		return
	}
	if err := h.Svc.Unblock(c.Request.Context(), req); err != nil {
		utils.RespondError(c, getLogger(c), err)
		return
	}
	utils.JSON(c, http.StatusOK, gin.H{"phone": req.Phone, "email": req.Email, "isBlocked": false})
}
