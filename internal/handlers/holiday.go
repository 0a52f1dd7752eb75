package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/holiday"
)

// HolidayHandler answers holiday lookups.
type HolidayHandler struct {
	calendar *holiday.Calendar
}

// NewHolidayHandler creates a new HolidayHandler.
func NewHolidayHandler(calendar *holiday.Calendar) *HolidayHandler {
	return &HolidayHandler{calendar: calendar}
}

// CheckHoliday returns the holiday name of ?date=YYYY/M/D, or "".
func (h *HolidayHandler) CheckHoliday(c *gin.Context) {
	name, err := h.calendar.Lookup(c.Query("date"))
	if err != nil {
		respond(c, apierrors.KeyError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holiday_name": name})
}
