package httpgin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/service"
	"github.com/kirinyoku/tixgo/internal/service/admin"
)

// @Summary  Admin login
// @Param    req body  LoginRequest true "payload"
// @Success  200 {object} auth.Token
// @Failure  401 {object} ErrorResponse
// @Router   /admin/login [post]
func handleAdminLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		tok, err := svcs.Auth.Login(req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, tok)
	}
}

// @Summary  Create event with days and passes
// @Security BearerAuth
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} CreateEventResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}

		in := admin.CreateEventInput{
			Title:       req.Title,
			Description: req.Description,
			Venue:       req.Venue,
			StartsAt:    starts,
			TimeLabel:   req.TimeLabel,
		}
		for _, d := range req.Days {
			date, err := parseDate(d.Date)
			if err != nil {
				badRequest(c, "invalid day date")
				return
			}
			in.Days = append(in.Days, domain.EventDay{
				DayNumber: d.DayNumber,
				Date:      date,
				TimeLabel: d.TimeLabel,
				Venue:     d.Venue,
			})
		}
		for _, p := range req.Passes {
			in.Passes = append(in.Passes, domain.Pass{
				Name:       p.Name,
				DayNumber:  p.DayNumber,
				PriceMinor: p.PriceMinor,
			})
		}

		id, err := svcs.Admin.CreateEvent(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateEventResponse{EventID: id})
	}
}

// @Summary  List bookings
// @Security BearerAuth
// @Param    event_id query int false "filter by event"
// @Param    limit    query int false "page size"
// @Param    offset   query int false "offset"
// @Success  200 {array} domain.Booking
// @Router   /admin/bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var eventID *int64
		if raw := c.Query("event_id"); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || v <= 0 {
				badRequest(c, "invalid event_id")
				return
			}
			eventID = &v
		}
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		out, err := svcs.Admin.ListBookings(c.Request.Context(), eventID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get booking
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.Booking
// @Failure  404 {object} ErrorResponse
// @Router   /admin/bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid id")
			return
		}
		b, err := svcs.Admin.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Booking and revenue totals
// @Security BearerAuth
// @Success  200 {object} domain.AnalyticsSummary
// @Router   /admin/analytics/summary [get]
func handleAnalyticsSummary(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svcs.Admin.AnalyticsSummary(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}
