package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/service"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/response"
)

// BookingHandler exposes booking endpoints. Creation and reference lookup
// are public; listing and status transitions are admin operations.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler creates a new handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Create godoc
// @Summary Submit a booking
// @Description Public booking submission; the unit price is locked from the package's current effective price
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	booking, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// GetByReference godoc
// @Summary Look up a booking by reference
// @Tags Bookings
// @Produce json
// @Param reference path string true "Booking reference"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /track/{reference} [get]
func (h *BookingHandler) GetByReference(c *gin.Context) {
	booking, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// VoucherByReference godoc
// @Summary Download a voucher by booking reference
// @Description Renders the PDF voucher for a confirmed booking without authentication
// @Tags Bookings
// @Produce application/pdf
// @Param reference path string true "Booking reference"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /track/{reference}/voucher [get]
func (h *BookingHandler) VoucherByReference(c *gin.Context) {
	booking, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	voucher, err := h.service.Voucher(c.Request.Context(), booking.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="voucher-%s.pdf"`, booking.Reference))
	c.Data(http.StatusOK, "application/pdf", voucher)
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param package_id query string false "Filter by package"
// @Param from query string false "Travel date lower bound (YYYY-MM-DD)"
// @Param to query string false "Travel date upper bound (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter := models.BookingFilter{
		PackageID: c.Query("package_id"),
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				filter.Status = append(filter.Status, models.BookingStatus(part))
			}
		}
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(service.TravelDateLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		filter.FromDate = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(service.TravelDateLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		filter.ToDate = &ts
	}

	bookings, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Get godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// UpdateStatus godoc
// @Summary Transition a booking
// @Description Pending moves to confirmed or cancelled; confirmed only to cancelled
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.UpdateBookingStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	booking, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Voucher godoc
// @Summary Download a booking voucher
// @Description Renders a PDF voucher for a confirmed booking
// @Tags Bookings
// @Produce application/pdf
// @Param id path string true "Booking ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/{id}/voucher [get]
func (h *BookingHandler) Voucher(c *gin.Context) {
	voucher, err := h.service.Voucher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="voucher-%s.pdf"`, c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", voucher)
}
