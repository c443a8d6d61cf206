package rest

import (
	"net/http"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	bookings *service.BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings *service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		logger:   logger,
	}
}

type createBookingRequest struct {
	LawyerID  string `json:"lawyerId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
}

// bookingView бронирование вместе с занятым слотом
type bookingView struct {
	*model.Booking
	Slot schedule.Slot `json:"slot"`
}

func newBookingView(b *model.Booking) bookingView {
	return bookingView{Booking: b, Slot: b.SlotView()}
}

func newBookingViews(bookings []*model.Booking) []bookingView {
	out := make([]bookingView, len(bookings))
	for i, b := range bookings {
		out[i] = newBookingView(b)
	}
	return out
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, KindBadRequest, "Invalid request body")
		return
	}

	errs := schedule.ValidationErrors{}
	lawyerID, err := uuid.Parse(req.LawyerID)
	if err != nil {
		errs["lawyerId"] = "Must be a valid id"
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		errs["date"] = "Must be a date in YYYY-MM-DD format"
	}
	start, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		errs["startTime"] = "Must be a time in HH:MM format"
	}
	if len(errs) > 0 {
		respondError(c, h.logger, errs)
		return
	}

	booking, err := h.bookings.Book(c.Request.Context(), currentUser(c), lawyerID, date, start)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Slot booked", newBookingView(booking))
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	bookings, err := h.bookings.ListForClient(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "", newBookingViews(bookings))
}

func (h *BookingHandler) ListLawyerBookings(c *gin.Context) {
	bookings, err := h.bookings.ListForLawyer(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "", newBookingViews(bookings))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), currentUser(c), bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "", newBookingView(booking))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.Cancel(c.Request.Context(), currentUser(c), bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Booking canceled", newBookingView(booking))
}
