package rest

import (
	"net/http"

	"github.com/Freeeeeet/consultation_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

// NewRouter регистрирует обработчики всех сервисов в gin
func NewRouter(
	cfg RouterConfig,
	schedules *service.ScheduleService,
	slots *service.SlotService,
	bookings *service.BookingService,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), CORSMiddleware(cfg.AllowedOrigins))

	scheduleHandler := NewScheduleHandler(schedules, logger)
	slotHandler := NewSlotHandler(slots, logger)
	bookingHandler := NewBookingHandler(bookings, logger)

	router.GET("/health", func(c *gin.Context) {
		respond(c, http.StatusOK, "Server is running", nil)
	})

	protected := router.Group("")
	protected.Use(AuthMiddleware(cfg.JWTSecret))

	lawyer := protected.Group("/lawyer")
	lawyer.Use(RoleMiddleware(RoleLawyer, RoleAdmin))
	{
		lawyer.POST("/schedule/create", scheduleHandler.CreateRule)
		lawyer.PUT("/schedule/update/:ruleId", scheduleHandler.UpdateRule)
		lawyer.GET("/schedule/rules", scheduleHandler.ListRules)
		lawyer.DELETE("/schedule/rule/:id", scheduleHandler.DeleteRule)
		lawyer.GET("/bookings", bookingHandler.ListLawyerBookings)
	}

	user := protected.Group("/user")
	{
		user.GET("/lawyers/:id/slots", slotHandler.ListSlots)
		user.POST("/bookings", bookingHandler.CreateBooking)
		user.GET("/bookings", bookingHandler.ListMyBookings)
		user.GET("/bookings/:id", bookingHandler.GetBooking)
		user.DELETE("/bookings/:id", bookingHandler.CancelBooking)
	}

	return router
}
