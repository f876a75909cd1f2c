package routes

import (
	"time"

	"appointly/handlers"
	"appointly/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterScheduleRoutes registers schedule endpoints. Reads are public;
// changes require an admin token.
func RegisterScheduleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/schedules")
	{
		api.GET("", hb.Schedules.ListSchedulesHandler)
		api.GET("/:id", hb.Schedules.GetScheduleHandler)
		api.GET("/date/:date", hb.Schedules.GetScheduleByDateHandler)
		api.GET("/:id/start-times", hb.Schedules.StartTimesHandler)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthAdminMiddleware())
		admin.POST("", hb.Schedules.CreateScheduleHandler)
		admin.PATCH("/:id", hb.Schedules.UpdateScheduleHandler)
		admin.DELETE("/:id/slots/:slot", hb.Schedules.RemoveSlotHandler)
		admin.DELETE("/:id", hb.Schedules.DeleteScheduleHandler)
	}
}

// RegisterBookingRoutes registers booking endpoints. Customers create, look up
// and cancel their own bookings; everything else is administrative.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", hb.Bookings.CreateBookingHandler)
		api.GET("/customer", hb.Bookings.FindByCustomerHandler)
		api.POST("/:id/cancel", hb.Bookings.CancelBookingHandler)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthAdminMiddleware())
		admin.GET("", hb.Bookings.ListBookingsHandler)
		admin.GET("/summary", hb.Bookings.SummaryHandler)
		admin.GET("/income", hb.Bookings.IncomeHandler)
		admin.GET("/:id", hb.Bookings.GetBookingHandler)
		admin.PATCH("/:id", hb.Bookings.UpdateBookingHandler)
	}

	customers := r.Group("/api/customers")
	customers.Use(middleware.JWTAuthAdminMiddleware())
	customers.POST("/unblock", hb.Bookings.UnblockCustomerHandler)
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterScheduleRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
}
