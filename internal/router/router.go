package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/roomhunt/rental-booking/internal/handler"
    "github.com/roomhunt/rental-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterBooking registers the booking lifecycle routes under /v1.
// Every route requires a valid access token; JWTAuth injects the caller's
// user_id and role into the context and RequireRole limits the surface to
// the two roles this service knows.  Extra middlewares (rate limiting,
// response caching) run after JWTAuth so they can key by the
// authenticated actor.  The per-route role gates mirror the actor column
// of the transition table: tenants create and list their own bookings,
// landlords decide on requests, and either participant may cancel, read
// or annotate a booking they are party to.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
    g := e.Group("/v1/bookings")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(extra...)
    g.Use(middleware.RequireRole("TENANT", "LANDLORD"))

    // Tenant surface.
    g.POST("", h.CreateBooking, middleware.RequireRole("TENANT"))
    g.GET("/my", h.MyBookings, middleware.RequireRole("TENANT"))

    // Landlord surface.
    g.GET("/requests", h.BookingRequests, middleware.RequireRole("LANDLORD"))
    g.PATCH("/:id/approve", h.ApproveBooking, middleware.RequireRole("LANDLORD"))
    g.PATCH("/:id/reject", h.RejectBooking, middleware.RequireRole("LANDLORD"))
    g.PATCH("/:id/complete", h.CompleteBooking, middleware.RequireRole("LANDLORD"))
    g.POST("/expire-stale", h.ExpireStale, middleware.RequireRole("LANDLORD"))

    // Either participant.
    g.GET("/stats", h.Statistics)
    g.GET("/:id", h.GetBooking)
    g.PATCH("/:id/cancel", h.CancelBooking)
    g.POST("/:id/notes", h.AddNote)
}
