package main // Entry point package

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    cron "github.com/robfig/cron/v3"

    "github.com/roomhunt/rental-booking/internal/config"
    "github.com/roomhunt/rental-booking/internal/database"
    "github.com/roomhunt/rental-booking/internal/handler"
    "github.com/roomhunt/rental-booking/internal/middleware"
    "github.com/roomhunt/rental-booking/internal/queue"
    "github.com/roomhunt/rental-booking/internal/repository"
    "github.com/roomhunt/rental-booking/internal/router"
    "github.com/roomhunt/rental-booking/internal/service"
)

func main() {
    _ = godotenv.Load() // .env is optional; real env vars win
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connect failed: %v", err)
    }
    defer db.Close()

    if err := database.EnsureSchema(context.Background(), db); err != nil {
        log.Fatalf("schema bootstrap failed: %v", err)
    }

    bookingRepo := repository.NewBookingRepo(db)
    propertyRepo := repository.NewPropertyRepo(db)
    engine := service.NewBookingService(bookingRepo, propertyRepo, queue.NewNotifier())
    bookingHandler := handler.NewBookingHandler(engine)

    e := echo.New()
    e.Validator = handler.NewValidator()

    // Redis backs the response cache and rate limiting; when it is down
    // the client constructor returns nil and both middlewares degrade to
    // pass-through.  Both are keyed by the authenticated actor, so they
    // are attached to the booking group behind JWTAuth rather than
    // globally.
    rdb := config.NewRedisClient()

    router.RegisterRoutes(e)
    router.RegisterBooking(e, bookingHandler, cfg.JWTSecret,
        middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
        middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
    )

    // Periodic expiry sweep: stale pending requests become EXPIRED.  The
    // sweep is status-guarded in the store, so overlap with request
    // traffic or a manual trigger is harmless.
    c := cron.New()
    if _, err := c.AddFunc("@every "+cfg.SweepInterval.String(), func() {
        if _, err := engine.SweepExpired(context.Background()); err != nil {
            log.Printf("sweep: expiry run failed: %v", err)
        }
    }); err != nil {
        log.Fatalf("failed to schedule expiry sweep: %v", err)
    }
    c.Start()
    defer c.Stop()

    // Background consumer turning lifecycle events into booking.log lines.
    go func() {
        if err := queue.StartLifecycleConsumer(); err != nil {
            log.Printf("booking-consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
