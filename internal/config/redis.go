package config

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance backing the response
// cache and the rate limiter.  The address comes from REDIS_ADDR, or from
// REDIS_HOST/REDIS_PORT when both are set; REDIS_PASSWORD, REDIS_DB and
// REDIS_TLS are optional.  Redis is not load-bearing for bookings, so a
// failed ping returns nil and the middlewares that receive a nil client
// degrade to pass-through.
func NewRedisClient() *redis.Client {
    addr := optional("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }

    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       optionalInt("REDIS_DB", 0),
    }
    if v := os.Getenv("REDIS_TLS"); v == "1" || strings.EqualFold(v, "true") {
        opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
    }

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        return nil
    }
    return client
}
