package config

import "time"

// RateLimitConfig tunes the Redis token bucket guarding the booking API.
// Each authenticated actor gets Capacity tokens per route, refilled at
// RefillTokens per RefillInterval; TTL bounds how long an idle bucket
// lives in Redis.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    Prefix         string
}

// LoadRateLimitConfig builds a RateLimitConfig from RATE_LIMIT_*
// environment variables and clamps the values into a usable range.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        optionalBool("RATE_LIMIT_ENABLED", true),
        Capacity:       optionalInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   optionalInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: optionalDuration("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            optionalDuration("RATE_LIMIT_TTL", 10*time.Minute),
        Prefix:         optional("RATE_LIMIT_PREFIX", "bookings:rl"),
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // An idle bucket must outlive at least a few refill cycles.
    if min := 5 * cfg.RefillInterval; cfg.TTL < min {
        cfg.TTL = min
    }
    return cfg
}
