package config

import "time"

// CacheConfig tunes the Redis response cache for booking reads.  Listing
// and detail responses are scoped to the authenticated caller, so the
// middleware keys entries per actor; only GET responses are cached.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from CACHE_* environment
// variables, with defaults suitable for short-lived listing pages.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      optionalBool("CACHE_ENABLED", true),
        TTL:          optionalDuration("CACHE_TTL", 30*time.Second),
        Prefix:       optional("CACHE_PREFIX", "bookings:cache"),
        MaxBodyBytes: optionalInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
