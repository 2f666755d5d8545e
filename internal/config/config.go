package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Strings for identifiers and secrets, a
// duration for the sweep cadence.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    DBUser        string        // database username
    DBPass        string        // database password (optional)
    DBHost        string        // database host address
    DBPort        string        // database port number
    DBName        string        // database name
    JWTSecret     string        // secret used to verify access tokens
    SweepInterval time.Duration // cadence of the booking expiry sweep
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        DBUser:        must("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"), // empty allowed
        DBHost:        must("DB_HOST"),
        DBPort:        must("DB_PORT"),
        DBName:        must("DB_NAME"),
        JWTSecret:     must("JWT_SECRET"),
        SweepInterval: optionalDuration("BOOKING_SWEEP_INTERVAL", 5*time.Minute),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// optional returns the variable's value or the default when unset.
func optional(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// optionalBool parses a boolean variable, accepting 1/0, true/false,
// on/off in any case.  Unparseable values fall back to the default.
func optionalBool(key string, def bool) bool {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if b, err := strconv.ParseBool(v); err == nil {
        return b
    }
    switch v {
    case "on", "ON", "yes", "YES":
        return true
    case "off", "OFF", "no", "NO":
        return false
    }
    return def
}

// optionalInt parses an integer variable with a default.
func optionalInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return def
}

// optionalDuration parses a duration variable with a default.  Unlike the
// required loaders an unparseable value is fatal, since silently running
// with a wrong cadence is worse than failing to boot.
func optionalDuration(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        log.Fatalf("invalid duration for %s: %q", key, v)
    }
    return d
}
