package handler // handler defines the HTTP handlers for the booking API

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/roomhunt/rental-booking/internal/repository"
)

// getUserID extracts the user_id injected by the JWT middleware and
// converts it to uint64.  Claims decoded from JSON arrive as float64 or
// string depending on how the token was minted.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid booking id")
    }
    return id, nil
}

// respondBookingError translates a lifecycle failure into the HTTP reply.
// Tagged errors map by kind; anything untagged is a database failure.
func respondBookingError(c echo.Context, err error) error {
    if be, ok := repository.AsBookingError(err); ok {
        status := http.StatusConflict
        switch be.Kind {
        case repository.KindNotFound:
            status = http.StatusNotFound
        case repository.KindInvalidBed, repository.KindMissingReason:
            status = http.StatusBadRequest
        }
        body := echo.Map{"error": be.Message}
        if be.Kind == repository.KindInvalidTransition {
            body["current_status"] = be.CurrentStatus
        }
        return c.JSON(status, body)
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// Validator adapts go-playground/validator to Echo's Validator interface
// so handlers can call c.Validate on bound request bodies.
type Validator struct {
    validate *validator.Validate
}

// NewValidator builds the request validator used by the server.
func NewValidator() *Validator {
    return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
    if err := v.validate.Struct(i); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, err.Error())
    }
    return nil
}
