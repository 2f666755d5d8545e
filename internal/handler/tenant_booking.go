package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/roomhunt/rental-booking/internal/model"
    "github.com/roomhunt/rental-booking/internal/service"
)

// BookingHandler exposes the lifecycle engine over HTTP.  JWT and role
// middleware run before every method, so handlers only extract the
// authenticated user, bind and validate the body, and translate engine
// results.
type BookingHandler struct {
    Engine *service.BookingService
}

// NewBookingHandler constructs a BookingHandler; the engine must be
// non-nil.
func NewBookingHandler(engine *service.BookingService) *BookingHandler {
    if engine == nil {
        panic("nil engine passed to NewBookingHandler")
    }
    return &BookingHandler{Engine: engine}
}

// createBookingRequest is the body of POST /v1/bookings.
type createBookingRequest struct {
    PropertyID         uint64 `json:"property_id" validate:"required"`
    RequestMessage     string `json:"request_message" validate:"required,max=1000"`
    ProposedMoveInDate string `json:"proposed_move_in_date" validate:"required"`
    ProposedDuration   struct {
        Value uint32 `json:"value" validate:"required,min=1"`
        Unit  string `json:"unit" validate:"required,oneof=months years"`
    } `json:"proposed_duration"`
    BedNumber *uint16 `json:"bed_number" validate:"omitempty,min=1"`
}

// CreateBooking handles POST /v1/bookings.  The tenant requests a tenancy
// on a property, or on one bed of a shared room.  Returns 201 with the
// pending booking on success.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    tenantID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body createBookingRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }
    moveIn, err := time.Parse(time.RFC3339, body.ProposedMoveInDate)
    if err != nil {
        // Accept a bare date as well; the original clients send both.
        moveIn, err = time.Parse("2006-01-02", body.ProposedMoveInDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid proposed_move_in_date"})
        }
    }
    booking, err := h.Engine.CreateRequest(c.Request().Context(), service.CreateBookingInput{
        PropertyID:         body.PropertyID,
        TenantID:           tenantID,
        RequestMessage:     body.RequestMessage,
        ProposedMoveInDate: moveIn.UTC(),
        Duration: model.Duration{
            Value: body.ProposedDuration.Value,
            Unit:  model.DurationUnit(body.ProposedDuration.Unit),
        },
        BedNumber: body.BedNumber,
    })
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

// MyBookings handles GET /v1/bookings/my.  Returns the tenant's bookings
// newest first, with optional ?status= filter and page/limit pagination.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    tenantID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    page, limit, status, err := listParams(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    result, err := h.Engine.ListForTenant(c.Request().Context(), tenantID, status, page, limit)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, pageResponse(result))
}

// GetBooking handles GET /v1/bookings/:id.  Only the booking's tenant or
// landlord can see it; everyone else gets 404.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    booking, err := h.Engine.Get(c.Request().Context(), id, userID)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// cancelRequest is the body of PATCH /v1/bookings/:id/cancel.
type cancelRequest struct {
    Reason string `json:"reason" validate:"required,max=1000"`
}

// CancelBooking handles PATCH /v1/bookings/:id/cancel.  Either side of the
// booking may cancel while it is pending or approved; cancelling an
// approved booking frees the property's inventory.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body cancelRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }
    booking, err := h.Engine.Cancel(c.Request().Context(), id, userID, body.Reason)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// noteRequest is the body of POST /v1/bookings/:id/notes.
type noteRequest struct {
    Content string `json:"content" validate:"required,max=2000"`
}

// AddNote handles POST /v1/bookings/:id/notes.  Appends to the booking's
// note log; participants only.
func (h *BookingHandler) AddNote(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body noteRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }
    booking, err := h.Engine.AddNote(c.Request().Context(), id, userID, body.Content)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

// Statistics handles GET /v1/bookings/stats.  Returns per-status counts
// for the caller acting as ?role=tenant (default) or ?role=landlord.
func (h *BookingHandler) Statistics(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    role := c.QueryParam("role")
    if role != "landlord" {
        role = "tenant"
    }
    stats, err := h.Engine.Statistics(c.Request().Context(), userID, role)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"stats": stats})
}

// listParams reads pagination and the optional status filter from the
// query string.
func listParams(c echo.Context) (int, int, *model.BookingStatus, error) {
    page := 1
    if raw := c.QueryParam("page"); raw != "" {
        if n, err := strconv.Atoi(raw); err == nil && n > 0 {
            page = n
        }
    }
    limit := 10
    if raw := c.QueryParam("limit"); raw != "" {
        if n, err := strconv.Atoi(raw); err == nil && n > 0 {
            limit = n
        }
    }
    var status *model.BookingStatus
    if raw := c.QueryParam("status"); raw != "" {
        s := model.BookingStatus(raw)
        switch s {
        case model.BookingPending, model.BookingApproved, model.BookingRejected,
            model.BookingCancelled, model.BookingCompleted, model.BookingExpired:
            status = &s
        default:
            return 0, 0, nil, errInvalidStatus
        }
    }
    return page, limit, status, nil
}

// pageResponse shapes a listing result the way the clients expect.
func pageResponse(p *service.BookingPage) echo.Map {
    return echo.Map{
        "items": p.Bookings,
        "meta": echo.Map{
            "total":       p.Total,
            "page":        p.Page,
            "limit":       p.Limit,
            "total_pages": p.TotalPages,
        },
    }
}
