package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
)

var errInvalidStatus = errors.New("invalid status filter")

// BookingRequests handles GET /v1/bookings/requests.  Returns the
// landlord's incoming booking requests newest first, with the same
// filtering and pagination as the tenant listing.
func (h *BookingHandler) BookingRequests(c echo.Context) error {
    landlordID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    page, limit, status, err := listParams(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    result, err := h.Engine.ListForLandlord(c.Request().Context(), landlordID, status, page, limit)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, pageResponse(result))
}

// approveRequest is the body of PATCH /v1/bookings/:id/approve.
type approveRequest struct {
    ResponseMessage *string `json:"response_message" validate:"omitempty,max=1000"`
}

// ApproveBooking handles PATCH /v1/bookings/:id/approve.  The landlord
// accepts a pending request; the engine reserves inventory and rejects
// competing pending requests for the same unit.  Approving a booking that
// is already approved succeeds without re-applying side effects.
func (h *BookingHandler) ApproveBooking(c echo.Context) error {
    landlordID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body approveRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }
    booking, err := h.Engine.Approve(c.Request().Context(), id, landlordID, body.ResponseMessage)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// rejectRequest is the body of PATCH /v1/bookings/:id/reject.  The reason
// is mandatory.
type rejectRequest struct {
    ResponseMessage string `json:"response_message" validate:"required,max=1000"`
}

// RejectBooking handles PATCH /v1/bookings/:id/reject.  Rejecting an
// already-rejected booking succeeds idempotently.
func (h *BookingHandler) RejectBooking(c echo.Context) error {
    landlordID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body rejectRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }
    booking, err := h.Engine.Reject(c.Request().Context(), id, landlordID, body.ResponseMessage)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// CompleteBooking handles PATCH /v1/bookings/:id/complete.  The landlord
// marks an approved tenancy finished; the inventory it held is freed.
func (h *BookingHandler) CompleteBooking(c echo.Context) error {
    landlordID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    booking, err := h.Engine.Complete(c.Request().Context(), id, landlordID)
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// ExpireStale handles POST /v1/bookings/expire-stale.  Manually triggers
// the expiry sweep and returns the number of bookings transitioned.  The
// same sweep also runs on a schedule; a zero count is normal.
func (h *BookingHandler) ExpireStale(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    count, err := h.Engine.SweepExpired(c.Request().Context())
    if err != nil {
        return respondBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"expired": count})
}
