// Package repository implements persistence for bookings and the property
// inventory ledger on top of database/sql.  This file defines the tagged
// error type shared by the repositories, the lifecycle engine and the HTTP
// handlers.  Callers branch on the Kind, never on message text.
package repository

import (
    "errors"
    "fmt"

    "github.com/roomhunt/rental-booking/internal/model"
)

// ErrorKind classifies a failed booking operation.
type ErrorKind string

const (
    // KindNotFound means the referenced booking or property does not
    // exist (or is not visible to the caller).  Maps to HTTP 404.
    KindNotFound ErrorKind = "not_found"
    // KindInvalidTransition means the booking is not in the source state
    // the requested transition needs, and it is not the idempotent-retry
    // case.  Maps to HTTP 409 with the current status in the message.
    KindInvalidTransition ErrorKind = "invalid_transition"
    // KindNotAvailable means creation was blocked by inventory gating.
    KindNotAvailable ErrorKind = "not_available"
    // KindDuplicateRequest means the tenant already holds an active
    // booking on this property.
    KindDuplicateRequest ErrorKind = "duplicate_request"
    // KindInvalidBed means the bed number is missing or out of range for
    // a shared-room booking.
    KindInvalidBed ErrorKind = "invalid_bed"
    // KindMissingReason means reject was called without a reason.
    KindMissingReason ErrorKind = "missing_reason"
)

// BookingError is the typed failure result of a lifecycle operation.
// CurrentStatus is populated for invalid transitions so callers can report
// what state the booking is actually in.
type BookingError struct {
    Kind          ErrorKind
    CurrentStatus model.BookingStatus
    Message       string
}

func (e *BookingError) Error() string { return e.Message }

// NewNotFound builds a NotFound error for the named entity.
func NewNotFound(entity string) *BookingError {
    return &BookingError{Kind: KindNotFound, Message: entity + " not found"}
}

// NewInvalidTransition reports that verb cannot be applied to a booking
// currently in the given status.
func NewInvalidTransition(verb string, current model.BookingStatus) *BookingError {
    return &BookingError{
        Kind:          KindInvalidTransition,
        CurrentStatus: current,
        Message:       fmt.Sprintf("booking cannot be %s as it is currently %s", verb, current),
    }
}

// NewNotAvailable reports that creation was blocked by the property's
// availability gate.
func NewNotAvailable(msg string) *BookingError {
    return &BookingError{Kind: KindNotAvailable, Message: msg}
}

// NewDuplicateRequest reports an already-active booking for the same
// property and tenant.
func NewDuplicateRequest() *BookingError {
    return &BookingError{
        Kind:    KindDuplicateRequest,
        Message: "an active booking request already exists for this property",
    }
}

// NewInvalidBed reports a missing or out-of-range bed number.
func NewInvalidBed(msg string) *BookingError {
    return &BookingError{Kind: KindInvalidBed, Message: msg}
}

// NewMissingReason reports a reject call without a response message.
func NewMissingReason() *BookingError {
    return &BookingError{Kind: KindMissingReason, Message: "a rejection reason is required"}
}

// AsBookingError unwraps err into a *BookingError when possible.
func AsBookingError(err error) (*BookingError, bool) {
    var be *BookingError
    if errors.As(err, &be) {
        return be, true
    }
    return nil, false
}
