// Package queue defines the booking lifecycle events exchanged over the
// message broker and the publisher/consumer around them.
package queue

// Lifecycle event names carried in BookingLifecycleEvent.Event.
const (
    EventBookingRequested = "booking.requested"
    EventBookingApproved  = "booking.approved"
    EventBookingRejected  = "booking.rejected"
    EventBookingCancelled = "booking.cancelled"
    EventBookingCompleted = "booking.completed"
)

// BookingLifecycleEvent is published whenever a booking transitions.  It
// carries enough for downstream consumers (notification delivery, audit
// logs, analytics) to act without querying the primary database.
type BookingLifecycleEvent struct {
    Event       string  `json:"event"`
    BookingID   uint64  `json:"booking_id"`
    PropertyID  uint64  `json:"property_id"`
    TenantID    uint64  `json:"tenant_id"`
    LandlordID  uint64  `json:"landlord_id"`
    BookingType string  `json:"booking_type"`
    Status      string  `json:"status"`
    BedNumber   *uint16 `json:"bed_number,omitempty"`
    TotalAmount uint64  `json:"total_amount"`
    Currency    string  `json:"currency"`
    OccurredAt  string  `json:"occurred_at"`
}
