package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.  A booking
// starts as PENDING and moves along a fixed set of edges; REJECTED,
// CANCELLED, COMPLETED and EXPIRED are terminal and never exited.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"   // awaiting a landlord decision
    BookingApproved  BookingStatus = "approved"  // accepted; inventory reserved
    BookingRejected  BookingStatus = "rejected"  // declined by the landlord
    BookingCancelled BookingStatus = "cancelled" // withdrawn by tenant or landlord
    BookingCompleted BookingStatus = "completed" // tenancy finished; inventory freed
    BookingExpired   BookingStatus = "expired"   // pending past its deadline
)

// IsTerminal reports whether no further transition may leave this status.
func (s BookingStatus) IsTerminal() bool {
    switch s {
    case BookingRejected, BookingCancelled, BookingCompleted, BookingExpired:
        return true
    }
    return false
}

// IsActive reports whether the booking still occupies (or may occupy) a
// unit of inventory.  A tenant may hold at most one active booking per
// property.
func (s BookingStatus) IsActive() bool {
    return s == BookingPending || s == BookingApproved
}

// BookingType distinguishes a whole-property tenancy from a single bed
// inside a shared room.  It is derived from the property's type at
// creation and never changes afterwards.
type BookingType string

const (
    FullProperty  BookingType = "full_property"
    SharedRoomBed BookingType = "shared_room_bed"
)

// DurationUnit is the unit of a proposed tenancy duration.
type DurationUnit string

const (
    DurationMonths DurationUnit = "months"
    DurationYears  DurationUnit = "years"
)

// Duration is the tenancy length proposed by the tenant.
type Duration struct {
    Value uint32       `json:"value"`
    Unit  DurationUnit `json:"unit"`
}

// Months converts the duration to whole months.
func (d Duration) Months() uint32 {
    if d.Unit == DurationYears {
        return d.Value * 12
    }
    return d.Value
}

// RentDetails captures the money figures agreed for a booking.  TotalAmount
// is always derived via ComputeTotalAmount and never stored independently.
type RentDetails struct {
    MonthlyRent     uint64 `json:"monthly_rent"`
    SecurityDeposit uint64 `json:"security_deposit"`
    TotalAmount     uint64 `json:"total_amount"`
    Currency        string `json:"currency"`
}

// ComputeTotalAmount returns monthlyRent multiplied by the duration in
// months plus the security deposit.  It is the single place the total is
// calculated; creation and any rent change must call it explicitly.
func ComputeTotalAmount(monthlyRent, securityDeposit uint64, d Duration) uint64 {
    return monthlyRent*uint64(d.Months()) + securityDeposit
}

// Timeline records when each transition fired.  RequestedAt is always set
// at creation; every other stamp is set exactly once, when and only when
// the corresponding transition happens.
type Timeline struct {
    RequestedAt time.Time  `json:"requested_at"`
    RespondedAt *time.Time `json:"responded_at,omitempty"`
    ApprovedAt  *time.Time `json:"approved_at,omitempty"`
    RejectedAt  *time.Time `json:"rejected_at,omitempty"`
    CancelledAt *time.Time `json:"cancelled_at,omitempty"`
    CompletedAt *time.Time `json:"completed_at,omitempty"`
    ExpiredAt   *time.Time `json:"expired_at,omitempty"`
}

// Cancellation is present only after a booking has been cancelled.
type Cancellation struct {
    CancelledBy uint64    `json:"cancelled_by"`
    Reason      string    `json:"reason"`
    CancelledAt time.Time `json:"cancelled_at"`
}

// Note is one entry of the append-only note log attached to a booking.
// Notes are a side channel for human communication between the tenant and
// the landlord; the lifecycle engine never writes them.
type Note struct {
    ID        uint64    `json:"id"`         // booking_notes.id
    BookingID uint64    `json:"booking_id"` // booking_notes.booking_id
    AuthorID  uint64    `json:"author_id"`  // booking_notes.author_id
    Content   string    `json:"content"`    // booking_notes.content
    CreatedAt time.Time `json:"created_at"` // booking_notes.created_at
}

// Booking is the persisted state-machine instance for one tenancy request.
// Its status only moves along the transitions applied by the repository's
// guarded update methods; nothing else mutates it.
//
// Fields:
//  ID           – primary key identifier.
//  PropertyID   – property being requested.
//  TenantID     – user requesting the tenancy.
//  LandlordID   – owner of the property, copied at creation.
//  BookingType  – full property or a single shared-room bed.
//  Status       – current lifecycle state.
//  BedNumber    – 1-based bed index, set only for shared-room bookings.
//  ExpiresAt    – deadline after which a still-pending booking is expired.
type Booking struct {
    ID                 uint64        `json:"id"`
    PropertyID         uint64        `json:"property_id"`
    TenantID           uint64        `json:"tenant_id"`
    LandlordID         uint64        `json:"landlord_id"`
    BookingType        BookingType   `json:"booking_type"`
    Status             BookingStatus `json:"status"`
    RequestMessage     string        `json:"request_message"`
    ResponseMessage    *string       `json:"response_message,omitempty"`
    ProposedMoveInDate time.Time     `json:"proposed_move_in_date"`
    Duration           Duration      `json:"proposed_duration"`
    Rent               RentDetails   `json:"rent_details"`
    BedNumber          *uint16       `json:"bed_number,omitempty"`
    Timeline           Timeline      `json:"timeline"`
    Cancellation       *Cancellation `json:"cancellation,omitempty"`
    Notes              []Note        `json:"notes,omitempty"`
    ExpiresAt          time.Time     `json:"expires_at"`
    CreatedAt          time.Time     `json:"created_at"`
    UpdatedAt          time.Time     `json:"updated_at"`
}

// Participant reports whether the given user is the tenant or the landlord
// on this booking.
func (b *Booking) Participant(userID uint64) bool {
    return b.TenantID == userID || b.LandlordID == userID
}

// ExpiryWindow is how long a new request stays open before the sweeper may
// expire it.
const ExpiryWindow = 7 * 24 * time.Hour
