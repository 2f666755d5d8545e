package model

import "time"

// PropertyStatus mirrors the moderation/tenancy state of a listing.  Only
// ACTIVE properties accept new booking requests; an approved full-property
// booking flips the listing to RENTED until the tenancy ends.
type PropertyStatus string

const (
    PropertyPendingVerification PropertyStatus = "pending_verification"
    PropertyActive              PropertyStatus = "active"
    PropertyRented              PropertyStatus = "rented"
    PropertyInactive            PropertyStatus = "inactive"
    PropertyRejected            PropertyStatus = "rejected"
)

// PropertyType distinguishes listings rented whole from shared rooms
// rented bed by bed.
type PropertyType string

const (
    SharedRoom PropertyType = "shared_room"
    FullHouse  PropertyType = "full_house"
)

// BookingTypeFor derives the booking type a property accepts.
func (t PropertyType) BookingTypeFor() BookingType {
    if t == SharedRoom {
        return SharedRoomBed
    }
    return FullProperty
}

// Property is the subset of the listing entity this service reads and
// writes: identity, rent figures used to price a booking, and the
// inventory ledger gating availability.  Listing CRUD, media and search
// live elsewhere.
type Property struct {
    ID           uint64       `json:"id"`            // properties.id
    OwnerID      uint64       `json:"owner_id"`      // properties.owner_id
    Title        string       `json:"title"`         // properties.title
    PropertyType PropertyType `json:"property_type"` // properties.property_type
    MonthlyRent  uint64       `json:"monthly_rent"`  // properties.monthly_rent
    Deposit      uint64       `json:"deposit"`       // properties.security_deposit
    Currency     string       `json:"currency"`      // properties.currency
    Inventory    Inventory    `json:"inventory"`     // availability flags and bed counters
    Inquiries    uint32       `json:"inquiries"`     // properties.inquiries (advisory metric)
    CreatedAt    time.Time    `json:"created_at"`    // properties.created_at
    UpdatedAt    time.Time    `json:"updated_at"`    // properties.updated_at
}

// AcceptsBookings reports whether a new request may be created against the
// property right now.
func (p *Property) AcceptsBookings() bool {
    return p.Inventory.Status == PropertyActive && p.Inventory.IsAvailable
}
