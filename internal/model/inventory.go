package model

import "errors"

// ErrNoCapacity is returned by Reserve when the property has no unit of
// inventory left to give out.
var ErrNoCapacity = errors.New("no capacity left to reserve")

// Inventory is the availability ledger of a property.  For full-property
// listings only the status flag and the availability gate matter; for
// shared rooms the per-bed counters are the source of truth and the gate
// follows them.  The ledger is a plain value: repositories load it, call
// Reserve or Release, and write the result back under a row lock so the
// mutation stays atomic per property.
type Inventory struct {
    Status           PropertyStatus `json:"status"`            // properties.status
    IsAvailable      bool           `json:"is_available"`      // properties.is_available
    TotalBeds        uint16         `json:"total_beds"`        // properties.total_beds (shared rooms)
    AvailableBeds    uint16         `json:"available_beds"`    // properties.available_beds
    CurrentOccupants uint16         `json:"current_occupants"` // properties.current_occupants
}

// Reserve consumes one unit of inventory for an approved booking.  For a
// full property the whole listing is taken: the gate closes and the status
// flips to RENTED.  For a shared-room bed one bed is consumed; the gate
// closes only when the last bed goes.  Reserve fails with ErrNoCapacity
// when a bed booking is approved against a room with no free beds, which
// keeps AvailableBeds from ever going negative.
func (inv *Inventory) Reserve(t BookingType) error {
    if t == SharedRoomBed {
        if inv.AvailableBeds == 0 {
            return ErrNoCapacity
        }
        inv.AvailableBeds--
        inv.CurrentOccupants++
        if inv.AvailableBeds == 0 {
            inv.IsAvailable = false
        }
        return nil
    }
    inv.IsAvailable = false
    inv.Status = PropertyRented
    return nil
}

// Release is the exact inverse of Reserve, applied when a previously
// approved booking is cancelled or completed.  A freed bed always reopens
// the gate.  The counters are clamped so that a stray double release can
// never push them past the room's size.
func (inv *Inventory) Release(t BookingType) {
    if t == SharedRoomBed {
        if inv.AvailableBeds < inv.TotalBeds {
            inv.AvailableBeds++
        }
        if inv.CurrentOccupants > 0 {
            inv.CurrentOccupants--
        }
        inv.IsAvailable = true
        return
    }
    inv.IsAvailable = true
    inv.Status = PropertyActive
}

// HasBed reports whether n is a valid 1-based bed number for this room.
func (inv *Inventory) HasBed(n uint16) bool {
    return n >= 1 && n <= inv.TotalBeds
}
