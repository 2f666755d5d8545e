// Package service implements the booking lifecycle engine: transition
// legality, inventory side effects, conflict resolution among sibling
// requests, and the time-based expiry sweep.  The engine talks to the data
// store through narrow interfaces so the state machine can be exercised
// without a database.
package service

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "strings"
    "time"

    "github.com/roomhunt/rental-booking/internal/model"
    "github.com/roomhunt/rental-booking/internal/queue"
    "github.com/roomhunt/rental-booking/internal/repository"
)

// conflictMessage is the system-authored response written onto pending
// siblings that lose the race for a unit of inventory.
const conflictMessage = "This property/bed has been booked by another tenant"

// BookingStore is the persistence surface the engine needs for booking
// records.  Each Mark* method applies one guarded transition and reports
// whether the conditional update matched; a false return means the booking
// was not in the required source state at the moment of the write.
type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)
    HasActiveForTenant(ctx context.Context, propertyID, tenantID uint64) (bool, error)
    MarkApproved(ctx context.Context, id uint64, responseMessage *string, now time.Time) (bool, error)
    MarkRejected(ctx context.Context, id uint64, responseMessage string, now time.Time) (bool, error)
    MarkCancelled(ctx context.Context, id, actorID uint64, reason string, now time.Time) (bool, error)
    MarkCompleted(ctx context.Context, id uint64, now time.Time) (bool, error)
    RejectSiblings(ctx context.Context, approvedID, propertyID uint64, bedNumber *uint16, message string, now time.Time) (int64, error)
    ExpirePending(ctx context.Context, now time.Time) (int64, error)
    AddNote(ctx context.Context, note *model.Note) error
    ListByTenant(ctx context.Context, tenantID uint64, f repository.ListFilter) ([]model.Booking, int64, error)
    ListByLandlord(ctx context.Context, landlordID uint64, f repository.ListFilter) ([]model.Booking, int64, error)
    CountByStatus(ctx context.Context, userID uint64, role string) (map[model.BookingStatus]int64, error)
}

// PropertyStore is the external property contract: lookup, the advisory
// inquiry counter, and the two inventory ledger operations.
type PropertyStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Property, error)
    IncrementInquiries(ctx context.Context, id uint64) error
    ReserveInventory(ctx context.Context, id uint64, t model.BookingType) error
    ReleaseInventory(ctx context.Context, id uint64, t model.BookingType) error
}

// Notifier dispatches lifecycle events to interested collaborators.
// Delivery is best effort and outside the transactional boundary; a failed
// notification never rolls back a transition.
type Notifier interface {
    BookingChanged(ctx context.Context, event string, b *model.Booking)
}

// BookingService is the lifecycle engine.  Now is the clock used for all
// timeline stamps and the expiry comparison; it defaults to the UTC wall
// clock and is swappable in tests.
type BookingService struct {
    Bookings   BookingStore
    Properties PropertyStore
    Notifier   Notifier
    Now        func() time.Time
}

// NewBookingService wires the engine.  Bookings and Properties must be
// non-nil; Notifier may be nil when no broker is configured.
func NewBookingService(bookings BookingStore, properties PropertyStore, notifier Notifier) *BookingService {
    if bookings == nil || properties == nil {
        panic("nil store passed to NewBookingService")
    }
    return &BookingService{
        Bookings:   bookings,
        Properties: properties,
        Notifier:   notifier,
        Now:        func() time.Time { return time.Now().UTC() },
    }
}

func (s *BookingService) clock() time.Time {
    if s.Now != nil {
        return s.Now()
    }
    return time.Now().UTC()
}

func (s *BookingService) notify(ctx context.Context, event string, b *model.Booking) {
    if s.Notifier != nil {
        s.Notifier.BookingChanged(ctx, event, b)
    }
}

// CreateBookingInput carries a tenant's request for a new tenancy.
type CreateBookingInput struct {
    PropertyID         uint64
    TenantID           uint64
    RequestMessage     string
    ProposedMoveInDate time.Time
    Duration           model.Duration
    BedNumber          *uint16
}

// CreateRequest validates and persists a new booking in PENDING state.
// Validation order: property exists, property is active and available, no
// duplicate active booking for the (property, tenant) pair, then bed
// validation for shared rooms.  The rent total is derived from the
// property's figures and the proposed duration.
func (s *BookingService) CreateRequest(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
    prop, err := s.Properties.GetByID(ctx, in.PropertyID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.NewNotFound("property")
        }
        return nil, err
    }
    if prop.Inventory.Status != model.PropertyActive {
        return nil, repository.NewNotAvailable("property is not available for booking")
    }
    if !prop.Inventory.IsAvailable {
        return nil, repository.NewNotAvailable("property is not currently available")
    }
    exists, err := s.Bookings.HasActiveForTenant(ctx, in.PropertyID, in.TenantID)
    if err != nil {
        return nil, err
    }
    if exists {
        return nil, repository.NewDuplicateRequest()
    }

    bookingType := prop.PropertyType.BookingTypeFor()
    var bed *uint16
    if bookingType == model.SharedRoomBed {
        if in.BedNumber == nil {
            return nil, repository.NewInvalidBed("bed number is required for shared room bookings")
        }
        if !prop.Inventory.HasBed(*in.BedNumber) {
            return nil, repository.NewInvalidBed("invalid bed number")
        }
        bed = in.BedNumber
    }

    now := s.clock()
    booking := &model.Booking{
        PropertyID:         in.PropertyID,
        TenantID:           in.TenantID,
        LandlordID:         prop.OwnerID,
        BookingType:        bookingType,
        Status:             model.BookingPending,
        RequestMessage:     in.RequestMessage,
        ProposedMoveInDate: in.ProposedMoveInDate,
        Duration:           in.Duration,
        Rent: model.RentDetails{
            MonthlyRent:     prop.MonthlyRent,
            SecurityDeposit: prop.Deposit,
            TotalAmount:     model.ComputeTotalAmount(prop.MonthlyRent, prop.Deposit, in.Duration),
            Currency:        prop.Currency,
        },
        BedNumber: bed,
        Timeline:  model.Timeline{RequestedAt: now},
        ExpiresAt: now.Add(model.ExpiryWindow),
    }
    if err := s.Bookings.Create(ctx, booking); err != nil {
        return nil, err
    }
    // Advisory metric only: a failed increment never unwinds the booking.
    if err := s.Properties.IncrementInquiries(ctx, in.PropertyID); err != nil {
        log.Printf("booking-engine: inquiry increment failed for property %d: %v", in.PropertyID, err)
    }
    log.Printf("booking-engine: request %d created for property %d", booking.ID, booking.PropertyID)
    s.notify(ctx, queue.EventBookingRequested, booking)
    return booking, nil
}

// Approve transitions a pending booking to APPROVED on behalf of its
// landlord, reserves the property's inventory, and auto-rejects competing
// pending requests for the same unit of inventory.  Approving an
// already-approved booking returns the record unchanged with no side
// effects.
func (s *BookingService) Approve(ctx context.Context, bookingID, landlordID uint64, responseMessage *string) (*model.Booking, error) {
    booking, err := s.loadForLandlord(ctx, bookingID, landlordID)
    if err != nil {
        return nil, err
    }
    if booking.Status == model.BookingApproved {
        return booking, nil
    }
    if booking.Status != model.BookingPending {
        return nil, repository.NewInvalidTransition("approved", booking.Status)
    }

    now := s.clock()
    ok, err := s.Bookings.MarkApproved(ctx, bookingID, responseMessage, now)
    if err != nil {
        return nil, err
    }
    if !ok {
        // Lost a race: someone else transitioned the booking between our
        // read and the guarded write.  Re-read and answer for the state
        // that actually won.
        current, err := s.Bookings.GetByID(ctx, bookingID)
        if err != nil {
            return nil, err
        }
        if current.Status == model.BookingApproved {
            return current, nil
        }
        return nil, repository.NewInvalidTransition("approved", current.Status)
    }

    // Booking status is committed first; the ledger write follows as its
    // own atomic step.  A failure here leaves an approved booking with
    // stale counters, which the availability gate tolerates, so it is
    // logged rather than unwound.
    if err := s.Properties.ReserveInventory(ctx, booking.PropertyID, booking.BookingType); err != nil {
        log.Printf("booking-engine: inventory reserve failed for property %d after approving booking %d: %v",
            booking.PropertyID, bookingID, err)
    }

    var bedScope *uint16
    if booking.BookingType == model.SharedRoomBed {
        bedScope = booking.BedNumber
    }
    rejected, err := s.Bookings.RejectSiblings(ctx, bookingID, booking.PropertyID, bedScope, conflictMessage, now)
    if err != nil {
        log.Printf("booking-engine: sibling rejection failed for booking %d: %v", bookingID, err)
    } else if rejected > 0 {
        log.Printf("booking-engine: booking %d approved, %d competing requests rejected", bookingID, rejected)
    }

    approved, err := s.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    s.notify(ctx, queue.EventBookingApproved, approved)
    return approved, nil
}

// Reject transitions a pending booking to REJECTED with the landlord's
// reason.  Rejecting an already-rejected booking is idempotent.
func (s *BookingService) Reject(ctx context.Context, bookingID, landlordID uint64, responseMessage string) (*model.Booking, error) {
    if strings.TrimSpace(responseMessage) == "" {
        return nil, repository.NewMissingReason()
    }
    booking, err := s.loadForLandlord(ctx, bookingID, landlordID)
    if err != nil {
        return nil, err
    }
    if booking.Status == model.BookingRejected {
        return booking, nil
    }
    if booking.Status != model.BookingPending {
        return nil, repository.NewInvalidTransition("rejected", booking.Status)
    }

    ok, err := s.Bookings.MarkRejected(ctx, bookingID, responseMessage, s.clock())
    if err != nil {
        return nil, err
    }
    if !ok {
        current, err := s.Bookings.GetByID(ctx, bookingID)
        if err != nil {
            return nil, err
        }
        if current.Status == model.BookingRejected {
            return current, nil
        }
        return nil, repository.NewInvalidTransition("rejected", current.Status)
    }

    rejected, err := s.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    s.notify(ctx, queue.EventBookingRejected, rejected)
    return rejected, nil
}

// Cancel withdraws a pending or approved booking on behalf of its tenant
// or landlord.  Cancelling a previously approved booking releases the
// inventory it held.  Cancellation is synchronous: the transition either
// applies here or the guard rejects it.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uint64, reason string) (*model.Booking, error) {
    booking, err := s.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.NewNotFound("booking")
        }
        return nil, err
    }
    if !booking.Participant(actorID) {
        return nil, repository.NewNotFound("booking")
    }
    if !booking.Status.IsActive() {
        return nil, repository.NewInvalidTransition("cancelled", booking.Status)
    }
    wasApproved := booking.Status == model.BookingApproved

    ok, err := s.Bookings.MarkCancelled(ctx, bookingID, actorID, reason, s.clock())
    if err != nil {
        return nil, err
    }
    if !ok {
        current, err := s.Bookings.GetByID(ctx, bookingID)
        if err != nil {
            return nil, err
        }
        return nil, repository.NewInvalidTransition("cancelled", current.Status)
    }

    if wasApproved {
        if err := s.Properties.ReleaseInventory(ctx, booking.PropertyID, booking.BookingType); err != nil {
            log.Printf("booking-engine: inventory release failed for property %d after cancelling booking %d: %v",
                booking.PropertyID, bookingID, err)
        }
    }

    cancelled, err := s.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    s.notify(ctx, queue.EventBookingCancelled, cancelled)
    return cancelled, nil
}

// Complete marks an approved tenancy as finished and frees the inventory
// it occupied.
func (s *BookingService) Complete(ctx context.Context, bookingID, landlordID uint64) (*model.Booking, error) {
    booking, err := s.loadForLandlord(ctx, bookingID, landlordID)
    if err != nil {
        return nil, err
    }
    if booking.Status != model.BookingApproved {
        return nil, repository.NewInvalidTransition("completed", booking.Status)
    }

    ok, err := s.Bookings.MarkCompleted(ctx, bookingID, s.clock())
    if err != nil {
        return nil, err
    }
    if !ok {
        current, err := s.Bookings.GetByID(ctx, bookingID)
        if err != nil {
            return nil, err
        }
        return nil, repository.NewInvalidTransition("completed", current.Status)
    }

    if err := s.Properties.ReleaseInventory(ctx, booking.PropertyID, booking.BookingType); err != nil {
        log.Printf("booking-engine: inventory release failed for property %d after completing booking %d: %v",
            booking.PropertyID, bookingID, err)
    }

    completed, err := s.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    s.notify(ctx, queue.EventBookingCompleted, completed)
    return completed, nil
}

// SweepExpired bulk-transitions every pending booking past its deadline to
// EXPIRED and returns the count.  The sweep is stateless and safe to run
// at any cadence, concurrently with itself and with decision traffic.
func (s *BookingService) SweepExpired(ctx context.Context) (int64, error) {
    n, err := s.Bookings.ExpirePending(ctx, s.clock())
    if err != nil {
        return 0, err
    }
    if n > 0 {
        log.Printf("booking-engine: expired %d stale pending bookings", n)
    }
    return n, nil
}

// Get returns a booking visible to the given participant.  Non-participants
// learn nothing beyond "not found".
func (s *BookingService) Get(ctx context.Context, bookingID, callerID uint64) (*model.Booking, error) {
    booking, err := s.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.NewNotFound("booking")
        }
        return nil, err
    }
    if !booking.Participant(callerID) {
        return nil, repository.NewNotFound("booking")
    }
    return booking, nil
}

// AddNote appends to the booking's note log.  Notes are human
// communication between the two parties; the engine stores them verbatim
// and never reads them back for decisions.
func (s *BookingService) AddNote(ctx context.Context, bookingID, authorID uint64, content string) (*model.Booking, error) {
    booking, err := s.Get(ctx, bookingID, authorID)
    if err != nil {
        return nil, err
    }
    note := &model.Note{
        BookingID: bookingID,
        AuthorID:  authorID,
        Content:   content,
        CreatedAt: s.clock(),
    }
    if err := s.Bookings.AddNote(ctx, note); err != nil {
        return nil, err
    }
    booking.Notes = append(booking.Notes, *note)
    return booking, nil
}

// BookingPage is a paginated listing result.
type BookingPage struct {
    Bookings   []model.Booking
    Total      int64
    Page       int
    Limit      int
    TotalPages int
}

// ListForTenant returns the tenant's bookings newest first.
func (s *BookingService) ListForTenant(ctx context.Context, tenantID uint64, status *model.BookingStatus, page, limit int) (*BookingPage, error) {
    f := normalizeFilter(status, page, limit)
    bookings, total, err := s.Bookings.ListByTenant(ctx, tenantID, f)
    if err != nil {
        return nil, err
    }
    return pageOf(bookings, total, f), nil
}

// ListForLandlord returns the landlord's incoming requests newest first.
func (s *BookingService) ListForLandlord(ctx context.Context, landlordID uint64, status *model.BookingStatus, page, limit int) (*BookingPage, error) {
    f := normalizeFilter(status, page, limit)
    bookings, total, err := s.Bookings.ListByLandlord(ctx, landlordID, f)
    if err != nil {
        return nil, err
    }
    return pageOf(bookings, total, f), nil
}

func normalizeFilter(status *model.BookingStatus, page, limit int) repository.ListFilter {
    if page < 1 {
        page = 1
    }
    if limit < 1 || limit > 100 {
        limit = 10
    }
    return repository.ListFilter{Status: status, Page: page, Limit: limit}
}

func pageOf(bookings []model.Booking, total int64, f repository.ListFilter) *BookingPage {
    pages := int(total) / f.Limit
    if int(total)%f.Limit != 0 {
        pages++
    }
    return &BookingPage{Bookings: bookings, Total: total, Page: f.Page, Limit: f.Limit, TotalPages: pages}
}

// Statistics returns per-status counts plus a total for the user acting in
// the given role ("tenant" or "landlord").  Absent statuses count zero.
func (s *BookingService) Statistics(ctx context.Context, userID uint64, role string) (map[string]int64, error) {
    counts, err := s.Bookings.CountByStatus(ctx, userID, role)
    if err != nil {
        return nil, err
    }
    stats := map[string]int64{
        "total":     0,
        "pending":   0,
        "approved":  0,
        "rejected":  0,
        "cancelled": 0,
        "completed": 0,
        "expired":   0,
    }
    for status, n := range counts {
        stats[string(status)] = n
        stats["total"] += n
    }
    return stats, nil
}

// loadForLandlord fetches a booking scoped to its landlord.  A booking
// owned by someone else is reported as not found, mirroring the lookup
// predicate a landlord-scoped query would use.
func (s *BookingService) loadForLandlord(ctx context.Context, bookingID, landlordID uint64) (*model.Booking, error) {
    booking, err := s.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.NewNotFound("booking")
        }
        return nil, err
    }
    if booking.LandlordID != landlordID {
        return nil, repository.NewNotFound("booking")
    }
    return booking, nil
}
