package service

import (
    "context"
    "database/sql"
    "sort"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/roomhunt/rental-booking/internal/model"
    "github.com/roomhunt/rental-booking/internal/repository"
)

// memBookings is an in-memory BookingStore used to exercise the state
// machine without a database.  Its Mark* methods apply the same
// status-guarded semantics as the SQL repository: the mutation happens
// only when the record is in the required source state.
type memBookings struct {
    seq   uint64
    items map[uint64]*model.Booking
}

func newMemBookings() *memBookings {
    return &memBookings{items: make(map[uint64]*model.Booking)}
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
    m.seq++
    b.ID = m.seq
    b.CreatedAt = b.Timeline.RequestedAt
    b.UpdatedAt = b.CreatedAt
    cp := *b
    m.items[b.ID] = &cp
    return nil
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
    b, ok := m.items[id]
    if !ok {
        return nil, sql.ErrNoRows
    }
    cp := *b
    return &cp, nil
}

func (m *memBookings) HasActiveForTenant(_ context.Context, propertyID, tenantID uint64) (bool, error) {
    for _, b := range m.items {
        if b.PropertyID == propertyID && b.TenantID == tenantID && b.Status.IsActive() {
            return true, nil
        }
    }
    return false, nil
}

func (m *memBookings) MarkApproved(_ context.Context, id uint64, responseMessage *string, now time.Time) (bool, error) {
    b, ok := m.items[id]
    if !ok || b.Status != model.BookingPending {
        return false, nil
    }
    b.Status = model.BookingApproved
    b.ResponseMessage = responseMessage
    ts := now
    b.Timeline.RespondedAt = &ts
    b.Timeline.ApprovedAt = &ts
    b.UpdatedAt = now
    return true, nil
}

func (m *memBookings) MarkRejected(_ context.Context, id uint64, responseMessage string, now time.Time) (bool, error) {
    b, ok := m.items[id]
    if !ok || b.Status != model.BookingPending {
        return false, nil
    }
    b.Status = model.BookingRejected
    b.ResponseMessage = &responseMessage
    ts := now
    b.Timeline.RespondedAt = &ts
    b.Timeline.RejectedAt = &ts
    b.UpdatedAt = now
    return true, nil
}

func (m *memBookings) MarkCancelled(_ context.Context, id, actorID uint64, reason string, now time.Time) (bool, error) {
    b, ok := m.items[id]
    if !ok || !b.Status.IsActive() || !b.Participant(actorID) {
        return false, nil
    }
    b.Status = model.BookingCancelled
    ts := now
    b.Timeline.CancelledAt = &ts
    b.Cancellation = &model.Cancellation{CancelledBy: actorID, Reason: reason, CancelledAt: now}
    b.UpdatedAt = now
    return true, nil
}

func (m *memBookings) MarkCompleted(_ context.Context, id uint64, now time.Time) (bool, error) {
    b, ok := m.items[id]
    if !ok || b.Status != model.BookingApproved {
        return false, nil
    }
    b.Status = model.BookingCompleted
    ts := now
    b.Timeline.CompletedAt = &ts
    b.UpdatedAt = now
    return true, nil
}

func (m *memBookings) RejectSiblings(_ context.Context, approvedID, propertyID uint64, bedNumber *uint16, message string, now time.Time) (int64, error) {
    var n int64
    for _, b := range m.items {
        if b.ID == approvedID || b.PropertyID != propertyID || b.Status != model.BookingPending {
            continue
        }
        if bedNumber != nil && (b.BedNumber == nil || *b.BedNumber != *bedNumber) {
            continue
        }
        b.Status = model.BookingRejected
        msg := message
        b.ResponseMessage = &msg
        ts := now
        b.Timeline.RejectedAt = &ts
        b.UpdatedAt = now
        n++
    }
    return n, nil
}

func (m *memBookings) ExpirePending(_ context.Context, now time.Time) (int64, error) {
    var n int64
    for _, b := range m.items {
        if b.Status != model.BookingPending || !b.ExpiresAt.Before(now) {
            continue
        }
        b.Status = model.BookingExpired
        ts := now
        b.Timeline.ExpiredAt = &ts
        b.UpdatedAt = now
        n++
    }
    return n, nil
}

func (m *memBookings) AddNote(_ context.Context, note *model.Note) error {
    b, ok := m.items[note.BookingID]
    if !ok {
        return sql.ErrNoRows
    }
    note.ID = uint64(len(b.Notes) + 1)
    b.Notes = append(b.Notes, *note)
    return nil
}

func (m *memBookings) ListByTenant(_ context.Context, tenantID uint64, f repository.ListFilter) ([]model.Booking, int64, error) {
    return m.list(func(b *model.Booking) bool { return b.TenantID == tenantID }, f)
}

func (m *memBookings) ListByLandlord(_ context.Context, landlordID uint64, f repository.ListFilter) ([]model.Booking, int64, error) {
    return m.list(func(b *model.Booking) bool { return b.LandlordID == landlordID }, f)
}

func (m *memBookings) list(match func(*model.Booking) bool, f repository.ListFilter) ([]model.Booking, int64, error) {
    all := make([]model.Booking, 0)
    for _, b := range m.items {
        if !match(b) {
            continue
        }
        if f.Status != nil && b.Status != *f.Status {
            continue
        }
        all = append(all, *b)
    }
    sort.Slice(all, func(i, j int) bool {
        if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
            return all[i].CreatedAt.After(all[j].CreatedAt)
        }
        return all[i].ID > all[j].ID
    })
    total := int64(len(all))
    start := (f.Page - 1) * f.Limit
    if start >= len(all) {
        return []model.Booking{}, total, nil
    }
    end := start + f.Limit
    if end > len(all) {
        end = len(all)
    }
    return all[start:end], total, nil
}

func (m *memBookings) CountByStatus(_ context.Context, userID uint64, role string) (map[model.BookingStatus]int64, error) {
    counts := make(map[model.BookingStatus]int64)
    for _, b := range m.items {
        owner := b.TenantID
        if role == "landlord" {
            owner = b.LandlordID
        }
        if owner == userID {
            counts[b.Status]++
        }
    }
    return counts, nil
}

// memProperties is an in-memory PropertyStore applying the inventory
// ledger rules directly to held values.
type memProperties struct {
    items map[uint64]*model.Property
}

func newMemProperties() *memProperties {
    return &memProperties{items: make(map[uint64]*model.Property)}
}

func (m *memProperties) GetByID(_ context.Context, id uint64) (*model.Property, error) {
    p, ok := m.items[id]
    if !ok {
        return nil, sql.ErrNoRows
    }
    cp := *p
    return &cp, nil
}

func (m *memProperties) IncrementInquiries(_ context.Context, id uint64) error {
    if p, ok := m.items[id]; ok {
        p.Inquiries++
    }
    return nil
}

func (m *memProperties) ReserveInventory(_ context.Context, id uint64, t model.BookingType) error {
    p, ok := m.items[id]
    if !ok {
        return sql.ErrNoRows
    }
    return p.Inventory.Reserve(t)
}

func (m *memProperties) ReleaseInventory(_ context.Context, id uint64, t model.BookingType) error {
    p, ok := m.items[id]
    if !ok {
        return sql.ErrNoRows
    }
    p.Inventory.Release(t)
    return nil
}

// captureNotifier records dispatched lifecycle events.
type captureNotifier struct {
    events []string
}

func (n *captureNotifier) BookingChanged(_ context.Context, event string, _ *model.Booking) {
    n.events = append(n.events, event)
}

type fixture struct {
    bookings *memBookings
    props    *memProperties
    notifier *captureNotifier
    engine   *BookingService
    now      time.Time
}

func newFixture() *fixture {
    f := &fixture{
        bookings: newMemBookings(),
        props:    newMemProperties(),
        notifier: &captureNotifier{},
        now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
    }
    f.engine = NewBookingService(f.bookings, f.props, f.notifier)
    f.engine.Now = func() time.Time { return f.now }
    return f
}

func (f *fixture) addFullHouse(id, ownerID uint64) {
    f.props.items[id] = &model.Property{
        ID: id, OwnerID: ownerID, Title: "2-bed flat", PropertyType: model.FullHouse,
        MonthlyRent: 20000, Deposit: 10000, Currency: "PKR",
        Inventory: model.Inventory{Status: model.PropertyActive, IsAvailable: true},
    }
}

func (f *fixture) addSharedRoom(id, ownerID uint64, beds uint16) {
    f.props.items[id] = &model.Property{
        ID: id, OwnerID: ownerID, Title: "shared room", PropertyType: model.SharedRoom,
        MonthlyRent: 8000, Deposit: 4000, Currency: "PKR",
        Inventory: model.Inventory{
            Status: model.PropertyActive, IsAvailable: true,
            TotalBeds: beds, AvailableBeds: beds,
        },
    }
}

func (f *fixture) createBooking(t *testing.T, propertyID, tenantID uint64, bed *uint16) *model.Booking {
    t.Helper()
    b, err := f.engine.CreateRequest(context.Background(), CreateBookingInput{
        PropertyID:         propertyID,
        TenantID:           tenantID,
        RequestMessage:     "interested in a long stay",
        ProposedMoveInDate: f.now.AddDate(0, 1, 0),
        Duration:           model.Duration{Value: 6, Unit: model.DurationMonths},
        BedNumber:          bed,
    })
    require.NoError(t, err)
    return b
}

func bedPtr(n uint16) *uint16 { return &n }

func kindOf(t *testing.T, err error) repository.ErrorKind {
    t.Helper()
    be, ok := repository.AsBookingError(err)
    require.True(t, ok, "expected a tagged booking error, got %v", err)
    return be.Kind
}

func TestCreateRequestFullProperty(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)

    b := f.createBooking(t, 1, 200, nil)

    assert.Equal(t, model.BookingPending, b.Status)
    assert.Equal(t, model.FullProperty, b.BookingType)
    assert.Equal(t, uint64(100), b.LandlordID)
    assert.Nil(t, b.BedNumber)
    assert.Equal(t, uint64(20000*6+10000), b.Rent.TotalAmount)
    assert.Equal(t, "PKR", b.Rent.Currency)
    assert.Equal(t, f.now, b.Timeline.RequestedAt)
    assert.Equal(t, f.now.Add(model.ExpiryWindow), b.ExpiresAt)
    assert.Equal(t, uint32(1), f.props.items[1].Inquiries)
    assert.Equal(t, []string{"booking.requested"}, f.notifier.events)
}

func TestCreateRequestTotalForYears(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)

    b, err := f.engine.CreateRequest(context.Background(), CreateBookingInput{
        PropertyID:         1,
        TenantID:           200,
        RequestMessage:     "one year please",
        ProposedMoveInDate: f.now.AddDate(0, 1, 0),
        Duration:           model.Duration{Value: 1, Unit: model.DurationYears},
    })
    require.NoError(t, err)
    assert.Equal(t, uint64(20000*12+10000), b.Rent.TotalAmount)
}

func TestCreateRequestPropertyMissing(t *testing.T) {
    f := newFixture()
    _, err := f.engine.CreateRequest(context.Background(), CreateBookingInput{PropertyID: 99, TenantID: 200})
    assert.Equal(t, repository.KindNotFound, kindOf(t, err))
}

func TestCreateRequestInactiveProperty(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    f.props.items[1].Inventory.Status = model.PropertyPendingVerification

    _, err := f.engine.CreateRequest(context.Background(), CreateBookingInput{PropertyID: 1, TenantID: 200})
    assert.Equal(t, repository.KindNotAvailable, kindOf(t, err))
}

func TestCreateRequestGateClosed(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    f.props.items[1].Inventory.IsAvailable = false

    _, err := f.engine.CreateRequest(context.Background(), CreateBookingInput{PropertyID: 1, TenantID: 200})
    assert.Equal(t, repository.KindNotAvailable, kindOf(t, err))
}

func TestCreateRequestDuplicate(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    f.createBooking(t, 1, 200, nil)

    _, err := f.engine.CreateRequest(context.Background(), CreateBookingInput{
        PropertyID: 1, TenantID: 200, RequestMessage: "again",
        ProposedMoveInDate: f.now, Duration: model.Duration{Value: 3, Unit: model.DurationMonths},
    })
    assert.Equal(t, repository.KindDuplicateRequest, kindOf(t, err))
}

func TestCreateRequestBedValidation(t *testing.T) {
    f := newFixture()
    f.addSharedRoom(1, 100, 2)

    _, err := f.engine.CreateRequest(context.Background(), CreateBookingInput{
        PropertyID: 1, TenantID: 200, RequestMessage: "m",
        ProposedMoveInDate: f.now, Duration: model.Duration{Value: 3, Unit: model.DurationMonths},
    })
    assert.Equal(t, repository.KindInvalidBed, kindOf(t, err))

    _, err = f.engine.CreateRequest(context.Background(), CreateBookingInput{
        PropertyID: 1, TenantID: 200, RequestMessage: "m",
        ProposedMoveInDate: f.now, Duration: model.Duration{Value: 3, Unit: model.DurationMonths},
        BedNumber: bedPtr(3),
    })
    assert.Equal(t, repository.KindInvalidBed, kindOf(t, err))
}

func TestApproveRejectsCompetingSiblings(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    winner := f.createBooking(t, 1, 200, nil)
    sib1 := f.createBooking(t, 1, 201, nil)
    sib2 := f.createBooking(t, 1, 202, nil)

    approved, err := f.engine.Approve(context.Background(), winner.ID, 100, nil)
    require.NoError(t, err)
    assert.Equal(t, model.BookingApproved, approved.Status)
    require.NotNil(t, approved.Timeline.ApprovedAt)
    require.NotNil(t, approved.Timeline.RespondedAt)

    for _, id := range []uint64{sib1.ID, sib2.ID} {
        b, err := f.bookings.GetByID(context.Background(), id)
        require.NoError(t, err)
        assert.Equal(t, model.BookingRejected, b.Status)
        require.NotNil(t, b.ResponseMessage)
        assert.Equal(t, conflictMessage, *b.ResponseMessage)
    }

    inv := f.props.items[1].Inventory
    assert.False(t, inv.IsAvailable)
    assert.Equal(t, model.PropertyRented, inv.Status)
}

func TestApproveBedScopedConflictResolution(t *testing.T) {
    f := newFixture()
    f.addSharedRoom(1, 100, 2)
    bed1 := f.createBooking(t, 1, 200, bedPtr(1))
    bed2 := f.createBooking(t, 1, 201, bedPtr(2))
    bed1rival := f.createBooking(t, 1, 202, bedPtr(1))

    _, err := f.engine.Approve(context.Background(), bed1.ID, 100, nil)
    require.NoError(t, err)

    rival, err := f.bookings.GetByID(context.Background(), bed1rival.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingRejected, rival.Status)

    // The request for the other bed survives untouched.
    other, err := f.bookings.GetByID(context.Background(), bed2.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingPending, other.Status)

    inv := f.props.items[1].Inventory
    assert.Equal(t, uint16(1), inv.AvailableBeds)
    assert.Equal(t, uint16(1), inv.CurrentOccupants)
    assert.True(t, inv.IsAvailable)
}

func TestApproveIdempotent(t *testing.T) {
    f := newFixture()
    f.addSharedRoom(1, 100, 2)
    b := f.createBooking(t, 1, 200, bedPtr(1))

    first, err := f.engine.Approve(context.Background(), b.ID, 100, nil)
    require.NoError(t, err)
    second, err := f.engine.Approve(context.Background(), b.ID, 100, nil)
    require.NoError(t, err)

    assert.Equal(t, first.Status, second.Status)
    assert.Equal(t, first.Timeline.ApprovedAt, second.Timeline.ApprovedAt)
    // No double decrement of beds.
    inv := f.props.items[1].Inventory
    assert.Equal(t, uint16(1), inv.AvailableBeds)
    assert.Equal(t, uint16(1), inv.CurrentOccupants)
    // Only one approval event went out.
    assert.Equal(t, []string{"booking.requested", "booking.approved"}, f.notifier.events)
}

func TestApproveWrongState(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)
    _, err := f.engine.Reject(context.Background(), b.ID, 100, "no pets")
    require.NoError(t, err)

    _, err = f.engine.Approve(context.Background(), b.ID, 100, nil)
    be, ok := repository.AsBookingError(err)
    require.True(t, ok)
    assert.Equal(t, repository.KindInvalidTransition, be.Kind)
    assert.Equal(t, model.BookingRejected, be.CurrentStatus)
}

func TestApproveScopedToLandlord(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)

    _, err := f.engine.Approve(context.Background(), b.ID, 999, nil)
    assert.Equal(t, repository.KindNotFound, kindOf(t, err))
}

// racedApproveStore simulates the losing side of two concurrent approvals:
// the other writer's guarded update lands between our read and our write,
// so our conditional update matches zero rows.
type racedApproveStore struct {
    *memBookings
    raced bool
}

func (r *racedApproveStore) MarkApproved(ctx context.Context, id uint64, msg *string, now time.Time) (bool, error) {
    if !r.raced {
        r.raced = true
        _, _ = r.memBookings.MarkApproved(ctx, id, nil, now)
        return false, nil
    }
    return r.memBookings.MarkApproved(ctx, id, msg, now)
}

func TestApproveRaceFallsBackToIdempotentPath(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)
    f.engine.Bookings = &racedApproveStore{memBookings: f.bookings}

    approved, err := f.engine.Approve(context.Background(), b.ID, 100, nil)
    require.NoError(t, err)
    assert.Equal(t, model.BookingApproved, approved.Status)
}

func TestRejectRequiresReason(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)

    _, err := f.engine.Reject(context.Background(), b.ID, 100, "   ")
    assert.Equal(t, repository.KindMissingReason, kindOf(t, err))
}

func TestRejectIdempotent(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)

    first, err := f.engine.Reject(context.Background(), b.ID, 100, "no pets")
    require.NoError(t, err)
    second, err := f.engine.Reject(context.Background(), b.ID, 100, "no pets")
    require.NoError(t, err)
    assert.Equal(t, model.BookingRejected, second.Status)
    assert.Equal(t, first.Timeline.RejectedAt, second.Timeline.RejectedAt)
}

func TestCancelPendingKeepsInventory(t *testing.T) {
    f := newFixture()
    f.addSharedRoom(1, 100, 2)
    b := f.createBooking(t, 1, 200, bedPtr(1))

    cancelled, err := f.engine.Cancel(context.Background(), b.ID, 200, "changed plans")
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, cancelled.Status)
    require.NotNil(t, cancelled.Cancellation)
    assert.Equal(t, uint64(200), cancelled.Cancellation.CancelledBy)
    assert.Equal(t, "changed plans", cancelled.Cancellation.Reason)

    // A cancelled pending request never held inventory.
    inv := f.props.items[1].Inventory
    assert.Equal(t, uint16(2), inv.AvailableBeds)
    assert.Equal(t, uint16(0), inv.CurrentOccupants)
}

func TestCancelApprovedRestoresInventory(t *testing.T) {
    f := newFixture()
    f.addSharedRoom(1, 100, 2)
    b := f.createBooking(t, 1, 200, bedPtr(1))
    _, err := f.engine.Approve(context.Background(), b.ID, 100, nil)
    require.NoError(t, err)

    before := f.props.items[1].Inventory
    require.Equal(t, uint16(1), before.AvailableBeds)

    _, err = f.engine.Cancel(context.Background(), b.ID, 100, "tenant unreachable")
    require.NoError(t, err)

    inv := f.props.items[1].Inventory
    assert.Equal(t, uint16(2), inv.AvailableBeds)
    assert.Equal(t, uint16(0), inv.CurrentOccupants)
    assert.True(t, inv.IsAvailable)
}

func TestCancelApprovedFullPropertyReopensListing(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)
    _, err := f.engine.Approve(context.Background(), b.ID, 100, nil)
    require.NoError(t, err)

    _, err = f.engine.Cancel(context.Background(), b.ID, 200, "found another place")
    require.NoError(t, err)

    inv := f.props.items[1].Inventory
    assert.True(t, inv.IsAvailable)
    assert.Equal(t, model.PropertyActive, inv.Status)
}

func TestCancelByStranger(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)

    _, err := f.engine.Cancel(context.Background(), b.ID, 999, "not mine")
    assert.Equal(t, repository.KindNotFound, kindOf(t, err))
}

func TestCompleteEndToEnd(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)
    assert.Equal(t, model.BookingPending, b.Status)

    approved, err := f.engine.Approve(context.Background(), b.ID, 100, nil)
    require.NoError(t, err)
    assert.Equal(t, model.BookingApproved, approved.Status)
    assert.False(t, f.props.items[1].Inventory.IsAvailable)
    assert.Equal(t, model.PropertyRented, f.props.items[1].Inventory.Status)

    completed, err := f.engine.Complete(context.Background(), b.ID, 100)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCompleted, completed.Status)
    require.NotNil(t, completed.Timeline.CompletedAt)
    assert.True(t, f.props.items[1].Inventory.IsAvailable)
    assert.Equal(t, model.PropertyActive, f.props.items[1].Inventory.Status)
}

func TestCompleteRequiresApproved(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)

    _, err := f.engine.Complete(context.Background(), b.ID, 100)
    be, ok := repository.AsBookingError(err)
    require.True(t, ok)
    assert.Equal(t, repository.KindInvalidTransition, be.Kind)
    assert.Equal(t, model.BookingPending, be.CurrentStatus)
}

func TestSweepExpiredBoundary(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    f.addFullHouse(2, 100)
    stale := f.createBooking(t, 1, 200, nil)
    fresh := f.createBooking(t, 2, 201, nil)

    // One booking a second past its deadline, one a second before it.
    f.bookings.items[stale.ID].ExpiresAt = f.now.Add(-time.Second)
    f.bookings.items[fresh.ID].ExpiresAt = f.now.Add(time.Second)

    n, err := f.engine.SweepExpired(context.Background())
    require.NoError(t, err)
    assert.Equal(t, int64(1), n)

    swept, _ := f.bookings.GetByID(context.Background(), stale.ID)
    assert.Equal(t, model.BookingExpired, swept.Status)
    require.NotNil(t, swept.Timeline.ExpiredAt)

    kept, _ := f.bookings.GetByID(context.Background(), fresh.ID)
    assert.Equal(t, model.BookingPending, kept.Status)

    // Re-running the sweep finds nothing more.
    n, err = f.engine.SweepExpired(context.Background())
    require.NoError(t, err)
    assert.Equal(t, int64(0), n)
}

func TestSweepIgnoresApproved(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)
    _, err := f.engine.Approve(context.Background(), b.ID, 100, nil)
    require.NoError(t, err)
    f.bookings.items[b.ID].ExpiresAt = f.now.Add(-time.Hour)

    n, err := f.engine.SweepExpired(context.Background())
    require.NoError(t, err)
    assert.Equal(t, int64(0), n)
}

func TestTerminalStatesAreFinal(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)
    _, err := f.engine.Cancel(context.Background(), b.ID, 200, "done")
    require.NoError(t, err)

    _, err = f.engine.Cancel(context.Background(), b.ID, 200, "again")
    assert.Equal(t, repository.KindInvalidTransition, kindOf(t, err))
    _, err = f.engine.Approve(context.Background(), b.ID, 100, nil)
    assert.Equal(t, repository.KindInvalidTransition, kindOf(t, err))
    _, err = f.engine.Reject(context.Background(), b.ID, 100, "reason")
    assert.Equal(t, repository.KindInvalidTransition, kindOf(t, err))
    _, err = f.engine.Complete(context.Background(), b.ID, 100)
    assert.Equal(t, repository.KindInvalidTransition, kindOf(t, err))

    f.bookings.items[b.ID].ExpiresAt = f.now.Add(-time.Hour)
    n, err := f.engine.SweepExpired(context.Background())
    require.NoError(t, err)
    assert.Equal(t, int64(0), n)

    got, _ := f.bookings.GetByID(context.Background(), b.ID)
    assert.Equal(t, model.BookingCancelled, got.Status)
}

func TestGetVisibility(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)

    got, err := f.engine.Get(context.Background(), b.ID, 200)
    require.NoError(t, err)
    assert.Equal(t, b.ID, got.ID)

    _, err = f.engine.Get(context.Background(), b.ID, 999)
    assert.Equal(t, repository.KindNotFound, kindOf(t, err))
}

func TestAddNote(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    b := f.createBooking(t, 1, 200, nil)

    withNote, err := f.engine.AddNote(context.Background(), b.ID, 100, "keys under the mat")
    require.NoError(t, err)
    require.Len(t, withNote.Notes, 1)
    assert.Equal(t, uint64(100), withNote.Notes[0].AuthorID)
    assert.Equal(t, "keys under the mat", withNote.Notes[0].Content)

    _, err = f.engine.AddNote(context.Background(), b.ID, 999, "hello")
    assert.Equal(t, repository.KindNotFound, kindOf(t, err))
}

func TestListForTenantPagination(t *testing.T) {
    f := newFixture()
    for i := uint64(1); i <= 5; i++ {
        f.addFullHouse(i, 100)
        f.now = f.now.Add(time.Minute)
        f.createBooking(t, i, 200, nil)
    }

    page, err := f.engine.ListForTenant(context.Background(), 200, nil, 1, 2)
    require.NoError(t, err)
    assert.Equal(t, int64(5), page.Total)
    assert.Equal(t, 3, page.TotalPages)
    require.Len(t, page.Bookings, 2)
    // Newest first.
    assert.Equal(t, uint64(5), page.Bookings[0].PropertyID)

    pending := model.BookingPending
    filtered, err := f.engine.ListForTenant(context.Background(), 200, &pending, 1, 10)
    require.NoError(t, err)
    assert.Equal(t, int64(5), filtered.Total)
}

func TestStatistics(t *testing.T) {
    f := newFixture()
    f.addFullHouse(1, 100)
    f.addFullHouse(2, 100)
    b1 := f.createBooking(t, 1, 200, nil)
    f.createBooking(t, 2, 200, nil)
    _, err := f.engine.Approve(context.Background(), b1.ID, 100, nil)
    require.NoError(t, err)

    stats, err := f.engine.Statistics(context.Background(), 200, "tenant")
    require.NoError(t, err)
    assert.Equal(t, int64(2), stats["total"])
    assert.Equal(t, int64(1), stats["approved"])
    assert.Equal(t, int64(1), stats["pending"])
    assert.Equal(t, int64(0), stats["rejected"])

    landlordStats, err := f.engine.Statistics(context.Background(), 100, "landlord")
    require.NoError(t, err)
    assert.Equal(t, int64(2), landlordStats["total"])
}
