package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/roomhunt/rental-booking/internal/model"
)

// BookingRepo provides persistence for booking records and their note log.
// Every lifecycle transition is expressed as a single conditional UPDATE
// whose predicate matches the required source status, so two concurrent
// writers can never both apply the same transition: the loser's update
// matches zero rows and the caller falls back to the then-current state.
// All timestamps are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, property_id, tenant_id, landlord_id, booking_type, status,
       request_message, response_message, move_in_date, duration_value, duration_unit,
       monthly_rent, security_deposit, total_amount, currency, bed_number,
       requested_at, responded_at, approved_at, rejected_at, cancelled_at, completed_at, expired_at,
       cancelled_by, cancellation_reason, expires_at, created_at, updated_at`

// rowScanner covers *sql.Row and *sql.Rows so one scan helper serves both.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

// scanBooking reads a full bookings row in bookingColumns order.
func scanBooking(rs rowScanner) (*model.Booking, error) {
    var (
        b            model.Booking
        response     sql.NullString
        bedNumber    sql.NullInt64
        respondedAt  sql.NullTime
        approvedAt   sql.NullTime
        rejectedAt   sql.NullTime
        cancelledAt  sql.NullTime
        completedAt  sql.NullTime
        expiredAt    sql.NullTime
        cancelledBy  sql.NullInt64
        cancelReason sql.NullString
    )
    err := rs.Scan(
        &b.ID, &b.PropertyID, &b.TenantID, &b.LandlordID, &b.BookingType, &b.Status,
        &b.RequestMessage, &response, &b.ProposedMoveInDate, &b.Duration.Value, &b.Duration.Unit,
        &b.Rent.MonthlyRent, &b.Rent.SecurityDeposit, &b.Rent.TotalAmount, &b.Rent.Currency, &bedNumber,
        &b.Timeline.RequestedAt, &respondedAt, &approvedAt, &rejectedAt, &cancelledAt, &completedAt, &expiredAt,
        &cancelledBy, &cancelReason, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if response.Valid {
        msg := response.String
        b.ResponseMessage = &msg
    }
    if bedNumber.Valid {
        n := uint16(bedNumber.Int64)
        b.BedNumber = &n
    }
    assign := func(dst **time.Time, src sql.NullTime) {
        if src.Valid {
            t := src.Time
            *dst = &t
        }
    }
    assign(&b.Timeline.RespondedAt, respondedAt)
    assign(&b.Timeline.ApprovedAt, approvedAt)
    assign(&b.Timeline.RejectedAt, rejectedAt)
    assign(&b.Timeline.CancelledAt, cancelledAt)
    assign(&b.Timeline.CompletedAt, completedAt)
    assign(&b.Timeline.ExpiredAt, expiredAt)
    if cancelledBy.Valid {
        b.Cancellation = &model.Cancellation{
            CancelledBy: uint64(cancelledBy.Int64),
            Reason:      cancelReason.String,
        }
        if cancelledAt.Valid {
            b.Cancellation.CancelledAt = cancelledAt.Time
        }
    }
    return &b, nil
}

// Create inserts a new booking row and queries it back to populate the
// generated ID and database-side timestamps.  The caller must have set
// status, timeline.requestedAt and expiresAt already.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings
        (property_id, tenant_id, landlord_id, booking_type, status,
         request_message, move_in_date, duration_value, duration_unit,
         monthly_rent, security_deposit, total_amount, currency, bed_number,
         requested_at, expires_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var bed interface{}
    if b.BedNumber != nil {
        bed = *b.BedNumber
    }
    result, err := r.db.ExecContext(ctx, q,
        b.PropertyID, b.TenantID, b.LandlordID, b.BookingType, b.Status,
        b.RequestMessage, b.ProposedMoveInDate.UTC(), b.Duration.Value, b.Duration.Unit,
        b.Rent.MonthlyRent, b.Rent.SecurityDeposit, b.Rent.TotalAmount, b.Rent.Currency, bed,
        b.Timeline.RequestedAt.UTC(), b.ExpiresAt.UTC(),
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *b = *created
    return nil
}

// GetByID returns a booking with its note log.  sql.ErrNoRows is passed
// through when the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
    if err != nil {
        return nil, err
    }
    notes, err := r.ListNotes(ctx, id)
    if err != nil {
        return nil, err
    }
    b.Notes = notes
    return b, nil
}

// HasActiveForTenant reports whether the tenant already holds a PENDING or
// APPROVED booking against the property.  Used as the duplicate-request
// guard at creation.
func (r *BookingRepo) HasActiveForTenant(ctx context.Context, propertyID, tenantID uint64) (bool, error) {
    const q = `SELECT EXISTS(
        SELECT 1 FROM bookings
        WHERE property_id = ? AND tenant_id = ? AND status IN ('pending', 'approved'))`
    var exists bool
    if err := r.db.QueryRowContext(ctx, q, propertyID, tenantID).Scan(&exists); err != nil {
        return false, err
    }
    return exists, nil
}

// MarkApproved transitions PENDING -> APPROVED, stamping respondedAt and
// approvedAt.  It returns false when the booking was not pending at the
// moment of the update, leaving the caller to re-read and decide between
// the idempotent already-approved path and an invalid transition.
func (r *BookingRepo) MarkApproved(ctx context.Context, id uint64, responseMessage *string, now time.Time) (bool, error) {
    const q = `UPDATE bookings
        SET status = 'approved', response_message = ?, responded_at = ?, approved_at = ?, updated_at = ?
        WHERE id = ? AND status = 'pending'`
    var msg interface{}
    if responseMessage != nil {
        msg = *responseMessage
    }
    ts := now.UTC()
    result, err := r.db.ExecContext(ctx, q, msg, ts, ts, ts, id)
    if err != nil {
        return false, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// MarkRejected transitions PENDING -> REJECTED with the landlord's reason.
func (r *BookingRepo) MarkRejected(ctx context.Context, id uint64, responseMessage string, now time.Time) (bool, error) {
    const q = `UPDATE bookings
        SET status = 'rejected', response_message = ?, responded_at = ?, rejected_at = ?, updated_at = ?
        WHERE id = ? AND status = 'pending'`
    ts := now.UTC()
    result, err := r.db.ExecContext(ctx, q, responseMessage, ts, ts, ts, id)
    if err != nil {
        return false, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// MarkCancelled transitions PENDING or APPROVED -> CANCELLED.  The actor
// predicate keeps the update scoped to the booking's own tenant or
// landlord; a stranger's cancel matches zero rows.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id, actorID uint64, reason string, now time.Time) (bool, error) {
    const q = `UPDATE bookings
        SET status = 'cancelled', cancelled_by = ?, cancellation_reason = ?, cancelled_at = ?, updated_at = ?
        WHERE id = ? AND (tenant_id = ? OR landlord_id = ?) AND status IN ('pending', 'approved')`
    ts := now.UTC()
    result, err := r.db.ExecContext(ctx, q, actorID, reason, ts, ts, id, actorID, actorID)
    if err != nil {
        return false, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// MarkCompleted transitions APPROVED -> COMPLETED.
func (r *BookingRepo) MarkCompleted(ctx context.Context, id uint64, now time.Time) (bool, error) {
    const q = `UPDATE bookings
        SET status = 'completed', completed_at = ?, updated_at = ?
        WHERE id = ? AND status = 'approved'`
    ts := now.UTC()
    result, err := r.db.ExecContext(ctx, q, ts, ts, id)
    if err != nil {
        return false, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// RejectSiblings bulk-rejects every other still-pending booking competing
// for the same unit of inventory as the booking that just won.  For
// shared-room beds the rejection is scoped to the same bed number; pending
// requests for other beds survive.  Returns the number of rows rejected.
func (r *BookingRepo) RejectSiblings(ctx context.Context, approvedID, propertyID uint64, bedNumber *uint16, message string, now time.Time) (int64, error) {
    q := `UPDATE bookings
        SET status = 'rejected', response_message = ?, rejected_at = ?, updated_at = ?
        WHERE property_id = ? AND id <> ? AND status = 'pending'`
    ts := now.UTC()
    args := []interface{}{message, ts, ts, propertyID, approvedID}
    if bedNumber != nil {
        q += ` AND bed_number = ?`
        args = append(args, *bedNumber)
    }
    result, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}

// ExpirePending bulk-expires every pending booking whose deadline has
// passed.  The status predicate makes the sweep safe to run concurrently
// with approve/reject traffic and with itself: a booking approved between
// selection and update simply no longer matches.
func (r *BookingRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
    const q = `UPDATE bookings
        SET status = 'expired', expired_at = ?, updated_at = ?
        WHERE status = 'pending' AND expires_at < ?`
    ts := now.UTC()
    result, err := r.db.ExecContext(ctx, q, ts, ts, ts)
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}

// AddNote appends one entry to the booking's note log and populates the
// generated ID and timestamp on the passed record.
func (r *BookingRepo) AddNote(ctx context.Context, note *model.Note) error {
    const q = `INSERT INTO booking_notes (booking_id, author_id, content, created_at) VALUES (?, ?, ?, ?)`
    if note.CreatedAt.IsZero() {
        note.CreatedAt = time.Now().UTC()
    }
    result, err := r.db.ExecContext(ctx, q, note.BookingID, note.AuthorID, note.Content, note.CreatedAt.UTC())
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    note.ID = uint64(id)
    return nil
}

// ListNotes returns a booking's note log oldest first.
func (r *BookingRepo) ListNotes(ctx context.Context, bookingID uint64) ([]model.Note, error) {
    const q = `SELECT id, booking_id, author_id, content, created_at
               FROM booking_notes WHERE booking_id = ? ORDER BY created_at, id`
    rows, err := r.db.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    notes := make([]model.Note, 0)
    for rows.Next() {
        var n model.Note
        if err := rows.Scan(&n.ID, &n.BookingID, &n.AuthorID, &n.Content, &n.CreatedAt); err != nil {
            return nil, err
        }
        notes = append(notes, n)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return notes, nil
}

// ListFilter narrows a booking listing.  Page and Limit are 1-based with
// defaults applied by the caller; Status is optional.
type ListFilter struct {
    Status *model.BookingStatus
    Page   int
    Limit  int
}

// ListByTenant returns the tenant's bookings newest first with the total
// row count for pagination meta.
func (r *BookingRepo) ListByTenant(ctx context.Context, tenantID uint64, f ListFilter) ([]model.Booking, int64, error) {
    return r.listByParty(ctx, "tenant_id", tenantID, f)
}

// ListByLandlord returns the landlord's incoming requests newest first
// with the total row count.
func (r *BookingRepo) ListByLandlord(ctx context.Context, landlordID uint64, f ListFilter) ([]model.Booking, int64, error) {
    return r.listByParty(ctx, "landlord_id", landlordID, f)
}

func (r *BookingRepo) listByParty(ctx context.Context, column string, userID uint64, f ListFilter) ([]model.Booking, int64, error) {
    where := ` WHERE ` + column + ` = ?`
    args := []interface{}{userID}
    if f.Status != nil {
        where += ` AND status = ?`
        args = append(args, *f.Status)
    }
    var total int64
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
        return nil, 0, err
    }
    q := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
    args = append(args, f.Limit, (f.Page-1)*f.Limit)
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    bookings := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, 0, err
        }
        bookings = append(bookings, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return bookings, total, nil
}

// CountByStatus groups the user's bookings by status.  The role selects
// which side of the booking the user is counted on.
func (r *BookingRepo) CountByStatus(ctx context.Context, userID uint64, role string) (map[model.BookingStatus]int64, error) {
    column := "tenant_id"
    if role == "landlord" {
        column = "landlord_id"
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT status, COUNT(*) FROM bookings WHERE `+column+` = ? GROUP BY status`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    counts := make(map[model.BookingStatus]int64)
    for rows.Next() {
        var status model.BookingStatus
        var n int64
        if err := rows.Scan(&status, &n); err != nil {
            return nil, err
        }
        counts[status] = n
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return counts, nil
}
