package repository

import (
    "context"
    "database/sql"

    "github.com/roomhunt/rental-booking/internal/model"
)

// PropertyRepo reads and writes the subset of the property entity this
// service owns: rent figures for pricing a booking and the inventory
// ledger gating availability.  Inventory mutations load the ledger under a
// row lock, apply model.Inventory's reserve/release rules, and write the
// result back, so the booking-status write and the inventory write stay
// two separate atomic steps as the concurrency model requires.
type PropertyRepo struct {
    db *sql.DB
}

// NewPropertyRepo returns a PropertyRepo bound to the given database.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// GetByID loads a property.  sql.ErrNoRows is passed through when the
// property does not exist.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (*model.Property, error) {
    const q = `SELECT id, owner_id, title, property_type, status, is_available,
                      monthly_rent, security_deposit, currency,
                      total_beds, available_beds, current_occupants, inquiries,
                      created_at, updated_at
               FROM properties WHERE id = ?`
    var p model.Property
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &p.ID, &p.OwnerID, &p.Title, &p.PropertyType, &p.Inventory.Status, &p.Inventory.IsAvailable,
        &p.MonthlyRent, &p.Deposit, &p.Currency,
        &p.Inventory.TotalBeds, &p.Inventory.AvailableBeds, &p.Inventory.CurrentOccupants, &p.Inquiries,
        &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// IncrementInquiries bumps the advisory inquiry counter after a booking
// request is created.  The count carries no invariant; failures here do
// not unwind the booking.
func (r *PropertyRepo) IncrementInquiries(ctx context.Context, id uint64) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE properties SET inquiries = inquiries + 1 WHERE id = ?`, id)
    return err
}

// ReserveInventory consumes one unit of the property's inventory for an
// approved booking of the given type.  The ledger row is locked for the
// duration of the read-modify-write so concurrent approvals on the same
// property serialize; model.ErrNoCapacity surfaces unchanged when a bed
// booking finds no free bed.
func (r *PropertyRepo) ReserveInventory(ctx context.Context, id uint64, t model.BookingType) error {
    return r.mutateInventory(ctx, id, func(inv *model.Inventory) error {
        return inv.Reserve(t)
    })
}

// ReleaseInventory frees the unit previously consumed by an approved
// booking, on cancellation or completion of the tenancy.
func (r *PropertyRepo) ReleaseInventory(ctx context.Context, id uint64, t model.BookingType) error {
    return r.mutateInventory(ctx, id, func(inv *model.Inventory) error {
        inv.Release(t)
        return nil
    })
}

// mutateInventory runs one read-modify-write cycle on a property's ledger
// inside a transaction with a SELECT ... FOR UPDATE row lock.
func (r *PropertyRepo) mutateInventory(ctx context.Context, id uint64, mutate func(*model.Inventory) error) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const sel = `SELECT status, is_available, total_beds, available_beds, current_occupants
                 FROM properties WHERE id = ? FOR UPDATE`
    var inv model.Inventory
    if err := tx.QueryRowContext(ctx, sel, id).Scan(
        &inv.Status, &inv.IsAvailable, &inv.TotalBeds, &inv.AvailableBeds, &inv.CurrentOccupants,
    ); err != nil {
        return err
    }
    if err := mutate(&inv); err != nil {
        return err
    }
    const upd = `UPDATE properties
                 SET status = ?, is_available = ?, available_beds = ?, current_occupants = ?, updated_at = UTC_TIMESTAMP()
                 WHERE id = ?`
    if _, err := tx.ExecContext(ctx, upd, inv.Status, inv.IsAvailable, inv.AvailableBeds, inv.CurrentOccupants, id); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
