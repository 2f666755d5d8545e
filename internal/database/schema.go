package database

import (
    "context"
    "database/sql"
)

// EnsureSchema creates the service's tables when they do not exist yet.
// Statuses are stored as lowercase strings rather than MySQL enums so a
// new lifecycle state is a code change, not a migration.  All DATETIME
// columns carry UTC.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS properties (
            id                BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
            owner_id          BIGINT UNSIGNED NOT NULL,
            title             VARCHAR(255)    NOT NULL,
            property_type     VARCHAR(32)     NOT NULL,
            status            VARCHAR(32)     NOT NULL DEFAULT 'pending_verification',
            is_available      BOOLEAN         NOT NULL DEFAULT TRUE,
            monthly_rent      BIGINT UNSIGNED NOT NULL,
            security_deposit  BIGINT UNSIGNED NOT NULL DEFAULT 0,
            currency          VARCHAR(8)      NOT NULL DEFAULT 'PKR',
            total_beds        SMALLINT UNSIGNED NOT NULL DEFAULT 0,
            available_beds    SMALLINT UNSIGNED NOT NULL DEFAULT 0,
            current_occupants SMALLINT UNSIGNED NOT NULL DEFAULT 0,
            inquiries         INT UNSIGNED    NOT NULL DEFAULT 0,
            created_at        DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
            updated_at        DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
            INDEX idx_properties_owner (owner_id)
        ) ENGINE=InnoDB`,

        `CREATE TABLE IF NOT EXISTS bookings (
            id                  BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
            property_id         BIGINT UNSIGNED NOT NULL,
            tenant_id           BIGINT UNSIGNED NOT NULL,
            landlord_id         BIGINT UNSIGNED NOT NULL,
            booking_type        VARCHAR(32)     NOT NULL,
            status              VARCHAR(16)     NOT NULL DEFAULT 'pending',
            request_message     TEXT            NOT NULL,
            response_message    TEXT            NULL,
            move_in_date        DATETIME        NOT NULL,
            duration_value      INT UNSIGNED    NOT NULL,
            duration_unit       VARCHAR(8)      NOT NULL,
            monthly_rent        BIGINT UNSIGNED NOT NULL,
            security_deposit    BIGINT UNSIGNED NOT NULL,
            total_amount        BIGINT UNSIGNED NOT NULL,
            currency            VARCHAR(8)      NOT NULL,
            bed_number          SMALLINT UNSIGNED NULL,
            requested_at        DATETIME        NOT NULL,
            responded_at        DATETIME        NULL,
            approved_at         DATETIME        NULL,
            rejected_at         DATETIME        NULL,
            cancelled_at        DATETIME        NULL,
            completed_at        DATETIME        NULL,
            expired_at          DATETIME        NULL,
            cancelled_by        BIGINT UNSIGNED NULL,
            cancellation_reason TEXT            NULL,
            expires_at          DATETIME        NOT NULL,
            created_at          DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
            updated_at          DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
            INDEX idx_bookings_tenant (tenant_id, status),
            INDEX idx_bookings_landlord (landlord_id, status),
            INDEX idx_bookings_property_status (property_id, status),
            INDEX idx_bookings_expiry (status, expires_at),
            CONSTRAINT fk_bookings_property FOREIGN KEY (property_id) REFERENCES properties (id)
        ) ENGINE=InnoDB`,

        `CREATE TABLE IF NOT EXISTS booking_notes (
            id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
            booking_id BIGINT UNSIGNED NOT NULL,
            author_id  BIGINT UNSIGNED NOT NULL,
            content    TEXT            NOT NULL,
            created_at DATETIME        NOT NULL,
            INDEX idx_notes_booking (booking_id),
            CONSTRAINT fk_notes_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
        ) ENGINE=InnoDB`,
    }
    for _, stmt := range stmts {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}
