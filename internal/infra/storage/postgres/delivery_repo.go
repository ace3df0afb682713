package postgres

import (
	"context"
	"fmt"
	"time"
)

// Delivery is one recorded send attempt and its outcome.
type Delivery struct {
	ID          int64     `db:"id"`
	ApnsID      string    `db:"apns_id"`
	DeviceToken string    `db:"device_token"`
	Status      string    `db:"status"` // delivered | failed
	Kind        string    `db:"kind"`   // failure tag, empty on success
	Reason      string    `db:"reason"` // gateway reason, empty unless rejected
	AttemptedAt time.Time `db:"attempted_at"`
}

// Delivery statuses.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// DeliveryRepo stores send outcomes in PostgreSQL.
type DeliveryRepo struct {
	db *DB
}

// NewDeliveryRepo creates a new delivery repository.
func NewDeliveryRepo(db *DB) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// Record inserts one delivery outcome.
func (r *DeliveryRepo) Record(ctx context.Context, d *Delivery) error {
	if d.AttemptedAt.IsZero() {
		d.AttemptedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO deliveries (apns_id, device_token, status, kind, reason, attempted_at)
		VALUES (:apns_id, :device_token, :status, :kind, :reason, :attempted_at)`, d)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// RecentFailures returns the most recent failed deliveries, newest first.
func (r *DeliveryRepo) RecentFailures(ctx context.Context, limit int) ([]Delivery, error) {
	var out []Delivery
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, apns_id, device_token, status, kind, reason, attempted_at
		FROM deliveries
		WHERE status = $1
		ORDER BY attempted_at DESC
		LIMIT $2`, StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent failures: %w", err)
	}
	return out, nil
}

// CountByKind aggregates failures per classification tag.
func (r *DeliveryRepo) CountByKind(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT kind, COUNT(*) AS n
		FROM deliveries
		WHERE status = $1
		GROUP BY kind`, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to count failures: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
