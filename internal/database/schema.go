package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables used by the reservation service.  Seat IDs are
// assigned at provisioning time and define the allocation order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		from_location VARCHAR(32)     NOT NULL,
		to_location   VARCHAR(32)     NOT NULL,
		price         DECIMAL(12,2)   NOT NULL,
		UNIQUE KEY uq_routes_pair (from_location, to_location)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		id          BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		seat_number VARCHAR(16)     NOT NULL,
		UNIQUE KEY uq_seats_number (seat_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		reservation_number VARCHAR(64)     NOT NULL,
		from_location      VARCHAR(32)     NOT NULL,
		to_location        VARCHAR(32)     NOT NULL,
		passenger_count    INT             NOT NULL,
		total_price        DECIMAL(12,2)   NOT NULL,
		created_at         DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_reservations_number (reservation_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservation_seats (
		reservation_id BIGINT UNSIGNED NOT NULL,
		seat_id        BIGINT UNSIGNED NOT NULL,
		position       INT             NOT NULL,
		PRIMARY KEY (reservation_id, seat_id),
		KEY idx_reservation_seats_seat (seat_id),
		CONSTRAINT fk_rs_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id),
		CONSTRAINT fk_rs_seat FOREIGN KEY (seat_id) REFERENCES seats (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS operators (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(64)     NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          VARCHAR(16)     NOT NULL,
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_operators_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
