// Package repository defines data access for routes, seats and
// reservations, and the ledgers that give the booking engine its
// isolated allocation boundary.  MySQL driver errors are classified here
// so that callers only deal with booking errors and the sentinels below.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
)

// ErrConflict is returned when a write is rejected by a uniqueness
// constraint that callers cannot recover from by retrying.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers handled by the repositories.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify maps MySQL concurrency failures to booking.ErrRetryable so the
// allocator retries them.  Other errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlLockWaitTimeout, mysqlDeadlock:
		return fmt.Errorf("%w: %w", booking.ErrRetryable, err)
	}
	return err
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
