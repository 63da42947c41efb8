package model

import "time"

// Operator is a staff account allowed to inspect reservations.
type Operator struct {
	ID           uint64
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}
