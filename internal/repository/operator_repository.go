package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// OperatorRepo mirrors the operators table.
type OperatorRepo struct{ DB *sql.DB }

// NewOperatorRepo returns an OperatorRepo bound to db.
func NewOperatorRepo(db *sql.DB) *OperatorRepo { return &OperatorRepo{DB: db} }

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Upsert creates the operator or replaces its password hash and role.
// The account is (re)activated.
func (r *OperatorRepo) Upsert(ctx context.Context, username, passwordHash, role string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO operators (username, password_hash, role, is_active) VALUES (?,?,?,1)
		 ON DUPLICATE KEY UPDATE password_hash = VALUES(password_hash), role = VALUES(role), is_active = 1`,
		normalizeUsername(username), passwordHash, role)
	return err
}

// OperatorByUsername fetches an operator by normalized username or
// returns ErrNotFound.
func (r *OperatorRepo) OperatorByUsername(ctx context.Context, username string) (model.Operator, error) {
	var o model.Operator
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,is_active,created_at FROM operators WHERE username=? LIMIT 1",
		normalizeUsername(username)).Scan(&o.ID, &o.Username, &o.PasswordHash, &o.Role, &o.IsActive, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Operator{}, ErrNotFound
	}
	return o, err
}

// StaticOperators keeps operator accounts in memory for the memory store
// driver.
type StaticOperators struct {
	mu     sync.RWMutex
	byName map[string]model.Operator
	nextID uint64
}

// NewStaticOperators returns an empty in-memory operator store.
func NewStaticOperators() *StaticOperators {
	return &StaticOperators{byName: make(map[string]model.Operator)}
}

// Upsert stores or replaces the operator account.
func (s *StaticOperators) Upsert(_ context.Context, username, passwordHash, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := normalizeUsername(username)
	o, ok := s.byName[name]
	if !ok {
		s.nextID++
		o = model.Operator{ID: s.nextID, Username: name, CreatedAt: time.Now().UTC()}
	}
	o.PasswordHash = passwordHash
	o.Role = role
	o.IsActive = true
	s.byName[name] = o
	return nil
}

// OperatorByUsername returns the operator or ErrNotFound.
func (s *StaticOperators) OperatorByUsername(_ context.Context, username string) (model.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byName[normalizeUsername(username)]
	if !ok {
		return model.Operator{}, ErrNotFound
	}
	return o, nil
}
