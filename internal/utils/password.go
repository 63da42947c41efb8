package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DummyHash returns a bcrypt hash of a random password, computed once at
// bcrypt.DefaultCost.  Logins for unknown accounts verify against it so
// they cost as much as a wrong password.
var DummyHash = sync.OnceValue(func() string {
	secret, err := randomHex(16)
	if err != nil {
		secret = "unknown-operator"
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		panic("utils: dummy bcrypt hash: " + err.Error())
	}
	return string(b)
})

// HashPassword returns a bcrypt hash of plain.  Costs outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
