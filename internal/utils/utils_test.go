package utils

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLocalNumbersAreUniqueUnderConcurrency(t *testing.T) {
	gen, err := NewLocalNumbers()
	require.NoError(t, err)

	const workers, perWorker = 16, 200
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n, err := gen.Next(context.Background())
				assert.NoError(t, err)
				mu.Lock()
				assert.False(t, seen[n], "duplicate number %s", n)
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestLocalNumbersFormat(t *testing.T) {
	gen, err := NewLocalNumbers()
	require.NoError(t, err)

	n, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n, ReservationPrefix))
	parts := strings.Split(n, "-")
	require.Len(t, parts, 3)
	assert.Len(t, parts[1], len(numberTimeLayout))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "operator", "OPERATOR", 5)
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "operator", claims["sub"])
	assert.Equal(t, "OPERATOR", claims["role"])
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", "s3cret"))
}

func TestDummyHashCostsLikeARealHash(t *testing.T) {
	dummy := DummyHash()
	cost, err := bcrypt.Cost([]byte(dummy))
	require.NoError(t, err, "dummy hash must parse so the comparison runs in full")
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.Equal(t, dummy, DummyHash(), "computed once")
	assert.False(t, VerifyPassword(dummy, ""))
	assert.False(t, VerifyPassword(dummy, "s3cret"))
}
