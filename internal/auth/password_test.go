package auth

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func boundedString() gopter.Gen {
	return gen.AlphaString().Map(func(s string) string {
		if len(s) > MaxPasswordBytes {
			return s[:MaxPasswordBytes]
		}
		return s
	})
}

func TestProperty_HashThenVerifyRoundTrips(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("a password verifies against its own hash", prop.ForAll(
		func(password string) bool {
			hashed, err := hasher.Hash(password)
			if err != nil {
				return false
			}
			return hashed != password && hasher.Verify(password, hashed)
		},
		boundedString(),
	))

	properties.Property("a different password does not verify", prop.ForAll(
		func(password, other string) bool {
			if password == other {
				return true
			}
			hashed, err := hasher.Hash(password)
			if err != nil {
				return false
			}
			return !hasher.Verify(other, hashed)
		},
		boundedString(),
		boundedString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestHasher_DefaultCost(t *testing.T) {
	hasher := NewHasher(0)
	assert.Equal(t, DefaultCost, hasher.cost)

	hashed, err := hasher.Hash("admin")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestHasher_RejectsOverlongPassword(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHasher_VerifyGarbageHash(t *testing.T) {
	assert.False(t, NewHasher(bcrypt.MinCost).Verify("secret", "not-a-bcrypt-hash"))
}
