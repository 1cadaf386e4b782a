package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "unit-test-secret"
	testIssuer = "agentcore-local"
)

func TestMintAndVerify(t *testing.T) {
	t.Parallel()

	token, err := Mint(testSecret, testIssuer, "my-workload", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := Verify(testSecret, testIssuer, token)
	require.NoError(t, err)
	assert.Equal(t, "my-workload", claims.Workload)
	assert.Equal(t, "my-workload", claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
}

func TestMintRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := Mint("", testIssuer, "w", time.Hour)
	assert.ErrorContains(t, err, "secret is required")
}

func TestMintDefaultTTL(t *testing.T) {
	t.Parallel()

	token, err := Mint(testSecret, testIssuer, "w", 0)
	require.NoError(t, err)

	claims, err := Verify(testSecret, testIssuer, token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := Mint(testSecret, testIssuer, "w", time.Hour)
	require.NoError(t, err)

	_, err = Verify("other-secret", testIssuer, token)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	token, err := Mint(testSecret, "someone-else", "w", time.Hour)
	require.NoError(t, err)

	_, err = Verify(testSecret, testIssuer, token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	// Mint refuses non-positive TTLs, so build the expired token by hand.
	now := time.Now().Add(-2 * time.Hour)
	claims := Claims{
		Workload: "w",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = Verify(testSecret, testIssuer, token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Verify(testSecret, testIssuer, "not.a.jwt")
	assert.Error(t, err)
}

func TestDecodeWithoutVerification(t *testing.T) {
	t.Parallel()

	token, err := Mint(testSecret, testIssuer, "inspect-me", time.Hour)
	require.NoError(t, err)

	// Decode works without knowing the secret.
	claims, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "inspect-me", claims.Workload)
	assert.Equal(t, testIssuer, claims.Issuer)
}
