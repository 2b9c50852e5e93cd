package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/infrastructure/config"
)

func testVerifier() *Verifier {
	return NewVerifier(config.JWTConfig{
		Secret: "a-test-secret-that-is-long-enough-1234",
		Issuer: "tyrefleet-idp",
		Leeway: 5 * time.Second,
	})
}

func TestVerifier_RoundTrip(t *testing.T) {
	v := testVerifier()
	actorID := uuid.New()

	token, err := v.Sign(actorID, "Depot clerk", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	got, err := claims.ActorID()
	require.NoError(t, err)
	assert.Equal(t, actorID, got)
	assert.Equal(t, "Depot clerk", claims.Name)
}

func TestVerifier_Rejections(t *testing.T) {
	v := testVerifier()
	actorID := uuid.New()

	expired, err := v.Sign(actorID, "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewVerifier(config.JWTConfig{Secret: "another-secret-another-secret-000", Issuer: "tyrefleet-idp"})
	forged, err := other.Sign(actorID, "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewVerifier(config.JWTConfig{Secret: "a-test-secret-that-is-long-enough-1234", Issuer: "someone-else"})
	token, err := wrongIssuer.Sign(actorID, "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_RejectsNonActorSubject(t *testing.T) {
	v := testVerifier()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "tyrefleet-idp",
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSubject)
}

func TestVerifier_RejectsOtherAlgorithms(t *testing.T) {
	v := testVerifier()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "tyrefleet-idp",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(v.secret)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_MissingExpiry(t *testing.T) {
	v := testVerifier()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "tyrefleet-idp", Subject: uuid.NewString()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
