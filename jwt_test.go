package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJWT_RoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	uid := primitive.NewObjectID()

	tok, err := signJWT("s3cret", uid, now, time.Hour)
	require.NoError(t, err)

	got, err := parseJWT("s3cret", tok, now.Add(59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, uid, got)
}

func TestJWT_Expired(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tok, err := signJWT("s3cret", primitive.NewObjectID(), now, time.Hour)
	require.NoError(t, err)

	_, err = parseJWT("s3cret", tok, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestJWT_WrongSecret(t *testing.T) {
	now := time.Now()
	tok, err := signJWT("s3cret", primitive.NewObjectID(), now, time.Hour)
	require.NoError(t, err)

	_, err = parseJWT("other", tok, now)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestJWT_RejectsForeignIssuerAndAlg(t *testing.T) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   primitive.NewObjectID().Hex(),
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = parseJWT("s3cret", tok, now)
	assert.Error(t, err)

	claims.Issuer = tokenIssuer
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = parseJWT("s3cret", tok, now)
	assert.Error(t, err)
}
