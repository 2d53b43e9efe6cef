package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const tokenIssuer = "pasturewatch"

var errInvalidToken = errors.New("invalid token")

// signJWT creates an HS256 token for userID valid for ttl from now.
func signJWT(secret string, userID primitive.ObjectID, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// parseJWT validates the token at time now and returns its subject.
func parseJWT(secret, tokenStr string, now time.Time) (primitive.ObjectID, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !tok.Valid {
		return primitive.NilObjectID, errInvalidToken
	}
	if claims.Subject == "" {
		return primitive.NilObjectID, errors.New("no subject")
	}
	return primitive.ObjectIDFromHex(claims.Subject)
}
