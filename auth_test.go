package main

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyBearerTokenPlainSecret(t *testing.T) {
	assert.True(t, verifyBearerToken("Bearer s3cret", "s3cret", "uuid-1"))

	assert.False(t, verifyBearerToken("Bearer wrong", "s3cret", "uuid-1"))
	assert.False(t, verifyBearerToken("s3cret", "s3cret", "uuid-1"), "missing scheme")
	assert.False(t, verifyBearerToken("Basic s3cret", "s3cret", "uuid-1"))
	assert.False(t, verifyBearerToken("", "s3cret", "uuid-1"))
}

func TestVerifyBearerTokenBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"+"uuid-1"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, verifyBearerToken("Bearer "+string(hash), "s3cret", "uuid-1"))

	// A hash salted with a different router UUID must not pass.
	otherHash, err := bcrypt.GenerateFromPassword([]byte("s3cret"+"uuid-2"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, verifyBearerToken("Bearer "+string(otherHash), "s3cret", "uuid-1"))
}

func TestDecodePassthrough(t *testing.T) {
	const secret = "jwt-secret"

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"asn":  float64(65010),
		"port": float64(1790),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	data, err := decodePassthrough(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint16(65010), data.ASN)
	assert.Equal(t, 1790, data.Port)
}

func TestDecodePassthroughPartialClaims(t *testing.T) {
	const secret = "jwt-secret"

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"asn": float64(65010),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	data, err := decodePassthrough(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint16(65010), data.ASN)
	assert.Equal(t, 0, data.Port)
}

func TestDecodePassthroughRejects(t *testing.T) {
	const secret = "jwt-secret"

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"asn": float64(65010),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = decodePassthrough(token, "other-secret")
	assert.Error(t, err)

	_, err = decodePassthrough(token, "")
	assert.Error(t, err)

	_, err = decodePassthrough("not.a.token", secret)
	assert.Error(t, err)

	// Unsigned tokens must be rejected by the method check.
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"asn": float64(65010),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = decodePassthrough(none, secret)
	assert.Error(t, err)
}
