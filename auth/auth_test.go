package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivesh/pension-engine/auth"
)

// =============================================================================
// PASSWORDS
// =============================================================================

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct-horse-battery", hash)

	assert.NoError(t, auth.CheckPassword(hash, "correct-horse-battery"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "wrong-password"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, auth.CheckPassword("not-a-bcrypt-hash", "anything"), auth.ErrInvalidCredentials)
}

func TestPassword_MinimumLength(t *testing.T) {
	assert.ErrorIs(t, auth.ValidatePassword("short"), auth.ErrWeakPassword)
	assert.NoError(t, auth.ValidatePassword("12345678"))

	_, err := auth.HashPassword("1234567")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestPassword_HashesAreSalted(t *testing.T) {
	first, err := auth.HashPassword("same-password-1")
	require.NoError(t, err)
	second, err := auth.HashPassword("same-password-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

// =============================================================================
// SESSION TOKENS
// =============================================================================

func TestJWT_RoundTrip(t *testing.T) {
	// GIVEN: A manager with a known secret
	// WHEN: Generating a token for an employee
	// THEN: Validate returns the subject, company, and role intact

	mgr := auth.NewJWTManager("test-secret-at-least-32-bytes-long!", time.Hour)

	token, err := mgr.Generate("emp-42", "co-7", auth.RoleEmployee)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-42", claims.Subject)
	assert.Equal(t, "co-7", claims.CompanyID)
	assert.Equal(t, auth.RoleEmployee, claims.Role)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	issuer := auth.NewJWTManager("secret-one", time.Hour)
	verifier := auth.NewJWTManager("secret-two", time.Hour)

	token, err := issuer.Generate("emp-42", "co-7", auth.RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_ExpiredRejected(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", -time.Minute)

	token, err := mgr.Generate("emp-42", "co-7", auth.RoleEmployee)
	require.NoError(t, err)

	_, err = mgr.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_GarbageRejected(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := mgr.Validate(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken, "token %q", token)
	}
}

func TestJWT_RoleIsCarried(t *testing.T) {
	// Admin and employee tokens differ only in claims; both validate under
	// the same manager and role gating relies on the claim alone.
	mgr := auth.NewJWTManager("test-secret", time.Hour)

	adminToken, err := mgr.Generate("adm-1", "co-7", auth.RoleAdmin)
	require.NoError(t, err)
	empToken, err := mgr.Generate("emp-1", "co-7", auth.RoleEmployee)
	require.NoError(t, err)

	adminClaims, err := mgr.Validate(adminToken)
	require.NoError(t, err)
	empClaims, err := mgr.Validate(empToken)
	require.NoError(t, err)

	assert.Equal(t, auth.RoleAdmin, adminClaims.Role)
	assert.Equal(t, auth.RoleEmployee, empClaims.Role)
}
