package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: 7, Username: "alice", Role: domain.RoleAdmin, RealName: "Alice"}
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", 24*time.Hour)

	before := time.Now()
	token, exp, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, before.Add(24*time.Hour), exp, 2*time.Second)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{ID: 7, Username: "alice", Role: domain.RoleAdmin}, claims.Identity())
	assert.Equal(t, "7", claims.Subject)
}

func TestClaimsAreFixedAtIssuance(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	user := testUser()

	token, _, err := issuer.Issue(user)
	require.NoError(t, err)

	// 之后的角色变化不会反映在已签发的令牌中
	user.Role = domain.RoleUser

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestDefaultTTL(t *testing.T) {
	issuer := NewIssuer("secret", 0)
	assert.Equal(t, 24*time.Hour, issuer.ttl)
}

func TestParse_Rejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Issue(testUser())
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		ID:   7,
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	cases := map[string]string{
		"malformed":     "not-a-token",
		"empty":         "",
		"wrong secret":  mustIssue(t, NewIssuer("other", time.Hour)),
		"expired":       expiredToken,
		"none alg":      noneToken,
		"bad signature": tampered,
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func mustIssue(t *testing.T, issuer *Issuer) string {
	t.Helper()
	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)
	return token
}
