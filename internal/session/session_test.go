package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	player := NewPlayerID()

	tok, exp, err := iss.Issue(player)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, player, got)
}

func TestParseRejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, _, err := iss.Issue("p1")
	require.NoError(t, err)

	_, err = NewIssuer("other", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidToken, "tampered signature")

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Parse(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("secret", time.Minute)
	iss.now = func() time.Time { return now }

	tok, _, err := iss.Issue("p1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewPlayerIDUnique(t *testing.T) {
	assert.NotEqual(t, NewPlayerID(), NewPlayerID())
}
