package auth

import (
	"testing"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseUsers(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	users, err := ParseUsers("dana:pa:ss ; lee:" + string(hash) + ";;")
	require.NoError(t, err)
	assert.Equal(t, 2, users.Len())

	assert.NoError(t, users.Authenticate("dana", "pa:ss"))
	assert.NoError(t, users.Authenticate("lee", "hashed-secret"))
	assert.ErrorIs(t, users.Authenticate("dana", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, users.Authenticate("nobody", "pa:ss"), ErrInvalidCredentials)
}

func TestParseUsersRejectsMalformedEntries(t *testing.T) {
	for _, raw := range []string{"dana", "dana:", ":secret", "lee:$2broken"} {
		_, err := ParseUsers(raw)
		assert.Error(t, err, raw)
	}

	users, err := ParseUsers("")
	require.NoError(t, err)
	assert.Equal(t, 0, users.Len())
}

func TestSessionRoundTrip(t *testing.T) {
	sessions := NewSessionManager("cookie-secret")
	now := time.Date(2025, time.September, 2, 9, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	token, expires, err := sessions.Issue("dana", 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(4*time.Hour), expires)

	username, err := sessions.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "dana", username)

	now = now.Add(5 * time.Hour)
	_, err = sessions.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionRejectsForeignSignature(t *testing.T) {
	token, _, err := NewSessionManager("other-secret").Issue("dana", time.Hour)
	require.NoError(t, err)

	_, err = NewSessionManager("cookie-secret").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = NewSessionManager("cookie-secret").Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthenticatorVerify(t *testing.T) {
	users, err := ParseUsers("dana:secret")
	require.NoError(t, err)
	sessions := NewSessionManager("cookie-secret")
	a := NewAuthenticator(users, sessions)

	token, _, err := sessions.Issue("dana", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		creds   domain.Credentials
		want    string
		wantErr error
	}{
		{"session", domain.Credentials{SessionToken: token}, "dana", nil},
		{"basic", domain.Credentials{HasBasicAuth: true, BasicUsername: "dana", BasicPassword: "secret"}, "dana", nil},
		{"bad session falls back to basic", domain.Credentials{SessionToken: "junk", HasBasicAuth: true, BasicUsername: "dana", BasicPassword: "secret"}, "dana", nil},
		{"bad session", domain.Credentials{SessionToken: "junk"}, "", ErrInvalidSession},
		{"bad password", domain.Credentials{HasBasicAuth: true, BasicUsername: "dana", BasicPassword: "nope"}, "", ErrInvalidCredentials},
		{"nothing", domain.Credentials{}, "", ErrNoCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Verify(tt.creds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
