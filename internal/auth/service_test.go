package auth

import (
	"context"
	"testing"
	"time"

	"chat-relay/internal/config"
	"chat-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(expiresIn time.Duration) *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:    []byte("test-secret"),
			ExpiresIn: expiresIn,
		},
	}
}

func TestGuestTokenRoundtrip(t *testing.T) {
	s := NewService(nil, testConfig(time.Hour))

	resp, err := s.Guest(&models.GuestRequest{DisplayName: "  alice  "})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.DisplayName)
	assert.NotEmpty(t, resp.UID)
	assert.NotEmpty(t, resp.Token)

	identity, err := s.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UID, identity.UID)
	assert.Equal(t, "alice", identity.DisplayName)
	assert.True(t, identity.Guest)
}

func TestGuestUIDsAreUnique(t *testing.T) {
	s := NewService(nil, testConfig(time.Hour))

	first, err := s.Guest(&models.GuestRequest{DisplayName: "alice"})
	require.NoError(t, err)
	second, err := s.Guest(&models.GuestRequest{DisplayName: "alice"})
	require.NoError(t, err)

	assert.NotEqual(t, first.UID, second.UID)
}

func TestGuestRequiresDisplayName(t *testing.T) {
	s := NewService(nil, testConfig(time.Hour))

	_, err := s.Guest(&models.GuestRequest{DisplayName: "   "})
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := NewService(nil, testConfig(time.Hour))

	_, err := s.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService(nil, testConfig(time.Hour))
	resp, err := issuer.Guest(&models.GuestRequest{DisplayName: "alice"})
	require.NoError(t, err)

	verifier := NewService(nil, &config.Config{
		JWT: config.JWTConfig{Secret: []byte("other-secret"), ExpiresIn: time.Hour},
	})
	_, err = verifier.ValidateToken(resp.Token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := NewService(nil, testConfig(-time.Minute))

	resp, err := s.Guest(&models.GuestRequest{DisplayName: "alice"})
	require.NoError(t, err)

	_, err = s.ValidateToken(resp.Token)
	assert.Error(t, err)
}

func TestAccountOperationsDisabledWithoutArchive(t *testing.T) {
	s := NewService(nil, testConfig(time.Hour))

	_, err := s.Register(context.Background(), &models.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secretpass",
	})
	assert.Error(t, err)

	_, err = s.Login(context.Background(), &models.LoginRequest{
		Email: "alice@example.com", Password: "secretpass",
	})
	assert.Error(t, err)
}

func TestRegistrationValidation(t *testing.T) {
	s := NewService(nil, testConfig(time.Hour))

	cases := map[string]*models.RegisterRequest{
		"missing fields": {},
		"bad email":      {Username: "alice", Email: "not-an-email", Password: "secretpass"},
		"short password": {Username: "alice", Email: "alice@example.com", Password: "short"},
		"short username": {Username: "al", Email: "alice@example.com", Password: "secretpass"},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.validateRegistrationRequest(req))
		})
	}

	assert.NoError(t, s.validateRegistrationRequest(&models.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secretpass",
	}))
}
