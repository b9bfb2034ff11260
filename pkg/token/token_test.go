package token

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TourRoute/config"
	"TourRoute/pkg/errors"
)

func initForTest(t *testing.T) {
	t.Helper()
	config.Cfg.JWTSecret = "test-secret"
	config.Cfg.JWTExpireMinutes = 30
	require.NoError(t, Init())
}

func TestGenerateAndValidate(t *testing.T) {
	initForTest(t)

	signed, expiresIn, err := GenerateAccessToken(42)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.Equal(t, 30*60, expiresIn)

	userID, err := ValidateAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	initForTest(t)

	wrongKey, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		IdentityKey: "42",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = ValidateAccessToken(wrongKey)
	assert.Error(t, err)

	expired, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		IdentityKey: "42",
		"exp":       time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(config.Cfg.JWTSecret))
	require.NoError(t, err)
	_, err = ValidateAccessToken(expired)
	assert.Error(t, err)

	noUser, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(config.Cfg.JWTSecret))
	require.NoError(t, err)
	_, err = ValidateAccessToken(noUser)
	assert.ErrorIs(t, err, errors.ErrUserIDNotFound)
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name    string
		claim   interface{}
		want    int64
		wantErr error
	}{
		{"string", "17", 17, nil},
		{"json number", float64(17), 17, nil},
		{"int64", int64(17), 17, nil},
		{"negative string", "-3", 0, errors.InvalidUserID},
		{"not a number", "abc", 0, errors.InvalidUserID},
		{"fractional", 1.5, 0, errors.InvalidUserID},
		{"zero", int64(0), 0, errors.InvalidUserID},
		{"missing", nil, 0, errors.ErrUserIDNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUserID(tt.claim)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
