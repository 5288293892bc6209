package services

import (
	"context"
	"testing"
	"time"

	"github.com/autoteile-schmidt/service-portal-api/config"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/tests/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T, cfg *config.Config) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "test-session-secret"
	}
	return NewAuthService(db, cfg, logger.NewNop()), db
}

func TestLoginWithConfiguredPassword(t *testing.T) {
	svc, _ := newAuthService(t, &config.Config{GoEnv: "test", AdminUsername: "chef", AdminPassword: "geheim-123"})
	ctx := context.Background()

	session, err := svc.Login(ctx, "chef", "geheim-123", "10.0.0.1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), session.ExpiresAt, time.Minute)

	claims, err := svc.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "chef", claims.Subject)
	assert.Equal(t, MethodPassword, claims.Method)

	_, err = svc.Login(ctx, "chef", "falsch", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "admin", "admin", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithConfiguredHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("geheim-123"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, _ := newAuthService(t, &config.Config{GoEnv: "production", AdminUsername: "chef", AdminPasswordHash: string(hash)})

	_, err = svc.Login(context.Background(), "chef", "geheim-123", "10.0.0.1")
	assert.NoError(t, err)
	_, err = svc.Login(context.Background(), "chef", string(hash), "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStoredCredentialTakesPrecedence(t *testing.T) {
	svc, db := newAuthService(t, &config.Config{GoEnv: "development"})
	hash, err := bcrypt.GenerateFromPassword([]byte("werkstatt-2024"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.AdminCredential{Username: "meister", PasswordHash: string(hash)}).Error)

	_, err = svc.Login(context.Background(), "meister", "werkstatt-2024", "10.0.0.1")
	assert.NoError(t, err)
	_, err = svc.Login(context.Background(), "admin", "admin", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDevelopmentDefaultIdentity(t *testing.T) {
	tests := []struct {
		env     string
		allowed bool
	}{
		{env: "development", allowed: true},
		{env: "test", allowed: true},
		{env: "production", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			svc, _ := newAuthService(t, &config.Config{GoEnv: tt.env})
			_, err := svc.Login(context.Background(), "admin", "admin", "10.0.0.1")
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
			}
		})
	}
}

func TestLoginThrottle(t *testing.T) {
	svc, _ := newAuthService(t, &config.Config{GoEnv: "test", AdminUsername: "chef", AdminPassword: "geheim-123"})
	ctx := context.Background()

	for i := 0; i < MaxLoginAttempts; i++ {
		_, err := svc.Login(ctx, "chef", "falsch", "10.0.0.9")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := svc.Login(ctx, "chef", "geheim-123", "10.0.0.9")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = svc.Login(ctx, "chef", "geheim-123", "10.0.0.10")
	assert.NoError(t, err)
}

func TestSetup(t *testing.T) {
	svc, db := newAuthService(t, &config.Config{GoEnv: "test"})
	ctx := context.Background()

	required, err := svc.SetupRequired(ctx)
	require.NoError(t, err)
	assert.True(t, required)

	session, err := svc.Setup(ctx, "meister", "werkstatt-2024", "10.0.0.1", "curl")
	require.NoError(t, err)
	claims, err := svc.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, MethodSetup, claims.Method)

	required, err = svc.SetupRequired(ctx)
	require.NoError(t, err)
	assert.False(t, required)

	_, err = svc.Setup(ctx, "zweiter", "noch-ein-passwort", "10.0.0.1", "curl")
	assert.ErrorIs(t, err, ErrSetupCompleted)

	var events []models.AdminAuditEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditSetup, events[0].Event)

	_, err = svc.Login(ctx, "meister", "werkstatt-2024", "10.0.0.1")
	assert.NoError(t, err)
}

func TestSetupRejectedWhenIdentityConfigured(t *testing.T) {
	svc, _ := newAuthService(t, &config.Config{GoEnv: "test", AdminUsername: "chef", AdminPassword: "geheim-123"})
	required, err := svc.SetupRequired(context.Background())
	require.NoError(t, err)
	assert.False(t, required)

	_, err = svc.Setup(context.Background(), "meister", "werkstatt-2024", "10.0.0.1", "curl")
	assert.ErrorIs(t, err, ErrSetupCompleted)
}

func TestBreakGlass(t *testing.T) {
	svc, db := newAuthService(t, &config.Config{GoEnv: "production", BreakGlassSecret: "notfall-schluessel-2024"})
	ctx := context.Background()

	_, err := svc.BreakGlass(ctx, "falsch", "10.0.0.1", "curl")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.BreakGlass(ctx, "notfall-schluessel-2024", "10.0.0.1", "curl")
	require.NoError(t, err)
	claims, err := svc.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, MethodBreakGlass, claims.Method)

	var events []models.AdminAuditEvent
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, models.AuditBreakGlassDenied, events[0].Event)
	assert.Equal(t, models.AuditBreakGlass, events[1].Event)
}

func TestBreakGlassDisabledWithoutSecret(t *testing.T) {
	svc, _ := newAuthService(t, &config.Config{GoEnv: "test"})
	_, err := svc.BreakGlass(context.Background(), "", "10.0.0.1", "curl")
	assert.ErrorIs(t, err, ErrBreakGlassDisabled)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	svc, _ := newAuthService(t, &config.Config{GoEnv: "test"})
	session, err := svc.issue("admin", MethodPassword)
	require.NoError(t, err)

	other := NewAuthService(svc.db, &config.Config{SessionSecret: "another-secret"}, logger.NewNop())
	_, err = other.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = svc.Verify("authenticated")
	assert.ErrorIs(t, err, ErrInvalidSession)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{Auth: "authenticated"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidSession)

	svc.now = func() time.Time { return time.Now().Add(SessionTTL + time.Minute) }
	_, err = svc.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRevoke(t *testing.T) {
	svc, _ := newAuthService(t, &config.Config{GoEnv: "test"})
	session, err := svc.issue("admin", MethodPassword)
	require.NoError(t, err)

	_, err = svc.Verify(session.Token)
	require.NoError(t, err)

	svc.Revoke(session.Token)
	_, err = svc.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	svc.Revoke("garbage")
}
