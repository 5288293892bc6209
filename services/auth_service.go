package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/autoteile-schmidt/service-portal-api/config"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// SessionCookie is the cookie carrying the signed admin session.
	SessionCookie = "admin_auth"
	// SessionTTL is the fixed lifetime of an admin session.
	SessionTTL = 24 * time.Hour

	// MaxLoginAttempts failed attempts per client within LoginWindow lock
	// further attempts until the window ends.
	MaxLoginAttempts = 5
	LoginWindow      = 15 * time.Minute

	sessionAuthenticated = "authenticated"
	devUsername          = "admin"
	devPassword          = "admin"
)

// Session methods recorded in the token.
const (
	MethodPassword   = "password"
	MethodSetup      = "setup"
	MethodBreakGlass = "break_glass"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrSetupCompleted     = errors.New("admin identity already configured")
	ErrBreakGlassDisabled = errors.New("break-glass access disabled")
	ErrInvalidSession     = errors.New("invalid session")
)

// SessionClaims is the payload of the admin session token.
type SessionClaims struct {
	Auth   string `json:"auth"`
	Method string `json:"method"`
	jwt.RegisteredClaims
}

// Session is an issued admin session.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService checks operator credentials and issues signed sessions.
type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	log      logger.Logger
	secret   []byte
	attempts *cache.Cache
	revoked  *cache.Cache
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, log logger.Logger) *AuthService {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// sessions do not survive a restart without SESSION_SECRET
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("auth: generate session secret: %v", err))
		}
		secret = []byte(hex.EncodeToString(buf))
		log.Warn("auth", "SESSION_SECRET not set, using an ephemeral secret", nil)
	}

	return &AuthService{
		db:       db,
		cfg:      cfg,
		log:      log,
		secret:   secret,
		attempts: cache.New(LoginWindow, time.Minute),
		revoked:  cache.New(SessionTTL, 10*time.Minute),
		now:      time.Now,
	}
}

// Login verifies username and password. clientIP is used for throttling.
func (s *AuthService) Login(ctx context.Context, username, password, clientIP string) (*Session, error) {
	if s.throttled(clientIP) {
		s.log.Warn("auth", "login throttled", map[string]interface{}{"ip": clientIP})
		return nil, ErrTooManyAttempts
	}

	ok, err := s.verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.recordFailure(clientIP)
		s.log.Warn("auth", "login failed", map[string]interface{}{"username": username, "ip": clientIP})
		return nil, ErrInvalidCredentials
	}

	s.attempts.Delete(clientIP)
	s.log.Info("auth", "login succeeded", map[string]interface{}{"username": username, "ip": clientIP})
	return s.issue(username, MethodPassword)
}

// SetupRequired reports whether no operator identity exists yet.
func (s *AuthService) SetupRequired(ctx context.Context) (bool, error) {
	if s.cfg.AdminIdentityConfigured() {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.AdminCredential{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count admin credentials: %w", err)
	}
	return count == 0, nil
}

// Setup stores the first operator identity and signs it in.
func (s *AuthService) Setup(ctx context.Context, username, password, clientIP, userAgent string) (*Session, error) {
	if s.cfg.AdminIdentityConfigured() {
		return nil, ErrSetupCompleted
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.AdminCredential{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSetupCompleted
		}
		if err := tx.Create(&models.AdminCredential{Username: username, PasswordHash: string(hash)}).Error; err != nil {
			return err
		}
		return tx.Create(&models.AdminAuditEvent{
			Event:      models.AuditSetup,
			Username:   username,
			RemoteAddr: clientIP,
			UserAgent:  userAgent,
		}).Error
	})
	if errors.Is(err, ErrSetupCompleted) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("store admin credential: %w", err)
	}

	s.log.Info("audit", "admin identity created", map[string]interface{}{"username": username, "ip": clientIP})
	return s.issue(username, MethodSetup)
}

// BreakGlass grants a session for the server-side emergency secret. Every
// attempt is audited.
func (s *AuthService) BreakGlass(ctx context.Context, secret, clientIP, userAgent string) (*Session, error) {
	if s.cfg.BreakGlassSecret == "" {
		return nil, ErrBreakGlassDisabled
	}
	if s.throttled(clientIP) {
		s.audit(ctx, models.AuditBreakGlassDenied, clientIP, userAgent)
		return nil, ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.BreakGlassSecret)) != 1 {
		s.recordFailure(clientIP)
		s.audit(ctx, models.AuditBreakGlassDenied, clientIP, userAgent)
		return nil, ErrInvalidCredentials
	}

	s.attempts.Delete(clientIP)
	s.audit(ctx, models.AuditBreakGlass, clientIP, userAgent)
	return s.issue("break-glass", MethodBreakGlass)
}

// Verify checks a session token and returns its claims.
func (s *AuthService) Verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Auth != sessionAuthenticated || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Revoke invalidates a token until its natural expiry. Invalid tokens are
// ignored.
func (s *AuthService) Revoke(token string) {
	claims, err := s.Verify(token)
	if err != nil {
		return
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	s.revoked.Set(claims.ID, true, ttl)
	s.log.Info("auth", "session revoked", map[string]interface{}{"username": claims.Subject})
}

func (s *AuthService) issue(subject, method string) (*Session, error) {
	now := s.now()
	expires := now.Add(SessionTTL)
	claims := SessionClaims{
		Auth:   sessionAuthenticated,
		Method: method,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expires}, nil
}

// verify resolves the operator identity: stored credential first, then the
// configured identity, then the development default outside production.
func (s *AuthService) verify(ctx context.Context, username, password string) (bool, error) {
	var cred models.AdminCredential
	err := s.db.WithContext(ctx).Order("id ASC").First(&cred).Error
	switch {
	case err == nil:
		if !equal(username, cred.Username) {
			return false, nil
		}
		return bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) == nil, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("load admin credential: %w", err)
	}

	if s.cfg.AdminIdentityConfigured() {
		if !equal(username, s.cfg.AdminUsername) {
			return false, nil
		}
		if s.cfg.AdminPasswordHash != "" {
			return bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) == nil, nil
		}
		return equal(password, s.cfg.AdminPassword), nil
	}

	if s.cfg.IsProduction() {
		s.log.Error("auth", "no admin identity configured, login rejected", nil)
		return false, nil
	}
	s.log.Warn("auth", "no admin identity configured, using development default", nil)
	return equal(username, devUsername) && equal(password, devPassword), nil
}

func (s *AuthService) throttled(clientIP string) bool {
	n, found := s.attempts.Get(clientIP)
	return found && n.(int) >= MaxLoginAttempts
}

func (s *AuthService) recordFailure(clientIP string) {
	if err := s.attempts.Add(clientIP, 1, cache.DefaultExpiration); err != nil {
		_, _ = s.attempts.IncrementInt(clientIP, 1)
	}
}

func (s *AuthService) audit(ctx context.Context, event, clientIP, userAgent string) {
	s.log.Warn("audit", "break-glass attempt", map[string]interface{}{"event": event, "ip": clientIP, "user_agent": userAgent})
	record := &models.AdminAuditEvent{Event: event, RemoteAddr: clientIP, UserAgent: userAgent}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.log.Error("audit", "failed to persist audit event", map[string]interface{}{"event": event, "error": err})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
