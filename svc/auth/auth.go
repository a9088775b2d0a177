// Package auth implements password-based authentication with JWT access
// tokens. Registration runs inside a transaction; login issues tokens
// without one and is recorded as excluded.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

// User is an authenticated account. The password hash never leaves the
// service.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Storer persists user accounts.
type Storer interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// TokenResponse is the login result.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Credentials carries an email and password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const minPasswordLength = 8

// Service handles registration, login, and token issuance.
type Service struct {
	store Storer
	cfg   Config
	reg   *txn.Service
	log   *slog.Logger
	now   func() time.Time

	register func(ctx context.Context, c Credentials) (*User, error)
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService wires authentication over the given store and transaction
// manager. Panics on nil dependencies or an empty signing secret.
func NewService(store Storer, mgr *txn.Manager, cfg Config, opts ...Option) *Service {
	if store == nil {
		panic("auth: service requires a store")
	}
	if cfg.JWTSecret == "" {
		panic("auth: service requires a signing secret")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	s := &Service{
		store: store,
		cfg:   cfg,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	reg := txn.NewService("auth", mgr, txn.WithLogger(s.log))
	s.reg = reg

	s.register = txn.Wrap(reg, "Register", s.doRegister)
	txn.Exclude(reg, "Login", "verifies credentials and signs a token, no writes", s.Login)
	txn.Exclude(reg, "VerifyToken", "stateless token validation, no writes", s.VerifyToken)

	reg.Audit("Register", "Login", "VerifyToken")

	return s
}

// Report exposes the transaction disposition of every auth method.
func (s *Service) Report() []txn.MethodReport { return s.reg.Report() }

// Register creates a user account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, c Credentials) (*User, error) {
	return s.register(ctx, c)
}

func (s *Service) doRegister(ctx context.Context, c Credentials) (*User, error) {
	email := normalizeEmail(c.Email)
	if !validEmail(email) {
		return nil, errors.Join(core.ErrUnprocessableEntity, ErrInvalidEmail)
	}
	if len(c.Password) < minPasswordLength {
		return nil, errors.Join(core.ErrUnprocessableEntity, ErrWeakPassword)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, errors.Join(core.ErrConflict, ErrEmailTaken)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered", logger.UserID(u.ID.String()))
	return &u, nil
}

// Login verifies credentials and returns a signed access token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, c Credentials) (*TokenResponse, error) {
	email := normalizeEmail(c.Email)

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, errors.Join(core.ErrUnauthorized, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(c.Password)); err != nil {
		return nil, errors.Join(core.ErrUnauthorized, ErrInvalidCredentials)
	}

	expiresAt := s.now().Add(s.cfg.AccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.Email,
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// VerifyToken validates a signed access token and returns the subject email.
func (s *Service) VerifyToken(_ context.Context, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", errors.Join(core.ErrUnauthorized, ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", errors.Join(core.ErrUnauthorized, ErrInvalidToken)
	}
	return claims.Subject, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
