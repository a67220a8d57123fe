package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dErrors "copydesk/pkg/domain-errors"
	"copydesk/pkg/platform/sentinel"
)

// Service authenticates staff and issues the bearer tokens the HTTP layer
// checks. Password hashes are bcrypt; tokens are HS256 JWTs.
type Service struct {
	store      Store
	signingKey []byte
	tokenTTL   time.Duration
	logger     *slog.Logger
	clock      func() time.Time
}

func NewService(store Store, signingKey string, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
		logger:     logger,
		clock:      time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Identity is what a verified token carries: enough to attribute actions
// in the audit trail and enforce role checks.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// Authenticate verifies credentials and returns a signed token. Unknown
// username, wrong password and deactivated account all come back as the
// same unauthorized error so callers cannot probe for valid usernames.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	unauthorized := dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", unauthorized
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "look up user")
	}
	if !u.Active {
		return "", unauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", unauthorized
	}

	now := s.clock()
	claims := jwt.MapClaims{
		"sub":      u.ID.String(),
		"username": u.Username,
		"role":     string(u.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}

	s.logger.Info("user authenticated", "username", u.Username, "role", u.Role)
	return token, nil
}

// VerifyToken parses and validates a bearer token.
func (s *Service) VerifyToken(tokenString string) (*Identity, error) {
	unauthorized := dErrors.New(dErrors.CodeUnauthorized, "invalid token")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.clock))
	if err != nil || !token.Valid {
		return nil, unauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, unauthorized
	}
	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	roleClaim, _ := claims["role"].(string)

	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, unauthorized
	}
	role, err := ParseRole(roleClaim)
	if err != nil {
		return nil, unauthorized
	}
	return &Identity{UserID: userID, Username: username, Role: role}, nil
}

// Register creates an account with a freshly hashed password.
func (s *Service) Register(ctx context.Context, username, password, fullName string, role Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	u := &User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		Initials:     InitialsOf(fullName),
		Role:         role,
		Active:       true,
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create user")
	}
	return u, nil
}

// SeedAdmin creates the bootstrap admin account if no user with that
// username exists yet. Safe to call on every startup.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) error {
	if _, err := s.store.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("check bootstrap admin: %w", err)
	}

	if _, err := s.Register(ctx, username, password, "Bootstrap Admin", RoleAdmin); err != nil {
		return fmt.Errorf("seed bootstrap admin: %w", err)
	}
	s.logger.Info("seeded bootstrap admin", "username", username)
	return nil
}
