package auth

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	appErr "termchat/pkg/errors"
)

const (
	defaultTokenTTL   = 12 * time.Hour
	minPasswordLength = 6
	maxUsernameLength = 32
)

// ServiceConfig holds configuration for Service.
type ServiceConfig struct {
	JWTSecret []byte
	JWTIssuer string
	TokenTTL  time.Duration
}

// Service handles registration, login, and token validation.
type Service struct {
	store  *FileStore
	config ServiceConfig
}

// NewService creates an auth service over the given user store.
func NewService(store *FileStore, config ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, appErr.New(appErr.InternalServerError).WithMessage("user store is required")
	}
	if len(config.JWTSecret) == 0 {
		return nil, appErr.New(appErr.InternalServerError).WithMessage("jwt secret is required")
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = defaultTokenTTL
	}
	return &Service{store: store, config: config}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(username, password, email string) error {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return appErr.ValidationError("username", "must be 1-32 characters")
	}
	if len(password) < minPasswordLength {
		return appErr.ValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError, "hash password failed")
	}
	return s.store.Put(User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(email),
		CreatedAt:    time.Now().UTC(),
	})
}

// Login checks credentials and issues a signed token.
func (s *Service) Login(username, password string) (string, time.Time, error) {
	user, err := s.store.Get(strings.TrimSpace(username))
	if err != nil {
		// Do not reveal whether the username exists.
		return "", time.Time{}, appErr.New(appErr.InvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, appErr.New(appErr.InvalidCredentials)
	}
	return s.generateToken(user.Username)
}

// Usernames lists registered accounts.
func (s *Service) Usernames() []string {
	return s.store.Usernames()
}

func (s *Service) generateToken(username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.TokenTTL)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.config.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return "", time.Time{}, appErr.Wrap(fmt.Errorf("sign token failed: %w", err), appErr.TokenGenerationFailed)
	}
	return raw, expiresAt, nil
}

// ParseToken validates a token and returns the username it was issued to.
func (s *Service) ParseToken(raw string) (string, error) {
	if raw == "" {
		return "", appErr.New(appErr.TokenInvalid)
	}

	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.config.JWTSecret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return "", appErr.New(appErr.TokenExpired)
		}
		return "", appErr.New(appErr.TokenInvalid)
	}
	if !parsed.Valid {
		return "", appErr.New(appErr.TokenInvalid)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return "", appErr.New(appErr.TokenInvalid)
	}
	if s.config.JWTIssuer != "" && claims.Issuer != s.config.JWTIssuer {
		return "", appErr.New(appErr.TokenInvalid)
	}
	if claims.Subject == "" {
		return "", appErr.New(appErr.TokenInvalid)
	}
	return claims.Subject, nil
}
