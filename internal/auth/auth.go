// Package auth issues and checks admin access tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotConfigured      = errors.New("admin auth is not configured")
)

const RoleAdmin = "admin"

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Config struct {
	Username     string
	PasswordHash string
	Secret       string
	TokenTTL     time.Duration
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	return &Service{cfg: cfg, now: time.Now}
}

// Login checks the admin credentials and returns a signed HS256 token.
func (s *Service) Login(username, password string) (*Token, error) {
	const op = "auth.Service.Login"

	if s.cfg.Secret == "" || s.cfg.PasswordHash == "" || s.cfg.Username == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passOK := VerifyPassword(s.cfg.PasswordHash, password)
	if !userOK || !passOK {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	now := s.now()
	exp := now.Add(s.cfg.TokenTTL)

	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Token{Token: signed, ExpiresAt: exp.UTC()}, nil
}

// Parse validates an admin token and returns its claims.
func (s *Service) Parse(raw string) (*Claims, error) {
	const op = "auth.Service.Parse"

	if s.cfg.Secret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Role != RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return c, nil
}

// HashPassword returns a bcrypt hash of plain.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
