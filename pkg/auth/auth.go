package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

const TokenTTL = 24 * time.Hour

type UserStore interface {
	// CreateUser fails with apperr.Conflict when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	// FindUserByEmail returns nil and no error when no user matches.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Tokens issues and verifies HS256 bearer tokens whose subject is the user id.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
}

func (t *Tokens) Issue(userID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify returns the user id carried by a valid, unexpired token.
func (t *Tokens) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return "", apperr.Wrap(apperr.Unauthorized, "invalid or expired token", err)
	}
	if claims.Subject == "" {
		return "", apperr.New(apperr.Unauthorized, "token has no subject")
	}
	return claims.Subject, nil
}

// Service registers users and logs them in.
type Service struct {
	users  UserStore
	tokens *Tokens
	now    func() time.Time
}

func NewService(users UserStore, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  string(hashed),
		CreatedAt: s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, apperr.Unavailable("create user", err)
	}
	return user, nil
}

var errBadCredentials = apperr.New(apperr.Unauthorized, "invalid email or password")

// Login checks the password and returns a signed token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return "", nil, apperr.Unavailable("find user", err)
	}
	if user == nil {
		return "", nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", nil, errBadCredentials
		}
		return "", nil, fmt.Errorf("compare password: %w", err)
	}

	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}
