package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidCSRFToken is returned for unknown, expired or reused tokens.
var ErrInvalidCSRFToken = errors.New("invalid or already used anti-forgery token")

const csrfSubject = "form-submission"

// CsrfTokenService issues single-use anti-forgery tokens.
type CsrfTokenService interface {
	Issue() (string, error)
	VerifyAndConsume(token string) error
}

// JWTCsrfService signs tokens as HS256 JWTs and remembers consumed token
// ids until they expire.
type JWTCsrfService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	consumed map[string]time.Time
}

func NewJWTCsrfService(secret string, ttl time.Duration) *JWTCsrfService {
	return &JWTCsrfService{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		consumed: make(map[string]time.Time),
	}
}

// Issue generates a new token valid for the configured TTL
func (s *JWTCsrfService) Issue() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   csrfSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyAndConsume accepts a token once.
func (s *JWTCsrfService) VerifyAndConsume(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidCSRFToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(csrfSubject),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidCSRFToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if _, used := s.consumed[claims.ID]; used {
		return ErrInvalidCSRFToken
	}
	s.consumed[claims.ID] = claims.ExpiresAt.Time
	return nil
}

// pruneLocked forgets consumed ids whose tokens have expired anyway
func (s *JWTCsrfService) pruneLocked() {
	now := s.now()
	for id, exp := range s.consumed {
		if now.After(exp) {
			delete(s.consumed, id)
		}
	}
}
