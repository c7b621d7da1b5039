package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"errdeck/internal/platform/config"
	"errdeck/internal/platform/models"
	"errdeck/internal/platform/storage"
)

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates panel tokens. The signing secret lives
// in the storage adapter and is generated on first need; the stored row is
// the source of truth across processes.
type TokenService struct {
	store    storage.Storage
	tokenTTL time.Duration

	mu     sync.Mutex
	secret []byte
}

func NewTokenService(store storage.Storage, cfg config.JWTConfig) *TokenService {
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{store: store, tokenTTL: ttl}
}

// secretKey returns the signing secret, generating and persisting one when
// absent. Creation is single-writer; after writing we re-read so that a
// secret written concurrently by another process wins consistently.
func (s *TokenService) secretKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.secret != nil {
		return s.secret, nil
	}

	item, err := s.store.GetConfig(ctx, storage.KeyJWTSecret)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Value == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		if _, err := s.store.SetConfig(ctx, storage.KeyJWTSecret, hex.EncodeToString(buf)); err != nil {
			return nil, err
		}
		item, err = s.store.GetConfig(ctx, storage.KeyJWTSecret)
		if err != nil {
			return nil, err
		}
		if item == nil || item.Value == "" {
			return nil, errors.New("failed to persist jwt secret")
		}
	}

	s.secret = []byte(item.Value)
	return s.secret, nil
}

func (s *TokenService) GenerateToken(ctx context.Context, user *models.User) (string, error) {
	secret, err := s.secretKey(ctx)
	if err != nil {
		return "", err
	}

	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "errdeck",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	secret, err := s.secretKey(ctx)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
