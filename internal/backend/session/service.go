package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the authenticated user bound to a request.
type Identity struct {
	Username string
}

// Service issues signed session tokens backed by a Store. The token carries
// only the session id and username; logout removes the record so a token is
// useless afterwards even before it expires.
type Service struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

// NewService creates a session service. An empty secret is replaced with a
// random one, which invalidates sessions on restart.
func NewService(secret string, ttl time.Duration, store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	return &Service{
		secret: key,
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}, nil
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Start records a new session for identity and returns its signed token.
func (s *Service) Start(ctx context.Context, identity Identity) (string, error) {
	if identity.Username == "" {
		return "", fmt.Errorf("cannot start a session without a username")
	}

	record := Record{ID: uuid.NewString(), Username: identity.Username}
	if err := s.store.Save(ctx, record, s.ttl); err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        record.ID,
		Subject:   record.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		_ = s.store.Delete(ctx, record.ID)
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// CurrentIdentity resolves a token to the identity it belongs to. Any
// malformed, expired or revoked token yields ErrNoSession.
func (s *Service) CurrentIdentity(ctx context.Context, token string) (Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Identity{}, err
	}

	record, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		return Identity{}, err
	}
	if record.Username != claims.Subject {
		return Identity{}, ErrNoSession
	}
	return Identity{Username: record.Username}, nil
}

// End revokes the session behind token. Unknown tokens are ignored.
func (s *Service) End(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, claims.ID)
}

func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, ErrNoSession
	}
	return claims, nil
}
