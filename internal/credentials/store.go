// Package credentials holds the access and refresh tokens. It is the one
// process-wide singleton; Init and Teardown bracket its lifetime.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken            = errors.New("no access token")
	ErrTokenExpired       = errors.New("access token expired")
	ErrAlreadyInitialized = errors.New("credential store already initialized")
)

type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token,omitempty"`
}

// SecureBackend persists tokens across restarts.
type SecureBackend interface {
	LoadTokens(ctx context.Context) (Tokens, bool, error)
	SaveTokens(ctx context.Context, t Tokens) error
	ClearTokens(ctx context.Context) error
}

type Store struct {
	mu      sync.RWMutex
	tokens  Tokens
	backend SecureBackend
	now     func() time.Time
}

func NewStore(backend SecureBackend) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend, now: time.Now}
}

// Load restores persisted tokens, if any.
func (s *Store) Load(ctx context.Context) error {
	t, ok, err := s.backend.LoadTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return nil
}

func (s *Store) Save(ctx context.Context, t Tokens) error {
	if t.Access == "" {
		return ErrNoToken
	}
	if err := s.backend.SaveTokens(ctx, t); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.mu.Unlock()
	if err := s.backend.ClearTokens(ctx); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// Token returns the access token. A JWT whose exp claim has passed is
// reported as expired; opaque tokens are returned as is.
func (s *Store) Token() (string, error) {
	s.mu.RLock()
	token := s.tokens.Access
	s.mu.RUnlock()

	if token == "" {
		return "", ErrNoToken
	}
	claims, ok := parseClaims(token)
	if ok && claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		return "", ErrTokenExpired
	}
	return token, nil
}

// Subject returns the numeric sub claim of a JWT access token. Opaque tokens
// have none.
func (s *Store) Subject() (int64, bool) {
	s.mu.RLock()
	token := s.tokens.Access
	s.mu.RUnlock()

	claims, ok := parseClaims(token)
	if !ok || claims.Subject == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseClaims reads claims without verifying the signature; the backend
// verifies, the client only needs the expiry.
func parseClaims(token string) (*jwt.RegisteredClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Init installs the process-wide store. It fails until Teardown releases
// the previous one.
func Init(backend SecureBackend) (*Store, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore != nil {
		return nil, ErrAlreadyInitialized
	}
	defaultStore = NewStore(backend)
	return defaultStore, nil
}

func Teardown() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = nil
}

type MemoryBackend struct {
	mu     sync.Mutex
	tokens *Tokens
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) LoadTokens(_ context.Context) (Tokens, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		return Tokens{}, false, nil
	}
	return *m.tokens, true, nil
}

func (m *MemoryBackend) SaveTokens(_ context.Context, t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = &t
	return nil
}

func (m *MemoryBackend) ClearTokens(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = nil
	return nil
}
