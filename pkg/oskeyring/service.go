// Package oskeyring wraps the operating system keyring behind a small
// interface so callers (vault key storage, auth tokens) can be tested with
// an in-memory fake.
package oskeyring

import (
	"errors"
	"fmt"
	"sync"

	keyringlib "github.com/zalando/go-keyring"
)

// ServiceName is the keyring service entries are filed under.
const ServiceName = "shipenv"

// ErrNotFound is returned by Get when the requested secret is not found.
var ErrNotFound = errors.New("secret not found in keyring")

// Service defines an interface for interacting with the operating system's
// keyring.
type Service interface {
	// Get retrieves a secret for a given service and user.
	// It returns ErrNotFound if the secret is not found.
	Get(service, user string) (string, error)
	// Set stores a secret for a given service and user.
	Set(service, user, password string) error
	// Delete removes a secret for a given service and user.
	// It should not return an error if the secret does not exist.
	Delete(service, user string) error
}

// DefaultService talks to the real OS keyring via zalando/go-keyring.
type DefaultService struct{}

func NewDefaultService() *DefaultService {
	return &DefaultService{}
}

func (s *DefaultService) Get(service, user string) (string, error) {
	secret, err := keyringlib.Get(service, user)
	if err != nil {
		if errors.Is(err, keyringlib.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get secret from OS keyring: %w", err)
	}
	return secret, nil
}

func (s *DefaultService) Set(service, user, password string) error {
	return keyringlib.Set(service, user, password)
}

func (s *DefaultService) Delete(service, user string) error {
	// zalando/go-keyring Delete does not return an error if not found.
	return keyringlib.Delete(service, user)
}

var _ Service = (*DefaultService)(nil)

// MemoryService is an in-memory Service for tests and headless CI, where no
// OS keyring daemon is available.
type MemoryService struct {
	mu      sync.Mutex
	secrets map[string]string
}

func NewMemoryService() *MemoryService {
	return &MemoryService{secrets: make(map[string]string)}
}

func (s *MemoryService) Get(service, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.secrets[service+"\x00"+user]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryService) Set(service, user, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[service+"\x00"+user] = password
	return nil
}

func (s *MemoryService) Delete(service, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, service+"\x00"+user)
	return nil
}

var _ Service = (*MemoryService)(nil)
