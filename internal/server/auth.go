package server

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
)

// Sessions maps opaque bearer tokens to user ids. Tokens live for the
// process lifetime; restarting the service logs everyone out.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]int64
}

// NewSessions builds an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{tokens: map[string]int64{}}
}

// Issue mints a fresh token for the user.
func (s *Sessions) Issue(userID int64) string {
	token := uuid.NewString()

	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()

	return token
}

// Resolve returns the user id behind a token.
func (s *Sessions) Resolve(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.tokens[token]
	return userID, ok
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
