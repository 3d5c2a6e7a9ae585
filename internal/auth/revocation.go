package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RevocationSet holds logged-out bearer tokens until their natural expiry.
// It lives in process memory only.
type RevocationSet struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewRevocationSet() *RevocationSet {
	return &RevocationSet{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Revoke is idempotent; revoking again keeps the later expiry.
func (s *RevocationSet) Revoke(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tokens[token]; ok && prev.After(expiresAt) {
		return
	}
	s.tokens[token] = expiresAt
}

func (s *RevocationSet) IsRevoked(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tokens[token]
	return ok
}

func (s *RevocationSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Sweep drops entries whose expiry has passed; such tokens already fail verification.
func (s *RevocationSet) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, exp := range s.tokens {
		if !exp.After(now) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *RevocationSet) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Int("remaining", s.Len()).Msg("revocation sweep")
			}
		}
	}
}
