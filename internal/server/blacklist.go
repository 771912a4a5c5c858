package server

import (
	"sync"
	"time"
)

// tokenBlacklist tracks revoked tokens until their natural expiry.
// Logout adds both the access and refresh token so neither can be replayed.
type tokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func newTokenBlacklist() *tokenBlacklist {
	return &tokenBlacklist{
		tokens: make(map[string]time.Time),
	}
}

// Add revokes a token until the given expiry.
func (b *tokenBlacklist) Add(token string, expiresAt time.Time) {
	if token == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = expiresAt
	b.evictLocked()
}

// Contains reports whether the token has been revoked and is still unexpired.
func (b *tokenBlacklist) Contains(token string) bool {
	b.mu.RLock()
	expiresAt, ok := b.tokens[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.tokens, token)
		b.mu.Unlock()
		return false
	}
	return true
}

// evictLocked drops expired entries. Caller must hold the write lock.
func (b *tokenBlacklist) evictLocked() {
	now := time.Now()
	for token, expiresAt := range b.tokens {
		if now.After(expiresAt) {
			delete(b.tokens, token)
		}
	}
}

// Len returns the number of tracked tokens.
func (b *tokenBlacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tokens)
}
