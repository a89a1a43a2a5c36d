// Package session holds the bearer credential of a logged in user and its
// lifecycle: created at login, invalidated on logout or on any 401.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"healthcare-chat/enum"
	"healthcare-chat/security"
)

var (
	ErrLoggedOut    = errors.New("session: logged out")
	ErrUnauthorized = errors.New("session: rejected by server")
)

type Session struct {
	token     string
	userID    int64
	username  string
	userType  enum.UserType
	expiresAt time.Time

	mu     sync.Mutex
	done   chan struct{}
	reason error
}

// New reads the identity claims of token. The signature is not verified
// here; the server verifies it on every call.
func New(token string) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, errors.New("session: empty token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	userID, err := security.UserIDFromClaims(claims)
	if err != nil {
		return nil, err
	}

	s := &Session{
		token:  token,
		userID: userID,
		done:   make(chan struct{}),
	}
	s.username, _ = claims[security.ClaimUsername].(string)
	if userType, ok := claims[security.ClaimUserType].(string); ok {
		s.userType = enum.UserType(userType)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.expiresAt = exp.Time
	}
	return s, nil
}

func (s *Session) Token() string           { return s.token }
func (s *Session) UserID() int64           { return s.userID }
func (s *Session) Username() string        { return s.username }
func (s *Session) UserType() enum.UserType { return s.userType }
func (s *Session) ExpiresAt() time.Time    { return s.expiresAt }

func (s *Session) Expired() bool {
	return !s.expiresAt.IsZero() && time.Now().After(s.expiresAt)
}

// Valid reports whether the session may still be used for calls.
func (s *Session) Valid() bool {
	select {
	case <-s.done:
		return false
	default:
		return !s.Expired()
	}
}

// Invalidate ends the session. Only the first reason is kept.
func (s *Session) Invalidate(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return
	default:
	}
	if reason == nil {
		reason = ErrLoggedOut
	}
	s.reason = reason
	close(s.done)
}

func (s *Session) Logout() {
	s.Invalidate(ErrLoggedOut)
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the invalidation reason, or nil while the session is live.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Context derives a context that is cancelled, with the invalidation reason
// as cause, when the session ends.
func (s *Session) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	go func() {
		select {
		case <-s.done:
			cancel(s.Err())
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(context.Canceled) }
}
