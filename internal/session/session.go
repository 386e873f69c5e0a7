// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session keeps the admin sign-in state in Valkey. The browser holds
// a random token in a cookie; Valkey holds the JSON payload under the
// SHA-256 of that token, so a dump of the cache cannot be replayed as a
// cookie. A session still waiting for its TOTP code lives for PendingTTL;
// a completed one for DefaultTTL, renewed on every read.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "blog_session"

	// DefaultTTL is the idle lifetime of a fully signed-in session.
	DefaultTTL = 12 * time.Hour

	// PendingTTL bounds the time between the password and the TOTP step.
	PendingTTL = 5 * time.Minute

	keyPrefix   = "blog:session:"
	tokenLength = 32
)

// ErrNoSession is returned by Update when the request carries no session cookie.
var ErrNoSession = errors.New("session: no session cookie")

// Data holds the session payload stored in Valkey.
type Data struct {
	Username  string    `json:"username"`
	TwoFADone bool      `json:"two_fa_done"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether the session has passed every login step.
// needTOTP is true when a second factor is configured.
func (d *Data) Authenticated(needTOTP bool) bool {
	return d != nil && d.Username != "" && (!needTOTP || d.TwoFADone)
}

// Store manages admin sessions in Valkey.
type Store struct {
	client *redis.Client
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure sets the Secure attribute on the session cookie.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, secure: secure}
}

// key maps a cookie token to its Valkey key.
func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// ttl is PendingTTL until the second factor is done.
func ttl(data *Data, needTOTP bool) time.Duration {
	if needTOTP && !data.TwoFADone {
		return PendingTTL
	}
	return DefaultTTL
}

// Create starts a new session for data and sets the cookie. needTOTP
// selects the short pending lifetime until Update records the second
// factor. It returns the cookie token.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data, needTOTP bool) (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	token := hex.EncodeToString(b)

	data.CreatedAt = time.Now().UTC()
	if err := s.save(ctx, token, data, ttl(data, needTOTP)); err != nil {
		return "", err
	}

	s.setCookie(w, token, 0)
	return token, nil
}

// Get returns the session named by the request cookie and renews its
// lifetime, or nil when there is none or it has expired. Pending sessions
// are not renewed.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	k := key(cookie.Value)
	payload, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	if data.TwoFADone || s.client.TTL(ctx, k).Val() > PendingTTL {
		if err := s.client.Expire(ctx, k, DefaultTTL).Err(); err != nil {
			return nil, fmt.Errorf("session renew: %w", err)
		}
	}
	return &data, nil
}

// Update replaces the session payload, keeping the token. A session whose
// second factor is now done gets the full lifetime.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ErrNoSession
	}
	return s.save(ctx, cookie.Value, data, DefaultTTL)
}

// Destroy removes the session and expires the cookie. A request without a
// session is not an error.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	if err := s.client.Del(ctx, key(cookie.Value)).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	s.setCookie(w, "", -1)
	return nil
}

func (s *Store) save(ctx context.Context, token string, data *Data, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, key(token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// setCookie writes the session cookie. maxAge 0 makes it a browser-session
// cookie; -1 deletes it.
func (s *Store) setCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
