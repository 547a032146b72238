// Package session loads the user's credentials from disk and keeps them
// fresh while the app runs.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"orgreg/internal/log"
)

// Credentials is the on-disk credential file shape.
type Credentials struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// Provider serves the current access token and user id. Safe for
// concurrent use; Reload swaps the credentials atomically.
type Provider struct {
	path string

	mu        sync.RWMutex
	creds     Credentials
	expiresAt time.Time
}

// Load reads the credentials file and returns a provider.
func Load(path string) (*Provider, error) {
	p := &Provider{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the credentials file. On failure the previous
// credentials stay in effect.
func (p *Provider) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("reading credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("parsing credentials file: %w", err)
	}
	if creds.AccessToken == "" {
		return fmt.Errorf("credentials file %s has no access_token", p.path)
	}

	expiresAt, subject := inspectToken(creds.AccessToken)
	// The file's user_id wins; the token subject is the fallback
	if creds.UserID == "" {
		creds.UserID = subject
	}
	if creds.UserID == "" {
		return fmt.Errorf("credentials file %s has no user_id and the token carries no subject", p.path)
	}

	p.mu.Lock()
	p.creds = creds
	p.expiresAt = expiresAt
	p.mu.Unlock()

	log.Info(log.CatSession, "credentials loaded", "user_id", creds.UserID,
		"expires_at", expiresAt.Format(time.RFC3339))
	return nil
}

// inspectToken extracts expiry and subject from a JWT without verifying
// its signature. Verification is the server's job; the client only needs
// the claims for display and expiry warnings.
func inspectToken(token string) (time.Time, string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens are fine, they just carry no claims
		log.Debug(log.CatSession, "token is not a parseable JWT", "error", err)
		return time.Time{}, ""
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	subject, _ := claims.GetSubject()
	return expiresAt, subject
}

// Token returns the current access token.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creds.AccessToken
}

// UserID returns the acting user's id.
func (p *Provider) UserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creds.UserID
}

// ExpiresAt returns the token expiry, or the zero time when unknown.
func (p *Provider) ExpiresAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.expiresAt
}

// Expired reports whether the token has a known expiry in the past.
func (p *Provider) Expired() bool {
	exp := p.ExpiresAt()
	return !exp.IsZero() && time.Now().After(exp)
}

// Path returns the credentials file path.
func (p *Provider) Path() string {
	return p.path
}
