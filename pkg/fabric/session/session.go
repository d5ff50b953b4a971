package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// refreshWindow is how long before expiry a cached token is renewed.
const refreshWindow = 5 * time.Minute

// Token is an access token. Value is empty for providers that keep tokens to themselves.
type Token struct {
	Value     string
	ExpiresOn time.Time
}

// Provider obtains tokens for an audience.
type Provider interface {
	Name() string
	Token(ctx context.Context, audience Audience) (Token, error)
}

// Session is the explicit authentication context handed to every API client.
//
// Acquire runs once at process start. Validate runs before each call and renews tokens
// that are about to expire. A token that was held but can no longer be renewed surfaces
// as ErrSessionExpired.
type Session struct {
	provider Provider
	now      func() time.Time

	mu       sync.Mutex
	acquired bool
	tokens   map[Audience]Token
}

// New creates a session over provider.
func New(provider Provider) *Session {
	return &Session{
		provider: provider,
		now:      time.Now,
		tokens:   make(map[Audience]Token),
	}
}

// Provider returns the provider name.
func (s *Session) Provider() string {
	return s.provider.Name()
}

// Acquire obtains the initial Fabric token.
func (s *Session) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.provider.Token(ctx, AudienceFabric)
	if err != nil {
		return errUtils.Build(fmt.Errorf("%w: %s: %w", errUtils.ErrUnauthenticated, s.provider.Name(), err)).
			WithHint("Run `fabkit auth login` or `fab auth login`").
			WithContext("provider", s.provider.Name()).
			Err()
	}
	s.tokens[AudienceFabric] = tok
	s.acquired = true
	log.Debug("Session acquired", "provider", s.provider.Name(), "expires", tok.ExpiresOn)
	return nil
}

// Validate checks that the Fabric token is still usable, renewing it when needed.
func (s *Session) Validate(ctx context.Context) error {
	_, err := s.Token(ctx, AudienceFabric)
	return err
}

// Token returns a valid token value for audience.
func (s *Session) Token(ctx context.Context, audience Audience) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acquired {
		return "", errUtils.Build(fmt.Errorf("%w: session was not acquired", errUtils.ErrUnauthenticated)).
			WithHint("Call Acquire before making API calls").
			Err()
	}

	cached, held := s.tokens[audience]
	if held && s.now().Add(refreshWindow).Before(cached.ExpiresOn) {
		return cached.Value, nil
	}

	tok, err := s.provider.Token(ctx, audience)
	if err != nil {
		if held {
			delete(s.tokens, audience)
			return "", errUtils.Build(fmt.Errorf("%w: %s token expired at %s: %w", errUtils.ErrSessionExpired, audience, cached.ExpiresOn.Format(time.RFC3339), err)).
				WithHint("Sign in again with `fabkit auth login`").
				WithContext("audience", string(audience)).
				Err()
		}
		return "", errUtils.Build(fmt.Errorf("%w: %s: %w", errUtils.ErrUnauthenticated, audience, err)).
			WithContext("audience", string(audience)).
			Err()
	}

	log.Trace("Token refreshed", "audience", audience, "expires", tok.ExpiresOn)
	s.tokens[audience] = tok
	return tok.Value, nil
}

// Identity returns the signed-in identity from the Fabric token, when the provider exposes one.
func (s *Session) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[AudienceFabric]
	if !ok || tok.Value == "" {
		return Identity{}, false
	}
	id, err := ParseIdentity(tok.Value)
	if err != nil {
		log.Debug("Cannot read token claims", "error", err)
		return Identity{}, false
	}
	return id, true
}
