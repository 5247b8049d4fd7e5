// Package session owns the bearer token: persistence, payload-only expiry
// checks and transient privilege elevation for system work such as catalog
// seeding.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"go.uber.org/zap"
)

var ErrNotElevated = errors.New("restore called without a matching elevate")

// Persister stores the end user's token durably.
type Persister interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
}

type Guard struct {
	mu        sync.Mutex
	persister Persister
	decoder   Decoder
	minter    Minter
	now       func() time.Time
	logger    logger.ZapLogger

	token    string // end user's token
	elevated string // privileged token while depth > 0
	depth    int
}

type Option func(*Guard)

func WithDecoder(d Decoder) Option { return func(g *Guard) { g.decoder = d } }

func WithMinter(m Minter) Option { return func(g *Guard) { g.minter = m } }

func WithClock(now func() time.Time) Option { return func(g *Guard) { g.now = now } }

func WithLogger(l logger.ZapLogger) Option { return func(g *Guard) { g.logger = l } }

// Open builds a Guard and loads any token persisted by a previous run. A
// loaded token is only a session marker; it is not checked here.
func Open(ctx context.Context, p Persister, opts ...Option) (*Guard, error) {
	g := &Guard{
		persister: p,
		decoder:   UnverifiedDecoder{},
		now:       time.Now,
		logger:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	tok, err := p.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	g.token = tok
	return g, nil
}

// Store persists token, replacing any previous one.
func (g *Guard) Store(ctx context.Context, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.persister.SaveToken(ctx, token); err != nil {
		return err
	}
	g.token = token
	return nil
}

// Current returns the token to authorize with: the privileged token while
// elevated, otherwise the user's own token. Empty means absent.
func (g *Guard) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth > 0 {
		return g.elevated
	}
	return g.token
}

// UserToken is the stored end-user token, ignoring any elevation.
func (g *Guard) UserToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// IsValid is true iff token decodes and now < exp. Never panics.
func (g *Guard) IsValid(token string) bool {
	claims, err := g.Claims(token)
	if err != nil {
		return false
	}
	return g.now().Before(claims.ExpiresAt.Time)
}

func (g *Guard) Claims(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	claims, err := g.decoder.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, ErrNoExpiry
	}
	return claims, nil
}

// Clear removes the user's token from memory and from the persister.
// An elevation in progress keeps its privileged token.
func (g *Guard) Clear(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.token = ""
	return g.persister.DeleteToken(ctx)
}

// Elevate substitutes a freshly minted privileged token. Calls nest: each
// Elevate needs a matching Restore and only the outermost pair mints and
// drops the token.
func (g *Guard) Elevate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth > 0 {
		g.depth++
		return nil
	}
	if g.minter == nil {
		return errors.New("no privileged token minter configured")
	}
	tok, err := g.minter.Mint(g.now())
	if err != nil {
		return fmt.Errorf("mint privileged token: %w", err)
	}
	g.elevated = tok
	g.depth = 1
	g.logger.Debug("session elevated")
	return nil
}

// Restore undoes one Elevate. When the last one is undone the user's own
// token (or none) is current again.
func (g *Guard) Restore(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth == 0 {
		return ErrNotElevated
	}
	g.depth--
	if g.depth == 0 {
		g.elevated = ""
		g.logger.Debug("session restored", zap.Bool("user_token_present", g.token != ""))
	}
	return nil
}

func (g *Guard) Elevated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth > 0
}
