// Package gateway performs every catalog, account and order read/write
// against the remote service, falling back to the local durable store when
// the remote cannot be reached.
package gateway

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/localstore"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/retry"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const healthPath = "/api/health"

// Authorizer is the slice of the session guard the gateway needs.
type Authorizer interface {
	Current() string
	IsValid(token string) bool
	Store(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	// UserToken is the end user's own token, ignoring any elevation.
	UserToken() string
}

type Config struct {
	BaseURL          string
	Timeout          time.Duration
	ConnectAttempts  int
	ConnectBaseDelay time.Duration
}

type Gateway struct {
	cfg     Config
	remote  *remoteClient
	local   localstore.Store
	session Authorizer
	logger  logger.ZapLogger
	now     func() time.Time
	newID   func() string

	products collection[model.Product]
	users    collection[model.User]
	orders   collection[model.Order]

	remoteAvailable atomic.Bool
	offline         atomic.Bool
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.remote.httpClient = c }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(g *Gateway) { g.newID = newID }
}

// New builds the gateway and issues the one-shot startup probe.
func New(ctx context.Context, cfg Config, session Authorizer, local localstore.Store, log logger.ZapLogger, opts ...Option) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	g := &Gateway{
		cfg:      cfg,
		remote:   newRemoteClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}),
		local:    local,
		session:  session,
		logger:   log.With(zap.String("component", "gateway")),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		products: collection[model.Product]{store: local, name: productsCollection},
		users:    collection[model.User]{store: local, name: usersCollection},
		orders:   collection[model.Order]{store: local, name: ordersCollection},
	}
	for _, opt := range opts {
		opt(g)
	}

	g.Probe(ctx)
	return g
}

// Probe issues one lightweight read and records the outcome. The flag is
// advisory: calls always try the remote first.
func (g *Gateway) Probe(ctx context.Context) bool {
	_, err := g.remote.do(ctx, "Probe", request{method: http.MethodGet, path: healthPath})
	ok := err == nil
	g.remoteAvailable.Store(ok)
	if !ok {
		g.logger.Warn("remote probe failed", zap.Error(err))
	}
	return ok
}

// Connect is the startup handshake: probe with a linearly growing delay
// between attempts. When attempts run out the session is marked offline
// and Connect returns instead of retrying forever.
func (g *Gateway) Connect(ctx context.Context) bool {
	err := retry.Linear(ctx, g.cfg.ConnectAttempts, g.cfg.ConnectBaseDelay, func(attempt int) error {
		_, err := g.remote.do(ctx, "Connect", request{method: http.MethodGet, path: healthPath})
		if err != nil {
			g.logger.Debug("connect attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		g.remoteAvailable.Store(false)
		g.offline.Store(true)
		g.logger.Warn("remote unreachable, continuing in offline mode", zap.Error(err))
		return false
	}
	g.remoteAvailable.Store(true)
	g.offline.Store(false)
	return true
}

func (g *Gateway) RemoteAvailable() bool { return g.remoteAvailable.Load() }

// Offline reports that the startup handshake gave up.
func (g *Gateway) Offline() bool { return g.offline.Load() }

// call describes one operation: its remote path and, optionally, the local
// fallback.
type call[T any] struct {
	op     string
	auth   bool
	remote func(ctx context.Context, token string) (T, *Pagination, error)
	local  func(ctx context.Context) (T, *Pagination, error)
}

func execute[T any](ctx context.Context, g *Gateway, c call[T]) (Result[T], error) {
	var zero Result[T]

	token := ""
	if c.auth {
		tok, err := g.authorize(ctx, c.op)
		if err != nil {
			return zero, err
		}
		token = tok
	}

	data, page, err := c.remote(ctx, token)
	if err == nil {
		g.remoteAvailable.Store(true)
		return Result[T]{Data: data, Page: page}, nil
	}

	if KindOf(err) == KindUnauthorized {
		if c.auth {
			g.dropSession(ctx, c.op, token)
		}
		return zero, err
	}
	if !shouldFallback(err) {
		return zero, err
	}

	g.remoteAvailable.Store(false)
	if c.local == nil {
		return zero, err
	}
	g.logger.Warn("remote unreachable, using local store", zap.String("op", c.op), zap.Error(err))

	data, page, err = c.local(ctx)
	if err != nil {
		return zero, err
	}
	return Result[T]{Data: data, Local: true, Page: page}, nil
}

// authorize returns a usable token or fails without touching the network.
func (g *Gateway) authorize(ctx context.Context, op string) (string, error) {
	tok := g.session.Current()
	if tok == "" {
		return "", &Error{Kind: KindUnauthorized, Op: op, Message: "not signed in"}
	}
	if !g.session.IsValid(tok) {
		g.dropSession(ctx, op, tok)
		return "", &Error{Kind: KindUnauthorized, Op: op, Message: "session expired"}
	}
	return tok, nil
}

// dropSession clears the end user's token when rejected is that token. A
// rejected privileged token leaves the user's session alone.
func (g *Gateway) dropSession(ctx context.Context, op, rejected string) {
	if rejected != g.session.UserToken() {
		g.logger.Warn("privileged token rejected, user session kept", zap.String("op", op))
		return
	}
	if err := g.session.Clear(ctx); err != nil {
		g.logger.Error("failed to clear session token", zap.String("op", op), zap.Error(err))
	}
}
