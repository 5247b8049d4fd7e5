// Package bootstrap takes the application from an empty state to a loaded
// one exactly once per process, tolerating a partially or fully unreachable
// remote.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-storefront/internal/gateway"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/state"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"go.uber.org/zap"
)

var ErrSeedPartialFailure = errors.New("seed partially failed")

// Gateway is the subset of gateway.Gateway the bootstrap sequence drives.
type Gateway interface {
	Probe(ctx context.Context) bool
	ListProducts(ctx context.Context, q gateway.ListQuery) (gateway.Result[[]model.Product], error)
	CreateProduct(ctx context.Context, p model.Product) (gateway.Result[model.Product], error)
	ListAccounts(ctx context.Context, q gateway.ListQuery) (gateway.Result[[]model.User], error)
	ListOrders(ctx context.Context, q gateway.ListQuery) (gateway.Result[[]model.Order], error)
}

type Session interface {
	Elevate(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Dispatcher interface {
	Dispatch(a state.Action) error
}

// Outcome summarises a bootstrap run.
type Outcome struct {
	Phase    Phase
	Seeded   int
	Products int
	Accounts int
	Orders   int
	// Err is the failure that sent the run down the degraded path, if any.
	Err error
}

type Config struct {
	PageSize int
	Seed     []model.Product
}

type Bootstrapper struct {
	cfg      Config
	gateway  Gateway
	session  Session
	store    Dispatcher
	logger   logger.ZapLogger
	once     sync.Once
	outcome  Outcome
	mu       sync.Mutex
	phase    Phase
	onChange func(Phase)
}

func New(cfg Config, gw Gateway, session Session, store Dispatcher, log logger.ZapLogger) *Bootstrapper {
	if cfg.PageSize < 1 {
		cfg.PageSize = gateway.DefaultLimit
	}
	if cfg.Seed == nil {
		cfg.Seed = SeedCatalog()
	}
	return &Bootstrapper{
		cfg:     cfg,
		gateway: gw,
		session: session,
		store:   store,
		logger:  log.With(zap.String("component", "bootstrap")),
	}
}

// OnPhase registers a callback invoked on every phase change. It must be set
// before Run.
func (b *Bootstrapper) OnPhase(fn func(Phase)) { b.onChange = fn }

func (b *Bootstrapper) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Run executes the sequence once. Later calls return the first outcome.
func (b *Bootstrapper) Run(ctx context.Context) Outcome {
	b.once.Do(func() { b.outcome = b.run(ctx) })
	return b.outcome
}

func (b *Bootstrapper) run(ctx context.Context) Outcome {
	var out Outcome
	b.dispatch(state.SetLoading{Loading: true})
	defer b.dispatch(state.SetLoading{Loading: false})

	restore, elevateErr := b.elevate(ctx)

	err := safely(func() error { return b.sequence(ctx, &out, restore) })
	if err == nil && elevateErr == nil {
		b.enter(PhaseReady)
		out.Phase = PhaseReady
		b.logger.Info("bootstrap complete",
			zap.Int("seeded", out.Seeded),
			zap.Int("products", out.Products),
			zap.Int("accounts", out.Accounts),
			zap.Int("orders", out.Orders))
		return out
	}

	if err == nil {
		err = elevateErr
	} else {
		// Seed and load again with whatever is reachable now.
		b.logger.Error("bootstrap step failed, falling back to seed and load", zap.Error(err))
		if serr := safely(func() error { return b.seed(ctx, &out) }); serr != nil {
			b.logger.Warn("fallback seed failed", zap.Error(serr))
		}
		if lerr := safely(func() error { return b.loadAll(ctx, &out) }); lerr != nil {
			b.logger.Warn("fallback load incomplete", zap.Error(lerr))
		}
		if rerr := restore(); rerr != nil {
			b.logger.Error("restore session after failed bootstrap", zap.Error(rerr))
		}
	}

	out.Err = err
	out.Phase = PhaseDegradedReady
	b.enter(PhaseDegradedReady)
	b.dispatch(state.SetError{Message: "running with partial data: " + err.Error()})
	return out
}

// sequence runs probe, seed, load and restore.
func (b *Bootstrapper) sequence(ctx context.Context, out *Outcome, restore func() error) error {
	if b.gateway.Probe(ctx) {
		b.logger.Info("remote reachable")
	} else {
		b.logger.Warn("remote unreachable, continuing with local data")
	}
	b.enter(PhaseProbed)

	if err := b.seed(ctx, out); err != nil {
		return err
	}

	if err := b.loadAll(ctx, out); err != nil {
		return err
	}
	b.enter(PhaseLoaded)

	if err := restore(); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	b.enter(PhaseRestored)
	return nil
}

// elevate switches the session to the privileged token. The returned
// restore func is safe to call more than once.
func (b *Bootstrapper) elevate(ctx context.Context) (func() error, error) {
	if err := b.session.Elevate(ctx); err != nil {
		b.logger.Warn("could not elevate session, seeding may be rejected", zap.Error(err))
		return func() error { return nil }, fmt.Errorf("elevate session: %w", err)
	}
	b.enter(PhaseElevated)

	var (
		once sync.Once
		err  error
	)
	return func() error {
		once.Do(func() { err = b.session.Restore(ctx) })
		return err
	}, nil
}

// seed creates the fixed catalog when the catalog is empty. Partial
// failures are logged and absorbed.
func (b *Bootstrapper) seed(ctx context.Context, out *Outcome) error {
	created, err := b.seedIfEmpty(ctx)
	out.Seeded += created
	switch {
	case errors.Is(err, ErrSeedPartialFailure):
		b.logger.Warn("seeding incomplete", zap.Error(err))
	case err != nil:
		return err
	}
	if created > 0 {
		b.enter(PhaseSeeded)
	}
	return nil
}

func (b *Bootstrapper) seedIfEmpty(ctx context.Context) (int, error) {
	res, err := b.gateway.ListProducts(ctx, gateway.ListQuery{Page: 1, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("check catalog: %w", err)
	}
	if len(res.Data) > 0 || (res.Page != nil && res.Page.Total > 0) {
		return 0, nil
	}

	created, failed := 0, 0
	for _, p := range b.cfg.Seed {
		if _, err := b.gateway.CreateProduct(ctx, p); err != nil {
			failed++
			b.logger.Warn("seed product failed", zap.String("name", p.Name), zap.Error(err))
			continue
		}
		created++
	}
	b.logger.Info("catalog seeded", zap.Int("created", created), zap.Int("failed", failed))
	if failed > 0 {
		return created, fmt.Errorf("%w: %d of %d products", ErrSeedPartialFailure, failed, len(b.cfg.Seed))
	}
	return created, nil
}

// loadAll upserts every product, account and order into the store one by
// one. Each collection is loaded independently.
func (b *Bootstrapper) loadAll(ctx context.Context, out *Outcome) error {
	var errs []error

	n, err := loadPages(ctx, b.cfg.PageSize, b.gateway.ListProducts, func(p model.Product) error {
		return b.store.Dispatch(state.UpsertProduct{Item: p})
	})
	out.Products = max(out.Products, n)
	if err != nil {
		errs = append(errs, fmt.Errorf("load products: %w", err))
	}

	n, err = loadPages(ctx, b.cfg.PageSize, b.gateway.ListAccounts, func(u model.User) error {
		return b.store.Dispatch(state.UpsertUser{Item: u})
	})
	out.Accounts = max(out.Accounts, n)
	if err != nil {
		errs = append(errs, fmt.Errorf("load accounts: %w", err))
	}

	n, err = loadPages(ctx, b.cfg.PageSize, b.gateway.ListOrders, func(o model.Order) error {
		return b.store.Dispatch(state.UpsertOrder{Item: o})
	})
	out.Orders = max(out.Orders, n)
	if err != nil {
		errs = append(errs, fmt.Errorf("load orders: %w", err))
	}

	return errors.Join(errs...)
}

// loadPages walks every page of list and hands each item to apply.
func loadPages[T any](ctx context.Context, pageSize int, list func(context.Context, gateway.ListQuery) (gateway.Result[[]T], error), apply func(T) error) (int, error) {
	loaded := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		res, err := list(ctx, gateway.ListQuery{Page: page, Limit: pageSize})
		if err != nil {
			return loaded, err
		}
		for _, item := range res.Data {
			if err := apply(item); err != nil {
				return loaded, err
			}
			loaded++
		}
		if len(res.Data) < pageSize || res.Page == nil || page >= res.Page.TotalPages {
			return loaded, nil
		}
	}
}

func (b *Bootstrapper) enter(p Phase) {
	b.mu.Lock()
	b.phase = p
	b.mu.Unlock()

	b.logger.Debug("bootstrap phase", zap.Stringer("phase", p))
	if b.onChange != nil {
		b.onChange(p)
	}
}

func (b *Bootstrapper) dispatch(a state.Action) {
	if err := b.store.Dispatch(a); err != nil {
		b.logger.Warn("dispatch failed", zap.String("action", state.Name(a)), zap.Error(err))
	}
}

// safely runs fn, turning a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
