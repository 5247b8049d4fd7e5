package bootstrap

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/gateway"
	"github.com/fekuna/omnipos-storefront/internal/localstore"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/session"
	"github.com/fekuna/omnipos-storefront/internal/state"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu            sync.Mutex
	products      []model.Product
	orders        []model.Order
	creates       int
	failCreate    map[string]bool
	panicAccounts bool
}

func page[T any](items []T, q gateway.ListQuery) gateway.Result[[]T] {
	start := (q.Page - 1) * q.Limit
	if start > len(items) {
		start = len(items)
	}
	end := min(start+q.Limit, len(items))
	pages := (len(items) + q.Limit - 1) / q.Limit
	return gateway.Result[[]T]{
		Data: append([]T{}, items[start:end]...),
		Page: &gateway.Pagination{Page: q.Page, Limit: q.Limit, Total: len(items), TotalPages: pages},
	}
}

func (f *fakeGateway) Probe(context.Context) bool { return true }

func (f *fakeGateway) ListProducts(_ context.Context, q gateway.ListQuery) (gateway.Result[[]model.Product], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(f.products, q), nil
}

func (f *fakeGateway) CreateProduct(_ context.Context, p model.Product) (gateway.Result[model.Product], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreate[p.Name] {
		return gateway.Result[model.Product]{}, &gateway.Error{Kind: gateway.KindRemoteRejected, Message: "duplicate"}
	}
	p.ID = fmt.Sprintf("p%d", len(f.products)+1)
	f.products = append(f.products, p)
	return gateway.Result[model.Product]{Data: p}, nil
}

func (f *fakeGateway) ListAccounts(_ context.Context, q gateway.ListQuery) (gateway.Result[[]model.User], error) {
	if f.panicAccounts {
		panic("accounts endpoint exploded")
	}
	return page([]model.User{}, q), nil
}

func (f *fakeGateway) ListOrders(_ context.Context, q gateway.ListQuery) (gateway.Result[[]model.Order], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(f.orders, q), nil
}

type fakeSession struct {
	elevateErr error
	elevates   int
	restores   int
}

func (s *fakeSession) Elevate(context.Context) error {
	s.elevates++
	return s.elevateErr
}

func (s *fakeSession) Restore(context.Context) error {
	s.restores++
	return nil
}

func newStore() *state.Store { return state.NewStore(state.State{}, logger.NewNop()) }

func TestOfflineFirstRunSeedsThreeProducts(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(nil)
	srv.Close()

	local := localstore.NewMemoryStore()
	guard, err := session.Open(ctx, localstore.TokenPersister{Store: local},
		session.WithMinter(session.HMACMinter{Secret: []byte("boot-secret"), TTL: time.Minute}))
	require.NoError(t, err)

	gw := gateway.New(ctx, gateway.Config{BaseURL: srv.URL, Timeout: time.Second}, guard, local, logger.NewNop())
	store := newStore()

	var phases []Phase
	b := New(Config{PageSize: 2}, gw, guard, store, logger.NewNop())
	b.OnPhase(func(p Phase) { phases = append(phases, p) })

	out := b.Run(ctx)
	require.NoError(t, out.Err)
	assert.Equal(t, PhaseReady, out.Phase)
	assert.Equal(t, 3, out.Seeded)
	assert.Equal(t, []Phase{PhaseElevated, PhaseProbed, PhaseSeeded, PhaseLoaded, PhaseRestored, PhaseReady}, phases)

	products := store.Snapshot().Products
	require.Len(t, products, 3)
	ids := map[string]bool{}
	for _, p := range products {
		assert.True(t, p.IsActive)
		ids[p.ID] = true
	}
	assert.Len(t, ids, 3)

	assert.False(t, guard.Elevated())
	assert.Empty(t, guard.Current())
	assert.False(t, store.Snapshot().Loading)
}

func TestRestoreReturnsUserToken(t *testing.T) {
	ctx := context.Background()
	local := localstore.NewMemoryStore()
	guard, err := session.Open(ctx, localstore.TokenPersister{Store: local},
		session.WithMinter(session.HMACMinter{Secret: []byte("boot-secret"), TTL: time.Minute}))
	require.NoError(t, err)
	require.NoError(t, guard.Store(ctx, "user-token"))

	b := New(Config{}, &fakeGateway{}, guard, newStore(), logger.NewNop())
	out := b.Run(ctx)

	assert.Equal(t, PhaseReady, out.Phase)
	assert.Equal(t, "user-token", guard.Current())
}

func TestSeedIsSkippedWhenCatalogHasProducts(t *testing.T) {
	gw := &fakeGateway{}
	b := New(Config{}, gw, &fakeSession{}, newStore(), logger.NewNop())
	ctx := context.Background()

	created, err := b.seedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Equal(t, 3, gw.creates)

	created, err = b.seedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 3, gw.creates, "second run must not create anything")
}

func TestRunHappensOnce(t *testing.T) {
	gw := &fakeGateway{}
	sess := &fakeSession{}
	b := New(Config{}, gw, sess, newStore(), logger.NewNop())

	first := b.Run(context.Background())
	second := b.Run(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, sess.elevates)
	assert.Equal(t, 3, gw.creates)
}

func TestPartialSeedFailureIsAbsorbed(t *testing.T) {
	gw := &fakeGateway{failCreate: map[string]bool{"Whole Milk": true}}
	store := newStore()
	b := New(Config{}, gw, &fakeSession{}, store, logger.NewNop())

	out := b.Run(context.Background())

	assert.Equal(t, PhaseReady, out.Phase)
	assert.Equal(t, 2, out.Seeded)
	assert.Len(t, store.Snapshot().Products, 2)
}

func TestPanicEndsDegradedButLoaded(t *testing.T) {
	gw := &fakeGateway{panicAccounts: true}
	sess := &fakeSession{}
	store := newStore()
	b := New(Config{}, gw, sess, store, logger.NewNop())

	out := b.Run(context.Background())

	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "accounts endpoint exploded")
	assert.Equal(t, PhaseDegradedReady, out.Phase)
	assert.True(t, out.Phase.Terminal())
	assert.Len(t, store.Snapshot().Products, 3)
	assert.Equal(t, 1, sess.restores)
	assert.NotEmpty(t, store.Snapshot().Error)
}

func TestElevationFailureStillLoads(t *testing.T) {
	gw := &fakeGateway{products: SeedCatalog()}
	sess := &fakeSession{elevateErr: errors.New("no secret")}
	store := newStore()
	b := New(Config{PageSize: 1}, gw, sess, store, logger.NewNop())

	out := b.Run(context.Background())

	assert.Equal(t, PhaseDegradedReady, out.Phase)
	assert.Zero(t, sess.restores)
	assert.Zero(t, gw.creates)
	assert.Equal(t, 3, out.Products)
}

func TestLoadPagesWalksEveryPage(t *testing.T) {
	var orders []model.Order
	for i := 0; i < 7; i++ {
		o := model.Order{}
		o.ID = fmt.Sprintf("o%d", i)
		orders = append(orders, o)
	}
	gw := &fakeGateway{orders: orders}

	var seen []string
	n, err := loadPages(context.Background(), 3, gw.ListOrders, func(o model.Order) error {
		seen = append(seen, o.ID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, []string{"o0", "o1", "o2", "o3", "o4", "o5", "o6"}, seen)
}

func TestRejectedSystemTokenKeepsUserSession(t *testing.T) {
	ctx := context.Background()
	reply := func(w http.ResponseWriter, status int, success bool, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": success, "data": data})
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products":
			p := SeedCatalog()[0]
			p.ID = "p1"
			reply(w, http.StatusOK, true, map[string]any{
				"products":   []model.Product{p},
				"pagination": gateway.Pagination{Page: 1, Limit: 50, Total: 1, TotalPages: 1},
			})
		case "/api/users":
			reply(w, http.StatusUnauthorized, false, nil)
		case "/api/orders":
			reply(w, http.StatusOK, true, map[string]any{"orders": []model.Order{}})
		default:
			reply(w, http.StatusOK, true, map[string]string{"status": "ok"})
		}
	}))
	t.Cleanup(srv.Close)

	userTok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		Role:             "customer",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("remote-secret"))
	require.NoError(t, err)

	local := localstore.NewMemoryStore()
	persister := localstore.TokenPersister{Store: local}
	guard, err := session.Open(ctx, persister,
		session.WithMinter(session.HMACMinter{Secret: []byte("boot-secret"), TTL: time.Minute}))
	require.NoError(t, err)
	require.NoError(t, guard.Store(ctx, userTok))

	gw := gateway.New(ctx, gateway.Config{BaseURL: srv.URL, Timeout: time.Second}, guard, local, logger.NewNop())
	store := newStore()
	out := New(Config{}, gw, guard, store, logger.NewNop()).Run(ctx)

	assert.Equal(t, PhaseDegradedReady, out.Phase)
	assert.Len(t, store.Snapshot().Products, 1)
	assert.False(t, guard.Elevated())
	assert.Equal(t, userTok, guard.Current())

	persisted, err := persister.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, userTok, persisted)
}
