package localstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLite(t *testing.T) Store {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRedis(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() { s.Close() })
	return s
}

var backends = []struct {
	name string
	new  func(t *testing.T) Store
}{
	{"memory", func(*testing.T) Store { return NewMemoryStore() }},
	{"sqlite", newSQLite},
	{"redis", newRedis},
}

func doc(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func ids(t *testing.T, docs []json.RawMessage) []string {
	t.Helper()
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		var v struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(d, &v))
		out = append(out, v.ID)
	}
	return out
}

func TestStoreContract(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.new(t)

			all, err := s.All(ctx, "products")
			require.NoError(t, err)
			assert.Empty(t, all)

			_, err = s.Get(ctx, "products", "nope")
			assert.ErrorIs(t, err, ErrNotFound)

			for _, id := range []string{"c", "a", "b"} {
				require.NoError(t, s.Put(ctx, "products", id, doc(t, map[string]string{"id": id, "name": id})))
			}
			require.NoError(t, s.Put(ctx, "orders", "o1", doc(t, map[string]string{"id": "o1"})))

			all, err = s.All(ctx, "products")
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "a", "b"}, ids(t, all))

			// replacing keeps position
			require.NoError(t, s.Put(ctx, "products", "c", doc(t, map[string]string{"id": "c", "name": "renamed"})))
			all, err = s.All(ctx, "products")
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "a", "b"}, ids(t, all))

			got, err := s.Get(ctx, "products", "c")
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"c","name":"renamed"}`, string(got))

			n, err := s.Count(ctx, "products")
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, s.Delete(ctx, "products", "a"))
			require.NoError(t, s.Delete(ctx, "products", "a"))
			n, err = s.Count(ctx, "products")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = s.Count(ctx, "orders")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestTokenPersister(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			p := TokenPersister{Store: b.new(t)}

			tok, err := p.LoadToken(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)

			require.NoError(t, p.SaveToken(ctx, "abc.def.ghi"))
			tok, err = p.LoadToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, "abc.def.ghi", tok)

			require.NoError(t, p.DeleteToken(ctx))
			tok, err = p.LoadToken(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)
		})
	}
}
