package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/fekuna/omnipos-storefront/internal/localstore"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

const (
	productsCollection  = "products"
	usersCollection     = "users"
	ordersCollection    = "orders"
	analyticsCollection = "analytics"
)

// collection is a typed view over one local store collection.
type collection[T model.Identifiable] struct {
	store localstore.Store
	name  string
}

func (c collection[T]) all(ctx context.Context) ([]T, error) {
	docs, err := c.store.All(ctx, c.name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var item T
		if err := json.Unmarshal(d, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (c collection[T]) get(ctx context.Context, id string) (T, error) {
	var item T
	raw, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return item, err
	}
	err = json.Unmarshal(raw, &item)
	return item, err
}

func (c collection[T]) put(ctx context.Context, item T) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, c.name, item.GetID(), raw)
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

func (c collection[T]) list(ctx context.Context, q ListQuery) ([]T, *Pagination, error) {
	items, err := c.all(ctx)
	if err != nil {
		return nil, nil, err
	}
	page, p := paginate(items, q)
	return page, p, nil
}

// localErr maps a local store failure onto the gateway taxonomy.
func localErr(op string, err error) error {
	if errors.Is(err, localstore.ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, Message: "record not found in local store", Err: err}
	}
	return &Error{Kind: KindUnknown, Op: op, Message: "local store failure", Err: err}
}

// sameJSON compares the JSON encodings of a and b.
func sameJSON(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

// applyPatch merges a JSON patch onto a deep copy of existing.
func applyPatch[T any](existing T, patch json.RawMessage) (T, error) {
	var out T
	raw, err := json.Marshal(existing)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	err = json.Unmarshal(patch, &out)
	return out, err
}
