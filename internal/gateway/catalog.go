package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/fekuna/omnipos-storefront/internal/model"
)

const productsPath = "/api/products"

func productPath(id string) string { return productsPath + "/" + url.PathEscape(id) }

func (g *Gateway) ListProducts(ctx context.Context, q ListQuery) (Result[[]model.Product], error) {
	return execute(ctx, g, call[[]model.Product]{
		op: "ListProducts",
		remote: func(ctx context.Context, _ string) ([]model.Product, *Pagination, error) {
			data, err := g.remote.do(ctx, "ListProducts", request{method: http.MethodGet, path: productsPath, query: q.values()})
			if err != nil {
				return nil, nil, err
			}
			return decodeList[model.Product]("ListProducts", data, "products", q)
		},
		local: func(ctx context.Context) ([]model.Product, *Pagination, error) {
			items, page, err := g.products.list(ctx, q)
			if err != nil {
				return nil, nil, localErr("ListProducts", err)
			}
			return items, page, nil
		},
	})
}

func (g *Gateway) GetProduct(ctx context.Context, id string) (Result[model.Product], error) {
	return execute(ctx, g, call[model.Product]{
		op: "GetProduct",
		remote: func(ctx context.Context, _ string) (model.Product, *Pagination, error) {
			var p model.Product
			data, err := g.remote.do(ctx, "GetProduct", request{method: http.MethodGet, path: productPath(id)})
			if err == nil {
				err = decodeData("GetProduct", data, &p)
			}
			return p, nil, err
		},
		local: func(ctx context.Context) (model.Product, *Pagination, error) {
			p, err := g.products.get(ctx, id)
			if err != nil {
				return p, nil, localErr("GetProduct", err)
			}
			return p, nil, nil
		},
	})
}

// CreateProduct is not idempotent: a local fallback always mints a new id.
func (g *Gateway) CreateProduct(ctx context.Context, p model.Product) (Result[model.Product], error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return Result[model.Product]{}, &Error{Kind: KindInvalid, Op: "CreateProduct", Message: err.Error(), Err: err}
	}

	return execute(ctx, g, call[model.Product]{
		op:   "CreateProduct",
		auth: true,
		remote: func(ctx context.Context, token string) (model.Product, *Pagination, error) {
			var created model.Product
			data, err := g.remote.do(ctx, "CreateProduct", request{method: http.MethodPost, path: productsPath, body: p, token: token})
			if err == nil {
				err = decodeData("CreateProduct", data, &created)
			}
			return created, nil, err
		},
		local: func(ctx context.Context) (model.Product, *Pagination, error) {
			now := g.now()
			created := p
			created.ID = g.newID()
			created.CreatedAt = now
			created.UpdatedAt = now
			created.IsActive = true
			if err := g.products.put(ctx, created); err != nil {
				return created, nil, localErr("CreateProduct", err)
			}
			return created, nil, nil
		},
	})
}

// UpdateProduct applies a partial update. Locally the patch is merged onto
// the stored record; a repeated identical patch leaves it untouched.
func (g *Gateway) UpdateProduct(ctx context.Context, id string, patch json.RawMessage) (Result[model.Product], error) {
	return execute(ctx, g, call[model.Product]{
		op:   "UpdateProduct",
		auth: true,
		remote: func(ctx context.Context, token string) (model.Product, *Pagination, error) {
			var updated model.Product
			data, err := g.remote.do(ctx, "UpdateProduct", request{method: http.MethodPut, path: productPath(id), body: patch, token: token})
			if err == nil {
				err = decodeData("UpdateProduct", data, &updated)
			}
			return updated, nil, err
		},
		local: func(ctx context.Context) (model.Product, *Pagination, error) {
			existing, err := g.products.get(ctx, id)
			if err != nil {
				return existing, nil, localErr("UpdateProduct", err)
			}
			updated, err := applyPatch(existing, patch)
			if err != nil {
				return existing, nil, &Error{Kind: KindInvalid, Op: "UpdateProduct", Message: "invalid patch", Err: err}
			}
			updated.ID = existing.ID
			updated.CreatedAt = existing.CreatedAt
			updated.Normalize()
			if err := updated.Validate(); err != nil {
				return existing, nil, &Error{Kind: KindInvalid, Op: "UpdateProduct", Message: err.Error(), Err: err}
			}
			if sameJSON(existing, updated) {
				return existing, nil, nil
			}
			updated.UpdatedAt = g.now()
			if err := g.products.put(ctx, updated); err != nil {
				return existing, nil, localErr("UpdateProduct", err)
			}
			return updated, nil, nil
		},
	})
}

// DeleteProduct succeeds for ids the local store never held.
func (g *Gateway) DeleteProduct(ctx context.Context, id string) (Result[string], error) {
	return execute(ctx, g, call[string]{
		op:   "DeleteProduct",
		auth: true,
		remote: func(ctx context.Context, token string) (string, *Pagination, error) {
			_, err := g.remote.do(ctx, "DeleteProduct", request{method: http.MethodDelete, path: productPath(id), token: token})
			return id, nil, err
		},
		local: func(ctx context.Context) (string, *Pagination, error) {
			if err := g.products.delete(ctx, id); err != nil {
				return id, nil, localErr("DeleteProduct", err)
			}
			return id, nil, nil
		},
	})
}
