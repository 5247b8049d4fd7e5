package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/localstore"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const ordersPath = "/api/orders"

func orderPath(id string) string { return ordersPath + "/" + url.PathEscape(id) }

// OrderInput is a checkout: the cart lines are frozen into the order as-is.
type OrderInput struct {
	UserID       string           `json:"userId"`
	Items        []model.CartLine `json:"items"`
	ShippingCost decimal.Decimal  `json:"shippingCost"`
	Tax          decimal.Decimal  `json:"tax"`
	Discount     decimal.Decimal  `json:"discount"`
	Payment      model.Payment    `json:"payment"`
	Shipping     model.Shipping   `json:"shipping"`
}

func (in OrderInput) validate() error {
	if in.UserID == "" {
		return errors.New("user id is required")
	}
	if len(in.Items) == 0 {
		return errors.New("order has no items")
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return fmt.Errorf("item %s: quantity must be at least 1", it.ProductID)
		}
	}
	return nil
}

type statusChange struct {
	Status model.OrderStatus `json:"status"`
	Note   string            `json:"note,omitempty"`
}

// CreateOrder is not idempotent: a local fallback always mints a new order.
func (g *Gateway) CreateOrder(ctx context.Context, in OrderInput) (Result[model.Order], error) {
	if err := in.validate(); err != nil {
		return Result[model.Order]{}, &Error{Kind: KindInvalid, Op: "CreateOrder", Message: err.Error(), Err: err}
	}

	return execute(ctx, g, call[model.Order]{
		op:   "CreateOrder",
		auth: true,
		remote: func(ctx context.Context, token string) (model.Order, *Pagination, error) {
			var o model.Order
			data, err := g.remote.do(ctx, "CreateOrder", request{method: http.MethodPost, path: ordersPath, body: in, token: token})
			if err == nil {
				err = decodeData("CreateOrder", data, &o)
			}
			return o, nil, err
		},
		local: func(ctx context.Context) (model.Order, *Pagination, error) {
			o := g.newOrder(in)
			if err := g.orders.put(ctx, o); err != nil {
				return o, nil, localErr("CreateOrder", err)
			}
			g.recordLocalOrder(ctx, o)
			return o, nil, nil
		},
	})
}

func (g *Gateway) newOrder(in OrderInput) model.Order {
	now := g.now()
	id := g.newID()

	o := model.Order{
		OrderNumber:  orderNumber(id, now.Unix()),
		UserID:       in.UserID,
		Items:        append([]model.CartLine(nil), in.Items...),
		ShippingCost: in.ShippingCost,
		Tax:          in.Tax,
		Discount:     in.Discount,
		Status:       model.OrderPending,
		Payment:      in.Payment,
		Shipping:     in.Shipping,
		History:      []model.StatusEvent{{Status: model.OrderPending, Note: "order placed", At: now}},
	}
	o.ID = id
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Payment.Status == "" {
		o.Payment.Status = model.PaymentPending
	}
	o.ComputeTotals()
	return o
}

func orderNumber(id string, unix int64) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("ORD-%d-%s", unix, suffix)
}

// recordLocalOrder bumps the buyer's loyalty counters. The account may not
// exist locally, in which case nothing is recorded.
func (g *Gateway) recordLocalOrder(ctx context.Context, o model.Order) {
	u, err := g.users.get(ctx, o.UserID)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			g.logger.Warn("load account for loyalty", zap.String("user_id", o.UserID), zap.Error(err))
		}
		return
	}
	u.RecordOrder(o.Total)
	u.UpdatedAt = g.now()
	if err := g.users.put(ctx, u); err != nil {
		g.logger.Warn("save account loyalty", zap.String("user_id", o.UserID), zap.Error(err))
	}
}

func (g *Gateway) GetOrder(ctx context.Context, id string) (Result[model.Order], error) {
	return execute(ctx, g, call[model.Order]{
		op:   "GetOrder",
		auth: true,
		remote: func(ctx context.Context, token string) (model.Order, *Pagination, error) {
			var o model.Order
			data, err := g.remote.do(ctx, "GetOrder", request{method: http.MethodGet, path: orderPath(id), token: token})
			if err == nil {
				err = decodeData("GetOrder", data, &o)
			}
			return o, nil, err
		},
		local: func(ctx context.Context) (model.Order, *Pagination, error) {
			o, err := g.orders.get(ctx, id)
			if err != nil {
				return o, nil, localErr("GetOrder", err)
			}
			return o, nil, nil
		},
	})
}

func (g *Gateway) ListOrders(ctx context.Context, q ListQuery) (Result[[]model.Order], error) {
	return execute(ctx, g, call[[]model.Order]{
		op:   "ListOrders",
		auth: true,
		remote: func(ctx context.Context, token string) ([]model.Order, *Pagination, error) {
			data, err := g.remote.do(ctx, "ListOrders", request{method: http.MethodGet, path: ordersPath, query: q.values(), token: token})
			if err != nil {
				return nil, nil, err
			}
			return decodeList[model.Order]("ListOrders", data, "orders", q)
		},
		local: func(ctx context.Context) ([]model.Order, *Pagination, error) {
			items, page, err := g.orders.list(ctx, q)
			if err != nil {
				return nil, nil, localErr("ListOrders", err)
			}
			return items, page, nil
		},
	})
}

// UpdateOrderStatus moves order to status to. The move is checked against
// the caller's copy of the order before anything is sent; asking for the
// status the order already has is a no-op.
func (g *Gateway) UpdateOrderStatus(ctx context.Context, order model.Order, to model.OrderStatus, note string) (Result[model.Order], error) {
	if !to.Valid() {
		return Result[model.Order]{}, &Error{Kind: KindInvalid, Op: "UpdateOrderStatus", Message: fmt.Sprintf("unknown status %q", to)}
	}
	if order.Status != to {
		if err := order.CanTransition(to, g.now()); err != nil {
			return Result[model.Order]{}, &Error{Kind: KindInvalid, Op: "UpdateOrderStatus", Message: err.Error(), Err: err}
		}
	}

	return execute(ctx, g, call[model.Order]{
		op:   "UpdateOrderStatus",
		auth: true,
		remote: func(ctx context.Context, token string) (model.Order, *Pagination, error) {
			var o model.Order
			data, err := g.remote.do(ctx, "UpdateOrderStatus", request{
				method: http.MethodPut,
				path:   orderPath(order.ID) + "/status",
				body:   statusChange{Status: to, Note: note},
				token:  token,
			})
			if err == nil {
				err = decodeData("UpdateOrderStatus", data, &o)
			}
			return o, nil, err
		},
		local: func(ctx context.Context) (model.Order, *Pagination, error) {
			stored, err := g.orders.get(ctx, order.ID)
			if err != nil {
				return stored, nil, localErr("UpdateOrderStatus", err)
			}
			if stored.Status == to {
				return stored, nil, nil
			}
			if err := stored.Transition(to, note, g.now()); err != nil {
				return stored, nil, &Error{Kind: KindInvalid, Op: "UpdateOrderStatus", Message: err.Error(), Err: err}
			}
			if err := g.orders.put(ctx, stored); err != nil {
				return stored, nil, localErr("UpdateOrderStatus", err)
			}
			return stored, nil, nil
		},
	})
}

func (g *Gateway) CancelOrder(ctx context.Context, order model.Order, reason string) (Result[model.Order], error) {
	return g.UpdateOrderStatus(ctx, order, model.OrderCancelled, reason)
}
