package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"go.uber.org/zap"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	logoutPath   = "/api/auth/logout"
	usersPath    = "/api/users"
)

func userPath(id string) string { return usersPath + "/" + url.PathEscape(id) }

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
}

// AuthSession is what the remote hands back on login and registration.
type AuthSession struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Login has no local fallback: credentials can only be checked remotely.
// The returned token is stored in the session guard.
func (g *Gateway) Login(ctx context.Context, creds Credentials) (Result[AuthSession], error) {
	if creds.Email == "" || creds.Password == "" {
		return Result[AuthSession]{}, &Error{Kind: KindInvalid, Op: "Login", Message: "email and password are required"}
	}
	return g.authenticate(ctx, "Login", loginPath, creds)
}

func (g *Gateway) Register(ctx context.Context, reg Registration) (Result[AuthSession], error) {
	if reg.Email == "" || reg.Password == "" || reg.FirstName == "" {
		return Result[AuthSession]{}, &Error{Kind: KindInvalid, Op: "Register", Message: "first name, email and password are required"}
	}
	return g.authenticate(ctx, "Register", registerPath, reg)
}

func (g *Gateway) authenticate(ctx context.Context, op, path string, body any) (Result[AuthSession], error) {
	res, err := execute(ctx, g, call[AuthSession]{
		op: op,
		remote: func(ctx context.Context, _ string) (AuthSession, *Pagination, error) {
			var s AuthSession
			data, err := g.remote.do(ctx, op, request{method: http.MethodPost, path: path, body: body})
			if err == nil {
				err = decodeData(op, data, &s)
			}
			if err == nil && s.Token == "" {
				err = &Error{Kind: KindMalformedResponse, Op: op, Message: "response has no token"}
			}
			return s, nil, err
		},
	})
	if err != nil {
		return res, err
	}
	if err := g.session.Store(ctx, res.Data.Token); err != nil {
		return Result[AuthSession]{}, &Error{Kind: KindUnknown, Op: op, Message: "store session token", Err: err}
	}
	return res, nil
}

// Logout always drops the local session. Telling the remote is best-effort.
func (g *Gateway) Logout(ctx context.Context) error {
	if tok := g.session.Current(); tok != "" && g.session.IsValid(tok) {
		if _, err := g.remote.do(ctx, "Logout", request{method: http.MethodPost, path: logoutPath, token: tok}); err != nil {
			g.logger.Debug("remote logout failed", zap.Error(err))
		}
	}
	if err := g.session.Clear(ctx); err != nil {
		return &Error{Kind: KindUnknown, Op: "Logout", Message: "clear session token", Err: err}
	}
	return nil
}

func (g *Gateway) GetAccount(ctx context.Context, id string) (Result[model.User], error) {
	return execute(ctx, g, call[model.User]{
		op:   "GetAccount",
		auth: true,
		remote: func(ctx context.Context, token string) (model.User, *Pagination, error) {
			var u model.User
			data, err := g.remote.do(ctx, "GetAccount", request{method: http.MethodGet, path: userPath(id), token: token})
			if err == nil {
				err = decodeData("GetAccount", data, &u)
			}
			return u, nil, err
		},
		local: func(ctx context.Context) (model.User, *Pagination, error) {
			u, err := g.users.get(ctx, id)
			if err != nil {
				return u, nil, localErr("GetAccount", err)
			}
			return u, nil, nil
		},
	})
}

func (g *Gateway) ListAccounts(ctx context.Context, q ListQuery) (Result[[]model.User], error) {
	return execute(ctx, g, call[[]model.User]{
		op:   "ListAccounts",
		auth: true,
		remote: func(ctx context.Context, token string) ([]model.User, *Pagination, error) {
			data, err := g.remote.do(ctx, "ListAccounts", request{method: http.MethodGet, path: usersPath, query: q.values(), token: token})
			if err != nil {
				return nil, nil, err
			}
			return decodeList[model.User]("ListAccounts", data, "users", q)
		},
		local: func(ctx context.Context) ([]model.User, *Pagination, error) {
			items, page, err := g.users.list(ctx, q)
			if err != nil {
				return nil, nil, localErr("ListAccounts", err)
			}
			return items, page, nil
		},
	})
}

// UpdateAccount applies a partial update. Locally the loyalty counters never
// go backwards and the role must stay within the closed set.
func (g *Gateway) UpdateAccount(ctx context.Context, id string, patch json.RawMessage) (Result[model.User], error) {
	return execute(ctx, g, call[model.User]{
		op:   "UpdateAccount",
		auth: true,
		remote: func(ctx context.Context, token string) (model.User, *Pagination, error) {
			var u model.User
			data, err := g.remote.do(ctx, "UpdateAccount", request{method: http.MethodPut, path: userPath(id), body: patch, token: token})
			if err == nil {
				err = decodeData("UpdateAccount", data, &u)
			}
			return u, nil, err
		},
		local: func(ctx context.Context) (model.User, *Pagination, error) {
			existing, err := g.users.get(ctx, id)
			if err != nil {
				return existing, nil, localErr("UpdateAccount", err)
			}
			updated, err := applyPatch(existing, patch)
			if err != nil {
				return existing, nil, &Error{Kind: KindInvalid, Op: "UpdateAccount", Message: "invalid patch", Err: err}
			}
			if !updated.Role.Valid() {
				return existing, nil, &Error{Kind: KindInvalid, Op: "UpdateAccount", Message: model.ErrInvalidRole.Error(), Err: model.ErrInvalidRole}
			}
			updated.ID = existing.ID
			updated.CreatedAt = existing.CreatedAt
			updated.NormalizeAddresses()
			updated.Loyalty = maxLoyalty(existing.Loyalty, updated.Loyalty)
			if sameJSON(existing, updated) {
				return existing, nil, nil
			}
			updated.UpdatedAt = g.now()
			if err := g.users.put(ctx, updated); err != nil {
				return existing, nil, localErr("UpdateAccount", err)
			}
			return updated, nil, nil
		},
	})
}

// AddAddress appends an address to the account and returns the account.
func (g *Gateway) AddAddress(ctx context.Context, userID string, addr model.Address) (Result[model.User], error) {
	if addr.Street == "" || addr.City == "" || addr.Country == "" {
		return Result[model.User]{}, &Error{Kind: KindInvalid, Op: "AddAddress", Message: "street, city and country are required"}
	}
	return execute(ctx, g, call[model.User]{
		op:   "AddAddress",
		auth: true,
		remote: func(ctx context.Context, token string) (model.User, *Pagination, error) {
			var u model.User
			data, err := g.remote.do(ctx, "AddAddress", request{method: http.MethodPost, path: userPath(userID) + "/addresses", body: addr, token: token})
			if err == nil {
				err = decodeData("AddAddress", data, &u)
			}
			return u, nil, err
		},
		local: func(ctx context.Context) (model.User, *Pagination, error) {
			u, err := g.users.get(ctx, userID)
			if err != nil {
				return u, nil, localErr("AddAddress", err)
			}
			if addr.ID == "" {
				addr.ID = g.newID()
			}
			u.AddAddress(addr)
			u.UpdatedAt = g.now()
			if err := g.users.put(ctx, u); err != nil {
				return u, nil, localErr("AddAddress", err)
			}
			return u, nil, nil
		},
	})
}

// SetDefaultAddress makes addressID the account's only default address.
func (g *Gateway) SetDefaultAddress(ctx context.Context, userID, addressID string) (Result[model.User], error) {
	return execute(ctx, g, call[model.User]{
		op:   "SetDefaultAddress",
		auth: true,
		remote: func(ctx context.Context, token string) (model.User, *Pagination, error) {
			var u model.User
			path := userPath(userID) + "/addresses/" + url.PathEscape(addressID) + "/default"
			data, err := g.remote.do(ctx, "SetDefaultAddress", request{method: http.MethodPut, path: path, token: token})
			if err == nil {
				err = decodeData("SetDefaultAddress", data, &u)
			}
			return u, nil, err
		},
		local: func(ctx context.Context) (model.User, *Pagination, error) {
			u, err := g.users.get(ctx, userID)
			if err != nil {
				return u, nil, localErr("SetDefaultAddress", err)
			}
			if current, ok := u.DefaultAddress(); ok && current.ID == addressID {
				return u, nil, nil
			}
			if err := u.SetDefaultAddress(addressID); err != nil {
				return u, nil, &Error{Kind: KindNotFound, Op: "SetDefaultAddress", Message: err.Error(), Err: err}
			}
			u.UpdatedAt = g.now()
			if err := g.users.put(ctx, u); err != nil {
				return u, nil, localErr("SetDefaultAddress", err)
			}
			return u, nil, nil
		},
	})
}

func maxLoyalty(a, b model.Loyalty) model.Loyalty {
	out := a
	if b.Points > out.Points {
		out.Points = b.Points
	}
	if b.TotalOrders > out.TotalOrders {
		out.TotalOrders = b.TotalOrders
	}
	if b.TotalSpent.GreaterThan(out.TotalSpent) {
		out.TotalSpent = b.TotalSpent
	}
	return out
}
