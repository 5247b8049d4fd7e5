package state

import "github.com/fekuna/omnipos-storefront/internal/model"

// Action is the closed set of state transitions. Only types in this file
// implement it.
type Action interface {
	actionName() string
}

type (
	SetProducts struct{ Items []model.Product }
	SetUsers    struct{ Items []model.User }
	SetOrders   struct{ Items []model.Order }

	UpsertProduct struct{ Item model.Product }
	UpsertUser    struct{ Item model.User }
	UpsertOrder   struct{ Item model.Order }

	RemoveProduct struct{ ID string }
	RemoveUser    struct{ ID string }
	RemoveOrder   struct{ ID string }

	CartAdd         struct{ Line model.CartLine }
	CartRemove      struct{ ProductID string }
	CartSetQuantity struct {
		ProductID string
		Quantity  int
	}
	CartClear struct{}

	// SetSession sets or, with a nil Account, clears the signed-in account.
	SetSession   struct{ Account *model.User }
	SetAdminMode struct{ Enabled bool }
	SetLoading   struct{ Loading bool }
	SetError     struct{ Message string }
)

func (SetProducts) actionName() string     { return "set-products" }
func (SetUsers) actionName() string        { return "set-users" }
func (SetOrders) actionName() string       { return "set-orders" }
func (UpsertProduct) actionName() string   { return "upsert-product" }
func (UpsertUser) actionName() string      { return "upsert-user" }
func (UpsertOrder) actionName() string     { return "upsert-order" }
func (RemoveProduct) actionName() string   { return "remove-product" }
func (RemoveUser) actionName() string      { return "remove-user" }
func (RemoveOrder) actionName() string     { return "remove-order" }
func (CartAdd) actionName() string         { return "cart-add" }
func (CartRemove) actionName() string      { return "cart-remove" }
func (CartSetQuantity) actionName() string { return "cart-set-quantity" }
func (CartClear) actionName() string       { return "cart-clear" }
func (SetSession) actionName() string      { return "set-session" }
func (SetAdminMode) actionName() string    { return "set-admin-mode" }
func (SetLoading) actionName() string      { return "set-loading" }
func (SetError) actionName() string        { return "set-error" }

// Name returns the wire name of a, used in logs.
func Name(a Action) string { return a.actionName() }
