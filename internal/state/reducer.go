package state

import (
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-storefront/internal/cart"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNotAdmin      = errors.New("admin mode requires an admin session")
)

type State struct {
	Products  []model.Product
	Users     []model.User
	Orders    []model.Order
	Cart      []model.CartLine
	Session   *model.User
	AdminMode bool
	Loading   bool
	Error     string
}

// Reduce is the transition function. It never mutates s: every changed
// collection is a fresh slice. On error the returned state is s.
func Reduce(s State, a Action) (State, error) {
	switch act := a.(type) {
	case SetProducts:
		s.Products = clone(act.Items)
	case SetUsers:
		s.Users = clone(act.Items)
	case SetOrders:
		s.Orders = clone(act.Items)

	case UpsertProduct:
		s.Products = upsert(s.Products, act.Item)
	case UpsertUser:
		s.Users = upsert(s.Users, act.Item)
		if s.Session != nil && s.Session.ID == act.Item.ID {
			u := act.Item
			s.Session = &u
		}
	case UpsertOrder:
		s.Orders = upsert(s.Orders, act.Item)

	case RemoveProduct:
		s.Products = remove(s.Products, act.ID)
	case RemoveUser:
		s.Users = remove(s.Users, act.ID)
	case RemoveOrder:
		s.Orders = remove(s.Orders, act.ID)

	case CartAdd:
		lines, err := cart.Add(s.Cart, act.Line)
		if err != nil {
			return s, err
		}
		s.Cart = lines
	case CartRemove:
		s.Cart = cart.Remove(s.Cart, act.ProductID)
	case CartSetQuantity:
		lines, err := cart.SetQuantity(s.Cart, act.ProductID, act.Quantity)
		if err != nil {
			return s, err
		}
		s.Cart = lines
	case CartClear:
		s.Cart = nil

	case SetSession:
		if act.Account == nil {
			s.Session = nil
			s.AdminMode = false
			break
		}
		u := *act.Account
		s.Session = &u
		if !u.IsAdmin() {
			s.AdminMode = false
		}
	case SetAdminMode:
		if act.Enabled && (s.Session == nil || !s.Session.IsAdmin()) {
			return s, ErrNotAdmin
		}
		s.AdminMode = act.Enabled
	case SetLoading:
		s.Loading = act.Loading
	case SetError:
		s.Error = act.Message

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	return s, nil
}

// upsert replaces the record with the same id or appends it.
func upsert[T model.Identifiable](items []T, item T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	for i := range out {
		if out[i].GetID() == item.GetID() {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func remove[T model.Identifiable](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.GetID() != id {
			out = append(out, it)
		}
	}
	return out
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
