package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

var (
	ErrInvalidRole     = errors.New("role must be customer or admin")
	ErrAddressNotFound = errors.New("address not found")
)

type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	IsDefault  bool   `json:"isDefault"`
}

type Preferences struct {
	Dietary      []string `json:"dietary,omitempty"`
	Newsletter   bool     `json:"newsletter"`
	OrderUpdates bool     `json:"orderUpdates"`
	Promotions   bool     `json:"promotions"`
}

// Loyalty counters only grow under normal operation.
type Loyalty struct {
	Points      int             `json:"points"`
	TotalOrders int             `json:"totalOrders"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}

type User struct {
	BaseModel
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Role        Role        `json:"role"`
	Addresses   []Address   `json:"addresses"`
	Preferences Preferences `json:"preferences"`
	Loyalty     Loyalty     `json:"loyalty"`
	LastLogin   *time.Time  `json:"lastLogin,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AddAddress appends a copy of a. The first address, or one flagged as
// default, becomes the only default address.
func (u *User) AddAddress(a Address) Address {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if len(u.Addresses) == 0 {
		a.IsDefault = true
	}
	if a.IsDefault {
		for i := range u.Addresses {
			u.Addresses[i].IsDefault = false
		}
	}
	u.Addresses = append(u.Addresses, a)
	return a
}

func (u *User) SetDefaultAddress(id string) error {
	found := false
	for i := range u.Addresses {
		if u.Addresses[i].ID == id {
			found = true
		}
	}
	if !found {
		return ErrAddressNotFound
	}
	for i := range u.Addresses {
		u.Addresses[i].IsDefault = u.Addresses[i].ID == id
	}
	return nil
}

// NormalizeAddresses keeps at most one default address: the first one
// flagged wins.
func (u *User) NormalizeAddresses() {
	seen := false
	for i := range u.Addresses {
		if u.Addresses[i].IsDefault {
			u.Addresses[i].IsDefault = !seen
			seen = true
		}
	}
}

func (u User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

// RecordOrder bumps the loyalty counters for a placed order. One point per
// whole currency unit spent; negative totals are ignored.
func (u *User) RecordOrder(total decimal.Decimal) {
	if total.IsNegative() {
		return
	}
	u.Loyalty.TotalOrders++
	u.Loyalty.TotalSpent = u.Loyalty.TotalSpent.Add(total)
	u.Loyalty.Points += int(total.IntPart())
}
