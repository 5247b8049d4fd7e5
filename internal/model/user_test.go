package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(u User) int {
	n := 0
	for _, a := range u.Addresses {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestAddressesKeepSingleDefault(t *testing.T) {
	var u User
	first := u.AddAddress(Address{Street: "1 Main"})
	assert.True(t, first.IsDefault)

	u.AddAddress(Address{Street: "2 Side"})
	assert.Equal(t, 1, defaults(u))

	third := u.AddAddress(Address{Street: "3 Corner", IsDefault: true})
	assert.Equal(t, 1, defaults(u))
	def, ok := u.DefaultAddress()
	require.True(t, ok)
	assert.Equal(t, third.ID, def.ID)

	require.NoError(t, u.SetDefaultAddress(first.ID))
	assert.Equal(t, 1, defaults(u))
	assert.ErrorIs(t, u.SetDefaultAddress("missing"), ErrAddressNotFound)
}

func TestNormalizeAddressesKeepsFirstDefault(t *testing.T) {
	u := User{Addresses: []Address{
		{ID: "a1"},
		{ID: "a2", IsDefault: true},
		{ID: "a3", IsDefault: true},
	}}

	u.NormalizeAddresses()

	assert.Equal(t, 1, defaults(u))
	def, ok := u.DefaultAddress()
	require.True(t, ok)
	assert.Equal(t, "a2", def.ID)
}

func TestRecordOrderOnlyGrows(t *testing.T) {
	var u User
	u.RecordOrder(decimal.RequireFromString("42.75"))
	u.RecordOrder(decimal.RequireFromString("-10"))

	assert.Equal(t, 1, u.Loyalty.TotalOrders)
	assert.Equal(t, 42, u.Loyalty.Points)
	assert.True(t, u.Loyalty.TotalSpent.Equal(decimal.RequireFromString("42.75")))
}

func TestProductNormalizeAndValidate(t *testing.T) {
	p := Product{
		Name:       "Trail Mix",
		Price:      decimal.RequireFromString("6.99"),
		StockCount: 3,
		Rating:     7,
		Tags:       []string{"vegan", "snack", "vegan"},
	}
	p.Normalize()

	assert.True(t, p.InStock)
	assert.Equal(t, []string{"vegan", "snack"}, p.Tags)
	assert.True(t, p.OriginalPrice.Equal(p.Price))
	assert.Equal(t, MaxRating, p.Rating)
	assert.NoError(t, p.Validate())

	p.OriginalPrice = decimal.RequireFromString("5.00")
	assert.ErrorIs(t, p.Validate(), ErrPriceAboveOriginal)
}
