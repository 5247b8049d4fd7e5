package cart

import (
	"math/rand"
	"testing"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id string, qty int) model.CartLine {
	return model.CartLine{ProductID: id, Quantity: qty, Price: decimal.RequireFromString("2.50"), Name: id}
}

func TestAddIsCommutativeOnQuantity(t *testing.T) {
	var split []model.CartLine
	split, err := Add(split, line("p", 2))
	require.NoError(t, err)
	split, err = Add(split, line("p", 3))
	require.NoError(t, err)

	once, err := Add(nil, line("p", 5))
	require.NoError(t, err)

	assert.Equal(t, once, split)
	require.Len(t, split, 1)
	assert.Equal(t, 5, split[0].Quantity)
}

func TestAddRejectsNonPositive(t *testing.T) {
	lines := []model.CartLine{line("a", 1)}
	out, err := Add(lines, line("a", 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, lines, out)
}

func TestSetQuantityZeroRejected(t *testing.T) {
	lines := []model.CartLine{line("productA", 1)}

	out, err := SetQuantity(lines, "productA", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Quantity)
}

func TestSetQuantityReplacesInPlace(t *testing.T) {
	lines := []model.CartLine{line("a", 1), line("b", 4)}

	out, err := SetQuantity(lines, "b", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, out[1].Quantity)
	assert.Equal(t, "b", out[1].ProductID)
	assert.Equal(t, 4, lines[1].Quantity, "input must not be mutated")
}

func TestRemoveMissingIsNoop(t *testing.T) {
	lines := []model.CartLine{line("a", 1)}
	assert.Equal(t, lines, Remove(lines, "zzz"))
	assert.Empty(t, Remove(lines, "a"))
}

func TestRandomSequencesNeverDuplicate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d"}
	var lines []model.CartLine

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		if rng.Intn(3) == 0 {
			lines = Remove(lines, id)
		} else {
			lines, _ = Add(lines, line(id, 1+rng.Intn(3)))
		}

		seen := map[string]bool{}
		for _, l := range lines {
			require.False(t, seen[l.ProductID], "duplicate line for %s", l.ProductID)
			seen[l.ProductID] = true
		}
	}
}

func TestSubtotalAndCount(t *testing.T) {
	lines := []model.CartLine{line("a", 2), line("b", 3)}
	assert.True(t, Subtotal(lines).Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 5, Count(lines))
}
