package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

const MaxRating = 5.0

var (
	ErrProductNameRequired = errors.New("product name is required")
	ErrNegativePrice       = errors.New("price must not be negative")
	ErrPriceAboveOriginal  = errors.New("price must not exceed original price")
	ErrRatingOutOfRange    = errors.New("rating must be between 0 and 5")
)

type Product struct {
	BaseModel
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Weight        string          `json:"weight"`
	Category      string          `json:"category"`
	SubCategory   string          `json:"subCategory,omitempty"`
	Images        []string        `json:"images"`
	StockCount    int             `json:"stockCount"`
	InStock       bool            `json:"inStock"`
	Rating        float64         `json:"rating"`
	Tags          []string        `json:"tags,omitempty"`
	IsActive      bool            `json:"isActive"`
}

// Normalize re-derives computed fields. InStock always follows StockCount,
// tags behave as a set and a missing original price defaults to the price.
func (p *Product) Normalize() {
	p.InStock = p.StockCount > 0
	p.Tags = dedupe(p.Tags)
	if p.OriginalPrice.IsZero() {
		p.OriginalPrice = p.Price
	}
	if p.Rating < 0 {
		p.Rating = 0
	}
	if p.Rating > MaxRating {
		p.Rating = MaxRating
	}
}

func (p Product) Validate() error {
	if p.Name == "" {
		return ErrProductNameRequired
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Price.GreaterThan(p.OriginalPrice) {
		return ErrPriceAboveOriginal
	}
	if p.Rating < 0 || p.Rating > MaxRating {
		return ErrRatingOutOfRange
	}
	return nil
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
