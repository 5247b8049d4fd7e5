package model

import "github.com/shopspring/decimal"

// CartLine is keyed by ProductID. Price, name, weight and image are a
// snapshot taken when the line was added; ProductID is not checked against
// the catalog.
type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Weight    string          `json:"weight,omitempty"`
	Image     string          `json:"image,omitempty"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineFromProduct snapshots a catalog product into a cart line.
func LineFromProduct(p Product, quantity int) CartLine {
	line := CartLine{
		ProductID: p.ID,
		Quantity:  quantity,
		Price:     p.Price,
		Name:      p.Name,
		Weight:    p.Weight,
	}
	if len(p.Images) > 0 {
		line.Image = p.Images[0]
	}
	return line
}
