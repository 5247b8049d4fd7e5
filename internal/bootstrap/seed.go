package bootstrap

import (
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
)

// SeedCatalog is the fixed starting catalog created when the catalog is
// empty on first run.
func SeedCatalog() []model.Product {
	return []model.Product{
		{
			Name:          "Organic Bananas",
			Description:   "Fair-trade organic bananas, sold by the bunch.",
			Price:         decimal.RequireFromString("2.49"),
			OriginalPrice: decimal.RequireFromString("2.99"),
			Weight:        "1 kg",
			Category:      "fruits",
			SubCategory:   "tropical",
			Images:        []string{"/images/seed/bananas.jpg"},
			StockCount:    120,
			Rating:        4.6,
			Tags:          []string{"organic", "fair-trade"},
			IsActive:      true,
		},
		{
			Name:          "Whole Milk",
			Description:   "Fresh pasteurised whole milk from local farms.",
			Price:         decimal.RequireFromString("1.19"),
			OriginalPrice: decimal.RequireFromString("1.19"),
			Weight:        "1 L",
			Category:      "dairy",
			SubCategory:   "milk",
			Images:        []string{"/images/seed/milk.jpg"},
			StockCount:    80,
			Rating:        4.4,
			Tags:          []string{"local"},
			IsActive:      true,
		},
		{
			Name:          "Sourdough Bread",
			Description:   "Slow-fermented sourdough loaf baked daily.",
			Price:         decimal.RequireFromString("4.50"),
			OriginalPrice: decimal.RequireFromString("5.00"),
			Weight:        "800 g",
			Category:      "bakery",
			SubCategory:   "bread",
			Images:        []string{"/images/seed/sourdough.jpg"},
			StockCount:    35,
			Rating:        4.8,
			Tags:          []string{"artisan", "vegan"},
			IsActive:      true,
		},
	}
}
