package product

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/catalogapi/internal/domain/user"
)

const (
	discountStockThreshold = 50
)

var discountFactor = decimal.RequireFromString("0.9")

// View is the outward representation: the stored product plus attributes computed at read time.
type View struct {
	Product
	Owner           *user.Summary   `json:"owner,omitempty"`
	InStock         bool            `json:"inStock"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
}

func NewView(p Product, owner *user.Summary) View {
	return View{
		Product:         p,
		Owner:           owner,
		InStock:         p.InStock(),
		DiscountedPrice: p.DiscountedPrice(),
	}
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// DiscountedPrice is 10% off while stock is above the threshold.
func (p Product) DiscountedPrice() decimal.Decimal {
	if p.Stock > discountStockThreshold {
		return p.Price.Mul(discountFactor)
	}
	return p.Price
}
