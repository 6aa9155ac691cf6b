package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	ImageURL    string          `json:"image_url"`
}

type WishList struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	Products []Product `json:"products"`
}

func (w *WishList) Contains(productID int64) bool {
	if w == nil {
		return false
	}
	for _, p := range w.Products {
		if p.ID == productID {
			return true
		}
	}
	return false
}
