package model

import "github.com/shopspring/decimal"

// Category identifies a catalog category.
type Category struct {
	ID   int
	Name string
}

// Rating is the aggregated customer rating of a product.
type Rating struct {
	Rate  float64
	Count int
}

// Product is a normalized catalog product.
type Product struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
	Category    Category
	Image       string
	Rating      Rating
}
