package dto

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/allevo/cloud-store/internal/model"
	"github.com/allevo/cloud-store/internal/service"
)

// ErrPriceNotNumber is returned when price is present but not a JSON number.
var ErrPriceNotNumber = errors.New("price must be a number")

// AddItemRequest is the body of PUT /users/{username}/cart/products.
// Pointer fields distinguish a missing value from zero. Price is kept raw so
// that a quoted number is rejected instead of coerced.
type AddItemRequest struct {
	ID          *int64          `json:"id"`
	Title       *string         `json:"title"`
	Price       json.RawMessage `json:"price"`
	Description *string         `json:"description"`
}

// Missing returns the name of the first required field absent from the body.
func (r *AddItemRequest) Missing() string {
	switch {
	case r.ID == nil:
		return "id"
	case r.Title == nil:
		return "title"
	case len(r.Price) == 0 || string(r.Price) == "null":
		return "price"
	case r.Description == nil:
		return "description"
	default:
		return ""
	}
}

// ToItem converts the request into a cart item. Call Missing first.
func (r *AddItemRequest) ToItem() (model.CartItem, error) {
	price, err := decimal.NewFromString(string(r.Price))
	if err != nil {
		return model.CartItem{}, ErrPriceNotNumber
	}
	return model.CartItem{
		ID:          *r.ID,
		Title:       *r.Title,
		Price:       price,
		Description: *r.Description,
	}, nil
}

// CartResponse represents a cart in API responses.
type CartResponse struct {
	Username   string         `json:"username"`
	InsertDate string         `json:"insertDate"`
	UpdateDate string         `json:"updateDate"`
	Products   []ItemResponse `json:"products"`
}

// ItemResponse represents a cart item in API responses.
type ItemResponse struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Price       json.Number `json:"price"`
	Description string      `json:"description"`
}

// ToCartResponse converts a service cart view to its wire shape.
func ToCartResponse(view *service.CartView) CartResponse {
	products := make([]ItemResponse, 0, len(view.Products))
	for _, p := range view.Products {
		products = append(products, ItemResponse{
			ID:          p.ID,
			Title:       p.Title,
			Price:       priceNumber(p.Price),
			Description: p.Description,
		})
	}
	return CartResponse{
		Username:   view.Username,
		InsertDate: view.InsertDate,
		UpdateDate: view.UpdateDate,
		Products:   products,
	}
}

// priceNumber renders a decimal as a bare JSON number.
func priceNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
