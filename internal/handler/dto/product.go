package dto

import (
	"encoding/json"

	"github.com/allevo/cloud-store/internal/model"
)

// ProductResponse represents a catalog product in API responses.
type ProductResponse struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Price       json.Number      `json:"price"`
	Description string           `json:"description"`
	Category    CategoryResponse `json:"category"`
	Image       string           `json:"image"`
	Rating      RatingResponse   `json:"rating"`
}

// CategoryResponse represents a product category.
type CategoryResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RatingResponse represents a product rating.
type RatingResponse struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// ToProductList converts catalog products to their wire shape.
func ToProductList(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ID:          p.ID,
			Title:       p.Title,
			Price:       priceNumber(p.Price),
			Description: p.Description,
			Category:    CategoryResponse{ID: p.Category.ID, Name: p.Category.Name},
			Image:       p.Image,
			Rating:      RatingResponse{Rate: p.Rating.Rate, Count: p.Rating.Count},
		})
	}
	return out
}

// ToCategoryList converts categories to their wire shape.
func ToCategoryList(categories []model.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}
