package product

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateRequest, ownerID int64) Product {
	now := time.Now().UTC()

	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return Product{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		Stock:          stock,
		Images:         images,
		Brand:          req.Brand,
		Tags:           tags,
		Specifications: req.Specifications,
		IsActive:       true,
		CreatedBy:      ownerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsID reports whether raw can name a product at all; anything else is simply not found.
func IsID(raw string) bool {
	_, err := uuid.Parse(raw)
	return err == nil
}
