package product

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

var ErrNotFound = errors.New("product not found")

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryHome,
	CategorySports,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory lowercases and trims a category taken from a path or body.
func NormalizeCategory(raw string) Category {
	return Category(strings.ToLower(strings.TrimSpace(raw)))
}

type Dimensions struct {
	Height *float64 `json:"height,omitempty" binding:"omitempty,gte=0"`
	Width  *float64 `json:"width,omitempty" binding:"omitempty,gte=0"`
	Depth  *float64 `json:"depth,omitempty" binding:"omitempty,gte=0"`
}

type Specifications struct {
	Weight     *float64    `json:"weight,omitempty" binding:"omitempty,gte=0"`
	Dimensions *Dimensions `json:"dimensions,omitempty" binding:"omitempty"`
	Color      string      `json:"color,omitempty" binding:"omitempty,max=50"`
	Material   string      `json:"material,omitempty" binding:"omitempty,max=50"`
}

type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Category       Category        `json:"category"`
	Stock          int             `json:"stock"`
	Images         []string        `json:"images"`
	Brand          string          `json:"brand,omitempty"`
	Tags           []string        `json:"tags"`
	Specifications *Specifications `json:"specifications,omitempty"`
	Ratings        Ratings         `json:"ratings"`
	IsActive       bool            `json:"isActive"`
	CreatedBy      int64           `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OwnedBy reports whether userID created the product.
func (p Product) OwnedBy(userID int64) bool {
	return p.CreatedBy == userID
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Category *Category
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   *string
	Sort     Sort
	Limit    int
	Offset   int
}

type CreateRequest struct {
	Name           string          `json:"name" binding:"required,min=2,max=100"`
	Description    string          `json:"description" binding:"required,min=10,max=1000"`
	Price          decimal.Decimal `json:"price" binding:"required,min=0.01"`
	Category       Category        `json:"category" binding:"required,category"`
	Stock          *int            `json:"stock" binding:"required,gte=0"`
	Brand          string          `json:"brand" binding:"omitempty,max=50"`
	Images         []string        `json:"images" binding:"omitempty,dive,http_url"`
	Tags           []string        `json:"tags" binding:"omitempty,dive,min=1,max=20"`
	Specifications *Specifications `json:"specifications" binding:"omitempty"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Brand = strings.TrimSpace(r.Brand)
	r.Category = NormalizeCategory(string(r.Category))
	r.Images = trimAll(r.Images)
	r.Tags = normalizeTags(r.Tags)
}

// UpdateRequest is a partial update; at least one field must be present.
type UpdateRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=2,max=100"`
	Description    *string          `json:"description" binding:"omitempty,min=10,max=1000"`
	Price          *decimal.Decimal `json:"price" binding:"omitempty,min=0.01"`
	Category       *Category        `json:"category" binding:"omitempty,category"`
	Stock          *int             `json:"stock" binding:"omitempty,gte=0"`
	Brand          *string          `json:"brand" binding:"omitempty,max=50"`
	Images         *[]string        `json:"images" binding:"omitempty,dive,http_url"`
	Tags           *[]string        `json:"tags" binding:"omitempty,dive,min=1,max=20"`
	Specifications *Specifications  `json:"specifications" binding:"omitempty"`
}

func (r *UpdateRequest) Normalize() {
	r.Name = trimPtr(r.Name)
	r.Description = trimPtr(r.Description)
	r.Brand = trimPtr(r.Brand)
	if r.Category != nil {
		c := NormalizeCategory(string(*r.Category))
		r.Category = &c
	}
	if r.Images != nil {
		images := trimAll(*r.Images)
		r.Images = &images
	}
	if r.Tags != nil {
		tags := normalizeTags(*r.Tags)
		r.Tags = &tags
	}
}

func (r UpdateRequest) HasChanges() bool {
	return r.Name != nil || r.Description != nil || r.Price != nil || r.Category != nil ||
		r.Stock != nil || r.Brand != nil || r.Images != nil || r.Tags != nil || r.Specifications != nil
}

// Apply copies the present fields onto p.
func (r UpdateRequest) Apply(p *Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.Brand != nil {
		p.Brand = *r.Brand
	}
	if r.Images != nil {
		p.Images = append([]string{}, (*r.Images)...)
	}
	if r.Tags != nil {
		p.Tags = append([]string{}, (*r.Tags)...)
	}
	if r.Specifications != nil {
		spec := *r.Specifications
		p.Specifications = &spec
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func normalizeTags(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
