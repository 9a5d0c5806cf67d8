package memory

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/storefront/catalogapi/internal/domain/product"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/store"
)

type ProductsRepo struct {
	db *DB
}

// caller holds db.mu
func (r *ProductsRepo) view(p product.Product) product.View {
	var owner *user.Summary
	if u, ok := r.db.users[p.CreatedBy]; ok {
		s := u.Summary()
		owner = &s
	}
	return product.NewView(clone(p), owner)
}

func (r *ProductsRepo) Create(_ context.Context, p product.Product) (product.View, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[p.CreatedBy]; !ok {
		return product.View{}, store.ErrForeignKey
	}
	if _, ok := r.db.products[p.ID]; ok {
		return product.View{}, store.ErrDuplicate
	}

	p = clone(p)
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	r.db.products[p.ID] = p

	return r.view(p), nil
}

func (r *ProductsRepo) GetActive(_ context.Context, id string) (product.View, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.products[id]
	if !ok || !p.IsActive {
		return product.View{}, product.ErrNotFound
	}
	return r.view(p), nil
}

func (r *ProductsRepo) List(_ context.Context, f product.ListFilter) ([]product.View, int, error) {
	var terms []string
	if f.Search != nil {
		terms = words(*f.Search)
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matched := make([]product.Product, 0)
	for _, p := range r.db.products {
		if matches(p, f, terms) {
			matched = append(matched, p)
		}
	}

	sortProducts(matched, f.Sort)
	page := window(matched, f.Limit, f.Offset)

	out := make([]product.View, len(page))
	for i, p := range page {
		out[i] = r.view(p)
	}

	return out, len(matched), nil
}

func (r *ProductsRepo) Update(_ context.Context, id string, req product.UpdateRequest) (product.View, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[id]
	if !ok || !p.IsActive {
		return product.View{}, product.ErrNotFound
	}
	if !req.HasChanges() {
		return r.view(p), nil
	}

	req.Apply(&p)
	p.UpdatedAt = time.Now().UTC()
	r.db.products[id] = p

	return r.view(p), nil
}

func (r *ProductsRepo) SoftDelete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[id]
	if !ok || !p.IsActive {
		return product.ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
	r.db.products[id] = p

	return nil
}

func matches(p product.Product, f product.ListFilter, terms []string) bool {
	if !p.IsActive {
		return false
	}
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if len(terms) > 0 {
		have := map[string]bool{}
		for _, w := range words(p.Name + " " + p.Description) {
			have[w] = true
		}
		for _, t := range terms {
			if !have[t] {
				return false
			}
		}
	}
	return true
}

// words lowercases and splits on anything that is not a letter or digit,
// close enough to the 'simple' text search configuration.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func sortProducts(ps []product.Product, s product.Sort) {
	if s.Field == "" {
		s = product.DefaultSort
	}

	sort.SliceStable(ps, func(i, j int) bool {
		c := compareField(ps[i], ps[j], s.Field)
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return ps[i].ID < ps[j].ID
	})
}

func compareField(a, b product.Product, field product.SortField) int {
	switch field {
	case product.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case product.SortName:
		return cmp.Compare(a.Name, b.Name)
	case product.SortPrice:
		return a.Price.Cmp(b.Price)
	case product.SortStock:
		return cmp.Compare(a.Stock, b.Stock)
	case product.SortCategory:
		return cmp.Compare(a.Category, b.Category)
	case product.SortRating:
		return cmp.Compare(a.Ratings.Average, b.Ratings.Average)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func clone(p product.Product) product.Product {
	if p.Images != nil {
		p.Images = append([]string{}, p.Images...)
	}
	if p.Tags != nil {
		p.Tags = append([]string{}, p.Tags...)
	}
	if p.Specifications != nil {
		spec := *p.Specifications
		if spec.Dimensions != nil {
			dims := *spec.Dimensions
			spec.Dimensions = &dims
		}
		p.Specifications = &spec
	}
	return p
}
