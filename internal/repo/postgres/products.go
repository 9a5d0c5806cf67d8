package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storefront/catalogapi/internal/domain/product"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/observability"
)

// product columns plus the owner summary, read through a LEFT JOIN on users
const productSelect = `SELECT
	p.id, p.name, p.description, p.price, p.category, p.stock, p.images, p.brand, p.tags,
	p.specifications, p.rating_average, p.rating_count, p.is_active, p.created_by,
	p.created_at, p.updated_at,
	u.id, u.name, u.email`

const searchVector = `to_tsvector('simple', p.name || ' ' || p.description)`

// allow-listed sort fields to columns; nothing from the query string reaches SQL
var sortColumns = map[product.SortField]string{
	product.SortCreatedAt: "p.created_at",
	product.SortUpdatedAt: "p.updated_at",
	product.SortName:      "p.name",
	product.SortPrice:     "p.price",
	product.SortStock:     "p.stock",
	product.SortCategory:  "p.category",
	product.SortRating:    "p.rating_average",
}

type ProductsRepo struct {
	base
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{base{pool: pool, prom: prom}}
}

func scanProductView(row pgx.Row) (product.View, error) {
	var (
		p          product.Product
		category   string
		ownerID    *int64
		ownerName  *string
		ownerEmail *string
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&category,
		&p.Stock,
		&p.Images,
		&p.Brand,
		&p.Tags,
		&p.Specifications,
		&p.Ratings.Average,
		&p.Ratings.Count,
		&p.IsActive,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
		&ownerID,
		&ownerName,
		&ownerEmail,
	)
	if err != nil {
		return product.View{}, err
	}
	p.Category = product.Category(category)

	var owner *user.Summary
	if ownerID != nil {
		owner = &user.Summary{ID: *ownerID}
		if ownerName != nil {
			owner.Name = *ownerName
		}
		if ownerEmail != nil {
			owner.Email = *ownerEmail
		}
	}

	return product.NewView(p, owner), nil
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.View, error) {
	var v product.View

	err := r.observe("products.create", func() error {
		var err error
		v, err = scanProductView(r.pool.QueryRow(ctx,
			`WITH p AS (
				INSERT INTO products (id, name, description, price, category, stock, images, brand, tags,
					specifications, is_active, created_by, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				RETURNING *
			)
			`+productSelect+`
			FROM p LEFT JOIN users u ON u.id = p.created_by`,
			p.ID, p.Name, p.Description, p.Price, string(p.Category), p.Stock, p.Images, p.Brand, p.Tags,
			p.Specifications, p.IsActive, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
		))
		return err
	})

	if err != nil {
		return product.View{}, MapError(err, product.ErrNotFound)
	}
	return v, nil
}

// GetActive returns an active product; inactive and unknown ids are both ErrNotFound.
func (r *ProductsRepo) GetActive(ctx context.Context, id string) (product.View, error) {
	if !product.IsID(id) {
		return product.View{}, product.ErrNotFound
	}

	var v product.View

	err := r.observe("products.get_active", func() error {
		var err error
		v, err = scanProductView(r.pool.QueryRow(ctx,
			productSelect+`
			FROM products p LEFT JOIN users u ON u.id = p.created_by
			WHERE p.id = $1 AND p.is_active`,
			id,
		))
		return err
	})

	if err != nil {
		return product.View{}, MapError(err, product.ErrNotFound)
	}
	return v, nil
}

// List applies the filter to active products. total counts every match, not just the page.
func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.View, int, error) {
	conds := []string{"p.is_active"}
	var args []interface{}

	add := func(format string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if f.Category != nil {
		add("p.category = $%d", string(*f.Category))
	}
	if f.MinPrice != nil {
		add("p.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= $%d", *f.MaxPrice)
	}
	if f.Search != nil {
		add(searchVector+" @@ plainto_tsquery('simple', $%d)", *f.Search)
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	err := r.observe("products.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	sortSpec := f.Sort
	col, ok := sortColumns[sortSpec.Field]
	if !ok {
		sortSpec = product.DefaultSort
		col = sortColumns[sortSpec.Field]
	}
	dir := "ASC"
	if sortSpec.Desc {
		dir = "DESC"
	}

	query := productSelect + `
		FROM products p LEFT JOIN users u ON u.id = p.created_by` + where +
		fmt.Sprintf(" ORDER BY %s %s, p.id ASC LIMIT $%d OFFSET $%d", col, dir, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	out := make([]product.View, 0, f.Limit)

	err = r.observe("products.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scanProductView(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, req product.UpdateRequest) (product.View, error) {
	if !product.IsID(id) {
		return product.View{}, product.ErrNotFound
	}
	if !req.HasChanges() {
		return r.GetActive(ctx, id)
	}

	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.Category != nil {
		add("category", string(*req.Category))
	}
	if req.Stock != nil {
		add("stock", *req.Stock)
	}
	if req.Brand != nil {
		add("brand", *req.Brand)
	}
	if req.Images != nil {
		add("images", *req.Images)
	}
	if req.Tags != nil {
		add("tags", *req.Tags)
	}
	if req.Specifications != nil {
		add("specifications", req.Specifications)
	}

	var v product.View

	err := r.observe("products.update", func() error {
		var err error
		v, err = scanProductView(r.pool.QueryRow(ctx,
			`WITH p AS (
				UPDATE products SET `+strings.Join(sets, ", ")+`
				WHERE id = $1 AND is_active
				RETURNING *
			)
			`+productSelect+`
			FROM p LEFT JOIN users u ON u.id = p.created_by`,
			args...,
		))
		return err
	})

	if err != nil {
		return product.View{}, MapError(err, product.ErrNotFound)
	}
	return v, nil
}

// SoftDelete hides the product from every read; the row stays.
func (r *ProductsRepo) SoftDelete(ctx context.Context, id string) error {
	if !product.IsID(id) {
		return product.ErrNotFound
	}

	var affected int64

	err := r.observe("products.soft_delete", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`,
			id,
		)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return MapError(err, product.ErrNotFound)
	}
	if affected == 0 {
		return product.ErrNotFound
	}
	return nil
}
