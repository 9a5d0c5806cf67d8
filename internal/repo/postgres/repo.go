package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storefront/catalogapi/internal/observability"
)

type base struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (b base) observe(op string, fn func() error) error {
	if b.prom != nil {
		return b.prom.ObserveDB(op, fn)
	}
	return fn()
}
