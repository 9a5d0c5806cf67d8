// Package memory is an in-process store with the same semantics as the postgres
// repositories. It backs STORE_DRIVER=memory and the router tests.
package memory

import (
	"sync"

	"github.com/storefront/catalogapi/internal/domain/product"
	"github.com/storefront/catalogapi/internal/domain/user"
)

// DB is shared by the users and products repositories so that the
// owner reference between them can be enforced.
type DB struct {
	mu       sync.RWMutex
	nextUser int64
	users    map[int64]user.User
	products map[string]product.Product
}

func New() *DB {
	return &DB{
		users:    make(map[int64]user.User),
		products: make(map[string]product.Product),
	}
}

func (db *DB) Users() *UsersRepo {
	return &UsersRepo{db: db}
}

func (db *DB) Products() *ProductsRepo {
	return &ProductsRepo{db: db}
}
