package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storefront/catalogapi/internal/config"
	"github.com/storefront/catalogapi/internal/domain/product"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/http/middlewares"
	"github.com/storefront/catalogapi/internal/utils"
)

type ProductStore interface {
	Create(ctx context.Context, p product.Product) (product.View, error)
	GetActive(ctx context.Context, id string) (product.View, error)
	List(ctx context.Context, f product.ListFilter) ([]product.View, int, error)
	Update(ctx context.Context, id string, req product.UpdateRequest) (product.View, error)
	SoftDelete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	products ProductStore
}

func NewProductsHandler(products ProductStore) *ProductsHandler {
	return &ProductsHandler{products: products}
}

func (h *ProductsHandler) List(ctx *gin.Context) {
	page := utils.Paginate(ctx.Query("page"), ctx.Query("limit"))

	filter, problems := listFilterFromQuery(ctx)
	if len(problems) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", problems)
		return
	}
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	h.list(ctx, filter, page)
}

func (h *ProductsHandler) ListByCategory(ctx *gin.Context) {
	page := utils.Paginate(ctx.Query("page"), ctx.Query("limit"))

	category := product.NormalizeCategory(ctx.Param("category"))
	h.list(ctx, product.ListFilter{
		Category: &category,
		Sort:     product.DefaultSort,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}, page)
}

func (h *ProductsHandler) list(ctx *gin.Context, filter product.ListFilter, page utils.Page) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	items, total, err := h.products.List(cctx, filter)
	if err != nil {
		RespondStoreError(ctx, err, "Could not list products")
		return
	}

	pagination := page.Result(total)
	respondWithETag(ctx, Envelope{Success: true, Data: items, Pagination: &pagination})
}

func listFilterFromQuery(ctx *gin.Context) (product.ListFilter, []string) {
	var (
		f        product.ListFilter
		problems []string
	)

	if raw := strings.TrimSpace(ctx.Query("category")); raw != "" {
		c := product.NormalizeCategory(raw)
		f.Category = &c
	}

	parsePrice := func(name string) *decimal.Decimal {
		raw := strings.TrimSpace(ctx.Query(name))
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			problems = append(problems, name+" must be a number")
			return nil
		}
		return &d
	}
	f.MinPrice = parsePrice("minPrice")
	f.MaxPrice = parsePrice("maxPrice")

	if raw := strings.TrimSpace(ctx.Query("search")); raw != "" {
		f.Search = &raw
	}

	sort, err := product.ParseSort(ctx.Query("sortBy"), ctx.Query("sortOrder"))
	if err != nil {
		problems = append(problems, err.Error())
	}
	f.Sort = sort

	return f, problems
}

func (h *ProductsHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	v, err := h.products.GetActive(cctx, ctx.Param("id"))
	if err != nil {
		RespondStoreError(ctx, err, "Could not fetch product")
		return
	}

	respondWithETag(ctx, Envelope{Success: true, Data: v})
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	uid, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Authentication required")
		return
	}

	var req product.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	v, err := h.products.Create(cctx, product.NewFromCreateRequest(req, uid))
	if err != nil {
		RespondStoreError(ctx, err, "Could not create product")
		return
	}

	RespondData(ctx, http.StatusCreated, "Product created successfully", v)
}

func (h *ProductsHandler) Update(ctx *gin.Context) {
	var req product.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	id := ctx.Param("id")
	if !h.authorizeOwner(cctx, ctx, id, "Not authorized to update this product") {
		return
	}

	v, err := h.products.Update(cctx, id, req)
	if err != nil {
		RespondStoreError(ctx, err, "Could not update product")
		return
	}

	RespondData(ctx, http.StatusOK, "Product updated successfully", v)
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	id := ctx.Param("id")
	if !h.authorizeOwner(cctx, ctx, id, "Not authorized to delete this product") {
		return
	}

	if err := h.products.SoftDelete(cctx, id); err != nil {
		RespondStoreError(ctx, err, "Could not delete product")
		return
	}

	RespondData(ctx, http.StatusOK, "Product deleted successfully", nil)
}

// authorizeOwner loads the active product and checks the caller created it or is an admin.
func (h *ProductsHandler) authorizeOwner(cctx context.Context, ctx *gin.Context, id, denied string) bool {
	uid, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Authentication required")
		return false
	}
	role, _ := middlewares.RoleFromContext(ctx)

	v, err := h.products.GetActive(cctx, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not fetch product")
		return false
	}

	if !v.OwnedBy(uid) && role != user.RoleAdmin {
		RespondForbidden(ctx, denied)
		return false
	}
	return true
}
