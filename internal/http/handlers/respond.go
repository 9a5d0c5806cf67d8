package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/catalogapi/internal/domain/product"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/http/middlewares"
	"github.com/storefront/catalogapi/internal/store"
	"github.com/storefront/catalogapi/internal/utils"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
	Pagination *utils.Pagination `json:"pagination,omitempty"`
	Error      string            `json:"error,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
}

func RespondData(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func RespondList(ctx *gin.Context, data interface{}, p utils.Pagination) {
	ctx.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

func RespondError(ctx *gin.Context, status int, message string, errs []string) {
	ctx.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Errors: errs})
}

func RespondBadRequest(ctx *gin.Context, message string, errs []string) {
	RespondError(ctx, http.StatusBadRequest, message, errs)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, nil)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, message, nil)
}

// RespondInternal records err for the request logger and answers 500. The raw
// error text is only echoed when the router exposes error detail (development).
func RespondInternal(ctx *gin.Context, message string, err error) {
	env := Envelope{Success: false, Message: message}
	if err != nil {
		_ = ctx.Error(err)
		if ctx.GetBool(middlewares.CtxExposeErrors) {
			env.Error = err.Error()
		}
	}
	ctx.AbortWithStatusJSON(http.StatusInternalServerError, env)
}

// RespondStoreError maps repository sentinels to statuses. fallback is the 500 message.
func RespondStoreError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, product.ErrNotFound):
		RespondNotFound(ctx, "Product not found")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "User already exists with this email")
	case errors.Is(err, store.ErrDuplicate):
		RespondConflict(ctx, "Duplicate entry")
	case errors.Is(err, store.ErrForeignKey):
		RespondBadRequest(ctx, "Referenced record does not exist or is still in use", nil)
	case errors.Is(err, store.ErrMissingField):
		RespondBadRequest(ctx, "Required field is missing", nil)
	case errors.Is(err, store.ErrConstraint):
		RespondBadRequest(ctx, "Value out of allowed range", nil)
	default:
		RespondInternal(ctx, fallback, err)
	}
}
