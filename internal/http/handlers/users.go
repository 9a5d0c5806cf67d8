package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/catalogapi/internal/config"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/http/middlewares"
	"github.com/storefront/catalogapi/internal/security"
	"github.com/storefront/catalogapi/internal/utils"
)

const dbTimeout = 3 * time.Second

type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context, limit, offset int) ([]user.User, int, error)
	Update(ctx context.Context, id int64, ch user.Changes) (user.User, error)
	TouchLastLogin(ctx context.Context, id int64) (user.User, error)
	Delete(ctx context.Context, id int64) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}

type UsersHandler struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewUsersHandler(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *UsersHandler {
	return &UsersHandler{users: users, hasher: hasher, tokens: tokens}
}

type authPayload struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

const invalidCredentials = "Invalid email or password"

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	_, err := h.users.GetByEmail(cctx, req.Email)
	if err == nil {
		RespondConflict(ctx, "User already exists with this email")
		return
	}
	if !errors.Is(err, user.ErrNotFound) {
		RespondStoreError(ctx, err, "Could not register user")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not register user", err)
		return
	}

	// the unique index still settles concurrent registrations
	u, err := h.users.Create(cctx, user.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         user.RoleUser,
	})
	if err != nil {
		RespondStoreError(ctx, err, "Could not register user")
		return
	}

	token, err := h.tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate token", err)
		return
	}

	RespondData(ctx, http.StatusCreated, "User registered successfully", authPayload{User: u, Token: token})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if errors.Is(err, user.ErrNotFound) {
		RespondUnauthorized(ctx, invalidCredentials)
		return
	}
	if err != nil {
		RespondStoreError(ctx, err, "Could not log in")
		return
	}

	if !found.IsActive {
		RespondUnauthorized(ctx, invalidCredentials)
		return
	}

	err = h.hasher.Compare(found.PasswordHash, req.Password)
	if errors.Is(err, security.ErrPasswordMismatch) {
		RespondUnauthorized(ctx, invalidCredentials)
		return
	}
	if err != nil {
		RespondInternal(ctx, "Could not log in", err)
		return
	}

	u, err := h.users.TouchLastLogin(cctx, found.ID)
	if err != nil {
		RespondStoreError(ctx, err, "Could not log in")
		return
	}

	token, err := h.tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate token", err)
		return
	}

	RespondData(ctx, http.StatusOK, "Login successful", authPayload{User: u, Token: token})
}

func (h *UsersHandler) Profile(ctx *gin.Context) {
	uid, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Authentication required")
		return
	}

	h.respondUser(ctx, uid)
}

func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	uid, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Authentication required")
		return
	}

	h.update(ctx, uid, "Profile updated successfully")
}

func (h *UsersHandler) List(ctx *gin.Context) {
	page := utils.Paginate(ctx.Query("page"), ctx.Query("limit"))

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	users, total, err := h.users.List(cctx, page.Limit, page.Offset)
	if err != nil {
		RespondStoreError(ctx, err, "Could not list users")
		return
	}

	RespondList(ctx, users, page.Result(total))
}

func (h *UsersHandler) GetByID(ctx *gin.Context) {
	id, ok := h.authorizeTarget(ctx)
	if !ok {
		return
	}

	h.respondUser(ctx, id)
}

func (h *UsersHandler) UpdateByID(ctx *gin.Context) {
	id, ok := h.authorizeTarget(ctx)
	if !ok {
		return
	}

	h.update(ctx, id, "User updated successfully")
}

func (h *UsersHandler) DeleteByID(ctx *gin.Context) {
	id, ok := h.authorizeTarget(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		RespondStoreError(ctx, err, "Could not delete user")
		return
	}

	RespondData(ctx, http.StatusOK, "User deleted successfully", nil)
}

func (h *UsersHandler) respondUser(ctx *gin.Context, id int64) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		RespondStoreError(ctx, err, "Could not fetch user")
		return
	}

	RespondData(ctx, http.StatusOK, "", u)
}

func (h *UsersHandler) update(ctx *gin.Context, id int64, message string) {
	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	ch := user.Changes{Name: req.Name, Email: req.Email}
	if req.Password != nil {
		hash, err := h.hasher.Hash(*req.Password)
		if err != nil {
			RespondInternal(ctx, "Could not update user", err)
			return
		}
		ch.PasswordHash = &hash
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), dbTimeout)
	defer cancel()

	u, err := h.users.Update(cctx, id, ch)
	if err != nil {
		RespondStoreError(ctx, err, "Could not update user")
		return
	}

	RespondData(ctx, http.StatusOK, message, u)
}

// authorizeTarget parses :id and lets through the account owner or an admin.
func (h *UsersHandler) authorizeTarget(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid user ID", nil)
		return 0, false
	}

	uid, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Authentication required")
		return 0, false
	}
	role, _ := middlewares.RoleFromContext(ctx)

	if uid != id && role != user.RoleAdmin {
		RespondForbidden(ctx, "Access denied")
		return 0, false
	}

	return id, true
}
