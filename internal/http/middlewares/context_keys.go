package middlewares

const (
	CtxUserID       = "auth.userID"
	CtxRole         = "auth.role"
	CtxRequestID    = "request_id"
	CtxExposeErrors = "expose_errors"
)
