package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxProfile   = "auth.profile"
)
