package handler

type ContextKey string

var (
	IdentityCtxKey     ContextKey = "identity"
	TargetUserIDCtxKey ContextKey = "targetUserID"
	CategoryCtx        ContextKey = "category"
	AssetCtx           ContextKey = "asset"
	RequestIDCtxKey    ContextKey = "requestID"
)
