package constants

type ContextKey string

const (
	PoolKey     ContextKey = "pool"
	TxKey       ContextKey = "tx"
	LoggerKey   ContextKey = "logger"
	TenantIDKey ContextKey = "tenant_id"
	AccessKey   ContextKey = "access"
	RequestID   ContextKey = "request_id"
)
