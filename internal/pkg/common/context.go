package common

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID 將請求 ID 放入 context，供下游日誌關聯
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom 取得 context 中的請求 ID，不存在時回傳空字串
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
