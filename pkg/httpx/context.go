package httpx

import (
	"context"

	"github.com/4PPL8/PakGroccrry/pkg/jwtx"
)

type ctxKey string

const (
	// CtxKeySessionID carries the durable session ID of an authenticated caller.
	CtxKeySessionID ctxKey = "session_id"
	// CtxKeyAddress carries the caller's verified contact address.
	CtxKeyAddress ctxKey = "address"
	// CtxKeyClaims carries the full verified token claims.
	CtxKeyClaims ctxKey = "claims"
)

// SessionIDFromCtx returns the authenticated session ID, or "" when absent.
func SessionIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySessionID).(string); ok {
		return v
	}
	return ""
}

// AddressFromCtx returns the authenticated contact address, or "" when absent.
func AddressFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAddress).(string); ok {
		return v
	}
	return ""
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeySessionID, c.SessionID)
	ctx = context.WithValue(ctx, CtxKeyAddress, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}
