package main

import "context"

type principalKey string

// ctxPrincipalKey carries the principal recovered by the lambda authorizer
// through the request context into the handlers.
const ctxPrincipalKey principalKey = "principal_id"

func withPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, principal)
}

func principalFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxPrincipalKey).(string)
	return v, ok && v != ""
}
