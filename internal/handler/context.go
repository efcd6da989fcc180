package handler

import "context"

type ContextKey string

var UsernameCtxKey ContextKey = "username"

func usernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(UsernameCtxKey).(string)
	return username
}
