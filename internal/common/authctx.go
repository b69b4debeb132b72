package common

import "context"

type userIDKey struct{}

// Identity is the authenticated caller as seen by request handlers.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID reports the authenticated user id, or false when the request is anonymous.
func UserID(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id, id != ""
}
