// Package groupctx resolves the caller's user and group scope. The engine
// never authenticates; it only reads this context.
package groupctx

import "context"

// User identifies the caller recording a transaction.
type User struct {
	ID   string
	Name string
}

// Provider exposes the current session's user and group. The second return
// value reports whether a value is available; a missing group means the
// caller operates in personal scope.
type Provider interface {
	CurrentUser(ctx context.Context) (User, bool)
	CurrentGroup(ctx context.Context) (string, bool)
}

// Static is a fixed-session provider for single-user deployments and tests.
type Static struct {
	User    User
	GroupID string
}

func (s Static) CurrentUser(context.Context) (User, bool) {
	return s.User, s.User.ID != ""
}

func (s Static) CurrentGroup(context.Context) (string, bool) {
	return s.GroupID, s.GroupID != ""
}

type contextKey int

const (
	userKey contextKey = iota
	groupKey
)

// WithUser returns a context carrying the caller identity.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// WithGroup returns a context carrying the caller's group id.
func WithGroup(ctx context.Context, groupID string) context.Context {
	return context.WithValue(ctx, groupKey, groupID)
}

// FromContext resolves user and group from request context values, falling
// back to nothing when the application layer did not attach them.
type FromContext struct{}

func (FromContext) CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok && u.ID != ""
}

func (FromContext) CurrentGroup(ctx context.Context) (string, bool) {
	g, ok := ctx.Value(groupKey).(string)
	return g, ok && g != ""
}

// Fallback consults Primary first and falls back to a static identity. It
// lets a single-tenant deployment serve unauthenticated requests while still
// honoring per-request headers.
type Fallback struct {
	Primary Provider
	Static  Static
}

func (f Fallback) CurrentUser(ctx context.Context) (User, bool) {
	if u, ok := f.Primary.CurrentUser(ctx); ok {
		return u, true
	}
	return f.Static.CurrentUser(ctx)
}

func (f Fallback) CurrentGroup(ctx context.Context) (string, bool) {
	if g, ok := f.Primary.CurrentGroup(ctx); ok {
		return g, true
	}
	return f.Static.CurrentGroup(ctx)
}
