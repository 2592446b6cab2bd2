package auth

import "context"

type contextKey struct{}

// StaffContext identifies the signed-in staff member for a request.
type StaffContext struct {
	StaffID   int64
	Name      string
	IsAdmin   bool
	SessionID int64
}

func WithStaff(ctx context.Context, sc StaffContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

func FromContext(ctx context.Context) (StaffContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(StaffContext)
	return sc, ok
}

func StaffID(ctx context.Context) int64 {
	sc, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return sc.StaffID
}

func IsAdmin(ctx context.Context) bool {
	sc, ok := FromContext(ctx)
	return ok && sc.IsAdmin
}
