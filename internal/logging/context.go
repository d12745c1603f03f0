package logging

import "context"

type ctxFieldsKey struct{}

// ContextWith returns a copy of ctx carrying key-value pairs that every
// backend appends to records logged with that context.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := contextArgs(ctx)
	fields := make([]any, 0, len(prev)+len(args))
	fields = append(fields, prev...)
	fields = append(fields, args...)
	return context.WithValue(ctx, ctxFieldsKey{}, fields)
}

func contextArgs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxFieldsKey{}).([]any)
	return fields
}

// withContextArgs prepends the context fields to args.
func withContextArgs(ctx context.Context, args []any) []any {
	fields := contextArgs(ctx)
	if len(fields) == 0 {
		return args
	}
	return append(append(make([]any, 0, len(fields)+len(args)), fields...), args...)
}
