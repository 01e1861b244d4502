package clog

import (
	"context"
	"maps"
	"sync"
)

// Attribute keys shared by the access log and error paths.
const (
	ErrorAttributeKey    = "error.message"
	StackAttributeKey    = "error.stack"
	ActorAttributeKey    = "actor"
	TaskIDAttributeKey   = "task_id"
	ClientIDAttributeKey = "client_id"
)

// fields is the per-request attribute set. Handlers add to it while the
// request runs and the access log reads it once at the end.
type fields struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type fieldsKey struct{}

func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, fieldsKey{}, &fields{attrs: make(map[string]any)})
}

func fieldsFrom(ctx context.Context) *fields {
	f, _ := ctx.Value(fieldsKey{}).(*fields)
	return f
}

func AddAttribute(ctx context.Context, key string, value any) {
	f := fieldsFrom(ctx)
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs[key] = value
}

// AddAttributes merges attributes, descending into nested maps so that
// groups such as "http" accumulate rather than replace each other.
func AddAttributes(ctx context.Context, attributes map[string]any) {
	f := fieldsFrom(ctx)
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	merge(f.attrs, attributes)
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if existing, ok := dst[k].(map[string]any); ok {
			merge(existing, sub)
			continue
		}
		dst[k] = sub
	}
}

func GetAttributes(ctx context.Context) map[string]any {
	f := fieldsFrom(ctx)
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.attrs)
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

// AddActor records who performed a write so the access log line carries it.
func AddActor(ctx context.Context, actor string) {
	AddAttribute(ctx, ActorAttributeKey, actor)
}

func AddTaskID(ctx context.Context, id string) {
	AddAttribute(ctx, TaskIDAttributeKey, id)
}

func AddClientID(ctx context.Context, id string) {
	AddAttribute(ctx, ClientIDAttributeKey, id)
}
