package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAttributes_MergesNestedGroups(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{"http": map[string]any{"method": "POST"}})
	AddAttributes(ctx, map[string]any{"http": map[string]any{"status": 201}})
	AddActor(ctx, "ana")

	attrs := GetAttributes(ctx)
	assert.Equal(t, map[string]any{"method": "POST", "status": 201}, attrs["http"])
	assert.Equal(t, "ana", attrs[ActorAttributeKey])
}

func TestAddAttribute_WithoutSlogContextIsNoop(t *testing.T) {
	ctx := context.Background()
	AddTaskID(ctx, "01H")
	assert.Nil(t, GetAttributes(ctx))
}

func TestAttributesHandler_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithSlog(context.Background())
	AddClientID(ctx, "c1")
	AddTaskID(ctx, "t1")
	logger.InfoContext(ctx, "task created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "task created", line["msg"])
	assert.Equal(t, "c1", line[ClientIDAttributeKey])
	assert.Equal(t, "t1", line[TaskIDAttributeKey])
}
