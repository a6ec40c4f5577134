package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))

	generated := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(generated))
}

func TestFromContext_Missing(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Empty(t, RequestIDFromContext(nil))
}

func TestNewRequestContext(t *testing.T) {
	t.Run("keeps given ids", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "req-1", "corr-1")
		assert.Equal(t, "req-1", RequestIDFromContext(ctx))
		assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	})

	t.Run("inherits correlation from parent context", func(t *testing.T) {
		parent := WithCorrelationID(context.Background(), "outer")
		ctx := NewRequestContext(parent, "", "")
		assert.NotEmpty(t, RequestIDFromContext(ctx))
		assert.Equal(t, "outer", CorrelationIDFromContext(ctx))
	})

	t.Run("generates both when absent", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "", "")
		assert.NotEmpty(t, RequestIDFromContext(ctx))
		assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	})
}

func TestIDsAreIndependent(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr")
	ctx = WithRequestID(ctx, "req")

	assert.Equal(t, "corr", CorrelationIDFromContext(ctx))
	assert.Equal(t, "req", RequestIDFromContext(ctx))
}
