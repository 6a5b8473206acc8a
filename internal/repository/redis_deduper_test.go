package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventDeduper(t *testing.T) {
	ctx := context.Background()
	deduper := NewInMemoryEventDeduper()

	fresh, err := deduper.MarkProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = deduper.MarkProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = deduper.MarkProcessed(ctx, "evt-2")
	require.NoError(t, err)
	assert.True(t, fresh)
}
