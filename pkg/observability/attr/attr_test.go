package attr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background())
	id := CorrelationID(ctx)
	assert.NotEmpty(t, id)

	// nested calls keep the caller's id
	assert.Equal(t, id, CorrelationID(WithCorrelationID(ctx)))
	assert.Equal(t, id, ExtractCorrelationID(ctx).Value.String())
	assert.Empty(t, CorrelationID(context.Background()))
}

func TestError(t *testing.T) {
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Equal(t, "", Error(nil).Value.String())
}
