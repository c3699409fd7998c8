package electionqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_NilMetricsAndBadDSN(t *testing.T) {
	var svc *Service
	require.NotPanics(t, func() {
		var err error
		svc, err = NewService(context.Background(), nil, nil, "postgres://%zz", nil, Options{})
		assert.ErrorContains(t, err, "failed to parse DSN")
	})
	assert.Nil(t, svc)
}
