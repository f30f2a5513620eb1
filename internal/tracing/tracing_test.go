// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-explorer/pkg/types"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), types.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitRequiresEndpoint(t *testing.T) {
	_, err := Init(context.Background(), types.TracingConfig{Enabled: true})
	assert.Error(t, err)
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	assert.NotNil(t, ctx)
	End(span, errors.New("recorded"))
}
