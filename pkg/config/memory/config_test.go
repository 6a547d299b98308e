package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/pda-provisioner/pkg/config"
)

func TestConfig_Lifecycle(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(uint64(42))
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), val)

	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue(true)
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, val)

	c.InduceErrors()
	_, err = c.Get(ctx)
	assert.Equal(t, errDeveloperInduced, err)

	c.StopInducingErrors()
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, val)

	// Shutdown takes precedence over induced errors.
	c.InduceErrors()
	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestConfig_NilIsUnset(t *testing.T) {
	_, err := NewConfig(nil).Get(context.Background())
	assert.Equal(t, config.ErrNoValue, err)
}
