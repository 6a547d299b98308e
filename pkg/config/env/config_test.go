package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/pda-provisioner/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"

	t.Setenv(env, "1")
	v, err := NewConfig(env).Get(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, []byte("1"), v)

	t.Setenv(env, "")
	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	t.Setenv("ENV_CONFIG_TEST_UINT", "99")
	t.Setenv("ENV_CONFIG_TEST_BOOL", "false")
	t.Setenv("ENV_CONFIG_TEST_DURATION", "2s")

	assert.EqualValues(t, 99, NewUint64Config("env_config_test_uint", 42).Get(context.Background()))
	assert.False(t, NewBoolConfig("env_config_test_bool", true).Get(context.Background()))
	assert.Equal(t, 2*time.Second, NewDurationConfig("env_config_test_duration", time.Minute).Get(context.Background()))

	assert.EqualValues(t, 42, NewUint64Config("env_config_test_unset", 42).Get(context.Background()))
}

func TestConfig_ReadsLiveValue(t *testing.T) {
	const env = "ENV_CONFIG_TEST_LIVE"

	c := NewUint64Config(env, 1)
	assert.EqualValues(t, 1, c.Get(context.Background()))

	t.Setenv(env, "5")
	assert.EqualValues(t, 5, c.Get(context.Background()))
}
