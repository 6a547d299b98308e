package userstake

import (
	"github.com/code-payments/pda-provisioner/pkg/config"
	"github.com/code-payments/pda-provisioner/pkg/config/env"
	"github.com/code-payments/pda-provisioner/pkg/config/memory"
	"github.com/code-payments/pda-provisioner/pkg/config/wrapper"
)

const (
	envConfigPrefix = "USERSTAKE_"

	InitialBalanceConfigEnvName = envConfigPrefix + "INITIAL_BALANCE"
	DefaultInitialBalance       = 42

	EnableMetricsConfigEnvName = envConfigPrefix + "ENABLE_METRICS"
	defaultEnableMetrics       = true

	// Zero disables caching of derived addresses
	AddressCacheSizeConfigEnvName = envConfigPrefix + "ADDRESS_CACHE_SIZE"
	defaultAddressCacheSize       = 10_000
)

type conf struct {
	initialBalance   config.Uint64
	enableMetrics    config.Bool
	addressCacheSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			initialBalance:   env.NewUint64Config(InitialBalanceConfigEnvName, DefaultInitialBalance),
			enableMetrics:    env.NewBoolConfig(EnableMetricsConfigEnvName, defaultEnableMetrics),
			addressCacheSize: env.NewUint64Config(AddressCacheSizeConfigEnvName, defaultAddressCacheSize),
		}
	}
}

// WithInitialBalance returns configuration with a fixed sentinel balance.
func WithInitialBalance(balance uint64) ConfigProvider {
	return withManualTestOverrides(&testOverrides{
		initialBalance:   balance,
		enableMetrics:    defaultEnableMetrics,
		addressCacheSize: defaultAddressCacheSize,
	})
}

type testOverrides struct {
	initialBalance   uint64
	enableMetrics    bool
	addressCacheSize uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			initialBalance:   wrapper.NewUint64Config(memory.NewConfig(overrides.initialBalance), DefaultInitialBalance),
			enableMetrics:    wrapper.NewBoolConfig(memory.NewConfig(overrides.enableMetrics), defaultEnableMetrics),
			addressCacheSize: wrapper.NewUint64Config(memory.NewConfig(overrides.addressCacheSize), defaultAddressCacheSize),
		}
	}
}
