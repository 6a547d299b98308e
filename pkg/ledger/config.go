package ledger

import (
	"time"

	"github.com/code-payments/pda-provisioner/pkg/config"
	"github.com/code-payments/pda-provisioner/pkg/config/env"
	"github.com/code-payments/pda-provisioner/pkg/config/memory"
	"github.com/code-payments/pda-provisioner/pkg/config/wrapper"
)

const (
	envConfigPrefix = "LEDGER_"

	LockStripesConfigEnvName = envConfigPrefix + "LOCK_STRIPES"
	defaultLockStripes       = 1024

	RentCacheTTLConfigEnvName = envConfigPrefix + "RENT_CACHE_TTL"
	defaultRentCacheTTL       = time.Minute
)

type conf struct {
	lockStripes  config.Uint64
	rentCacheTTL config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			lockStripes:  env.NewUint64Config(LockStripesConfigEnvName, defaultLockStripes),
			rentCacheTTL: env.NewDurationConfig(RentCacheTTLConfigEnvName, defaultRentCacheTTL),
		}
	}
}

type testOverrides struct {
	lockStripes  uint64
	rentCacheTTL time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			lockStripes:  wrapper.NewUint64Config(memory.NewConfig(overrides.lockStripes), defaultLockStripes),
			rentCacheTTL: wrapper.NewDurationConfig(memory.NewConfig(overrides.rentCacheTTL), defaultRentCacheTTL),
		}
	}
}
