package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an untyped source of a single configuration value.
type Config interface {
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Typed is a Config converted to T. Get never fails and falls back to a
// default or the last good value, while GetSafe surfaces source errors.
type Typed[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	Bool     = Typed[bool]
	Uint64   = Typed[uint64]
	Duration = Typed[time.Duration]
)
