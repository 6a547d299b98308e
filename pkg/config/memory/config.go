package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/pda-provisioner/pkg/config"
)

var errDeveloperInduced = errors.New("in memory config: developer induced error")

type state struct {
	value    interface{}
	err      error
	shutdown bool
}

// Config is an in memory config used for tests and fixed overrides.
type Config struct {
	mu    sync.RWMutex
	state state
}

// NewConfig returns an in memory config holding value. A nil value behaves
// as unset.
func NewConfig(value interface{}) *Config {
	return &Config{state: state{value: value}}
}

func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	s := c.state
	c.mu.RUnlock()

	switch {
	case s.shutdown:
		return nil, config.ErrShutdown
	case s.err != nil:
		return nil, s.err
	case s.value == nil:
		return nil, config.ErrNoValue
	}
	return s.value, nil
}

func (c *Config) Shutdown() {
	c.update(func(s *state) { s.shutdown = true })
}

func (c *Config) SetValue(value interface{}) {
	c.update(func(s *state) { s.value = value })
}

// ClearValue makes subsequent Get calls return config.ErrNoValue.
func (c *Config) ClearValue() {
	c.update(func(s *state) { s.value = nil })
}

// InduceErrors makes subsequent Get calls fail until StopInducingErrors.
func (c *Config) InduceErrors() {
	c.update(func(s *state) { s.err = errDeveloperInduced })
}

func (c *Config) StopInducingErrors() {
	c.update(func(s *state) { s.err = nil })
}

func (c *Config) update(fn func(*state)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
}
