package config

import (
	"fmt"
	"sync/atomic"
)

// Runtime is the live configuration shared by request handlers. Readers get
// a consistent snapshot via [Runtime.Current]; writers swap a full copy in
// atomically so a decision in flight never observes a half-applied change.
type Runtime struct {
	current atomic.Pointer[Config]
}

// NewRuntime wraps cfg as the initial snapshot.
func NewRuntime(cfg *Config) *Runtime {
	r := &Runtime{}
	r.current.Store(cfg)
	return r
}

// Current returns the active snapshot. Callers must treat it as read-only.
func (r *Runtime) Current() *Config {
	return r.current.Load()
}

// Update clones the active snapshot, applies mutate to the clone, validates
// it, and swaps it in. On validation failure the active snapshot is kept.
func (r *Runtime) Update(mutate func(*Config)) error {
	next := r.Current().Clone()
	mutate(next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("config: rejected update: %w", err)
	}
	r.current.Store(next)
	return nil
}

// Replace validates cfg and installs it as the active snapshot.
func (r *Runtime) Replace(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: rejected replacement: %w", err)
	}
	r.current.Store(cfg)
	return nil
}

// SetSensorEnabled toggles one sensor without disturbing other settings.
func (r *Runtime) SetSensorEnabled(name string, enabled bool) error {
	return r.Update(func(c *Config) {
		sc := c.Sensors[name]
		v := enabled
		sc.Enabled = &v
		c.Sensors[name] = sc
	})
}

// SetSensorThreshold installs a calibrated threshold for one sensor.
func (r *Runtime) SetSensorThreshold(name string, threshold float64) error {
	return r.Update(func(c *Config) {
		sc := c.Sensors[name]
		v := threshold
		sc.Threshold = &v
		c.Sensors[name] = sc
	})
}
