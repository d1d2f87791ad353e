package sensor

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateSensor is returned by [Registry.Register] when a constructor
// with the same name has already been registered. Duplicate registration is
// a wiring defect, not a runtime condition, so callers should fail fast.
var ErrDuplicateSensor = errors.New("sensor: duplicate registration")

// ErrSensorNotFound is returned by [Registry.New] for unknown sensor names.
var ErrSensorNotFound = errors.New("sensor: not registered")

// Constructor builds a fresh instance of one sensor type. A nil threshold
// keeps the sensor's built-in decision threshold; a non-nil value replaces
// it as given, including an explicit zero.
type Constructor func(threshold *float64) Sensor

// Registry is a name-keyed collection of sensor constructors. The detection
// pipeline resolves every sensor it runs through a Registry, so each run
// gets fresh instances carrying that run's effective thresholds. It
// preserves registration order for deterministic reporting and is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Constructor
	order  []string
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Constructor)}
}

// Register inserts build under name. Registering a second constructor with
// the same name returns [ErrDuplicateSensor].
func (r *Registry) Register(name string, build Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSensor, name)
	}
	r.byName[name] = build
	r.order = append(r.order, name)
	return nil
}

// New builds a fresh instance of the named sensor, or returns
// [ErrSensorNotFound]. A nil threshold keeps the sensor's built-in default.
func (r *Registry) New(name string, threshold *float64) (Sensor, error) {
	r.mu.RLock()
	build, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSensorNotFound, name)
	}
	return build(threshold), nil
}

// Names returns the registered sensor names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// defaultSensorSet is the canonical sensor table in canonical order. This is
// the single source of truth for which sensors the detection pipeline runs;
// every new sensor type must be added here.
var defaultSensorSet = []struct {
	name  string
	build Constructor
}{
	{"glottal_inertia", buildGlottalInertia},
	{"digital_silence", buildDigitalSilence},
	{"phase_coherence", buildPhaseCoherence},
	{"global_formant", buildGlobalFormant},
	{"formant_trajectory", buildFormantTrajectory},
}

// DefaultSensors returns fresh instances of the canonical sensor set with
// default configurations, in canonical order.
func DefaultSensors() []Sensor {
	sensors := make([]Sensor, 0, len(defaultSensorSet))
	for _, d := range defaultSensorSet {
		sensors = append(sensors, d.build(nil))
	}
	return sensors
}

// NewDefaultRegistry builds a [Registry] pre-populated with the canonical
// sensor set. The table's names are unique by construction, so the
// duplicate check in Register is skipped.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range defaultSensorSet {
		r.byName[d.name] = d.build
		r.order = append(r.order, d.name)
	}
	return r
}
