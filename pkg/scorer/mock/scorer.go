// Package mock provides a configurable in-memory scorer for tests.
package mock

import (
	"context"
	"sync"
)

// Scorer is a test double for [scorer.Provider]. The zero value returns
// score 0 for every call. All fields are guarded for concurrent use.
type Scorer struct {
	mu sync.Mutex

	// FixedScore is returned by every Score call when Err is nil.
	FixedScore float64

	// Err, when non-nil, is returned by every Score call.
	Err error

	// Calls counts Score invocations.
	Calls int
}

// Name implements scorer.Provider.
func (m *Scorer) Name() string { return "mock" }

// Score implements scorer.Provider.
func (m *Scorer) Score(ctx context.Context, samples []float64, sampleRate int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return m.FixedScore, nil
}

// CallCount returns how many times Score has been invoked.
func (m *Scorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
