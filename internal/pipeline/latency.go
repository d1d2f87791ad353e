package pipeline

import "time"

// LatencyProfile reports where one decision spent its time. The budget is
// observational only: an over-budget run still returns a full decision, it
// just gets flagged and counted.
type LatencyProfile struct {
	// TotalMs is the wall-clock time of the whole Analyze call.
	TotalMs float64 `json:"total_ms"`

	// StageMs maps each stage name to its wall-clock milliseconds. Stages
	// run in parallel, so the values may sum to more than TotalMs.
	StageMs map[string]float64 `json:"stage_ms,omitempty"`

	// EnvironmentMs is the time spent in the environment analyzer.
	EnvironmentMs float64 `json:"environment_ms"`

	// BudgetMs is the configured budget this run was measured against.
	BudgetMs int `json:"budget_ms"`

	// BudgetMet reports whether TotalMs stayed within BudgetMs.
	BudgetMet bool `json:"budget_met"`
}

// stopwatch measures one pipeline run. Stage durations are attributed after
// the parallel phase completes, so it needs no locking.
type stopwatch struct {
	start    time.Time
	budgetMs int
	profile  LatencyProfile
}

func newStopwatch(budgetMs int) *stopwatch {
	return &stopwatch{
		start:    time.Now(),
		budgetMs: budgetMs,
		profile:  LatencyProfile{StageMs: make(map[string]float64)},
	}
}

func (sw *stopwatch) setEnvironment(d time.Duration) {
	sw.profile.EnvironmentMs = toMs(d)
}

func (sw *stopwatch) setStage(name string, d time.Duration) {
	sw.profile.StageMs[name] = toMs(d)
}

// finish seals the profile.
func (sw *stopwatch) finish() LatencyProfile {
	sw.profile.TotalMs = toMs(time.Since(sw.start))
	sw.profile.BudgetMs = sw.budgetMs
	sw.profile.BudgetMet = sw.budgetMs <= 0 || sw.profile.TotalMs <= float64(sw.budgetMs)
	return sw.profile
}

func toMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
