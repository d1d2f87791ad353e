// Package calibration derives decision thresholds from labeled score
// populations. It runs offline, outside the request path: an operator feeds
// genuine and spoof score distributions for one sensor (or stage), the
// optimizer sweeps the score range to locate the EER point and computes AUC,
// and the resulting artifact is persisted for review. Suggestions are never
// auto-applied to serving traffic.
package calibration

import (
	"errors"
	"fmt"
	"sort"

	"github.com/doronpers/sonotheia/pkg/audio"
	"github.com/doronpers/sonotheia/pkg/sensor"
)

// minSamples is the smallest population size per class that yields a
// statistically meaningful sweep.
const minSamples = 10

// ErrInsufficientSamples is returned when either class has too few scores.
var ErrInsufficientSamples = errors.New("calibration: insufficient samples")

// ErrDegenerate is returned when the populations cannot be separated at all
// (equal class means), which usually indicates a labeling or collection
// defect rather than a real sensor distribution.
var ErrDegenerate = errors.New("calibration: degenerate score populations")

// OptimizationResult is the persisted outcome of one calibration run for
// one sensor. It is immutable until the next recalibration and is only
// promoted to serving configuration after operator review.
type OptimizationResult struct {
	// Sensor names the calibrated sensor or stage.
	Sensor string `json:"sensor_name"`

	// OptimalThreshold is the interpolated score at which the false-accept
	// and false-reject rates cross.
	OptimalThreshold float64 `json:"optimal_threshold"`

	// EER is the equal error rate at OptimalThreshold.
	EER float64 `json:"eer"`

	// AUC is the area under the ROC curve: 1.0 is perfect separation, 0.5
	// is chance.
	AUC float64 `json:"auc"`

	// ThresholdType is inferred from which class scores higher: spoof
	// scoring higher means a max-type sensor.
	ThresholdType sensor.ThresholdType `json:"threshold_type"`

	// SuggestedThreshold is the conservative operator suggestion: the 99th
	// percentile of the genuine class for a max-type sensor (1st percentile
	// for min-type). Operators compare it against the live threshold before
	// promoting either value.
	SuggestedThreshold float64 `json:"suggested_threshold"`

	// GenuineCount and SpoofCount record the population sizes.
	GenuineCount int `json:"genuine_count"`
	SpoofCount   int `json:"spoof_count"`
}

// Optimize computes the EER threshold and AUC for one sensor from labeled
// score populations. Degenerate input aborts with an error and never touches
// live configuration.
func Optimize(name string, genuine, spoof []float64) (OptimizationResult, error) {
	if len(genuine) < minSamples || len(spoof) < minSamples {
		return OptimizationResult{}, fmt.Errorf("%w: sensor %q has %d genuine / %d spoof scores (minimum %d each)",
			ErrInsufficientSamples, name, len(genuine), len(spoof), minSamples)
	}

	genMean := audio.Mean(genuine)
	spoofMean := audio.Mean(spoof)
	if genMean == spoofMean {
		return OptimizationResult{}, fmt.Errorf("%w: sensor %q class means are identical (%f)", ErrDegenerate, name, genMean)
	}

	// Orient scores so that higher always means spoof; min-type sensors
	// (genuine scoring higher) are negated for the sweep and mapped back at
	// the end.
	typ := sensor.ThresholdMax
	orient := 1.0
	if genMean > spoofMean {
		typ = sensor.ThresholdMin
		orient = -1.0
	}
	g := oriented(genuine, orient)
	s := oriented(spoof, orient)

	threshold, eer := sweepEER(g, s)
	auc := rocAUC(g, s)

	suggestP := 99.0
	if typ == sensor.ThresholdMin {
		suggestP = 1.0
	}

	return OptimizationResult{
		Sensor:             name,
		OptimalThreshold:   orient * threshold,
		EER:                eer,
		AUC:                auc,
		ThresholdType:      typ,
		SuggestedThreshold: audio.Percentile(genuine, suggestP),
		GenuineCount:       len(genuine),
		SpoofCount:         len(spoof),
	}, nil
}

// sweepEER sweeps candidate thresholds over the combined score range and
// returns the interpolated crossing point where the false-accept rate
// (spoof scored below threshold, i.e. accepted) equals the false-reject rate
// (genuine scored at or above threshold), plus the rate at that point.
// Inputs are oriented so higher = spoof.
func sweepEER(genuine, spoof []float64) (threshold, eer float64) {
	candidates := candidateThresholds(genuine, spoof)

	type point struct {
		t, far, frr float64
	}
	curve := make([]point, len(candidates))
	for i, t := range candidates {
		curve[i] = point{
			t:   t,
			far: rateBelow(spoof, t),
			frr: 1 - rateBelow(genuine, t),
		}
	}

	// FAR rises and FRR falls as t increases, so far-frr crosses zero
	// exactly once; interpolate inside the crossing interval.
	prev := curve[0]
	for _, p := range curve[1:] {
		d0 := prev.far - prev.frr
		d1 := p.far - p.frr
		if d0 <= 0 && d1 >= 0 {
			if d1 == d0 {
				return prev.t, (prev.far + prev.frr) / 2
			}
			frac := -d0 / (d1 - d0)
			threshold = prev.t + frac*(p.t-prev.t)
			eer = prev.far + frac*(p.far-prev.far)
			eer = (eer + (prev.frr + frac*(p.frr-prev.frr))) / 2
			return threshold, eer
		}
		prev = p
	}
	// No crossing inside the range; the closest endpoint is the best
	// available operating point.
	last := curve[len(curve)-1]
	if abs(curve[0].far-curve[0].frr) < abs(last.far-last.frr) {
		return curve[0].t, (curve[0].far + curve[0].frr) / 2
	}
	return last.t, (last.far + last.frr) / 2
}

// candidateThresholds returns the midpoints between consecutive distinct
// combined scores, bracketed by sentinels below and above the range.
func candidateThresholds(genuine, spoof []float64) []float64 {
	combined := make([]float64, 0, len(genuine)+len(spoof))
	combined = append(combined, genuine...)
	combined = append(combined, spoof...)
	sort.Float64s(combined)

	unique := combined[:1]
	for _, v := range combined[1:] {
		if v != unique[len(unique)-1] {
			unique = append(unique, v)
		}
	}

	span := unique[len(unique)-1] - unique[0]
	if span == 0 {
		span = 1
	}
	out := make([]float64, 0, len(unique)+1)
	out = append(out, unique[0]-span/100)
	for i := 0; i+1 < len(unique); i++ {
		out = append(out, (unique[i]+unique[i+1])/2)
	}
	out = append(out, unique[len(unique)-1]+span/100)
	return out
}

// rateBelow returns the fraction of scores strictly below t.
func rateBelow(scores []float64, t float64) float64 {
	n := 0
	for _, v := range scores {
		if v < t {
			n++
		}
	}
	return float64(n) / float64(len(scores))
}

// rocAUC computes the area under the ROC curve via the rank-sum statistic:
// the probability that a random spoof score exceeds a random genuine score,
// with ties counting half. Inputs are oriented so higher = spoof.
func rocAUC(genuine, spoof []float64) float64 {
	g := make([]float64, len(genuine))
	copy(g, genuine)
	sort.Float64s(g)

	var sum float64
	for _, sv := range spoof {
		below := sort.SearchFloat64s(g, sv)
		upper := sort.Search(len(g), func(i int) bool { return g[i] > sv })
		ties := upper - below
		sum += float64(below) + float64(ties)/2
	}
	return sum / float64(len(genuine)*len(spoof))
}

func oriented(scores []float64, sign float64) []float64 {
	out := make([]float64, len(scores))
	for i, v := range scores {
		out[i] = sign * v
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
