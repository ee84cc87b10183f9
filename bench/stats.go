package bench

import (
	"math"
	"sort"
	"time"
)

// PerCall derives the per-call latency in milliseconds and the throughput
// in calls per second from the elapsed seconds reported for count calls.
func PerCall(elapsed float64, count int) (perCallMs, tps float64, err error) {
	if count <= 0 {
		return 0, 0, ErrZeroCount
	}
	if elapsed <= 0 || math.IsNaN(elapsed) || math.IsInf(elapsed, 0) {
		return 0, 0, NewError(KindAggregation, CodeNoElapsed, "elapsed time must be a positive number")
	}
	per := elapsed / float64(count)
	return per * 1000.0, 1 / per, nil
}

// Mean returns the arithmetic mean of the per-call averages. An empty
// slice is ErrNoSamples, never NaN.
func Mean(samples []TimingSample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	var sum float64
	for _, s := range samples {
		sum += s.PerCallMs
	}
	return sum / float64(len(samples)), nil
}

// ComputeStats aggregates one level's samples.
func ComputeStats(samples []TimingSample, duration time.Duration) (LevelStats, error) {
	mean, err := Mean(samples)
	if err != nil {
		return LevelStats{}, err
	}

	stats := LevelStats{Workers: len(samples), Mean: mean, Duration: duration}

	perCall := make([]float64, len(samples))
	for i, s := range samples {
		perCall[i] = s.PerCallMs
		stats.TPS += s.TPS
	}
	sort.Float64s(perCall)

	stats.Min = perCall[0]
	stats.Max = perCall[len(perCall)-1]
	stats.P50 = pct(perCall, 50)
	stats.P95 = pct(perCall, 95)

	return stats, nil
}

func pct(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
