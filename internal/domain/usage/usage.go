// Package usage holds the per-query latency log records and their aggregate.
package usage

import (
	"slices"
	"time"
)

// Entry is one served query.
type Entry struct {
	Query     string
	Latency   time.Duration
	Timestamp time.Time
}

// Summary aggregates latencies over the full history. The zero value describes an empty log.
type Summary struct {
	Count  int
	Mean   time.Duration
	Median time.Duration
	Min    time.Duration
	Max    time.Duration
}

// Summarize computes count/mean/median/min/max over entries.
// The median of an even-sized log is the mean of the two middle values.
func Summarize(entries []Entry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	lat := make([]time.Duration, len(entries))
	var total time.Duration
	for i, e := range entries {
		lat[i] = e.Latency
		total += e.Latency
	}
	slices.Sort(lat)

	n := len(lat)
	median := lat[n/2]
	if n%2 == 0 {
		median = (lat[n/2-1] + lat[n/2]) / 2
	}

	return Summary{
		Count:  n,
		Mean:   total / time.Duration(n),
		Median: median,
		Min:    lat[0],
		Max:    lat[n-1],
	}
}
