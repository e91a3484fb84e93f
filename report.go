package onebrc

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Report is the merged aggregate snapshotted into byte-wise ascending key
// order, ready to render.
type Report struct {
	keys  []string
	stats map[string]KeyStats
}

func BuildReport(global *Aggregate) *Report {
	stats := make(map[string]KeyStats, global.Len())
	global.iter(func(k string, s KeyStats) { stats[k] = s })
	keys := maps.Keys(stats)
	sort.Strings(keys)
	return &Report{keys: keys, stats: stats}
}

// Len is the number of distinct keys.
func (r *Report) Len() int { return len(r.keys) }

// Keys returns the keys in output order.
func (r *Report) Keys() []string { return r.keys }

// Stats returns the merged stats for one key.
func (r *Report) Stats(key string) (KeyStats, bool) {
	s, ok := r.stats[key]
	return s, ok
}

// String renders {key1:min/mean/max, key2:min/mean/max, ...}. Identical
// input bytes always produce identical output bytes.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		s := r.stats[k]
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(formatFixed(s.Min))
		sb.WriteByte('/')
		sb.WriteString(formatFixed(s.Mean()))
		sb.WriteByte('/')
		sb.WriteString(formatFixed(s.Max))
	}
	sb.WriteByte('}')
	return sb.String()
}

// formatFixed renders v with one fractional digit. Halves round away from
// zero (math.Round's rule): 0.25 -> "0.3", -0.25 -> "-0.3".
func formatFixed(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}
