package analysis

import "math"

// statOr is the single safe-statistic lookup: it returns the value for key,
// or def when the reducer returned no data for it. Index statistics default
// to 0, thermal fields stay nil (see ptrStat); the policy lives here and
// nowhere else.
func statOr(values map[string]*float64, key string, def float64) float64 {
	if v, ok := values[key]; ok && v != nil {
		return *v
	}
	return def
}

// ptrStat returns a copy of the statistic for key, or nil when absent.
func ptrStat(values map[string]*float64, key string) *float64 {
	if v, ok := values[key]; ok && v != nil {
		out := *v
		return &out
	}
	return nil
}

// Display rounding happens only at the KPI-record boundary; intermediate
// computation keeps full precision.

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := round1(*v)
	return &out
}
