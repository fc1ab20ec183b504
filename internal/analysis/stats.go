// Package analysis derives digit statistics from a window of digits.
// Every entry point is a pure function of its input; results are recomputed
// from scratch on each call.
package analysis

import (
	"sort"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// MinStreak is the shortest run reported as a streak.
const MinStreak = 3

// DefaultRecentWindow is the recent sub-window used by Analyze for signals.
const DefaultRecentWindow = 20

// Streak is a run of at least MinStreak identical consecutive digits.
type Streak struct {
	Digit domain.Digit `json:"digit"`
	Count int          `json:"count"`
	Start int          `json:"start"`
}

// Indicators is the value object derived from a digit window.
type Indicators struct {
	Frequency   map[domain.Digit]int `json:"frequency"`
	MostCommon  *domain.Digit        `json:"most_common"`
	LeastCommon *domain.Digit        `json:"least_common"`
	Streaks     []Streak             `json:"streaks"`
	Patterns    []Pattern            `json:"patterns"`
	Missing     []domain.Digit       `json:"missing"`
	Signals     Signals              `json:"signals"`
}

// Analyze computes frequency, streak, pattern and signal indicators. It never
// fails: an empty window yields zero counts and all ten digits missing.
func Analyze(window []domain.Digit) Indicators {
	ind := Indicators{
		Frequency: Frequency(window),
		Streaks:   Streaks(window),
		Patterns:  Patterns(window),
		Missing:   Missing(window),
		Signals:   ComputeSignals(window, DefaultRecentWindow),
	}
	if len(window) == 0 {
		return ind
	}

	ranked := RankedCounts(window)
	most := ranked[0].Digit
	ind.MostCommon = &most

	var least domain.Digit
	if len(ranked) == domain.NumDigits {
		least = ranked[len(ranked)-1].Digit
	} else {
		least = ind.Missing[0]
	}
	ind.LeastCommon = &least
	return ind
}

// Frequency counts every digit; all ten keys are always present.
func Frequency(window []domain.Digit) map[domain.Digit]int {
	freq := make(map[domain.Digit]int, domain.NumDigits)
	for d := domain.Digit(0); d < domain.NumDigits; d++ {
		freq[d] = 0
	}
	for _, d := range window {
		freq[d]++
	}
	return freq
}

// Counts returns the frequency as a fixed array indexed by digit.
func Counts(window []domain.Digit) [domain.NumDigits]int {
	var c [domain.NumDigits]int
	for _, d := range window {
		c[d]++
	}
	return c
}

// DigitCount is a digit with its count and first position in the window.
type DigitCount struct {
	Digit domain.Digit
	Count int
	First int
}

// RankedCounts lists the digits present in the window by count descending.
// Ties keep first-occurrence order, so the mode is the earliest-seen digit
// among the most frequent ones.
func RankedCounts(window []domain.Digit) []DigitCount {
	idx := make(map[domain.Digit]int, domain.NumDigits)
	var out []DigitCount
	for i, d := range window {
		if j, ok := idx[d]; ok {
			out[j].Count++
			continue
		}
		idx[d] = len(out)
		out = append(out, DigitCount{Digit: d, Count: 1, First: i})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Missing lists the digits absent from the window in ascending order.
func Missing(window []domain.Digit) []domain.Digit {
	c := Counts(window)
	out := make([]domain.Digit, 0, domain.NumDigits)
	for d := domain.Digit(0); d < domain.NumDigits; d++ {
		if c[d] == 0 {
			out = append(out, d)
		}
	}
	return out
}

// Streaks scans left to right and reports every run of MinStreak or more,
// including a run that reaches the end of the window.
func Streaks(window []domain.Digit) []Streak {
	streaks := []Streak{}
	if len(window) == 0 {
		return streaks
	}
	cur := Streak{Digit: window[0], Count: 1, Start: 0}
	for i := 1; i < len(window); i++ {
		if window[i] == cur.Digit {
			cur.Count++
			continue
		}
		if cur.Count >= MinStreak {
			streaks = append(streaks, cur)
		}
		cur = Streak{Digit: window[i], Count: 1, Start: i}
	}
	if cur.Count >= MinStreak {
		streaks = append(streaks, cur)
	}
	return streaks
}
