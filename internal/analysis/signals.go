package analysis

import (
	"sort"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Thresholds of the recent-vs-overall comparisons.
const (
	hotRatio      = 1.5
	coldRatio     = 0.5
	trendRatio    = 1.5
	minHotCount   = 2
	minColdCount  = 2
	maxPerSignal  = 3
	zeroRateBoost = 10
)

// Signal is one scored digit in a hot/cold/due/trending list.
type Signal struct {
	Digit       domain.Digit `json:"digit"`
	Score       float64      `json:"score"`
	RecentRate  float64      `json:"recent_rate,omitempty"`
	OverallRate float64      `json:"overall_rate,omitempty"`
	AbsentCount int          `json:"absent_count,omitempty"`
}

// Signals groups the top scored digits per category, highest score first.
type Signals struct {
	Hot          []Signal `json:"hot_digits"`
	Cold         []Signal `json:"cold_digits"`
	Due          []Signal `json:"due_digits"`
	TrendingUp   []Signal `json:"trending_up"`
	TrendingDown []Signal `json:"trending_down"`
}

func emptySignals() Signals {
	return Signals{
		Hot:          []Signal{},
		Cold:         []Signal{},
		Due:          []Signal{},
		TrendingUp:   []Signal{},
		TrendingDown: []Signal{},
	}
}

// ComputeSignals compares the last recentSize digits against the whole window.
// It returns empty lists when the window is shorter than recentSize.
func ComputeSignals(window []domain.Digit, recentSize int) Signals {
	s := emptySignals()
	n := len(window)
	if recentSize <= 0 || n < recentSize || n == 0 {
		return s
	}

	overall := Counts(window)
	recent := Counts(window[n-recentSize:])

	for d := domain.Digit(0); d < domain.NumDigits; d++ {
		overallRate := float64(overall[d]) / float64(n)
		recentRate := float64(recent[d]) / float64(recentSize)

		if recentRate > overallRate*hotRatio && recent[d] >= minHotCount {
			s.Hot = append(s.Hot, Signal{
				Digit: d, RecentRate: recentRate, OverallRate: overallRate,
				Score: ratio(recentRate, overallRate),
			})
		}
		if recentRate < overallRate*coldRatio && overall[d] >= minColdCount {
			s.Cold = append(s.Cold, Signal{
				Digit: d, RecentRate: recentRate, OverallRate: overallRate,
				Score: ratio(overallRate, recentRate),
			})
		}
	}

	s.Due = dueDigits(window)
	s.TrendingUp, s.TrendingDown = trending(window, recentSize)

	s.Hot = top(s.Hot)
	s.Cold = top(s.Cold)
	s.Due = top(s.Due)
	s.TrendingUp = top(s.TrendingUp)
	s.TrendingDown = top(s.TrendingDown)
	return s
}

// dueDigits scores digits whose absence run exceeds the uniform expectation
// n/10. A digit that never appeared has an absence run of n and so scores
// above any digit that did.
func dueDigits(window []domain.Digit) []Signal {
	n := len(window)
	expected := float64(n) / domain.NumDigits
	var last [domain.NumDigits]int
	for d := range last {
		last[d] = -1
	}
	for i, d := range window {
		last[d] = i
	}

	out := []Signal{}
	for d := domain.Digit(0); d < domain.NumDigits; d++ {
		absent := n
		if last[d] >= 0 {
			absent = n - 1 - last[d]
			if float64(absent) <= expected {
				continue
			}
		}
		out = append(out, Signal{Digit: d, AbsentCount: absent, Score: float64(absent) / expected})
	}
	return out
}

// trending compares the two halves of the recent window.
func trending(window []domain.Digit, recentSize int) (up, down []Signal) {
	up, down = []Signal{}, []Signal{}
	half := recentSize / 2
	if half == 0 {
		return up, down
	}
	n := len(window)
	first := Counts(window[n-recentSize : n-half])
	second := Counts(window[n-half:])

	for d := domain.Digit(0); d < domain.NumDigits; d++ {
		firstRate := float64(first[d]) / float64(half)
		secondRate := float64(second[d]) / float64(half)
		switch {
		case secondRate > firstRate*trendRatio:
			up = append(up, Signal{Digit: d, RecentRate: secondRate, OverallRate: firstRate, Score: ratio(secondRate, firstRate)})
		case firstRate > secondRate*trendRatio:
			down = append(down, Signal{Digit: d, RecentRate: secondRate, OverallRate: firstRate, Score: ratio(firstRate, secondRate)})
		}
	}
	return up, down
}

func ratio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return num * zeroRateBoost
}

func top(sigs []Signal) []Signal {
	sort.SliceStable(sigs, func(i, j int) bool { return sigs[i].Score > sigs[j].Score })
	if len(sigs) > maxPerSignal {
		sigs = sigs[:maxPerSignal]
	}
	return sigs
}
