package analysis

import (
	"math"
	"slices"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// PatternType classifies a detected pattern.
type PatternType string

const (
	PatternExact      PatternType = "exact"
	PatternArithmetic PatternType = "arithmetic"
	PatternOddEven    PatternType = "odd_even_alternation"
	PatternHighLow    PatternType = "high_low_alternation"
)

// Scan bounds for the three pattern families.
const (
	exactMinLen      = 2
	exactMaxLen      = 5
	arithMinLen      = 3
	arithMaxLen      = 7
	alternatingLen   = 6
	alternatingScore = 0.75
)

// Pattern is one detected occurrence.
type Pattern struct {
	Type       PatternType    `json:"type"`
	Sequence   []domain.Digit `json:"pattern"`
	Length     int            `json:"length"`
	Start      int            `json:"start"`
	Repeats    int            `json:"repeats,omitempty"`
	Difference int            `json:"difference,omitempty"`
	Confidence float64        `json:"confidence"`
}

// Patterns runs the exact-repetition, arithmetic and alternation scans.
func Patterns(window []domain.Digit) []Pattern {
	out := []Pattern{}
	out = append(out, exactRepetitions(window)...)
	out = append(out, arithmeticProgressions(window)...)
	out = append(out, alternations(window)...)
	return out
}

// exactRepetitions finds a block immediately followed by itself and counts
// how many more consecutive copies follow.
func exactRepetitions(w []domain.Digit) []Pattern {
	var out []Pattern
	for length := exactMinLen; length <= exactMaxLen && 2*length <= len(w); length++ {
		for start := 0; start+2*length <= len(w); start++ {
			block := w[start : start+length]
			if !slices.Equal(block, w[start+length:start+2*length]) {
				continue
			}
			repeats := 2
			for pos := start + 2*length; pos+length <= len(w); pos += length {
				if !slices.Equal(w[pos:pos+length], block) {
					break
				}
				repeats++
			}
			out = append(out, Pattern{
				Type:       PatternExact,
				Sequence:   slices.Clone(block),
				Length:     length,
				Start:      start,
				Repeats:    repeats,
				Confidence: math.Min(0.9, 0.5+float64(repeats)/10),
			})
		}
	}
	return out
}

// FoldDifference maps a digit difference into [-5, 5] modulo 10, so 0 after 9
// is a step of +1 and 9 after 0 a step of -1.
func FoldDifference(d int) int {
	switch {
	case d > 5:
		return d - 10
	case d < -5:
		return d + 10
	}
	return d
}

// arithmeticProgressions finds runs with a constant, non-zero folded step.
func arithmeticProgressions(w []domain.Digit) []Pattern {
	var out []Pattern
	for length := arithMinLen; length <= arithMaxLen && length <= len(w); length++ {
		for start := 0; start+length <= len(w); start++ {
			seq := w[start : start+length]
			diff, ok := constantStep(seq)
			if !ok {
				continue
			}
			out = append(out, Pattern{
				Type:       PatternArithmetic,
				Sequence:   slices.Clone(seq),
				Length:     length,
				Start:      start,
				Difference: diff,
				Confidence: math.Min(0.8, 0.4+float64(length)/10),
			})
		}
	}
	return out
}

func constantStep(seq []domain.Digit) (int, bool) {
	step := FoldDifference(int(seq[1]) - int(seq[0]))
	if step == 0 {
		return 0, false
	}
	for i := 2; i < len(seq); i++ {
		if FoldDifference(int(seq[i])-int(seq[i-1])) != step {
			return 0, false
		}
	}
	return step, true
}

// alternations checks every 6-digit slice for unbroken parity or high/low
// alternation. A slice can match both.
func alternations(w []domain.Digit) []Pattern {
	var out []Pattern
	for start := 0; start+alternatingLen <= len(w); start++ {
		seq := w[start : start+alternatingLen]
		if alternates(seq, domain.Digit.IsEven) {
			out = append(out, alternation(PatternOddEven, seq, start))
		}
		if alternates(seq, domain.Digit.IsHigh) {
			out = append(out, alternation(PatternHighLow, seq, start))
		}
	}
	return out
}

func alternates(seq []domain.Digit, class func(domain.Digit) bool) bool {
	for i := 1; i < len(seq); i++ {
		if class(seq[i]) == class(seq[i-1]) {
			return false
		}
	}
	return true
}

func alternation(t PatternType, seq []domain.Digit, start int) Pattern {
	return Pattern{
		Type:       t,
		Sequence:   slices.Clone(seq),
		Length:     alternatingLen,
		Start:      start,
		Confidence: alternatingScore,
	}
}
