package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Digit is the last decimal digit of a price tick, always in [0, 9].
type Digit int

// NumDigits is the size of the digit alphabet.
const NumDigits = 10

// Valid reports whether d is inside [0, 9].
func (d Digit) Valid() bool {
	return d >= 0 && d <= 9
}

// IsEven reports whether d is even.
func (d Digit) IsEven() bool { return d%2 == 0 }

// IsHigh reports whether d belongs to the upper half (5-9).
func (d Digit) IsHigh() bool { return d >= 5 }

// NewDigit validates an integer as a Digit.
func NewDigit(v int) (Digit, error) {
	d := Digit(v)
	if !d.Valid() {
		return 0, fmt.Errorf("domain.NewDigit: %d out of range [0,9]: %w", v, ErrConfiguration)
	}
	return d, nil
}

// DigitFromPrice returns the last character of the shortest decimal
// representation of price. 100.0 renders as "100" and yields 0.
func DigitFromPrice(price float64) Digit {
	return lastDigit(strconv.FormatFloat(price, 'f', -1, 64))
}

// DigitFromQuote formats price with a fixed number of decimals before taking
// the last digit, so a quote of 1234.50 with 2 pip decimals yields 0.
func DigitFromQuote(price float64, pipDecimals int) Digit {
	if pipDecimals < 0 {
		return DigitFromPrice(price)
	}
	return lastDigit(strconv.FormatFloat(price, 'f', pipDecimals, 64))
}

// lastDigit maps NaN/Inf renderings to 0.
func lastDigit(s string) Digit {
	c := s[len(s)-1]
	if c < '0' || c > '9' {
		return 0
	}
	return Digit(c - '0')
}

// DigitsFromPrices converts a price series into digits.
func DigitsFromPrices(prices []float64) []Digit {
	out := make([]Digit, len(prices))
	for i, p := range prices {
		out[i] = DigitFromPrice(p)
	}
	return out
}

// Tick is a single observed price with its derived digit.
type Tick struct {
	Price float64
	Digit Digit
	Epoch time.Time
}

// DigitsOf extracts the digits of a tick series, preserving order.
func DigitsOf(ticks []Tick) []Digit {
	out := make([]Digit, len(ticks))
	for i, t := range ticks {
		out[i] = t.Digit
	}
	return out
}

// DigitWindow is a bounded, append-only sequence of recent digits.
// When capacity is reached the oldest digits are dropped.
type DigitWindow struct {
	digits   []Digit
	capacity int
}

// NewDigitWindow creates an empty window. capacity <= 0 means unbounded.
func NewDigitWindow(capacity int) *DigitWindow {
	return &DigitWindow{capacity: capacity}
}

// Append adds the newest digits in order. It rejects the whole batch if any
// digit is outside [0, 9], leaving the window untouched.
func (w *DigitWindow) Append(ds ...Digit) error {
	if err := validDigits("domain.DigitWindow.Append", ds); err != nil {
		return err
	}
	w.digits = append(w.digits, ds...)
	w.trim()
	return nil
}

// Replace swaps the content for a fresh snapshot, truncated to capacity.
// An invalid snapshot leaves the window untouched.
func (w *DigitWindow) Replace(ds []Digit) error {
	if err := validDigits("domain.DigitWindow.Replace", ds); err != nil {
		return err
	}
	w.digits = append([]Digit(nil), ds...)
	w.trim()
	return nil
}

func (w *DigitWindow) trim() {
	if w.capacity > 0 && len(w.digits) > w.capacity {
		w.digits = append([]Digit(nil), w.digits[len(w.digits)-w.capacity:]...)
	}
}

func validDigits(op string, ds []Digit) error {
	for _, d := range ds {
		if !d.Valid() {
			return fmt.Errorf("%s: digit %d out of range: %w", op, d, ErrConfiguration)
		}
	}
	return nil
}

// Len returns the number of digits held.
func (w *DigitWindow) Len() int { return len(w.digits) }

// Digits returns a copy of the window, oldest first.
func (w *DigitWindow) Digits() []Digit {
	return append([]Digit(nil), w.digits...)
}

// Last returns a copy of the newest n digits (fewer if the window is shorter).
func (w *DigitWindow) Last(n int) []Digit {
	if n >= len(w.digits) {
		return w.Digits()
	}
	return append([]Digit(nil), w.digits[len(w.digits)-n:]...)
}
