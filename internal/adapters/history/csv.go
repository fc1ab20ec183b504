// Package history loads digit series for backtests from CSV files.
//
// Accepted layouts: a header with a `digit` column, a header with a `price`
// or `quote` column (digits are derived from prices), or a headerless single
// column of prices.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Options controls price to digit conversion.
type Options struct {
	// PipDecimals formats prices with a fixed number of decimals before taking
	// the last digit. Negative uses the shortest representation.
	PipDecimals int
}

// DefaultOptions uses the shortest decimal representation of each price.
func DefaultOptions() Options { return Options{PipDecimals: -1} }

// LoadFile reads a series from path.
func LoadFile(path string, opts Options) ([]domain.Digit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history.LoadFile: %w", err)
	}
	defer f.Close()

	ds, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("history.LoadFile %s: %w", path, err)
	}
	return ds, nil
}

// Load reads a series. Invalid rows fail the whole load with
// domain.ErrConfiguration and the offending line number.
func Load(r io.Reader, opts Options) ([]domain.Digit, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	col, isDigit := 0, false
	first := true
	var out []domain.Digit
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("history.Load: %w: %w", domain.ErrConfiguration, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		if first {
			first = false
			c, digitCol, isHeader, err := headerColumn(rec)
			if err != nil {
				return nil, fmt.Errorf("history.Load: line %d: %w", line, err)
			}
			if isHeader {
				col, isDigit = c, digitCol
				continue
			}
		}

		if col >= len(rec) {
			return nil, fmt.Errorf("history.Load: line %d: missing column %d: %w", line, col, domain.ErrConfiguration)
		}
		field := strings.TrimSpace(rec[col])

		if isDigit {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("history.Load: line %d: digit %q: %w", line, field, domain.ErrConfiguration)
			}
			d, err := domain.NewDigit(v)
			if err != nil {
				return nil, fmt.Errorf("history.Load: line %d: %w", line, err)
			}
			out = append(out, d)
			continue
		}

		price, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("history.Load: line %d: price %q: %w", line, field, domain.ErrConfiguration)
		}
		out = append(out, domain.DigitFromQuote(price, opts.PipDecimals))
	}
	return out, nil
}

// headerColumn inspects the first record. A header must name a digit or a
// price column; a numeric first field means there is no header.
func headerColumn(rec []string) (col int, digit, isHeader bool, err error) {
	price := -1
	for i, h := range rec {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "digit", "last_digit":
			return i, true, true, nil
		case "price", "quote", "close":
			if price < 0 {
				price = i
			}
		}
	}
	if price >= 0 {
		return price, false, true, nil
	}
	if _, perr := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64); perr != nil {
		return 0, false, true, fmt.Errorf("header %q has no digit or price column: %w",
			strings.Join(rec, ","), domain.ErrConfiguration)
	}
	return 0, false, false, nil
}

// ParseDigits reads a compact digit string such as "0527 9913"; separators
// other than digits are ignored.
func ParseDigits(s string) []domain.Digit {
	out := make([]domain.Digit, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, domain.Digit(r-'0'))
		}
	}
	return out
}
