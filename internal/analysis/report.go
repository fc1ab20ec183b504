package analysis

import (
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// ReportDigits is how many of the newest digits a Report carries.
const ReportDigits = 20

// Report is the caller-facing market analysis: the newest digits, the family
// probabilities, the prediction and the full indicator set.
type Report struct {
	Market          string               `json:"market"`
	LastDigits      []domain.Digit       `json:"last_digits"`
	Probabilities   domain.Probabilities `json:"probabilities"`
	Prediction      domain.Digit         `json:"prediction"`
	ModelConfidence float64              `json:"model_confidence"`
	Threshold       float64              `json:"threshold"`
	Indicators      Indicators           `json:"indicators"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// Tail returns a copy of the newest n digits.
func Tail(window []domain.Digit, n int) []domain.Digit {
	if n >= len(window) {
		n = len(window)
	}
	return append([]domain.Digit{}, window[len(window)-n:]...)
}
