package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ContractFamily is the trade hypothesis category selected by the user.
type ContractFamily string

const (
	FamilyMatches   ContractFamily = "matches"
	FamilyDiffers   ContractFamily = "differs"
	FamilyOverUnder ContractFamily = "over_under"
	FamilyEvenOdd   ContractFamily = "even_odd"
)

// ParseContractFamily validates a family selector.
func ParseContractFamily(s string) (ContractFamily, error) {
	switch f := ContractFamily(s); f {
	case FamilyMatches, FamilyDiffers, FamilyOverUnder, FamilyEvenOdd:
		return f, nil
	}
	return "", fmt.Errorf("domain.ParseContractFamily: unknown family %q: %w", s, ErrConfiguration)
}

// ContractKind is the venue contract type.
type ContractKind string

const (
	KindMatch  ContractKind = "DIGITMATCH"
	KindDiffer ContractKind = "DIGITDIFF"
	KindOver   ContractKind = "DIGITOVER"
	KindUnder  ContractKind = "DIGITUNDER"
	KindEven   ContractKind = "DIGITEVEN"
	KindOdd    ContractKind = "DIGITODD"
)

// Fixed barriers of the over/under split at 5.
const (
	OverBarrier  Digit = 4
	UnderBarrier Digit = 5
)

// Payout multipliers applied to the stake on a win. The differs payout is an
// illustrative constant below break-even and is kept as-is.
const (
	PayoutMatches   = 9.0
	PayoutDiffers   = 0.9
	PayoutOverUnder = 1.0
	PayoutEvenOdd   = 1.0
)

// Contract carries what is needed to evaluate a win against a realized digit.
// Barrier is the target digit for matches, the avoided digit for differs and
// the split barrier for over/under; it is unused for even/odd.
type Contract struct {
	Kind    ContractKind `json:"contract_type"`
	Barrier Digit        `json:"barrier"`
}

func MatchContract(target Digit) Contract { return Contract{Kind: KindMatch, Barrier: target} }
func DifferContract(avoid Digit) Contract { return Contract{Kind: KindDiffer, Barrier: avoid} }
func OverContract() Contract              { return Contract{Kind: KindOver, Barrier: OverBarrier} }
func UnderContract() Contract             { return Contract{Kind: KindUnder, Barrier: UnderBarrier} }
func EvenContract() Contract              { return Contract{Kind: KindEven} }
func OddContract() Contract               { return Contract{Kind: KindOdd} }

// Wins reports whether the contract pays out for the realized digit.
func (c Contract) Wins(d Digit) bool {
	switch c.Kind {
	case KindMatch:
		return d == c.Barrier
	case KindDiffer:
		return d != c.Barrier
	case KindOver:
		return d > c.Barrier
	case KindUnder:
		return d < c.Barrier
	case KindEven:
		return d.IsEven()
	case KindOdd:
		return !d.IsEven()
	}
	return false
}

// Payout returns the profit multiplier on a win.
func (c Contract) Payout() float64 {
	switch c.Kind {
	case KindMatch:
		return PayoutMatches
	case KindDiffer:
		return PayoutDiffers
	case KindOver, KindUnder:
		return PayoutOverUnder
	default:
		return PayoutEvenOdd
	}
}

// HasBarrier reports whether the venue expects a barrier for this kind.
func (c Contract) HasBarrier() bool {
	return c.Kind != KindEven && c.Kind != KindOdd
}

// Family maps the kind back to its family.
func (c Contract) Family() ContractFamily {
	switch c.Kind {
	case KindMatch:
		return FamilyMatches
	case KindDiffer:
		return FamilyDiffers
	case KindOver, KindUnder:
		return FamilyOverUnder
	default:
		return FamilyEvenOdd
	}
}

// Realize computes the signed profit of a settled contract.
func (c Contract) Realize(stake float64, d Digit) (win bool, profit float64) {
	if c.Wins(d) {
		return true, stake * c.Payout()
	}
	return false, -stake
}

// Default venue contract terms.
const (
	DefaultDuration     = 5
	DefaultDurationUnit = "t"
	DefaultCurrency     = "USD"
)

// ContractParams is what the execution gateway receives for a submission.
type ContractParams struct {
	Kind         ContractKind
	Symbol       string
	Duration     int
	DurationUnit string
	Barrier      *Digit
	Basis        string
	Currency     string
	Amount       decimal.Decimal
}

// Params derives the gateway parameters for a decision, with the stake
// rounded to cents.
func (c Contract) Params(symbol string, stake float64, currency string) ContractParams {
	if currency == "" {
		currency = DefaultCurrency
	}
	p := ContractParams{
		Kind:         c.Kind,
		Symbol:       symbol,
		Duration:     DefaultDuration,
		DurationUnit: DefaultDurationUnit,
		Basis:        "stake",
		Currency:     currency,
		Amount:       decimal.NewFromFloat(stake).Round(2),
	}
	if c.HasBarrier() {
		b := c.Barrier
		p.Barrier = &b
	}
	return p
}
