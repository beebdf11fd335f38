// Package money implements integer minor-unit arithmetic for invoicing.
// Amounts are always whole counts of the smallest currency unit (pesewas,
// cents) tagged with a currency code; floating point never appears at rest.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	GHS Currency = "GHS"
	USD Currency = "USD"
	EUR Currency = "EUR"
	NGN Currency = "NGN"
	KES Currency = "KES"
)

// DefaultCurrency is used when no currency is supplied at a boundary.
const DefaultCurrency = GHS

// MaxAmountMinor caps any single monetary value at 1e11 minor units
// (roughly one billion in major units). Values past this are treated as
// corrupted input rather than legitimate amounts.
const MaxAmountMinor int64 = 100_000_000_000

var (
	ErrAmountNotInteger = errors.New("amount_not_integer")
	ErrAmountNegative   = errors.New("amount_negative")
	ErrAmountTooLarge   = errors.New("amount_too_large")
	ErrCurrencyMismatch = errors.New("currency_mismatch")
	ErrInvalidCurrency  = errors.New("invalid_currency")
)

var supported = map[Currency]struct{}{
	GHS: {}, USD: {}, EUR: {}, NGN: {}, KES: {},
}

// Decimals returns the number of minor-unit digits for the currency.
// Every supported currency uses two.
func Decimals(c Currency) int32 {
	return 2
}

// ValidCurrency reports whether c is a supported currency code.
func ValidCurrency(c Currency) bool {
	_, ok := supported[c]
	return ok
}

// Amount pairs an integer minor-unit value with its currency so that
// amounts in different currencies cannot be combined by accident.
type Amount struct {
	value    int64
	currency Currency
}

// NewAmount builds an Amount after validating the minor-unit value.
func NewAmount(minor int64, c Currency) (Amount, error) {
	if !ValidCurrency(c) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, c)
	}
	if err := ValidateAmount(minor); err != nil {
		return Amount{}, err
	}
	return Amount{value: minor, currency: c}, nil
}

// Zero returns a zero Amount in the given currency.
func Zero(c Currency) Amount {
	return Amount{currency: c}
}

// MinorUnits returns the raw integer minor-unit value.
func (a Amount) MinorUnits() int64 { return a.value }

// Currency returns the currency tag.
func (a Amount) Currency() Currency { return a.currency }

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.value == 0 }

// Add returns a+b, failing on mixed currencies.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.currency != b.currency {
		return Amount{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.currency, b.currency)
	}
	return Amount{value: a.value + b.value, currency: a.currency}, nil
}

// SubFloor returns a-b clamped at zero, failing on mixed currencies.
// Clamping rather than going negative matches how discounts and payment
// allocations behave everywhere in the ledger.
func (a Amount) SubFloor(b Amount) (Amount, error) {
	if a.currency != b.currency {
		return Amount{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.currency, b.currency)
	}
	v := a.value - b.value
	if v < 0 {
		v = 0
	}
	return Amount{value: v, currency: a.currency}, nil
}

// Major returns the amount in major units as an exact decimal.
func (a Amount) Major() decimal.Decimal {
	return ToMajorUnits(a.value, a.currency)
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Major().StringFixed(Decimals(a.currency)), a.currency)
}

// ToMinorUnits converts a major-unit amount to integer minor units,
// rounding half away from zero on the scaled value. Conversion goes
// through decimal so binary float noise (0.1+0.2) lands on the same
// integer as the exact literal would.
func ToMinorUnits(major float64, c Currency) int64 {
	d := decimal.NewFromFloat(major)
	return d.Shift(Decimals(c)).Round(0).IntPart()
}

// ToMajorUnits is the exact inverse of ToMinorUnits. No rounding is
// involved since an integer divided by a power of ten is exact.
func ToMajorUnits(minor int64, c Currency) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-Decimals(c))
}

// ParseAmount parses a major-unit string from untrusted input into an
// Amount, rejecting values with sub-minor-unit precision.
func ParseAmount(raw string, c Currency) (Amount, error) {
	if !ValidCurrency(c) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, c)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrAmountNotInteger, raw)
	}
	scaled := d.Shift(Decimals(c))
	if !scaled.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %q", ErrAmountNotInteger, raw)
	}
	return NewAmount(scaled.IntPart(), c)
}

// ValidateAmount checks a minor-unit value from an API boundary.
// The zero return is the only success path; everything else is a
// discriminated error the caller can surface verbatim.
func ValidateAmount(minor int64) error {
	if minor < 0 {
		return ErrAmountNegative
	}
	if minor > MaxAmountMinor {
		return ErrAmountTooLarge
	}
	return nil
}
