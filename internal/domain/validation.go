package domain

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxIdempotencyKeyLength = 255
	MaxOperationAmount      = "1000000000000" // 1 trillion major units
	DefaultPageSize         = 20
	MaxPageSize             = 100

	// Bounds on the parsed representation, checked before any arithmetic.
	maxAmountInputLength       = 64
	maxAmountScale             = 18
	maxAmountSignificantDigits = 38
)

// Supported currency codes (ISO 4217) and their minor unit exponent.
var currencyExponents = map[string]int32{
	"USD": 2, "EUR": 2, "GBP": 2, "JPY": 0,
	"CNY": 2, "AUD": 2, "CAD": 2, "CHF": 2,
	"SEK": 2, "NZD": 2, "KRW": 0, "SGD": 2,
	"NOK": 2, "MXN": 2, "INR": 2, "BRL": 2,
	"ZAR": 2, "RUB": 2, "TRY": 2, "HKD": 2,
}

var maxOperationAmount = decimal.RequireFromString(MaxOperationAmount)

// NormalizeCurrency upper-cases a currency code and checks it is supported.
func NormalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := currencyExponents[code]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return code, nil
}

// MinorUnitExponent returns the number of fractional digits of a supported currency.
func MinorUnitExponent(currency string) int32 {
	return currencyExponents[currency]
}

// NormalizeWalletID returns the canonical form of a wallet UUID.
func NormalizeWalletID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidWalletID, id)
	}
	return parsed.String(), nil
}

// ParseOperationKind accepts the canonical kinds and the DEPOSIT/WITHDRAW wire names.
func ParseOperationKind(kind string) (OperationKind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "deposit":
		return OperationKindDeposit, nil
	case "withdrawal", "withdraw":
		return OperationKindWithdrawal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

// ValidateIdempotencyKey checks presence, length and character set of a key.
func ValidateIdempotencyKey(key string) error {
	if key == "" {
		return ErrMissingIdempotencyKey
	}
	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidIdempotencyKey, MaxIdempotencyKeyLength)
	}
	for _, r := range key {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return fmt.Errorf("%w: contains control characters", ErrInvalidIdempotencyKey)
		}
	}
	return nil
}

// ParseAmount parses a positive decimal amount in major units.
// The exponent and digit count are bounded before the value is compared or rendered.
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if len(amount) > maxAmountInputLength {
		return decimal.Zero, fmt.Errorf("%w: longer than %d characters", ErrInvalidAmount, maxAmountInputLength)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	exp := d.Exponent()
	if exp < -maxAmountScale {
		return decimal.Zero, fmt.Errorf("%w: %q has too many fractional digits", ErrInvalidAmount, amount)
	}
	digits := len(d.Coefficient().String())
	if d.Sign() < 0 {
		digits--
	}
	if exp > 0 && int64(digits)+int64(exp) > maxAmountSignificantDigits {
		return decimal.Zero, fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxOperationAmount)
	}
	if digits > maxAmountSignificantDigits {
		return decimal.Zero, fmt.Errorf("%w: %q has too many digits", ErrInvalidAmount, amount)
	}

	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: got %s", ErrInvalidAmount, d.String())
	}
	if d.GreaterThan(maxOperationAmount) {
		return decimal.Zero, fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxOperationAmount)
	}
	return d, nil
}

// ToMinorUnits converts a major-unit amount into an integer count of minor units.
// Amounts finer than the currency's minor unit are rejected, never rounded.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	exp, ok := currencyExponents[currency]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	minor := amount.Shift(exp)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s allows at most %d fractional digits", ErrInvalidAmount, currency, exp)
	}
	return minor.IntPart(), nil
}

// FormatMinorUnits renders minor units as a fixed-point major-unit string.
func FormatMinorUnits(minor int64, currency string) string {
	exp := MinorUnitExponent(currency)
	return decimal.New(minor, -exp).StringFixed(exp)
}

// ValidateOperation turns a raw request into a draft. It never reads wallet state;
// sufficiency of funds is decided when the draft is applied.
func ValidateOperation(req OperationRequest) (*OperationDraft, error) {
	walletID, err := NormalizeWalletID(req.WalletID)
	if err != nil {
		return nil, err
	}

	kind, err := ParseOperationKind(req.Kind)
	if err != nil {
		return nil, err
	}

	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	var currency string
	if strings.TrimSpace(req.Currency) != "" {
		if currency, err = NormalizeCurrency(req.Currency); err != nil {
			return nil, err
		}
		if _, err := ToMinorUnits(amount, currency); err != nil {
			return nil, err
		}
	}

	if err := ValidateIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, err
	}

	return &OperationDraft{
		WalletID:       walletID,
		Kind:           kind,
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: req.IdempotencyKey,
	}, nil
}

// Delta resolves the draft against the wallet currency and returns the signed
// change in minor units.
func (d *OperationDraft) Delta(walletCurrency string) (int64, error) {
	if d.Currency != "" && d.Currency != walletCurrency {
		return 0, fmt.Errorf("%w: %s operation on %s wallet", ErrCurrencyMismatch, d.Currency, walletCurrency)
	}

	minor, err := ToMinorUnits(d.Amount, walletCurrency)
	if err != nil {
		return 0, err
	}

	if d.Kind == OperationKindWithdrawal {
		return -minor, nil
	}
	return minor, nil
}

// ValidatePagination clamps a page size into [1, MaxPageSize].
func ValidatePagination(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
