package entity

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const DefaultCurrency = "USD"

var ErrInvalidPrice = errors.New("invalid price")

var (
	currencySymbols = map[string]string{
		"$": "USD",
		"€": "EUR",
		"£": "GBP",
	}
	currencyPrefixes = map[string]string{
		"USD": "$",
		"EUR": "€",
		"GBP": "£",
	}
	// amountPattern matches "25,000", "1,250.00", "12.50", "12" and the
	// decimal comma form "7,80". A comma followed by exactly three digits
	// groups thousands.
	amountPattern = `([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?|[0-9]+,[0-9]{1,2}|[0-9]+(?:\.[0-9]+)?)`
	codeFirst     = regexp.MustCompile(`^([A-Za-z]{3})\s*` + amountPattern + `$`)
	codeLast      = regexp.MustCompile(`^` + amountPattern + `\s*([A-Za-z]{3})$`)
	bareAmount    = regexp.MustCompile(`^` + amountPattern + `$`)
	groupedAmount = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?$`)
)

const (
	// Bounds of the NUMERIC(12, 2) price column.
	minPriceAmount = 0.01
	maxPriceAmount = 9999999999.99
)

type Price struct {
	Raw      string  `json:"raw"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ParsePrice reads prices such as "USD 12.50", "12.50 USD", "$12.50", "€9",
// "COP 25,000" or "12.5". A missing currency defaults to USD. Amounts must
// be at least one cent.
func ParsePrice(raw string) (Price, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Price{}, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}

	currency := ""
	for symbol, code := range currencySymbols {
		if strings.HasPrefix(s, symbol) {
			currency = code
			s = strings.TrimSpace(strings.TrimPrefix(s, symbol))
			break
		}
		if strings.HasSuffix(s, symbol) {
			currency = code
			s = strings.TrimSpace(strings.TrimSuffix(s, symbol))
			break
		}
	}

	var amount string
	switch {
	case currency != "" && bareAmount.MatchString(s):
		amount = s
	case currency == "" && codeFirst.MatchString(s):
		m := codeFirst.FindStringSubmatch(s)
		currency, amount = strings.ToUpper(m[1]), m[2]
	case currency == "" && codeLast.MatchString(s):
		m := codeLast.FindStringSubmatch(s)
		currency, amount = strings.ToUpper(m[2]), m[1]
	case currency == "" && bareAmount.MatchString(s):
		currency, amount = DefaultCurrency, s
	default:
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}

	value, err := strconv.ParseFloat(normalizeAmount(amount), 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) || value < minPriceAmount || value > maxPriceAmount {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}

	return Price{
		Raw:      strings.TrimSpace(raw),
		Amount:   value,
		Currency: currency,
	}, nil
}

func normalizeAmount(amount string) string {
	if groupedAmount.MatchString(amount) {
		return strings.ReplaceAll(amount, ",", "")
	}
	return strings.Replace(amount, ",", ".", 1)
}

// FormatMoney renders amount as "$25.99", falling back to "CUR 25.99".
func FormatMoney(amount float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if prefix, ok := currencyPrefixes[currency]; ok {
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func (p Price) String() string {
	return FormatMoney(p.Amount, p.Currency)
}
