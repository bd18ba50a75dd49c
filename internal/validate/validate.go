package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[A-Za-z0-9 _'.%&/+\-]{1,50}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
	reMonth = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
	reFlag  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,40}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// Count parses a non-negative integer (stock levels, sale quantities).
func Count(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 1_000_000 {
		return 0, false
	}
	return n, true
}

// ID validates a simple resource identifier (product/category ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 60 {
		return "", false
	}
	return s, true
}

// Text trims free text and enforces a rune limit. Empty is allowed.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) <= max
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

var maxAmount = decimal.NewFromInt(1_000_000)

// Price parses a money amount with at most two decimals, >= 0.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !Amount(d) {
		return decimal.Zero, false
	}
	return d, true
}

// Amount reports whether d is a money amount Price would accept.
func Amount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Exponent() >= -2 && !d.GreaterThan(maxAmount)
}

// Percent parses an optional discount. Empty means none.
func Percent(s string) (decimal.NullDecimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

// Date accepts YYYY-MM-DD.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}

// Month accepts YYYY-MM.
func Month(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reMonth.MatchString(s)
}

func Flag(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reFlag.MatchString(s)
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	return true
}
