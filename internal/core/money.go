// Package core holds the lending domain: the document graph
// (people, loans, transactions), money and date handling, and the
// pure aggregation functions derived from them.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a rupee amount stored in paise. Arithmetic stays in
// integer minor units; rupees only appear at the JSON and display
// boundaries.
type Money struct {
	Paise int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// NewMoney builds a Money from whole rupees.
func NewMoney(rupees int64) Money {
	return Money{Paise: rupees * 100}
}

func (m Money) Add(n Money) Money { return Money{Paise: m.Paise + n.Paise} }
func (m Money) Sub(n Money) Money { return Money{Paise: m.Paise - n.Paise} }

func (m Money) IsZero() bool     { return m.Paise == 0 }
func (m Money) IsPositive() bool { return m.Paise > 0 }

// Rupees returns the rupee value as a float64 for display purposes.
// Use paise for calculations to avoid floating-point drift.
func (m Money) Rupees() float64 {
	return float64(m.Paise) / 100.0
}

// String renders the amount as a plain decimal rupee string with no
// symbol or grouping: "8000", "-250", "12.50". Report rows use this
// form so spreadsheet consumers read the column as numeric.
func (m Money) String() string {
	paise := m.Paise
	neg := paise < 0
	if neg {
		paise = -paise
	}
	s := strconv.FormatInt(paise/100, 10)
	if rem := paise % 100; rem != 0 {
		s += "." + padTwo(rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatINR renders the amount rounded to whole rupees with the
// Indian digit grouping convention and a rupee prefix:
// ₹20,00,000 for two million rupees.
func (m Money) FormatINR() string {
	paise := m.Paise
	neg := paise < 0
	if neg {
		paise = -paise
	}
	rupees := (paise + 50) / 100 // round half up
	grouped := groupIndian(strconv.FormatInt(rupees, 10))
	if neg {
		return "-₹" + grouped
	}
	return "₹" + grouped
}

// groupIndian inserts commas after the last three digits and then
// every two: "2000000" -> "20,00,000".
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return strings.Join(groups, ",") + "," + tail
}

func padTwo(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// ParseDecimalToPaise converts a decimal rupee string to paise with
// half-up rounding on the third decimal digit. Both dot and comma
// decimal separators are accepted. Zero is allowed; signs are not.
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracPaise int64
	if len(fracPart) > 0 {
		fracPaise = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracPaise += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPaise++
			}
		}
	}
	return iv*100 + fracPaise, nil
}

// MarshalJSON writes the rupee value as a bare number, matching the
// persisted document shape where amounts are plain numerics.
func (m Money) MarshalJSON() ([]byte, error) {
	if m.Paise%100 == 0 {
		return []byte(strconv.FormatInt(m.Paise/100, 10)), nil
	}
	return []byte(strconv.FormatFloat(m.Rupees(), 'f', 2, 64)), nil
}

// UnmarshalJSON coerces whatever is stored into a rupee amount.
// Numbers and numeric strings are accepted; null and anything
// unparseable degrade silently to zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Paise = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		m.Paise = roundToPaise(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			m.Paise = roundToPaise(v)
			return nil
		}
	}
	m.Paise = 0
	return nil
}

func roundToPaise(rupees float64) int64 {
	if math.IsNaN(rupees) || math.IsInf(rupees, 0) {
		return 0
	}
	return int64(math.Round(rupees * 100))
}
