package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToPaise(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"0", 0, true},
		{"5000", 500000, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseDecimalToPaise(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d (%q): got %d, %v; want %d", i, tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q): expected error", i, tc.in)
		}
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		rupees int64
		want   string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{1000, "₹1,000"},
		{100000, "₹1,00,000"},
		{2000000, "₹20,00,000"},
		{123456789, "₹12,34,56,789"},
	}
	for i, tc := range cases {
		if got := NewMoney(tc.rupees).FormatINR(); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
	if got := (Money{Paise: -250000}).FormatINR(); got != "-₹2,500" {
		t.Fatalf("negative: got %q", got)
	}
}

func TestMoneyString(t *testing.T) {
	if got := NewMoney(8000).String(); got != "8000" {
		t.Fatalf("whole: got %q", got)
	}
	if got := (Money{Paise: 1250}).String(); got != "12.50" {
		t.Fatalf("fractional: got %q", got)
	}
	if got := (Money{Paise: -500}).String(); got != "-5" {
		t.Fatalf("negative: got %q", got)
	}
}

func TestMoneyJSONCoercion(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{`5000`, 500000},
		{`12.5`, 1250},
		{`"750"`, 75000},
		{`null`, 0},
		{`"garbage"`, 0},
		{`{"nested":true}`, 0},
	}
	for i, tc := range cases {
		var m Money
		if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if m.Paise != tc.want {
			t.Fatalf("case %d (%s): got %d paise, want %d", i, tc.in, m.Paise, tc.want)
		}
	}

	out, err := json.Marshal(NewMoney(9000))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "9000" {
		t.Fatalf("marshal: got %s", out)
	}
}
