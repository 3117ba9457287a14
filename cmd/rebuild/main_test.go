package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2025, 1, 2, 13, 45, 0, 0, time.UTC).UnixMilli()

	cases := []struct {
		value string
		want  int64
	}{
		{"2025-01-02T13:45:00Z", want},
		{"2025-01-02 13:45:00", want},
		{"2025/01/02 13:45", want},
		{"01/02/2025 13:45", want},
		{"01/02/2025 13:45:10", want + 10_000},
		{"2025-01-02", want - (13*3600+45*60)*1000},
		{"1735825500", 1735825500000},    // unix seconds
		{"1735825500000", 1735825500000}, // unix milliseconds
	}
	for _, tc := range cases {
		got, err := parseTimestamp(tc.value)
		if err != nil {
			t.Errorf("parseTimestamp(%q) failed: %v", tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseTimestamp(%q): got %d, want %d", tc.value, got, tc.want)
		}
	}

	if _, err := parseTimestamp("not a time"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestLoadTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.csv")
	csv := "wallet,referrer,paid_at,amount,level\n" +
		"root,,2025/01/02 13:45,130,1\n" +
		"child,root,01/02/2025 14:00:30,130,\n" +
		"\n" +
		"other,root,1735828200,150,2\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	txs, err := loadTransactions(path)
	if err != nil {
		t.Fatalf("loadTransactions failed: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}

	first := txs[0]
	if first.Wallet != "root" || first.ReferrerWallet != "" || first.Amount != 130 || first.DeclaredLevel != 1 {
		t.Errorf("first row wrong: %+v", *first)
	}
	if want := time.Date(2025, 1, 2, 13, 45, 0, 0, time.UTC).UnixMilli(); first.PaymentTime != want {
		t.Errorf("first payment time: got %d, want %d", first.PaymentTime, want)
	}

	second := txs[1]
	if second.Wallet != "child" || second.ReferrerWallet != "root" || second.DeclaredLevel != 0 {
		t.Errorf("second row wrong: %+v", *second)
	}
	if want := time.Date(2025, 1, 2, 14, 0, 30, 0, time.UTC).UnixMilli(); second.PaymentTime != want {
		t.Errorf("second payment time: got %d, want %d", second.PaymentTime, want)
	}

	third := txs[2]
	if third.PaymentTime != 1735828200000 || third.DeclaredLevel != 2 {
		t.Errorf("third row wrong: %+v", *third)
	}

	// Stream indexes must be distinct and follow file order.
	if !(first.StreamIndex < second.StreamIndex && second.StreamIndex < third.StreamIndex) {
		t.Errorf("stream indexes out of order: %d %d %d",
			first.StreamIndex, second.StreamIndex, third.StreamIndex)
	}
}
