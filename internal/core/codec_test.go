package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeSnapshotValid(t *testing.T) {
	data := []byte(`{
		"expenses": [{"id":"e1","date":"2025-01-10","description":"bus","category":"Transport","amount":2800,"paymentMethod":"Cash"}],
		"incomes": [{"id":"i1","date":"2025-01-01","description":"salary","amount":5000000,"source":"Salary"}],
		"cdts": [],
		"lastSync": "2025-01-15 09:30:00"
	}`)

	s, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(s.Expenses) != 1 || len(s.Incomes) != 1 || len(s.CDTs) != 0 {
		t.Fatalf("unexpected counts: %d %d %d", len(s.Expenses), len(s.Incomes), len(s.CDTs))
	}
	if s.CDTs == nil {
		t.Fatalf("empty sequence should be non-nil")
	}
	if s.LastSync != "2025-01-15 09:30:00" {
		t.Fatalf("lastSync lost: %q", s.LastSync)
	}
	if s.Expenses[0].Amount.String() != "2800" {
		t.Fatalf("amount mangled: %s", s.Expenses[0].Amount)
	}
}

func TestDecodeSnapshotMissingKeys(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		missing []string
	}{
		{"no cdts", `{"expenses":[],"incomes":[]}`, []string{"cdts"}},
		{"null counts as missing", `{"expenses":[],"incomes":null,"cdts":[]}`, []string{"incomes"}},
		{"empty object", `{}`, []string{"expenses", "incomes", "cdts"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tc.data))
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if len(formatErr.Missing) != len(tc.missing) {
				t.Fatalf("expected missing %v, got %v", tc.missing, formatErr.Missing)
			}
			for i, key := range tc.missing {
				if formatErr.Missing[i] != key {
					t.Fatalf("expected missing %v, got %v", tc.missing, formatErr.Missing)
				}
			}
		})
	}
}

func TestDecodeSnapshotMalformedJSON(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"expenses": [`))
	if err == nil {
		t.Fatalf("expected error")
	}
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		t.Fatalf("syntax errors must not be FormatError")
	}
}

func TestEncodeSnapshotNormalizesNilSequences(t *testing.T) {
	data, err := EncodeSnapshot(Snapshot{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, key := range []string{`"expenses":[]`, `"incomes":[]`, `"cdts":[]`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("missing %s in %s", key, data)
		}
	}
	if strings.Contains(string(data), "lastSync") {
		t.Fatalf("empty lastSync should be omitted: %s", data)
	}
}
