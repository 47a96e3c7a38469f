package user

import (
	"errors"
	"testing"

	"github.com/ingelean/leanbot/internal/domain"
)

func TestParseDocID_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want DocID
	}{
		{"1234567", 1234567},
		{"  98765 ", 98765},
		{"12-345 678", 12345678},
	}
	for _, tc := range tests {
		got, err := ParseDocID(tc.in)
		if err != nil {
			t.Errorf("ParseDocID(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDocID(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDocID_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"12",
		"1.234",
		"abc123",
		"000",
		"12345678901234567890123",
	}
	for _, in := range inputs {
		_, err := ParseDocID(in)
		if err == nil {
			t.Errorf("ParseDocID(%q) expected error", in)
			continue
		}
		if !errors.Is(err, domain.ErrInvalidDocID) {
			t.Errorf("ParseDocID(%q) error should wrap ErrInvalidDocID, got %v", in, err)
		}
	}
}

func TestDocID_String(t *testing.T) {
	if DocID(42).String() != "42" {
		t.Errorf("String() = %q", DocID(42).String())
	}
}
