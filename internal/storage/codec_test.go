package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/efield/internal/charge"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{40, "40"},
		{-3, "-3"},
		{0.5, "0.5"},
		{2.50, "2.5"},
		{-0.0, "0"},
		{0, "0"},
		{123.456, "123.456"},
		{0.00001, "0.00001"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	stop := 10.0
	m := charge.NewMovable(-1.5, 40, 80, 0.25, -0.5)
	// Moving a charge during a run must not change what gets saved.
	m.Advance(m.Velocity())

	arr := &Arrangement{
		StopTime: &stop,
		Charges:  charge.Set{charge.NewFixed(1, 0, 0), m},
	}

	var b strings.Builder
	if err := Encode(&b, arr); err != nil {
		t.Fatal(err)
	}

	want := "10\nf 1 0 0\nm -1.5 40 80 0.25 -0.5\n"
	if b.String() != want {
		t.Errorf("Encode() =\n%q\nwant\n%q", b.String(), want)
	}
}

func TestEncodeNoStopTime(t *testing.T) {
	var b strings.Builder
	if err := Encode(&b, &Arrangement{}); err != nil {
		t.Fatal(err)
	}
	if b.String() != "\n" {
		t.Errorf("Encode(empty) = %q", b.String())
	}
}

func TestRoundTrip(t *testing.T) {
	stop := 12.5
	orig := &Arrangement{
		StopTime: &stop,
		Charges: charge.Set{
			charge.NewMovable(2, 100.5, 60, 0, 0),
			charge.NewFixed(-3.25, 200, 120),
			charge.NewMovable(0, 10, 10, -1.125, 0.333),
			charge.NewFixed(0.001, -40, -0.5),
		},
	}

	var b strings.Builder
	if err := Encode(&b, orig); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.StopTime == nil || *got.StopTime != stop {
		t.Errorf("stop time = %v", got.StopTime)
	}
	if len(got.Charges) != len(orig.Charges) {
		t.Fatalf("decoded %d charges, want %d", len(got.Charges), len(orig.Charges))
	}
	for i, want := range orig.Charges {
		c := got.Charges[i]
		if c.Kind() != want.Kind() || c.Q() != want.Q() || c.Pos0() != want.Pos0() || c.Vel0() != want.Vel0() {
			t.Errorf("charge %d: got %v, want %v", i, c, want)
		}
		if c.Pos() != want.Pos0() || c.Velocity() != want.Vel0() {
			t.Errorf("charge %d not at its initial state: %v", i, c)
		}
	}
}

func TestDecodeBlankStopTime(t *testing.T) {
	arr, err := Decode(strings.NewReader("\nf 1 40 40\n\n"))
	if err != nil {
		t.Fatal(err)
	}
	if arr.StopTime != nil {
		t.Errorf("expected no stop time, got %v", *arr.StopTime)
	}
	if len(arr.Charges) != 1 || arr.Charges[0].IsMovable() {
		t.Errorf("unexpected charges: %v", arr.Charges)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"empty file", "", 1},
		{"bad stop time", "soon\n", 1},
		{"negative stop time", "-2\n", 1},
		{"unknown type", "\nq 1 2 3\n", 2},
		{"truncated fixed", "\nf 1 2\n", 2},
		{"truncated movable", "5\nf 1 2 3\nm 1 2 3 4\n", 3},
		{"extra fields", "\nf 1 2 3 4\n", 2},
		{"bad number", "\nm 1 2 x 0 0\n", 2},
		{"nan", "\nf NaN 0 0\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := Decode(strings.NewReader(tt.input))
			if arr != nil {
				t.Error("expected no partial arrangement")
			}
			var fe *FileFormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FileFormatError, got %v", err)
			}
			if fe.Line != tt.line {
				t.Errorf("error on line %d, want %d (%v)", fe.Line, tt.line, err)
			}
		})
	}
}
