package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/efield/internal/charge"
	"github.com/shopspring/decimal"
)

// Ext is the conventional arrangement file extension.
const Ext = ".efd"

var (
	ErrExtension = errors.New("storage: arrangement files must use the " + Ext + " extension")
	ErrNonFinite = errors.New("storage: cannot encode a non-finite number")
)

// Arrangement is a charge set together with its optional stop time.
type Arrangement struct {
	StopTime *float64
	Charges  charge.Set
}

// FileFormatError reports a malformed arrangement file.
type FileFormatError struct {
	Line   int
	Reason string
	Err    error
}

func (e *FileFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// FormatNumber renders v without a decimal point when integral and
// otherwise with trailing zeros stripped. Negative zero is written as "0".
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).String()
}

// Encode writes the arrangement in the .efd text format.
func Encode(w io.Writer, arr *Arrangement) error {
	bw := bufio.NewWriter(w)

	stop := ""
	if arr.StopTime != nil {
		if err := finite(*arr.StopTime); err != nil {
			return err
		}
		stop = FormatNumber(*arr.StopTime)
	}
	if _, err := fmt.Fprintln(bw, stop); err != nil {
		return err
	}

	for _, c := range arr.Charges {
		var fields []float64
		tag := "f"
		if c.IsMovable() {
			tag = "m"
			fields = []float64{c.Q(), c.Pos0().X, c.Pos0().Y, c.Vel0().X, c.Vel0().Y}
		} else {
			fields = []float64{c.Q(), c.Pos().X, c.Pos().Y}
		}

		parts := make([]string, 0, len(fields)+1)
		parts = append(parts, tag)
		for _, v := range fields {
			if err := finite(v); err != nil {
				return err
			}
			parts = append(parts, FormatNumber(v))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(parts, " ")); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Decode reads an arrangement in file order. Any malformed line fails the
// whole decode; no partial arrangement is returned.
func Decode(r io.Reader) (*Arrangement, error) {
	sc := bufio.NewScanner(r)
	arr := &Arrangement{Charges: make(charge.Set, 0)}

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, &FileFormatError{Line: 1, Reason: "missing stop time line"}
	}

	if s := strings.TrimSpace(sc.Text()); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &FileFormatError{Line: 1, Reason: "bad stop time", Err: err}
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &FileFormatError{Line: 1, Reason: "stop time out of range"}
		}
		arr.StopTime = &v
	}

	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		c, err := decodeCharge(text)
		if err != nil {
			err.Line = line
			return nil, err
		}
		arr.Charges = append(arr.Charges, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return arr, nil
}

func decodeCharge(text string) (*charge.Charge, *FileFormatError) {
	fields := strings.Fields(text)

	var want int
	switch fields[0] {
	case "f":
		want = 4
	case "m":
		want = 6
	default:
		return nil, &FileFormatError{Reason: fmt.Sprintf("unknown charge type %q", fields[0])}
	}
	if len(fields) != want {
		return nil, &FileFormatError{Reason: fmt.Sprintf("%s charge needs %d fields, got %d", fields[0], want-1, len(fields)-1)}
	}

	nums := make([]float64, 0, want-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &FileFormatError{Reason: "bad number", Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &FileFormatError{Reason: fmt.Sprintf("non-finite number %q", f)}
		}
		nums = append(nums, v)
	}

	if fields[0] == "f" {
		return charge.NewFixed(nums[0], nums[1], nums[2]), nil
	}
	return charge.NewMovable(nums[0], nums[1], nums[2], nums[3], nums[4]), nil
}

func finite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNonFinite
	}
	return nil
}
