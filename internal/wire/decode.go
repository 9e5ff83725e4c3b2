// Package wire holds the JSON representation of domain types.
//
// Encoding and decoding are written by hand against go-faster/jx; request
// decoders validate types and required fields so handlers only ever see
// well-formed input.
package wire

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ErrMalformed is the sentinel every *DecodeError unwraps to.
var ErrMalformed = errors.New("malformed request body")

// DecodeError reports which field of a request body could not be decoded.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid JSON: %v", e.Err)
	}
	return fmt.Sprintf("invalid field %q: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

func fieldErr(field string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Field: field, Err: err}
}

// decodeID accepts a string or an integer so that numeric ids sent by older
// clients still resolve.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		if !n.IsInt() {
			return "", errors.New("id must be an integer or a string")
		}
		return string(n), nil
	default:
		return "", errors.Errorf("unexpected %s", d.Next())
	}
}

// decodeInt requires a JSON integer.
func decodeInt(d *jx.Decoder) (int, error) {
	if d.Next() != jx.Number {
		return 0, errors.Errorf("expected integer, got %s", d.Next())
	}
	n, err := d.Num()
	if err != nil {
		return 0, err
	}
	if !n.IsInt() {
		return 0, errors.New("expected integer")
	}
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, errors.Wrap(err, "parse integer")
	}
	return v, nil
}

// decodeMoney accepts a JSON number or a numeric string.
func decodeMoney(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = string(n)
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		return decimal.Zero, errors.Errorf("expected number, got %s", d.Next())
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse amount")
	}
	return v, nil
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

func encodeMoney(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

// requireObject rejects bodies that are not JSON objects.
func requireObject(d *jx.Decoder) error {
	if d.Next() != jx.Object {
		return &DecodeError{Err: errors.Errorf("expected object, got %s", d.Next())}
	}
	return nil
}
