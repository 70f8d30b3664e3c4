// Package value implements the typed value codec: parsing/validating
// textual input into the six column types and serializing them back out
// for snapshot I/O (spec §3 "Value typing").
package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kasuganosora/hashbase/pkg/domain"
)

// Type enumerates the column data types spec §3 supports.
type Type string

const (
	Int      Type = "int"
	Float    Type = "float"
	Bool     Type = "bool"
	Char     Type = "char"
	String   Type = "string"
	Datetime Type = "datetime"
)

// DatetimeLayout is the fixed wire format for datetime values (spec §3/§6).
const DatetimeLayout = "2006-01-02 15:04:05"

// ValidType reports whether t names one of the six supported column types.
func ValidType(t string) bool {
	switch Type(t) {
	case Int, Float, Bool, Char, String, Datetime:
		return true
	}
	return false
}

// Coerce parses a raw textual (or already-typed) input into the Go
// representation for the given column type, grounded on oldengine.py's
// per-type conversion blocks in Database.insert:
//   - int: digit-string only (no sign, no leading/trailing junk)
//   - float: any string strconv can parse as a decimal
//   - bool: true/1/t/y/yes vs false/0/f/n/no, case-insensitive
//   - char: exactly one rune
//   - datetime: "YYYY-MM-DD HH:MM:SS"
//   - string: verbatim after stripping one outer pair of quotes
func Coerce(column string, t Type, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case int64:
		if t == Int {
			return v, nil
		}
	case float64:
		if t == Float {
			return v, nil
		}
	case bool:
		if t == Bool {
			return v, nil
		}
	case time.Time:
		if t == Datetime {
			return v, nil
		}
	}

	s, ok := raw.(string)
	if !ok {
		s = fmt.Sprintf("%v", raw)
	}
	verbatim := s
	s = strings.TrimSpace(s)

	switch t {
	case Int:
		if s == "" || !isDigits(s) {
			return nil, &domain.ErrValueCoercion{Column: column, Type: string(t), Value: s}
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &domain.ErrValueCoercion{Column: column, Type: string(t), Value: s}
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &domain.ErrValueCoercion{Column: column, Type: string(t), Value: s}
		}
		return f, nil
	case Bool:
		switch strings.ToLower(s) {
		case "true", "1", "t", "y", "yes":
			return true, nil
		case "false", "0", "f", "n", "no":
			return false, nil
		}
		return nil, &domain.ErrValueCoercion{Column: column, Type: string(t), Value: s}
	case Char:
		r := []rune(s)
		if len(r) != 1 {
			return nil, &domain.ErrValueCoercion{Column: column, Type: string(t), Value: s}
		}
		return string(r[0]), nil
	case Datetime:
		ts, err := time.Parse(DatetimeLayout, s)
		if err != nil {
			return nil, &domain.ErrValueCoercion{Column: column, Type: string(t), Value: s}
		}
		return ts, nil
	case String:
		return unquote(verbatim), nil
	}
	return nil, &domain.ErrUnsupportedType{Type: string(t)}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// unquote strips one outer pair of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Format renders a typed value back to its snapshot wire form.
func Format(v interface{}) string {
	switch tv := v.(type) {
	case time.Time:
		return tv.Format(DatetimeLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}
