// Package variable defines the canonical token namespace used by payroll
// formulas: normalization of human labels into tokens and token sets with
// a disjoint merge.
package variable

import (
	"errors"
	"strings"
	"unicode"
)

const (
	delimiter = "__"
	separator = "_"
)

// ErrEmptyLabel is returned when a label contains no ASCII letters or digits.
var ErrEmptyLabel = errors.New("label is empty")

// Token is the canonical identity a formula uses to reference a quantity,
// e.g. __BASIC_SALARY__.
type Token string

func (t Token) String() string {
	return string(t)
}

// Normalize converts a human readable label into a Token.
//
// Runs of anything other than ASCII letters and digits collapse to a single
// separator, letters are upper-cased and the result is wrapped in the token delimiter. Each
// suffix is normalized the same way and appended before the closing
// delimiter:
//
//	Normalize("Basic  salary")        // __BASIC_SALARY__
//	Normalize("Basic Salary", "ytd")  // __BASIC_SALARY_YTD__
//
// Normalizing a token yields the same token.
func Normalize(label string, suffixes ...string) (Token, error) {
	words := Words(label)
	if len(words) == 0 {
		return "", ErrEmptyLabel
	}

	for _, suffix := range suffixes {
		words = append(words, Words(suffix)...)
	}

	return Token(delimiter + strings.ToUpper(strings.Join(words, separator)) + delimiter), nil
}

// MustNormalize is like Normalize but panics on an empty label. It is meant
// for labels fixed at compile time.
func MustNormalize(label string, suffixes ...string) Token {
	tok, err := Normalize(label, suffixes...)
	if err != nil {
		panic(err)
	}
	return tok
}

// Denormalize returns a label which normalizes back to t.
func Denormalize(t Token) string {
	return strings.Join(Words(string(t)), " ")
}

// CollapseLabel returns label with every run of separators replaced by a
// single space and surrounding separators removed.
func CollapseLabel(label string) string {
	return strings.Join(Words(label), " ")
}

// Words splits label on any rune outside [A-Za-z0-9].
func Words(label string) []string {
	return strings.FieldsFunc(label, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
