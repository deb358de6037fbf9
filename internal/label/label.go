// Package label defines Label, a validated alphanumeric string, and the
// codecs that move it in and out of storage.
package label

import (
	"strings"
	"unicode"
)

// Label is a non-empty string made only of Unicode alphabetic and numeric
// characters.
// The zero value is not a valid label; construct labels with New.
type Label struct {
	value string
}

// New validates s and returns it as a Label. The text is kept exactly as
// given: no trimming, case folding or normalization.
func New(s string) (Label, error) {
	if s == "" {
		return Label{}, &ValidationError{Input: s, Offset: -1}
	}
	for i, r := range s {
		if !isAlphanumeric(r) {
			return Label{}, &ValidationError{Input: s, Offset: i, Rune: r}
		}
	}
	return Label{value: s}, nil
}

// MustNew is like New but panics if s is not a valid label.
func MustNew(s string) Label {
	l, err := New(s)
	if err != nil {
		panic(err)
	}
	return l
}

// IsValid reports whether s would be accepted by New.
func IsValid(s string) bool {
	_, err := New(s)
	return err == nil
}

// isAlphanumeric is the Unicode Alphabetic or Numeric property: letters,
// letter numbers, dependent vowel signs (Other_Alphabetic) and every number
// category. Invalid UTF-8 decodes to utf8.RuneError, which is neither.
func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Other_Alphabetic, r)
}

// String returns the underlying text.
func (l Label) String() string {
	return l.value
}

// IsZero reports whether l is the zero Label, i.e. was never constructed.
func (l Label) IsZero() bool {
	return l.value == ""
}

// Compare orders labels by their underlying text.
func Compare(a, b Label) int {
	return strings.Compare(a.value, b.value)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	if l.IsZero() {
		return nil, &ValidationError{Input: "", Offset: -1}
	}
	return []byte(l.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The text is validated
// the same way New validates it.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := New(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseAll validates every element of ss. It fails on the first invalid
// element and never returns a partial slice.
func ParseAll(ss []string) ([]Label, error) {
	labels := make([]Label, 0, len(ss))
	for i, s := range ss {
		l, err := New(s)
		if err != nil {
			return nil, &ElementError{Index: i, Err: err}
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// Strings returns the underlying text of each label, in order.
func Strings(labels []Label) []string {
	ss := make([]string, len(labels))
	for i, l := range labels {
		ss[i] = l.value
	}
	return ss
}
