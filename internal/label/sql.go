package label

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

var errNullLabel = errors.New("label: cannot scan NULL into Label")

// Scan implements sql.Scanner. The stored text is validated like fresh
// input; a row holding an invalid label fails to scan.
func (l *Label) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return errNullLabel
	default:
		return fmt.Errorf("label: cannot scan %T into Label", src)
	}
	parsed, err := New(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Value implements driver.Valuer.
func (l Label) Value() (driver.Value, error) {
	s, err := TextCodec{}.Encode(l)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NullLabel is a Label that may be absent.
type NullLabel struct {
	Label Label
	Valid bool
}

// NullLabelOf returns a present NullLabel.
func NullLabelOf(l Label) NullLabel {
	return NullLabel{Label: l, Valid: true}
}

// Scan implements sql.Scanner. A failed scan leaves n absent.
func (n *NullLabel) Scan(src any) error {
	if src == nil {
		n.Label, n.Valid = Label{}, false
		return nil
	}
	var l Label
	if err := l.Scan(src); err != nil {
		n.Label, n.Valid = Label{}, false
		return err
	}
	n.Label, n.Valid = l, true
	return nil
}

// Value implements driver.Valuer.
func (n NullLabel) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Label.Value()
}

func (n NullLabel) String() string {
	if !n.Valid {
		return "NULL"
	}
	return n.Label.String()
}

// NullLabels is a label array that may be absent as a whole. Individual
// elements are never absent.
type NullLabels struct {
	Labels []Label
	Valid  bool
}

// NullLabelsOf returns a present NullLabels.
func NullLabelsOf(labels ...Label) NullLabels {
	if labels == nil {
		labels = []Label{}
	}
	return NullLabels{Labels: labels, Valid: true}
}
