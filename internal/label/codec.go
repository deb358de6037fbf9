package label

// Codec converts labels to and from a backend's storage representation S.
// Decode must run the same validation as New: stored values are not trusted.
type Codec[S any] interface {
	Encode(l Label) (S, error)
	Decode(s S) (Label, error)
}

// TextCodec stores a label as its plain text.
type TextCodec struct{}

func (TextCodec) Encode(l Label) (string, error) {
	if l.IsZero() {
		return "", &ValidationError{Offset: -1}
	}
	return l.value, nil
}

func (TextCodec) Decode(s string) (Label, error) {
	return New(s)
}

// EncodeNullable encodes an optional label. Absence is a nil pointer.
func EncodeNullable[S any](c Codec[S], l NullLabel) (*S, error) {
	if !l.Valid {
		return nil, nil
	}
	s, err := c.Encode(l.Label)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeNullable decodes an optional stored value. A nil pointer yields an
// invalid NullLabel without calling the codec.
func DecodeNullable[S any](c Codec[S], s *S) (NullLabel, error) {
	if s == nil {
		return NullLabel{}, nil
	}
	l, err := c.Decode(*s)
	if err != nil {
		return NullLabel{}, err
	}
	return NullLabel{Label: l, Valid: true}, nil
}

// EncodeArray encodes each label in order.
func EncodeArray[S any](c Codec[S], labels []Label) ([]S, error) {
	out := make([]S, 0, len(labels))
	for i, l := range labels {
		s, err := c.Encode(l)
		if err != nil {
			return nil, &ElementError{Index: i, Err: err}
		}
		out = append(out, s)
	}
	return out, nil
}

// DecodeArray decodes each stored element in order. One bad element fails
// the whole array.
func DecodeArray[S any](c Codec[S], ss []S) ([]Label, error) {
	labels := make([]Label, 0, len(ss))
	for i, s := range ss {
		l, err := c.Decode(s)
		if err != nil {
			return nil, &ElementError{Index: i, Err: err}
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// EncodeNullableArray encodes an optional array. Absence is a nil pointer.
func EncodeNullableArray[S any](c Codec[S], labels NullLabels) (*[]S, error) {
	if !labels.Valid {
		return nil, nil
	}
	ss, err := EncodeArray(c, labels.Labels)
	if err != nil {
		return nil, err
	}
	return &ss, nil
}

// DecodeNullableArray decodes an optional stored array. A nil pointer yields
// an invalid NullLabels without calling the codec.
func DecodeNullableArray[S any](c Codec[S], ss *[]S) (NullLabels, error) {
	if ss == nil {
		return NullLabels{}, nil
	}
	labels, err := DecodeArray(c, *ss)
	if err != nil {
		return NullLabels{}, err
	}
	return NullLabels{Labels: labels, Valid: true}, nil
}
