package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgtype"

	"label-store/internal/label"
)

var errNullText = errors.New("unexpected NULL for a label")

// textCodec maps labels onto pgx's text representation. Decoding validates,
// so rows written outside this package cannot produce invalid labels.
type textCodec struct{}

var _ label.Codec[pgtype.Text] = textCodec{}

func (textCodec) Encode(l label.Label) (pgtype.Text, error) {
	s, err := label.TextCodec{}.Encode(l)
	if err != nil {
		return pgtype.Text{}, err
	}
	return pgtype.Text{String: s, Valid: true}, nil
}

func (textCodec) Decode(t pgtype.Text) (label.Label, error) {
	if !t.Valid {
		return label.Label{}, errNullText
	}
	return label.New(t.String)
}

// nullableText turns SQL NULL into a nil pointer for label.DecodeNullable
func nullableText(t pgtype.Text) *pgtype.Text {
	if !t.Valid {
		return nil
	}
	return &t
}
