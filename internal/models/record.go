package models

import (
	"label-store/internal/label"
)

// Record represents a row of the example_models table
type Record struct {
	ID                 int64
	Label              label.Label
	LabelNullable      label.NullLabel
	LabelArray         []label.Label
	LabelArrayNullable label.NullLabels
}

// NewRecord returns the record that creating l produces before the database
// assigns an ID: the label itself, a one-element array holding the same
// label, and both nullable columns absent
func NewRecord(l label.Label) Record {
	return Record{
		Label:      l,
		LabelArray: []label.Label{l},
	}
}
