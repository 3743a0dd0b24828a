package entity

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateLabel     = errors.New("duplicate label")
	ErrDuplicateLabelName = errors.New("duplicate label name")
)

type LabelRow struct {
	Label     int    `json:"label"`
	LabelName string `json:"label_name"`
}

// LabelMapping maps the model's output class index to an intent name.
// Rows keep file order; lookups go through the index.
type LabelMapping struct {
	rows    []LabelRow
	byLabel map[int]int
}

func NewLabelMapping(rows []LabelRow) (LabelMapping, error) {
	mapping := LabelMapping{
		rows:    make([]LabelRow, 0, len(rows)),
		byLabel: make(map[int]int, len(rows)),
	}
	names := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if _, exists := mapping.byLabel[row.Label]; exists {
			return LabelMapping{}, fmt.Errorf("%w: %d", ErrDuplicateLabel, row.Label)
		}
		if _, exists := names[row.LabelName]; exists {
			return LabelMapping{}, fmt.Errorf("%w: %q", ErrDuplicateLabelName, row.LabelName)
		}
		names[row.LabelName] = struct{}{}
		mapping.byLabel[row.Label] = len(mapping.rows)
		mapping.rows = append(mapping.rows, row)
	}

	return mapping, nil
}

func (m LabelMapping) Find(label int) (LabelRow, bool) {
	idx, ok := m.byLabel[label]
	if !ok {
		return LabelRow{}, false
	}
	return m.rows[idx], true
}

func (m LabelMapping) Rows() []LabelRow {
	out := make([]LabelRow, len(m.rows))
	copy(out, m.rows)
	return out
}

func (m LabelMapping) Len() int {
	return len(m.rows)
}

// ResponseTable maps an intent name to its canned reply.
type ResponseTable map[string]string

func (t ResponseTable) Lookup(labelName string) (string, bool) {
	response, ok := t[labelName]
	return response, ok
}
