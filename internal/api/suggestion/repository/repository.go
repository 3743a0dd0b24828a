package suggestionRepository

import (
	"AIService/internal/entity"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"slices"
)

var (
	ErrInvalidLabelMapping  = errors.New("invalid label mapping file")
	ErrInvalidResponseTable = errors.New("invalid response table file")
)

// Store holds the two lookup tables. It is built once at start-up and never
// written afterwards, so concurrent readers need no locking.
type Store struct {
	Mapping entity.LabelMapping
	Table   entity.ResponseTable
}

func New(mapping entity.LabelMapping, table entity.ResponseTable) *Store {
	return &Store{
		Mapping: mapping,
		Table:   table,
	}
}

// Load reads the label mapping and response table files.
func Load(log *logrus.Logger, labelMappingPath, responsePath string) (*Store, error) {
	mapping, err := LoadLabelMapping(labelMappingPath)
	if err != nil {
		return nil, err
	}

	table, err := LoadResponseTable(responsePath)
	if err != nil {
		return nil, err
	}

	missing := 0
	for _, row := range mapping.Rows() {
		if _, ok := table.Lookup(row.LabelName); !ok {
			missing++
			log.WithFields(logrus.Fields{
				"label":      row.Label,
				"label_name": row.LabelName,
			}).Warn("Label has no canned response")
		}
	}

	log.WithFields(logrus.Fields{
		"labels":            mapping.Len(),
		"responses":         len(table),
		"labels_without_rs": missing,
		"label_mapping":     labelMappingPath,
		"responses_file":    responsePath,
	}).Info("Intent tables loaded")

	return New(mapping, table), nil
}

// LabelDrift is one index where the model's own label name and the mapping
// file disagree. An empty name means that side has no entry for the index.
type LabelDrift struct {
	Label      int
	ModelName  string
	MappedName string
}

// CheckModelLabels compares the model's id2label with the mapping file.
// Generic LABEL_<n> names carry no meaning and are skipped.
func (s *Store) CheckModelLabels(id2label map[int]string) []LabelDrift {
	if len(id2label) == 0 {
		return nil
	}

	var drift []LabelDrift
	for label, modelName := range id2label {
		if modelName == fmt.Sprintf("LABEL_%d", label) {
			continue
		}
		row, ok := s.Mapping.Find(label)
		if !ok {
			drift = append(drift, LabelDrift{Label: label, ModelName: modelName})
			continue
		}
		if row.LabelName != modelName {
			drift = append(drift, LabelDrift{Label: label, ModelName: modelName, MappedName: row.LabelName})
		}
	}
	for _, row := range s.Mapping.Rows() {
		if _, ok := id2label[row.Label]; !ok {
			drift = append(drift, LabelDrift{Label: row.Label, MappedName: row.LabelName})
		}
	}

	slices.SortFunc(drift, func(a, b LabelDrift) int { return a.Label - b.Label })
	return drift
}

func wrapFileError(kind error, path string, line int, err error) error {
	if line > 0 {
		return fmt.Errorf("%w: %s line %d: %w", kind, path, line, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, path, err)
}
