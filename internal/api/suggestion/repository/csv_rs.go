package suggestionRepository

import (
	"AIService/internal/entity"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	labelColumn     = "label"
	labelNameColumn = "label_name"
	responseColumn  = "response"
)

// LoadLabelMapping reads a CSV with at least the columns label and label_name.
func LoadLabelMapping(path string) (entity.LabelMapping, error) {
	var rows []entity.LabelRow

	err := readTable(path, []string{labelColumn, labelNameColumn}, func(line int, values map[string]string) error {
		label, err := strconv.Atoi(values[labelColumn])
		if err != nil {
			return fmt.Errorf("label %q is not an integer", values[labelColumn])
		}
		rows = append(rows, entity.LabelRow{
			Label:     label,
			LabelName: values[labelNameColumn],
		})
		return nil
	})
	if err != nil {
		return entity.LabelMapping{}, wrapTableError(ErrInvalidLabelMapping, path, err)
	}

	mapping, err := entity.NewLabelMapping(rows)
	if err != nil {
		return entity.LabelMapping{}, wrapFileError(ErrInvalidLabelMapping, path, 0, err)
	}
	return mapping, nil
}

// LoadResponseTable reads a CSV with at least the columns label_name and response.
func LoadResponseTable(path string) (entity.ResponseTable, error) {
	table := entity.ResponseTable{}

	err := readTable(path, []string{labelNameColumn, responseColumn}, func(line int, values map[string]string) error {
		name := values[labelNameColumn]
		if _, exists := table[name]; exists {
			return fmt.Errorf("%w: %q", entity.ErrDuplicateLabelName, name)
		}
		table[name] = values[responseColumn]
		return nil
	})
	if err != nil {
		return nil, wrapTableError(ErrInvalidResponseTable, path, err)
	}

	return table, nil
}

type lineError struct {
	line int
	err  error
}

func (e *lineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.line, e.err)
}

func (e *lineError) Unwrap() error {
	return e.err
}

func wrapTableError(kind error, path string, err error) error {
	var le *lineError
	if errors.As(err, &le) {
		return wrapFileError(kind, path, le.line, le.err)
	}
	return wrapFileError(kind, path, 0, err)
}

// readTable streams a headed CSV file and calls fn with the required columns of
// every data row. Column order is taken from the header.
func readTable(path string, required []string, fn func(line int, values map[string]string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("file is empty")
	}
	if err != nil {
		return err
	}

	positions := make(map[string]int, len(required))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}
	for _, name := range required {
		if _, ok := positions[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		values := make(map[string]string, len(required))
		for _, name := range required {
			pos := positions[name]
			if pos >= len(record) {
				return &lineError{line: line, err: fmt.Errorf("missing value for column %q", name)}
			}
			values[name] = strings.TrimSpace(record[pos])
		}

		if err := fn(line, values); err != nil {
			return &lineError{line: line, err: err}
		}
	}
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
