package suggestionRepository

import (
	"AIService/internal/entity"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadLabelMapping(t *testing.T) {
	t.Run("Columns are matched by header name", func(t *testing.T) {
		req := require.New(t)
		path := writeFile(t, "label_mapping.csv", "label_name,label\ngreeting,0\nbalance_inquiry,3\n")

		mapping, err := LoadLabelMapping(path)

		req.NoError(err)
		req.Equal(2, mapping.Len())
		row, ok := mapping.Find(3)
		req.True(ok)
		req.Equal("balance_inquiry", row.LabelName)
		_, ok = mapping.Find(1)
		req.False(ok)
	})

	t.Run("Extra columns and blank lines are ignored", func(t *testing.T) {
		req := require.New(t)
		path := writeFile(t, "label_mapping.csv", "\ufefflabel,label_name,notes\n0,greeting,hi\n\n1,card_block,\n")

		mapping, err := LoadLabelMapping(path)

		req.NoError(err)
		req.Equal([]entity.LabelRow{
			{Label: 0, LabelName: "greeting"},
			{Label: 1, LabelName: "card_block"},
		}, mapping.Rows())
	})

	tests := []struct {
		name    string
		content string
		match   string
	}{
		{name: "Missing column", content: "label,name\n0,greeting\n", match: `missing column "label_name"`},
		{name: "Non integer label", content: "label,label_name\nzero,greeting\n", match: "line 2"},
		{name: "Duplicate label", content: "label,label_name\n0,greeting\n0,farewell\n", match: "duplicate label"},
		{name: "Duplicate label name", content: "label,label_name\n0,greeting\n1,greeting\n", match: "duplicate label name"},
		{name: "Empty file", content: "", match: "file is empty"},
		{name: "Short row", content: "label,label_name\n0\n", match: "missing value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			path := writeFile(t, "label_mapping.csv", tt.content)

			_, err := LoadLabelMapping(path)

			req.ErrorIs(err, ErrInvalidLabelMapping)
			req.Contains(err.Error(), tt.match)
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		req := require.New(t)

		_, err := LoadLabelMapping(filepath.Join(t.TempDir(), "nope.csv"))

		req.ErrorIs(err, ErrInvalidLabelMapping)
		req.ErrorIs(err, os.ErrNotExist)
	})
}

func TestLoadResponseTable(t *testing.T) {
	t.Run("Quoted responses keep commas and newlines", func(t *testing.T) {
		req := require.New(t)
		path := writeFile(t, "responses.csv", "label_name,response\n"+
			"balance_inquiry,Your balance is shown on the dashboard.\n"+
			"card_block,\"Sure, I can block your card.\nPlease confirm.\"\n"+
			"greeting,\"Say \"\"hi\"\"\"\n")

		table, err := LoadResponseTable(path)

		req.NoError(err)
		req.Len(table, 3)
		req.Equal("Your balance is shown on the dashboard.", table["balance_inquiry"])
		req.Equal("Sure, I can block your card.\nPlease confirm.", table["card_block"])
		req.Equal(`Say "hi"`, table["greeting"])
	})

	t.Run("Duplicate label name", func(t *testing.T) {
		req := require.New(t)
		path := writeFile(t, "responses.csv", "label_name,response\ngreeting,Hi\ngreeting,Hello\n")

		_, err := LoadResponseTable(path)

		req.ErrorIs(err, ErrInvalidResponseTable)
		req.ErrorIs(err, entity.ErrDuplicateLabelName)
		req.Contains(err.Error(), "line 3")
	})

	t.Run("Missing response column", func(t *testing.T) {
		req := require.New(t)
		path := writeFile(t, "responses.csv", "label_name,text\ngreeting,Hi\n")

		_, err := LoadResponseTable(path)

		req.ErrorIs(err, ErrInvalidResponseTable)
	})
}

func TestLoad(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	t.Run("Both tables", func(t *testing.T) {
		req := require.New(t)
		mappingPath := writeFile(t, "label_mapping.csv", "label,label_name\n3,balance_inquiry\n4,unanswered\n")
		responsePath := writeFile(t, "responses.csv", "label_name,response\nbalance_inquiry,Your balance is shown on the dashboard.\n")

		store, err := Load(log, mappingPath, responsePath)

		req.NoError(err)
		req.Equal(2, store.Mapping.Len())
		resp, ok := store.Table.Lookup("balance_inquiry")
		req.True(ok)
		req.Equal("Your balance is shown on the dashboard.", resp)
	})

	t.Run("Broken response file", func(t *testing.T) {
		req := require.New(t)
		mappingPath := writeFile(t, "label_mapping.csv", "label,label_name\n3,balance_inquiry\n")

		store, err := Load(log, mappingPath, filepath.Join(t.TempDir(), "missing.csv"))

		req.Nil(store)
		req.ErrorIs(err, ErrInvalidResponseTable)
	})
}

func TestStore_CheckModelLabels(t *testing.T) {
	mapping, err := entity.NewLabelMapping([]entity.LabelRow{
		{Label: 0, LabelName: "greeting"},
		{Label: 1, LabelName: "card_block"},
		{Label: 2, LabelName: "balance_inquiry"},
	})
	require.NoError(t, err)
	store := New(mapping, entity.ResponseTable{})

	tests := []struct {
		name     string
		id2label map[int]string
		expected []LabelDrift
	}{
		{name: "No model labels", id2label: nil, expected: nil},
		{
			name:     "Names agree",
			id2label: map[int]string{0: "greeting", 1: "card_block", 2: "balance_inquiry"},
			expected: nil,
		},
		{
			name:     "Generic names are skipped",
			id2label: map[int]string{0: "LABEL_0", 1: "LABEL_1", 2: "balance_inquiry"},
			expected: nil,
		},
		{
			name:     "Renamed and missing indices",
			id2label: map[int]string{0: "greeting", 1: "freeze_card", 3: "loan_offer"},
			expected: []LabelDrift{
				{Label: 1, ModelName: "freeze_card", MappedName: "card_block"},
				{Label: 2, MappedName: "balance_inquiry"},
				{Label: 3, ModelName: "loan_offer"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tt.expected, store.CheckModelLabels(tt.id2label))
		})
	}
}
